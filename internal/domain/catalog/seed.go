package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/shopify"
	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
	"github.com/andipetruzz/modalrecomendacoes/pkg/metrics"
)

// CurationTable maps a quiz-category id to its ordered list of product
// handles. The table comes from the caller, not from runtime data.
type CurationTable map[string][]string

// SeedResult reports how much of the curation table actually landed.
type SeedResult struct {
	Requested int `json:"requested"`
	Resolved  int `json:"resolved"`
}

// Seed resolves table's handles through the product collaborator and
// persists the resulting mapping as the complete replacement of the store's
// catalog. Resolution is best-effort: a handle that fails to resolve is
// logged, skipped, and absent from every category that listed it. Each
// distinct handle is resolved exactly once.
func (s *Store) Seed(ctx context.Context, storeID string, table CurationTable) (SeedResult, error) {
	if s.resolver == nil {
		return SeedResult{}, ErrNoResolver
	}
	store, err := s.reg.Resolve(storeID)
	if err != nil {
		return SeedResult{}, err
	}

	runID := uuid.NewString()
	log := s.log.Named("seed")

	// Distinct handles across all categories, in first-seen order.
	seen := make(map[string]bool)
	distinct := make([]string, 0)
	for _, handles := range table {
		for _, h := range handles {
			if !seen[h] {
				seen[h] = true
				distinct = append(distinct, h)
			}
		}
	}

	resolved := make(map[string]ProductRef, len(distinct))
	failed := 0
	for _, handle := range distinct {
		p, err := s.resolver.ResolveByHandle(ctx, handle)
		if err != nil {
			failed++
			log.Warn(ctx, "handle resolution failed",
				logger.String("run", runID),
				logger.String("handle", handle),
				logger.Error(err),
			)
			continue
		}
		resolved[handle] = ProductRef{
			Name:      p.Title,
			Handle:    p.Handle,
			Image:     p.ImageURL,
			Price:     p.Price,
			Currency:  p.Currency,
			VariantID: p.VariantID,
		}
	}

	data := Catalog{}
	for category, handles := range table {
		if !s.validCategory(store, category) {
			return SeedResult{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
		}
		entries := make([]ProductRef, 0, len(handles))
		for _, h := range handles {
			if p, ok := resolved[h]; ok {
				entries = append(entries, p)
			}
		}
		data[category] = entries
	}

	if err := s.persist(ctx, store, data); err != nil {
		return SeedResult{}, err
	}

	result := SeedResult{Requested: len(distinct), Resolved: len(resolved)}
	metrics.RecordCatalogMutation("seed")
	metrics.RecordSeedResolved(result.Resolved)
	metrics.RecordSeedFailed(failed)
	log.Info(ctx, "quiz catalog seeded",
		logger.String("run", runID),
		logger.String("store", storeID),
		logger.Int("requested", result.Requested),
		logger.Int("resolved", result.Resolved),
	)
	return result, nil
}

// compile-time check that the shopify client satisfies the resolver contract.
var _ shopify.Resolver = (*shopify.Client)(nil)
