// Package catalog owns the per-store mapping of category to ordered product
// list, for both the main recommendation catalog and the quiz catalog.
//
// The whole mapping is read, mutated in memory, and rewritten as one value
// per backing-store key. Concurrent writers to the same store race and the
// later write wins; that is the accepted contract for a single admin actor.
package catalog

import (
	"context"
	"fmt"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/shopify"
	"github.com/andipetruzz/modalrecomendacoes/internal/registry"
	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
	"github.com/andipetruzz/modalrecomendacoes/pkg/metrics"
)

// ProductRef is a denormalized snapshot of one product at curation time.
// Handle is the natural key within a category.
type ProductRef struct {
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	Image     string `json:"image,omitempty"`
	Price     string `json:"price,omitempty"`
	Currency  string `json:"currency,omitempty"`
	VariantID string `json:"variantId,omitempty"`
}

// Catalog maps a category label to its ordered product list.
type Catalog map[string][]ProductRef

// Store curates one catalog namespace (main or quiz) across all stores.
type Store struct {
	kv        kv.Store
	reg       *registry.Registry
	quiz      bool
	overwrite bool
	resolver  shopify.Resolver
	log       logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithOverwriteOnDuplicate makes Add replace the stored fields when the
// handle already exists. The default keeps the first write.
func WithOverwriteOnDuplicate(overwrite bool) Option {
	return func(s *Store) { s.overwrite = overwrite }
}

// WithResolver wires the product-resolution collaborator used by Seed.
func WithResolver(r shopify.Resolver) Option {
	return func(s *Store) { s.resolver = r }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewMain builds the main recommendation catalog store.
func NewMain(store kv.Store, reg *registry.Registry, opts ...Option) *Store {
	return newStore(store, reg, false, opts)
}

// NewQuiz builds the quiz catalog store.
func NewQuiz(store kv.Store, reg *registry.Registry, opts ...Option) *Store {
	return newStore(store, reg, true, opts)
}

func newStore(store kv.Store, reg *registry.Registry, quiz bool, opts []Option) *Store {
	s := &Store{
		kv:   store,
		reg:  reg,
		quiz: quiz,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("catalog")
	}
	return s
}

func (s *Store) key(store registry.Store) string {
	if s.quiz {
		return store.QuizKey
	}
	return store.CatalogKey
}

func (s *Store) validCategory(store registry.Store, category string) bool {
	if s.quiz {
		return store.HasQuizCategory(category)
	}
	return store.HasCategory(category)
}

func (s *Store) load(ctx context.Context, store registry.Store) (Catalog, error) {
	data := Catalog{}
	if _, err := kv.GetJSON(ctx, s.kv, s.key(store), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) persist(ctx context.Context, store registry.Store, data Catalog) error {
	return kv.SetJSON(ctx, s.kv, s.key(store), data)
}

// List returns the full category mapping for a store. An absent key yields
// an empty mapping, not an error.
func (s *Store) List(ctx context.Context, storeID string) (Catalog, error) {
	store, err := s.reg.Resolve(storeID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, store)
}

// Add appends product to the end of category unless an entry with the same
// handle is already present. The duplicate case is a successful no-op unless
// the store was built with WithOverwriteOnDuplicate.
func (s *Store) Add(ctx context.Context, storeID, category string, product ProductRef) (Catalog, error) {
	store, err := s.reg.Resolve(storeID)
	if err != nil {
		return nil, err
	}
	if !s.validCategory(store, category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	data, err := s.load(ctx, store)
	if err != nil {
		return nil, err
	}

	existing := -1
	for i, p := range data[category] {
		if p.Handle == product.Handle {
			existing = i
			break
		}
	}

	switch {
	case existing < 0:
		data[category] = append(data[category], product)
	case s.overwrite:
		data[category][existing] = product
	default:
		// Duplicate handle, first write wins.
		return data, nil
	}

	if err := s.persist(ctx, store, data); err != nil {
		return nil, err
	}
	metrics.RecordCatalogMutation("add")
	s.log.Info(ctx, "product added",
		logger.String("store", storeID),
		logger.String("category", category),
		logger.String("handle", product.Handle),
		logger.Bool("quiz", s.quiz),
	)
	return data, nil
}

// Remove drops the entry matching handle from category, if present, and
// persists either way. Removing an absent handle still succeeds.
func (s *Store) Remove(ctx context.Context, storeID, category, handle string) (Catalog, error) {
	store, err := s.reg.Resolve(storeID)
	if err != nil {
		return nil, err
	}

	data, err := s.load(ctx, store)
	if err != nil {
		return nil, err
	}

	if entries, ok := data[category]; ok {
		kept := entries[:0]
		for _, p := range entries {
			if p.Handle != handle {
				kept = append(kept, p)
			}
		}
		data[category] = kept
	}

	if err := s.persist(ctx, store, data); err != nil {
		return nil, err
	}
	metrics.RecordCatalogMutation("remove")
	return data, nil
}

// Reorder rebuilds category's sequence following order: stored entries are
// appended in the order their handles appear, unknown handles are skipped,
// and stored entries not mentioned in order are dropped. Callers must submit
// the complete desired order.
func (s *Store) Reorder(ctx context.Context, storeID, category string, order []string) (Catalog, error) {
	store, err := s.reg.Resolve(storeID)
	if err != nil {
		return nil, err
	}

	data, err := s.load(ctx, store)
	if err != nil {
		return nil, err
	}

	current := data[category]
	reordered := make([]ProductRef, 0, len(order))
	for _, handle := range order {
		for _, p := range current {
			if p.Handle == handle {
				reordered = append(reordered, p)
				break
			}
		}
	}
	data[category] = reordered

	if err := s.persist(ctx, store, data); err != nil {
		return nil, err
	}
	metrics.RecordCatalogMutation("reorder")
	return data, nil
}
