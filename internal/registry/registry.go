// Package registry holds the static per-storefront configuration: category
// sets, backing-store keys, and stats prefixes. The table is immutable after
// process start.
package registry

import (
	"fmt"
)

// Store identifies one storefront/market and its namespaces.
type Store struct {
	ID          string
	DisplayName string

	// Categories valid for the main catalog, in display order.
	Categories []string

	// QuizCategories valid for the quiz catalog; empty when the store has
	// no quiz.
	QuizCategories []string

	CatalogKey  string
	QuizKey     string
	StatsPrefix string
}

// HasCategory reports whether c is a configured main-catalog category.
func (s Store) HasCategory(c string) bool {
	for _, cat := range s.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// HasQuizCategory reports whether c is a configured quiz category.
func (s Store) HasQuizCategory(c string) bool {
	for _, cat := range s.QuizCategories {
		if cat == c {
			return true
		}
	}
	return false
}

// HasQuiz reports whether the store carries a quiz catalog at all.
func (s Store) HasQuiz() bool {
	return len(s.QuizCategories) > 0
}

// Registry maps store ids to their configuration.
type Registry struct {
	stores  map[string]Store
	order   []string
	primary string
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithPrimary selects the store unknown ids default to on the tracking path.
func WithPrimary(id string) Option {
	return func(r *Registry) {
		if id != "" {
			r.primary = id
		}
	}
}

// WithStores replaces the built-in store table.
func WithStores(stores ...Store) Option {
	return func(r *Registry) {
		if len(stores) == 0 {
			return
		}
		r.stores = make(map[string]Store, len(stores))
		r.order = r.order[:0]
		for _, s := range stores {
			r.stores[s.ID] = s
			r.order = append(r.order, s.ID)
		}
	}
}

// New builds a Registry with the built-in store table unless overridden.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		stores:  make(map[string]Store, len(defaultStores)),
		primary: "br",
	}
	for _, s := range defaultStores {
		r.stores[s.ID] = s
		r.order = append(r.order, s.ID)
	}

	for _, opt := range opts {
		opt(r)
	}

	if _, ok := r.stores[r.primary]; !ok {
		return nil, fmt.Errorf("%w: primary store %q not in table", ErrUnknownStore, r.primary)
	}
	return r, nil
}

// Resolve returns the store for id or ErrUnknownStore.
func (r *Registry) Resolve(id string) (Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return Store{}, fmt.Errorf("%w: %q", ErrUnknownStore, id)
	}
	return s, nil
}

// ResolveOrPrimary returns the store for id, falling back to the primary
// store for unknown ids. Used on the tracking path, where a bad store id
// must never fail the call.
func (r *Registry) ResolveOrPrimary(id string) Store {
	if s, ok := r.stores[id]; ok {
		return s
	}
	return r.stores[r.primary]
}

// Primary returns the primary store.
func (r *Registry) Primary() Store {
	return r.stores[r.primary]
}

// Stores returns every configured store in table order.
func (r *Registry) Stores() []Store {
	out := make([]Store, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stores[id])
	}
	return out
}

// mainCategories is the shared admin-facing category list for the
// recommendation catalog.
var mainCategories = []string{
	"Guitarristas", "Bateristas", "Tecladistas", "Cantores",
	"Baixistas", "Produtores", "DJs", "Gamers",
	"Som: Graves Potentes", "Som: Equilibrado", "Som: Energético",
}

// quizCategories are the quiz-outcome bucket ids.
var quizCategories = []string{
	"guitarrista", "baterista", "tecladista", "cantor",
	"baixista", "produtor", "dj", "gamer",
}

var defaultStores = []Store{
	{
		ID:             "br",
		DisplayName:    "KZ Music Store Brasil",
		Categories:     mainCategories,
		QuizCategories: quizCategories,
		CatalogKey:     "kz:recommendations:br",
		QuizKey:        "kz:quiz:br",
		StatsPrefix:    "kz:stats:br",
	},
	{
		ID:             "global",
		DisplayName:    "KZ Music Store Global",
		Categories:     mainCategories,
		QuizCategories: quizCategories,
		CatalogKey:     "kz:recommendations:global",
		QuizKey:        "kz:quiz:global",
		StatsPrefix:    "kz:stats:global",
	},
}
