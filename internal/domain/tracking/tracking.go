// Package tracking owns the engagement counters: lifetime and daily scopes
// per store, plus per-product click/add-to-cart hashes and a title cache.
package tracking

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	"github.com/andipetruzz/modalrecomendacoes/internal/registry"
	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
	"github.com/andipetruzz/modalrecomendacoes/pkg/metrics"
)

// Recognized engagement events.
const (
	EventView         = "view"
	EventClick        = "click"
	EventAddToCart    = "add_to_cart"
	EventQuizStart    = "quiz_start"
	EventQuizComplete = "quiz_complete"
	EventQuizClick    = "quiz_click"
	EventQuizATC      = "quiz_atc"
)

var validEvents = map[string]bool{
	EventView:         true,
	EventClick:        true,
	EventAddToCart:    true,
	EventQuizStart:    true,
	EventQuizComplete: true,
	EventQuizClick:    true,
	EventQuizATC:      true,
}

// Untrusted input limits.
const (
	maxHandleLen = 100
	maxTitleLen  = 200
)

var unsafeChars = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")

// Aggregator records engagement events and serves the aggregated counters.
type Aggregator struct {
	kv  kv.Store
	reg *registry.Registry
	now func() time.Time
	log logger.Logger
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithClock replaces the time source used for daily scoping.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// New builds an Aggregator on the given backing store and registry.
func New(store kv.Store, reg *registry.Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		kv:  store,
		reg: reg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Named("tracking")
	}
	return a
}

// sanitize caps s at limit runes and strips the characters <>"'.
func sanitize(s string, limit int) string {
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit])
	}
	return unsafeChars.Replace(s)
}

// day returns the current UTC calendar date used for daily scoping.
func (a *Aggregator) day() string {
	return a.now().UTC().Format("2006-01-02")
}

// writer batches the per-event key writes so they are issued concurrently
// and awaited together. The group is not atomic: a partial failure can leave
// some counters incremented and others not.
type writer struct {
	g   *errgroup.Group
	ctx context.Context
	kv  kv.Store
	day string
}

// incr bumps name under prefix in both the lifetime and daily scopes.
func (w *writer) incr(prefix, name string) {
	w.g.Go(func() error {
		_, err := w.kv.Incr(w.ctx, prefix+":"+name)
		return err
	})
	w.g.Go(func() error {
		_, err := w.kv.Incr(w.ctx, prefix+":daily:"+w.day+":"+name)
		return err
	})
}

// hincr bumps field in the hash name under prefix, lifetime and daily.
func (w *writer) hincr(prefix, name, field string) {
	w.g.Go(func() error {
		_, err := w.kv.HIncrBy(w.ctx, prefix+":"+name, field, 1)
		return err
	})
	w.g.Go(func() error {
		_, err := w.kv.HIncrBy(w.ctx, prefix+":daily:"+w.day+":"+name, field, 1)
		return err
	})
}

// hset upserts field in the hash name under prefix, lifetime and daily.
func (w *writer) hset(prefix, name, field, value string) {
	w.g.Go(func() error {
		return w.kv.HSet(w.ctx, prefix+":"+name, field, value)
	})
	w.g.Go(func() error {
		return w.kv.HSet(w.ctx, prefix+":daily:"+w.day+":"+name, field, value)
	})
}

// Record applies one engagement event to the resolved store's counters.
// Unknown store ids fall back to the primary store and never fail the call;
// unknown events fail with ErrInvalidEvent and record nothing. Events that
// require a handle are a successful no-op without one.
func (a *Aggregator) Record(ctx context.Context, storeID, event, handle, title string) error {
	if !validEvents[event] {
		metrics.RecordEventInvalid()
		return ErrInvalidEvent
	}
	store := a.reg.ResolveOrPrimary(storeID)
	prefix := store.StatsPrefix

	handle = sanitize(handle, maxHandleLen)
	title = sanitize(title, maxTitleLen)
	if title == "" {
		title = handle
	}

	g, gctx := errgroup.WithContext(ctx)
	w := &writer{g: g, ctx: gctx, kv: a.kv, day: a.day()}

	switch event {
	case EventView:
		w.incr(prefix, "views")
	case EventClick:
		if handle == "" {
			return nil
		}
		w.incr(prefix, "clicks")
		w.hincr(prefix, "product_clicks", handle)
		w.hset(prefix, "product_titles", handle, title)
	case EventAddToCart:
		if handle == "" {
			return nil
		}
		w.incr(prefix, "add_to_cart")
		w.hincr(prefix, "product_atc", handle)
		w.hset(prefix, "product_titles", handle, title)
	case EventQuizStart:
		w.incr(prefix, "quiz:starts")
	case EventQuizComplete:
		w.incr(prefix, "quiz:completions")
	case EventQuizClick:
		if handle == "" {
			return nil
		}
		w.hincr(prefix, "quiz:product_clicks", handle)
		w.hset(prefix, "quiz:product_titles", handle, title)
	case EventQuizATC:
		if handle == "" {
			return nil
		}
		w.hincr(prefix, "quiz:product_atc", handle)
		w.hset(prefix, "quiz:product_titles", handle, title)
	}

	if err := g.Wait(); err != nil {
		metrics.RecordEventDropped()
		return err
	}
	metrics.RecordEvent(event)
	return nil
}
