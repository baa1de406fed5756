// Package ratelimit gates the public tracking endpoint with a fixed-window
// counter per client address, stored in the backing KV.
//
// Fixed windows admit bursts at window boundaries of up to double the
// nominal rate. That approximation is accepted; do not swap in a sliding
// window without revisiting the contract.
package ratelimit

import (
	"context"
	"time"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	"github.com/andipetruzz/modalrecomendacoes/pkg/metrics"
)

const keyPrefix = "kz:ratelimit:"

// Limiter counts requests per client address within a fixed window.
type Limiter struct {
	kv     kv.Store
	window time.Duration
	limit  int64
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithWindow sets the window length. Default one minute.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithLimit sets the per-window request ceiling. Default 60.
func WithLimit(n int64) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// New builds a Limiter on the given backing store.
func New(store kv.Store, opts ...Option) *Limiter {
	l := &Limiter{
		kv:     store,
		window: time.Minute,
		limit:  60,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow increments addr's window counter and reports whether the request is
// within the ceiling. The first increment in a window arms the key's expiry;
// the counter resets implicitly when the key expires.
func (l *Limiter) Allow(ctx context.Context, addr string) (bool, error) {
	key := keyPrefix + addr

	count, err := l.kv.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.kv.Expire(ctx, key, l.window); err != nil {
			return false, err
		}
	}

	if count > l.limit {
		metrics.RecordRateLimited()
		return false, nil
	}
	return true, nil
}
