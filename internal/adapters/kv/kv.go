// Package kv defines the narrow key-value port the core depends on, plus a
// Redis-backed implementation and an in-memory one for tests.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Store is the backing-store contract consumed by the domain packages.
// Every operation may suspend on a network round trip; failures surface
// immediately, there is no retry loop.
type Store interface {
	// Get returns the raw value at key, or ok=false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value at key wholesale.
	Set(ctx context.Context, key, value string) error

	// Incr atomically increments the integer at key, creating it at 0.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets a TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// HIncrBy atomically increments one field of a hash-valued key.
	HIncrBy(ctx context.Context, key, field string, n int64) (int64, error)

	// HSet upserts one field of a hash-valued key.
	HSet(ctx context.Context, key, field, value string) error

	// HGetAll returns all fields of a hash-valued key, empty map if absent.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Sentinel kinds for backing-store errors.
var (
	ErrUnavailable = errors.New("backing store unavailable")
)

// GetJSON reads key and unmarshals its JSON value into dest.
// Returns ok=false without touching dest when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals value as JSON and writes it at key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}
