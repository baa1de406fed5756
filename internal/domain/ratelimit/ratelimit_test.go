package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/ratelimit"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLimiter_Window(t *testing.T) {
	Convey("Given a limiter with a 60-request window", t, func() {
		ctx := context.Background()
		now := time.Unix(1_000_000, 0)
		mem := kv.NewMemory(kv.WithClock(func() time.Time { return now }))
		limiter := ratelimit.New(mem)

		Convey("When a client sends 60 requests in one window", func() {
			for i := 0; i < 60; i++ {
				ok, err := limiter.Allow(ctx, "203.0.113.7")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			}

			Convey("Then the 61st is rejected", func() {
				ok, err := limiter.Allow(ctx, "203.0.113.7")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("And a different address is unaffected", func() {
				ok, err := limiter.Allow(ctx, "203.0.113.8")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})

			Convey("And after the window expires the counter resets", func() {
				now = now.Add(61 * time.Second)
				ok, err := limiter.Allow(ctx, "203.0.113.7")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestLimiter_Options(t *testing.T) {
	Convey("Given a limiter with a custom ceiling", t, func() {
		ctx := context.Background()
		mem := kv.NewMemory()
		limiter := ratelimit.New(mem, ratelimit.WithLimit(2), ratelimit.WithWindow(30*time.Second))

		Convey("When the ceiling is reached", func() {
			for i := 0; i < 2; i++ {
				ok, err := limiter.Allow(ctx, "a")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			}
			ok, err := limiter.Allow(ctx, "a")

			Convey("Then further requests are rejected", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestLimiter_BackingFailure(t *testing.T) {
	Convey("Given a failing backing store", t, func() {
		mem := kv.NewMemory()
		mem.FailWith(kv.ErrUnavailable)
		limiter := ratelimit.New(mem)

		Convey("When checking a request", func() {
			_, err := limiter.Allow(context.Background(), "a")

			Convey("Then the failure surfaces to the caller", func() {
				So(errors.Is(err, kv.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}
