package tracking_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/tracking"
	"github.com/andipetruzz/modalrecomendacoes/internal/registry"
	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fixture struct {
	agg *tracking.Aggregator
	mem *kv.Memory
	now *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := registry.New()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mem := kv.NewMemory(kv.WithClock(func() time.Time { return now }))
	agg := tracking.New(mem, reg, tracking.WithClock(func() time.Time { return now }))
	return &fixture{agg: agg, mem: mem, now: &now}
}

func (f *fixture) counter(t *testing.T, key string) int64 {
	t.Helper()
	raw, ok, err := f.mem.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	if !ok {
		return 0
	}
	var n int64
	for _, c := range raw {
		n = n*10 + int64(c-'0')
	}
	return n
}

func (f *fixture) hash(t *testing.T, key string) map[string]string {
	t.Helper()
	h, err := f.mem.HGetAll(context.Background(), key)
	if err != nil {
		t.Fatalf("hgetall %s: %v", key, err)
	}
	return h
}

func TestRecord_View(t *testing.T) {
	Convey("Given an aggregator", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("When recording views", func() {
			So(f.agg.Record(ctx, "br", "view", "", ""), ShouldBeNil)
			So(f.agg.Record(ctx, "br", "view", "", ""), ShouldBeNil)

			Convey("Then lifetime and same-day counters advance together", func() {
				So(f.counter(t, "kz:stats:br:views"), ShouldEqual, 2)
				So(f.counter(t, "kz:stats:br:daily:2025-06-15:views"), ShouldEqual, 2)
			})

			Convey("And another day's counter is untouched", func() {
				So(f.counter(t, "kz:stats:br:daily:2025-06-16:views"), ShouldEqual, 0)
			})
		})

		Convey("When the calendar day rolls over", func() {
			So(f.agg.Record(ctx, "br", "view", "", ""), ShouldBeNil)
			*f.now = f.now.Add(24 * time.Hour)
			So(f.agg.Record(ctx, "br", "view", "", ""), ShouldBeNil)

			Convey("Then each day accumulates separately and lifetime keeps growing", func() {
				So(f.counter(t, "kz:stats:br:daily:2025-06-15:views"), ShouldEqual, 1)
				So(f.counter(t, "kz:stats:br:daily:2025-06-16:views"), ShouldEqual, 1)
				So(f.counter(t, "kz:stats:br:views"), ShouldEqual, 2)
			})
		})
	})
}

func TestRecord_Click(t *testing.T) {
	Convey("Given an aggregator", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("When recording clicks for a handle", func() {
			So(f.agg.Record(ctx, "br", "click", "edx", "KZ EDX"), ShouldBeNil)
			So(f.agg.Record(ctx, "br", "click", "edx", "KZ EDX"), ShouldBeNil)
			So(f.agg.Record(ctx, "br", "click", "edx", "KZ EDX"), ShouldBeNil)

			Convey("Then the scalar, per-product, and daily counters all advance", func() {
				So(f.counter(t, "kz:stats:br:clicks"), ShouldEqual, 3)
				So(f.hash(t, "kz:stats:br:product_clicks")["edx"], ShouldEqual, "3")
				So(f.hash(t, "kz:stats:br:daily:2025-06-15:product_clicks")["edx"], ShouldEqual, "3")
			})

			Convey("And the title cache carries the display title", func() {
				So(f.hash(t, "kz:stats:br:product_titles")["edx"], ShouldEqual, "KZ EDX")
			})
		})

		Convey("When recording a click without a handle", func() {
			So(f.agg.Record(ctx, "br", "click", "", "whatever"), ShouldBeNil)

			Convey("Then nothing is recorded", func() {
				So(f.counter(t, "kz:stats:br:clicks"), ShouldEqual, 0)
			})
		})

		Convey("When the title is empty", func() {
			So(f.agg.Record(ctx, "br", "click", "edx", ""), ShouldBeNil)

			Convey("Then the handle doubles as the title", func() {
				So(f.hash(t, "kz:stats:br:product_titles")["edx"], ShouldEqual, "edx")
			})
		})
	})
}

func TestRecord_Sanitation(t *testing.T) {
	Convey("Given an aggregator", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("When the handle carries markup characters", func() {
			So(f.agg.Record(ctx, "br", "click", `ed<script>"x'`, `<b>Title</b>`), ShouldBeNil)

			Convey("Then the stored field is stripped of <>\"'", func() {
				h := f.hash(t, "kz:stats:br:product_clicks")
				So(h["edscriptx"], ShouldEqual, "1")
				So(f.hash(t, "kz:stats:br:product_titles")["edscriptx"], ShouldEqual, "bTitle/b")
			})
		})

		Convey("When the handle exceeds 100 characters", func() {
			long := strings.Repeat("a", 150)
			So(f.agg.Record(ctx, "br", "click", long, ""), ShouldBeNil)

			Convey("Then it is capped at 100", func() {
				h := f.hash(t, "kz:stats:br:product_clicks")
				So(h[strings.Repeat("a", 100)], ShouldEqual, "1")
			})
		})
	})
}

func TestRecord_QuizEvents(t *testing.T) {
	Convey("Given an aggregator", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("When recording the quiz funnel", func() {
			So(f.agg.Record(ctx, "br", "quiz_start", "", ""), ShouldBeNil)
			So(f.agg.Record(ctx, "br", "quiz_complete", "", ""), ShouldBeNil)
			So(f.agg.Record(ctx, "br", "quiz_click", "edx", "KZ EDX"), ShouldBeNil)
			So(f.agg.Record(ctx, "br", "quiz_atc", "edx", "KZ EDX"), ShouldBeNil)

			Convey("Then quiz counters land under the quiz namespace", func() {
				So(f.counter(t, "kz:stats:br:quiz:starts"), ShouldEqual, 1)
				So(f.counter(t, "kz:stats:br:quiz:completions"), ShouldEqual, 1)
				So(f.hash(t, "kz:stats:br:quiz:product_clicks")["edx"], ShouldEqual, "1")
				So(f.hash(t, "kz:stats:br:quiz:product_atc")["edx"], ShouldEqual, "1")
				So(f.hash(t, "kz:stats:br:quiz:product_titles")["edx"], ShouldEqual, "KZ EDX")
			})

			Convey("And quiz product events do not touch the scalar counters", func() {
				So(f.counter(t, "kz:stats:br:clicks"), ShouldEqual, 0)
				So(f.counter(t, "kz:stats:br:add_to_cart"), ShouldEqual, 0)
			})
		})
	})
}

func TestRecord_Validation(t *testing.T) {
	Convey("Given an aggregator", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		Convey("When recording an unknown event", func() {
			err := f.agg.Record(ctx, "br", "purchase", "edx", "")

			Convey("Then it fails with ErrInvalidEvent and records nothing", func() {
				So(errors.Is(err, tracking.ErrInvalidEvent), ShouldBeTrue)
				So(f.counter(t, "kz:stats:br:views"), ShouldEqual, 0)
			})
		})

		Convey("When recording against an unknown store id", func() {
			So(f.agg.Record(ctx, "pt", "view", "", ""), ShouldBeNil)

			Convey("Then it lands on the primary store", func() {
				So(f.counter(t, "kz:stats:br:views"), ShouldEqual, 1)
			})
		})

		Convey("When recording against the global store", func() {
			So(f.agg.Record(ctx, "global", "view", "", ""), ShouldBeNil)

			Convey("Then the stores' prefixes stay isolated", func() {
				So(f.counter(t, "kz:stats:global:views"), ShouldEqual, 1)
				So(f.counter(t, "kz:stats:br:views"), ShouldEqual, 0)
			})
		})
	})
}

func TestRecord_BackingFailure(t *testing.T) {
	Convey("Given a failing backing store", t, func() {
		f := newFixture(t)
		f.mem.FailWith(kv.ErrUnavailable)

		Convey("When recording", func() {
			err := f.agg.Record(context.Background(), "br", "view", "", "")

			Convey("Then the failure surfaces to the caller", func() {
				So(errors.Is(err, kv.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}
