package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	service "github.com/andipetruzz/modalrecomendacoes/internal/app"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/catalog"
	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{service.WithKV(kv.NewMemory())}, opts...)
	svc := service.New(opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should be created", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Started(), ShouldBeFalse)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service on an in-memory backing store", t, func() {
		svc := service.New(service.WithKV(kv.NewMemory()))

		Convey("When starting it", func() {
			err := svc.Start(context.Background())

			Convey("Then it should start", func() {
				So(err, ShouldBeNil)
				So(svc.Started(), ShouldBeTrue)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.Started(), ShouldBeFalse)
			})
		})
	})
}

func TestService_CatalogFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When curating a category end to end", func() {
			_, err := svc.AddProduct(ctx, "br", "Guitarristas", catalog.ProductRef{Name: "KZ EDX", Handle: "edx"})
			So(err, ShouldBeNil)
			_, err = svc.AddProduct(ctx, "br", "Guitarristas", catalog.ProductRef{Name: "KZ ZS10", Handle: "zs10"})
			So(err, ShouldBeNil)

			data, err := svc.ReorderCategory(ctx, "br", "Guitarristas", []string{"zs10", "edx"})
			So(err, ShouldBeNil)
			So(data["Guitarristas"][0].Handle, ShouldEqual, "zs10")

			data, err = svc.RemoveProduct(ctx, "br", "Guitarristas", "edx")
			So(err, ShouldBeNil)

			Convey("Then the listed catalog reflects the mutations", func() {
				listed, err := svc.ListCatalog(ctx, "br")
				So(err, ShouldBeNil)
				So(len(listed["Guitarristas"]), ShouldEqual, 1)
				So(listed["Guitarristas"][0].Handle, ShouldEqual, "zs10")
			})
		})
	})
}

func TestService_TrackingFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When recording engagement and reading stats", func() {
			So(svc.Record(ctx, "br", "view", "", ""), ShouldBeNil)
			So(svc.Record(ctx, "br", "click", "edx", "KZ EDX"), ShouldBeNil)

			stats, err := svc.ReadStats(ctx, "br")

			Convey("Then the counters are aggregated", func() {
				So(err, ShouldBeNil)
				So(stats.Views, ShouldEqual, 1)
				So(stats.Clicks, ShouldEqual, 1)
				So(len(stats.Products), ShouldEqual, 1)
			})
		})
	})
}

func TestService_RateLimit(t *testing.T) {
	Convey("Given a started service with a tiny ceiling", t, func() {
		svc := startedService(t, service.WithRateLimit(time.Minute, 1))
		ctx := context.Background()

		Convey("When the ceiling is exceeded", func() {
			ok, err := svc.Allow(ctx, "1.2.3.4")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			ok, err = svc.Allow(ctx, "1.2.3.4")

			Convey("Then the second request is rejected", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestService_Registry(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)

		Convey("Then the store registry is exposed", func() {
			So(len(svc.Stores()), ShouldEqual, 2)
			s, err := svc.ResolveStore("global")
			So(err, ShouldBeNil)
			So(s.ID, ShouldEqual, "global")
		})
	})
}
