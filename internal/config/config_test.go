package config_test

import (
	"testing"

	"github.com/andipetruzz/modalrecomendacoes/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
			convey.So(cfg.PrimaryStore, convey.ShouldEqual, "br")
			convey.So(cfg.TrackWindowSeconds, convey.ShouldEqual, 60)
			convey.So(cfg.TrackWindowLimit, convey.ShouldEqual, 60)
			convey.So(len(cfg.AllowedOrigins), convey.ShouldEqual, 4)
		})
	})
}
