package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/andipetruzz/modalrecomendacoes/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.PrimaryStore, convey.ShouldEqual, "br")
				convey.So(cfg.TrackWindowSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.TrackWindowLimit, convey.ShouldEqual, 60)
				convey.So(cfg.OverwriteOnDuplicate, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KZ_ADDR", ":9090")
			_ = os.Setenv("KZ_REDIS_ADDR", "redis:6379")
			_ = os.Setenv("KZ_TRACK_WINDOW_LIMIT", "120")
			_ = os.Setenv("KZ_ADMIN_PASS", "hunter2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.TrackWindowLimit, convey.ShouldEqual, 120)
				convey.So(cfg.AdminPass, convey.ShouldEqual, "hunter2")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":7070"
redis_addr: "10.0.0.5:6379"
primary_store: "global"
track_window_seconds: 30
overwrite_on_duplicate: true
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("KZ_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "10.0.0.5:6379")
				convey.So(cfg.PrimaryStore, convey.ShouldEqual, "global")
				convey.So(cfg.TrackWindowSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.OverwriteOnDuplicate, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env vars override file values", func() {
			yamlContent := `
addr: ":7070"
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("KZ_CONFIG", tmpFile)
			_ = os.Setenv("KZ_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When validation fails", func() {
			_ = os.Setenv("KZ_TRACK_WINDOW_LIMIT", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an invalid-config error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"KZ_CONFIG", "KZ_ADDR", "KZ_REDIS_ADDR", "KZ_TRACK_WINDOW_LIMIT",
		"KZ_TRACK_WINDOW_SECONDS", "KZ_ADMIN_PASS", "KZ_PRIMARY_STORE",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
