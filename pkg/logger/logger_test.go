package logger_test

import (
	"context"
	"testing"

	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		l := logger.Get()

		Convey("Then Get returns a usable logger", func() {
			So(l, ShouldNotBeNil)
			So(func() {
				l.Info(context.Background(), "hello", logger.String("k", "v"))
			}, ShouldNotPanic)
		})

		Convey("When creating a named logger", func() {
			named := logger.Named("store")

			Convey("Then it should not be nil", func() {
				So(named, ShouldNotBeNil)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When setting known levels", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("When setting an unknown level", func() {
			err := logger.SetLevelString("verbose")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestFields(t *testing.T) {
	Convey("Given field constructors", t, func() {
		So(logger.String("a", "b").Key, ShouldEqual, "a")
		So(logger.Int("n", 3).Value, ShouldEqual, 3)
		So(logger.Bool("ok", true).Value, ShouldEqual, true)
		So(logger.Error(nil).Key, ShouldEqual, "error")
	})
}
