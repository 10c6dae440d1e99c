package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it is initialized with a custom writer", func() {
			var buf bytes.Buffer
			So(Init(WithWriter(&buf)), ShouldBeNil)
			Get().Info(context.Background(), "graded", String("policy", "absolute"), Int("rows", 3))

			Convey("Then entries carry the fields and the caller", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "graded")
				So(out, ShouldContainSubstring, "policy=absolute")
				So(out, ShouldContainSubstring, "rows=3")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When JSON output is requested", func() {
			var buf bytes.Buffer
			So(Init(WithWriter(&buf), WithJSON(true)), ShouldBeNil)
			Get().Warn(context.Background(), "slow run", Duration("elapsed", time.Second), Bool("cached", false))

			Convey("Then entries are JSON objects", func() {
				So(strings.HasPrefix(strings.TrimSpace(buf.String()), "{"), ShouldBeTrue)
				So(buf.String(), ShouldContainSubstring, `"msg":"slow run"`)
			})
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When the level is raised to error", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Error(ctx, "visible", Error(errors.New("boom")))

			Convey("Then only error entries are written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "visible")
				So(buf.String(), ShouldContainSubstring, "boom")
			})
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("verbose")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerNamed(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)

		Convey("When a named child logs", func() {
			Named("engine").Debug(context.Background(), "not at info")
			Named("engine").Info(context.Background(), "ready", String("k", "v"))

			Convey("Then fields are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, "engine.k=v")
				So(buf.String(), ShouldNotContainSubstring, "not at info")
			})
		})

		Convey("When a nop logger is used", func() {
			So(func() { Nop().Info(context.Background(), "dropped") }, ShouldNotPanic)
		})
	})
}
