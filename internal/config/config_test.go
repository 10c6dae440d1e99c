package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/gradecurve/internal/config"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.OnInvalidScore, convey.ShouldEqual, "reject_all")
			convey.So(cfg.Policy.Kind, convey.ShouldEqual, policy.KindAbsolute)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.ReportCacheTTL, convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.BatchWorkers, convey.ShouldEqual, 4)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single bad field", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = "" },
			"bad log level":      func(c *config.Config) { c.LogLevel = "loud" },
			"bad log format":     func(c *config.Config) { c.LogFormat = "xml" },
			"bad invalid choice": func(c *config.Config) { c.OnInvalidScore = "guess" },
			"formula without d": func(c *config.Config) {
				c.Policy = policy.Spec{Kind: policy.KindRelativeFormula}
			},
			"sqlite without dsn": func(c *config.Config) { c.Store.Driver = config.DriverSQLite },
			"unknown driver":     func(c *config.Config) { c.Store.Driver = "mongo" },
			"zero workers":       func(c *config.Config) { c.BatchWorkers = 0 },
			"zero upload cap":    func(c *config.Config) { c.MaxUploadBytes = 0 },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				cfg.Policy.Thresholds = policy.DefaultThresholds()
				mutate(cfg)

				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When nothing is wrong", func() {
			cfg := config.New()
			cfg.Policy.Thresholds = policy.DefaultThresholds()
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
