package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/gradecurve/internal/config"
	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then list and policy defaults are filled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ScoreColumns, convey.ShouldResemble, config.DefaultScoreColumns())
				convey.So(cfg.IDColumns, convey.ShouldResemble, config.DefaultIDColumns())
				convey.So(cfg.Policy.Thresholds, convey.ShouldResemble, policy.DefaultThresholds())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GRADECURVE_ADDR", ":8080")
			_ = os.Setenv("GRADECURVE_ON_INVALID_SCORE", "exclude_and_mark")
			_ = os.Setenv("GRADECURVE_POLICY__KIND", "relative_formula")
			_ = os.Setenv("GRADECURVE_POLICY__D_FLOOR_SIGMA", "2.5")
			_ = os.Setenv("GRADECURVE_STORE__DRIVER", "sqlite")
			_ = os.Setenv("GRADECURVE_STORE__DSN", "runs.db")
			_ = os.Setenv("GRADECURVE_SCORE_COLUMNS", "Mark,Points")
			_ = os.Setenv("GRADECURVE_REPORT_CACHE_TTL", "30s")

			cfg, err := config.Load(ctx)

			convey.Convey("Then nested keys and lists are overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.OnInvalidScore, convey.ShouldEqual, "exclude_and_mark")
				convey.So(cfg.Policy.Kind, convey.ShouldEqual, policy.KindRelativeFormula)
				convey.So(cfg.Policy.DFloorSigma, convey.ShouldEqual, 2.5)
				convey.So(cfg.Store.Driver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.Store.DSN, convey.ShouldEqual, "runs.db")
				convey.So(cfg.ScoreColumns, convey.ShouldResemble, []string{"Mark", "Points"})
				convey.So(cfg.ReportCacheTTL, convey.ShouldEqual, 30*time.Second)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeFile(t, "gradecurve.yaml", `
addr: ":9090"
standardize: true
score_columns: [Total]
policy:
  kind: relative_percentile
  quotas:
    - {grade: A, percent: 10}
    - {grade: B, percent: 40}
    - {grade: F, percent: 50}
`)
			_ = os.Setenv("GRADECURVE_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values replace defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Standardize, convey.ShouldBeTrue)
				convey.So(cfg.ScoreColumns, convey.ShouldResemble, []string{"Total"})
				convey.So(cfg.Policy.Quotas, convey.ShouldHaveLength, 3)
				convey.So(cfg.Policy.Quotas[1].Grade, convey.ShouldEqual, grade.B)
			})

			convey.Convey("And env vars override the file", func() {
				_ = os.Setenv("GRADECURVE_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.Standardize, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the formula policy has no D floor", func() {
			_ = os.Setenv("GRADECURVE_POLICY__KIND", "relative_formula")

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails validation", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("GRADECURVE_CONFIG", writeFile(t, "bad.yaml", `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.LoadFile(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("GRADECURVE_BATCH_WORKERS", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
