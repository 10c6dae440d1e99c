// Command gradecurve grades score tables from the command line or serves the
// grading API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/okian/gradecurve/internal/config"
	"github.com/okian/gradecurve/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands once the root pre-run has
// loaded configuration.
type cli struct {
	out, errOut io.Writer

	envFile    string
	configPath string
	logLevel   string

	cfg *config.Config
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "gradecurve",
		Short:         "Assign letter grades to score tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	pf.StringVar(&c.configPath, "config", "", "YAML config file (overrides "+config.EnvConfigPath+")")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newGradeCmd(c),
		newStatsCmd(c),
		newServeCmd(c),
		newSampleCmd(c),
	)
	return root
}

// setup loads .env, configuration and logging.
func (c *cli) setup(ctx context.Context) error {
	if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c.fail(fmt.Errorf("load %s: %w", c.envFile, err))
	}
	if c.configPath == "" {
		c.configPath = os.Getenv(config.EnvConfigPath)
	}

	cfg, err := config.LoadFile(ctx, c.configPath)
	if err != nil {
		return c.fail(err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	c.cfg = cfg

	if err := logger.Init(logger.WithWriter(c.errOut), logger.WithJSON(cfg.LogFormat == "json")); err != nil {
		return c.fail(fmt.Errorf("init logging: %w", err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// fail prints err for the user and returns it so cobra exits non-zero.
func (c *cli) fail(err error) error {
	fmt.Fprintln(c.errOut, "gradecurve:", err)
	return err
}
