package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/gradecurve/internal/adapters/http/api"
	"github.com/okian/gradecurve/internal/config"
	"github.com/okian/gradecurve/pkg/logger"
	"github.com/okian/gradecurve/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeouts.
const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grading HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			if err := c.serve(cmd.Context()); err != nil {
				return c.fail(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	log := logger.Get()
	cfg := c.cfg

	svc, err := c.newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	go metrics.Default().RunSystemSampler(ctx)

	if c.configPath != "" {
		go func() {
			err := config.Watch(ctx, c.configPath, func(next *config.Config) {
				if err := svc.SetDefaultPolicy(ctx, next.Policy); err != nil {
					log.Warn(ctx, "reloaded policy rejected", logger.Error(err))
					return
				}
				svc.SetDefaults(next.InvalidPolicy(), next.Standardize)
				if err := logger.SetLevelString(next.LogLevel); err != nil {
					log.Warn(ctx, "reloaded log_level rejected", logger.Error(err))
				}
			})
			if err != nil {
				log.Error(ctx, "config watcher stopped", logger.Error(err))
			}
		}()
	}

	apiServer := api.NewServer(svc,
		api.WithLoader(c.loader(nil, nil)),
		api.WithAuthSecret(cfg.AuthSecret),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithCORSOrigins(cfg.CORSOrigins...),
		api.WithLogger(log.Named("api")),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Routes(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
