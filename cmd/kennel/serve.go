package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/devserver"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globals) *cobra.Command {
	var (
		port  int
		token string
		seed  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory kennel API for local development",
		Long:  "Serve the kennel REST API from memory under /api, with request metrics at /metrics. Data is lost on exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)

			if !cmd.Flags().Changed("port") {
				port = cfg.DevServer.Port
			}
			if !cmd.Flags().Changed("token") {
				token = cfg.DevServer.Token
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.DevServer.Seed
			}
			if token == "" {
				logger.Warn("authentication disabled: no dev server token configured")
			}

			srv := devserver.New(devserver.Config{
				Token:    token,
				Logger:   logger,
				Registry: prometheus.NewRegistry(),
			})
			if seed {
				if err := srv.Seed(); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				logger.Info("sample data loaded")
			}

			return serve(cmd.Context(), &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port (default from devserver.port)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token required by /api (default KENNEL_DEVSERVER_TOKEN)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load sample data on start")
	return cmd
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", srv.Addr)
		// ErrServerClosed is the expected error when Shutdown() is called.
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			errCh <- err
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
	}
	logger.Info("shutdown complete")
	return nil
}
