package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	echoprometheus "github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pbudner/frictionminer/api"
	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	httpMetricsOnce sync.Once
	httpMetrics     *echoprometheus.Prometheus
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listener string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis over HTTP",
		Long: `Start an HTTP server that analyzes uploaded event logs.

Routes:
  GET  <base-url>/api/v1/            version information
  GET  <base-url>/api/v1/detectors   active and registered detectors
  POST <base-url>/api/v1/analyze     analyze the request body (?format=csv|tsv|json|xlsx)
  GET  /metrics                      Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := root.pipeline()
			if err != nil {
				return err
			}
			if listener != "" {
				cfg.Listener = listener
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, p)
		},
	}

	cmd.Flags().StringVarP(&listener, "listener", "l", "", "Address to listen on (overrides the config)")
	return cmd
}

func newServer(cfg *config.Config, p *pipeline.Pipeline) *echo.Echo {
	log := zap.L().Sugar().With("service", "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debugw("request", "method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID)
			return nil
		},
	}))

	httpMetricsOnce.Do(func() {
		httpMetrics = echoprometheus.NewPrometheus("frictionminer", nil)
	})
	httpMetrics.Use(e)

	api.RegisterApiHandlers(e.Group(cfg.BaseURL+"/api"), Version, GitCommit, p)
	return e
}

// serve blocks until ctx is cancelled and then shuts the server down.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
	log := zap.L().Sugar().With("service", "http")
	e := newServer(cfg, p)

	errs := make(chan error, 1)
	go func() {
		log.Infow("starting HTTP server", "listener", cfg.Listener)
		if err := e.Start(cfg.Listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
