package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketScout/internal/domain/models"
	"MarketScout/internal/usecase"
	"MarketScout/pkg/cache"
	"MarketScout/pkg/config"
	xhttp "MarketScout/pkg/http"
	applogger "MarketScout/pkg/logger"
)

// App ties the batch pipeline and the optional read-only API together and
// owns their lifecycle.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	pipeline *usecase.Pipeline
	universe []models.StaticMeta
	handler  xhttp.Handler
	cacheSvc cache.Service

	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	universe []models.StaticMeta,
	handler xhttp.Handler,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		pipeline: pipeline,
		universe: universe,
		handler:  handler,
		cacheSvc: cacheSvc,
	}
}

// RunOnce executes a single pipeline pass for asOf and returns. This is the
// cron entrypoint.
func (a *App) RunOnce(ctx context.Context, asOf time.Time) error {
	start := time.Now()
	artifact, err := a.pipeline.Run(ctx, a.universe, asOf)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	a.log.Info("run complete",
		applogger.String("as_of", artifact.AsOf),
		applogger.Int("tickers", len(artifact.Tickers)),
		applogger.Int("ranked", len(artifact.Rankings)),
		applogger.Duration("elapsed", time.Since(start)))
	return nil
}

// Serve runs the pipeline once, then serves the published artifact over HTTP
// until interrupted. A failed first run does not block serving: the prior
// artifact, if any, is still readable.
func (a *App) Serve(ctx context.Context, asOf time.Time) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.RunOnce(ctx, asOf); err != nil {
		a.log.Error("initial run failed, serving previous artifact", applogger.Error(err))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}
	a.log.Info("api serving", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		a.log.Info("shutdown signal received")
	case <-ctx.Done():
	}

	return a.shutdown(context.Background())
}

func (a *App) shutdown(ctx context.Context) error {
	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
