package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockWatch/internal/domain/repository"
	"StockWatch/internal/usecase"
	"StockWatch/pkg/cache"
	"StockWatch/pkg/config"
	xhttp "StockWatch/pkg/http"
	applogger "StockWatch/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	monitor    *usecase.Monitor
	handlers   []xhttp.Handler
	relay      repository.AlertRelay
	cache      cache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	monitor *usecase.Monitor,
	handlers []xhttp.Handler,
	relay repository.AlertRelay,
	c cache.Service,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:      cfg,
		log:      log,
		monitor:  monitor,
		handlers: handlers,
		relay:    relay,
		cache:    c,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Start brings up the monitor and, when enabled, the dashboard server.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Server.Enabled {
		a.httpServer = xhttp.NewServer(a.handlers,
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
			xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
			xhttp.WithCORS(a.cfg.Server.CORSOrigins...),
			xhttp.WithLogger(a.log.Named("http")),
		)
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	if err := a.monitor.Start(ctx); err != nil {
		a.log.Error("monitor start error", applogger.Error(err))
		return err
	}
	a.log.Info("stockwatch started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("backend", a.cfg.Backend.BaseURL),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)
	return nil
}

// Shutdown stops the monitor first so no new events reach the sinks, then
// the HTTP server, then closes the sinks.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	a.monitor.Stop()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	// flush aggregated logs while the relay can still deliver them
	a.log.RemoveCollector()

	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			a.log.Warn("alert relay close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
