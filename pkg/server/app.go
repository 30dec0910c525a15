package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RiskLens/internal/usecase"
	pkgch "RiskLens/pkg/clickhouse"
	"RiskLens/pkg/config"
	xhttp "RiskLens/pkg/http"
	applogger "RiskLens/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP surface, the
// periodic recompute loop and infrastructure clients.
type App struct {
	cfg         *config.Config
	builder     *usecase.ReportBuilder
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	logger      *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	builder *usecase.ReportBuilder,
	chClient *pkgch.Client,
	logger *applogger.Logger,
) *App {
	return &App{
		cfg:      cfg,
		builder:  builder,
		chClient: chClient,
		logger:   logger,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Warm reports once at startup, then on the configured cadence.
	go a.recomputeLoop(ctx, l)

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("risk service started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Portfolio.Symbols),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown(l)
}

func (a *App) recomputeLoop(ctx context.Context, l *applogger.Logger) {
	run := func() {
		reports, failures := a.builder.BuildAll(ctx)
		l.Info("recompute cycle complete",
			applogger.Int("ok", len(reports)),
			applogger.Int("failed", len(failures)),
		)
		for sym, err := range failures {
			l.Warn("recompute failed",
				applogger.String("symbol", sym),
				applogger.Error(err),
			)
		}
	}
	run()

	if a.cfg.Risk.RecomputeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.cfg.Risk.RecomputeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(l *applogger.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
