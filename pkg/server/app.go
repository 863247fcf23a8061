package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"LunarPulse/internal/domain/repository"
	"LunarPulse/internal/handler/api"
	ws "LunarPulse/internal/handler/ws"
	"LunarPulse/internal/services/engine"
	"LunarPulse/internal/usecase"
	"LunarPulse/pkg/cache"
	pkgch "LunarPulse/pkg/clickhouse"
	"LunarPulse/pkg/config"
	xhttp "LunarPulse/pkg/http"
	applogger "LunarPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	l        *applogger.Logger
	runner   *usecase.Runner
	hub      *ws.Hub
	signals  repository.SignalStore
	sink     repository.Sink
	acc      *engine.HotZoneAccumulator
	oiStore  *engine.ObservationStore
	state    repository.StateStore
	cache    cache.Service
	chClient *pkgch.Client

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.Runner,
	hub *ws.Hub,
	signals repository.SignalStore,
	sink repository.Sink,
	acc *engine.HotZoneAccumulator,
	oiStore *engine.ObservationStore,
	state repository.StateStore,
	c cache.Service,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		runner:   runner,
		hub:      hub,
		signals:  signals,
		sink:     sink,
		acc:      acc,
		oiStore:  oiStore,
		state:    state,
		cache:    c,
		chClient: chClient,
	}
}

// SetHTTPHandler allows tests to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := a.httpHandler
	if handler == nil {
		h := api.NewSignalsEchoHandler(a.l, a.signals, a.acc, a.oiStore, a.state)
		h.SetCache(a.cache)
		handler = h
	}

	a.httpServer = xhttp.NewServer(handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	a.httpServer.Echo().GET("/ws", echo.WrapHandler(http.HandlerFunc(a.hub.ServeWS)))
	a.httpServer.Echo().GET("/healthz", a.health)

	a.runner.Start(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("application started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Strategies.Symbols),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) health(c echo.Context) error {
	status := map[string]any{"status": "ok", "ws_clients": a.hub.ClientCount()}
	if a.signals != nil {
		if err := a.signals.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["clickhouse"] = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, status)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.sink.Close(); err != nil {
		a.l.Warn("sink close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
