package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/promptgen-backend/internal/config"
	apphttp "github.com/yungbote/promptgen-backend/internal/http"
	"github.com/yungbote/promptgen-backend/internal/observability"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Clients  Clients
	Services Services
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Env, cfg.OTel)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(context.Background())
		log.Sync()
		return nil, err
	}

	serviceset := wireServices(log, clients)
	handlerset := wireHandlers(log, cfg, clients, serviceset)
	server := wireServer(log, cfg, handlerset)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Services:     serviceset,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts the
// server down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Server.Addr(), "store", a.Cfg.Store.Driver, "engine", a.Cfg.Generator.Engine)
		return a.Server.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.Cfg.HTTP.ShutdownTimeout.Duration
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		a.Log.Info("HTTP server shutting down", "timeout", timeout.String())
		return a.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close(a.Log)
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
