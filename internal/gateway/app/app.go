package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/crmconnect/internal/gateway/http"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/service"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/crmconnect/pkg/cryptox"
	"github.com/aussiebroadwan/crmconnect/pkg/hubspot"
	"github.com/aussiebroadwan/crmconnect/pkg/otelx"
	"github.com/aussiebroadwan/crmconnect/pkg/slogx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName = "crmconnect-gateway"

	providerTimeout = 10 * time.Second
)

// Application wires the gateway together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db            store.Store
	sealer        *cryptox.Sealer
	otelShutdown  otelx.ShutdownFunc
	provider      *hubspot.Client
	tokenService  *service.TokenService
	integrService *service.IntegrationService

	server *http.Server
	router *httpapi.Router
}

// setupTelemetry is replaced in tests.
var setupTelemetry = otelx.Setup

// New creates an Application with all dependencies initialised.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.HubSpot.Validate(); err != nil {
		return nil, err
	}

	shutdown, err := setupTelemetry(context.Background(), cfg.OTELEndpoint, serviceName, BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.otelShutdown = shutdown

	if err := app.initDatabase(); err != nil {
		_ = app.otelShutdown(context.Background())
		return nil, err
	}

	sealer, err := InitSealer(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		_ = app.otelShutdown(context.Background())
		return nil, err
	}
	app.sealer = sealer

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("gateway starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the server, flushes spans and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.otelShutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.provider = hubspot.NewClient(app.cfg.HubSpot, &http.Client{
		Timeout:   providerTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})

	app.tokenService = &service.TokenService{
		Store:  app.db,
		Sealer: app.sealer,
	}
	app.integrService = &service.IntegrationService{
		Provider: app.provider,
		Tokens:   app.tokenService,
	}

	if len(app.cfg.HubSpot.Scopes) == 0 {
		app.logger.Warn("HUBSPOT_SCOPES is empty, authorization URLs will request no scopes")
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.TokenService = app.tokenService
	router.IntegrationService = app.integrService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
