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

	httpapi "github.com/lagoonid/oauthd/internal/oauth/http"
	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/internal/oauth/sessionauth"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/internal/oauth/store/clientcache"
	redisdriver "github.com/lagoonid/oauthd/internal/oauth/store/drivers/redis"
	"github.com/lagoonid/oauthd/internal/oauth/store/drivers/sqlite"
	"github.com/lagoonid/oauthd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the oauth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    *sqlite.Store
	redis *redisdriver.Store

	clients store.Clients
	codes   store.Codes
	tokens  store.Tokens

	assertions   *service.AssertionService
	codeService  *service.CodeService
	tokenService *service.TokenService
	introspect   *service.IntrospectService
	revocations  *service.RevocationService
	keyData      *service.KeyDataService
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "oauthd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStores(); err != nil {
		return nil, err
	}
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("oauth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"grant_backend", app.cfg.GrantBackend,
	)

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

// Shutdown gracefully stops the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down oauth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("oauth service stopped")
	return nil
}

// initStores opens the relational store and, when configured, the redis
// grant-state backend. Clients and scoped keys always live in sqlite;
// codes and tokens follow the configured backend.
func (app *Application) initStores() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	app.clients = clientcache.New(db.Clients(), app.cfg.ClientCacheTTL)
	app.codes = db.Codes()
	app.tokens = db.Tokens()

	if app.cfg.GrantBackend == BackendRedis {
		app.redis = redisdriver.NewStore(redisdriver.Config{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		app.codes = app.redis.Codes()
		app.tokens = app.redis.Tokens()
	}

	return nil
}

func (app *Application) initServices() {
	secrets := make([][]byte, 0, len(app.cfg.AuthSecrets))
	for _, s := range app.cfg.AuthSecrets {
		secrets = append(secrets, []byte(s))
	}

	app.assertions = service.NewAssertionService(service.AssertionConfig{
		Audience:        app.cfg.Audience,
		Issuer:          app.cfg.Issuer,
		Secrets:         secrets,
		VerificationURL: app.cfg.VerificationURL,
		PoolSize:        app.cfg.VerifierPoolSize,
		Timeout:         app.cfg.VerifierTimeout,
	})

	var sessions sessionauth.Provider
	if app.cfg.SessionVerifyURL != "" {
		sessions = sessionauth.NewRemoteProvider(sessionauth.RemoteConfig{
			URL:      app.cfg.SessionVerifyURL,
			PoolSize: app.cfg.VerifierPoolSize,
			Timeout:  app.cfg.VerifierTimeout,
		})
	}

	app.codeService = &service.CodeService{
		Clients: app.clients,
		Codes:   app.codes,
	}
	app.tokenService = &service.TokenService{
		Clients:    app.clients,
		Codes:      app.codes,
		Tokens:     app.tokens,
		Sessions:   sessions,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.introspect = &service.IntrospectService{Tokens: app.tokens}
	app.revocations = &service.RevocationService{
		Clients: app.clients,
		Codes:   app.codes,
		Tokens:  app.tokens,
	}
	app.keyData = &service.KeyDataService{
		Clients:    app.clients,
		ScopedKeys: app.db.ScopedKeys(),
	}

	app.housekeeping = service.NewHousekeepingService(
		app.codes,
		app.tokens,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	pingers := []httpapi.Pinger{app.db}
	if app.redis != nil {
		pingers = append(pingers, app.redis)
	}

	router := httpapi.NewRouter(BuildVersion, app.logger, pingers...)
	router.Clients = app.clients
	router.Assertions = app.assertions
	router.CodeService = app.codeService
	router.Tokens = app.tokenService
	router.Introspect = app.introspect
	router.Revocations = app.revocations
	router.KeyData = app.keyData
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
