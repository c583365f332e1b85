package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/taskboard/internal/auth/http"
	"github.com/aussiebroadwan/taskboard/internal/auth/notify"
	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/taskboard/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application holds the auth service and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	redis    *redis.Client        // nil unless REDIS_ADDR is set
	amqp     *notify.AMQPNotifier // nil unless AMQP_URL is set
	notifier service.ResetNotifier

	tokens       *service.TokenIssuer
	sessions     *service.SessionService
	accounts     *service.AccountService
	resets       *service.PasswordResetService
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New wires the application from cfg. Nothing listens until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initNotifier(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initRedis(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	app.initHTTP()

	if cfg.ShouldSeed() {
		if err := app.seed(ctx); err != nil {
			app.closeAll()
			return nil, err
		}
	}

	return app, nil
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeeping.Stop()
			app.closeAll()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig.String())
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, then releases the store and brokers.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// closeAll releases every external resource New acquired. Safe to call on a
// partially built Application.
func (app *Application) closeAll() error {
	var errs []error
	if app.amqp != nil {
		if err := app.amqp.Close(); err != nil {
			app.logger.Error("error closing amqp notifier", "error", err)
			errs = append(errs, err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initDatabase() error {
	switch app.cfg.StoreDriver {
	case StoreSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	default:
		app.db = memory.NewStore()
		app.logger.Warn("using in-memory store; all accounts are lost on restart")
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() error {
	secret := []byte(app.cfg.JWTSecret)
	if len(secret) == 0 {
		generated, err := cryptox.GenerateToken(cryptox.SecretSize)
		if err != nil {
			return fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = []byte(generated)
		app.logger.Warn("AUTH_JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}

	tokens, err := service.NewTokenIssuer(secret, app.cfg.Issuer, app.cfg.AccessTTL, app.cfg.RefreshTTL, app.cfg.ResetTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.tokens = tokens

	hasher := cryptox.NewPasswordHasher(app.cfg.BcryptCost, app.cfg.HashTimeout)

	app.sessions = &service.SessionService{Store: app.db, Tokens: tokens}
	app.accounts = &service.AccountService{
		Store:    app.db,
		Hasher:   hasher,
		Sessions: app.sessions,
	}
	app.resets = &service.PasswordResetService{
		Store:    app.db,
		Tokens:   tokens,
		Hasher:   hasher,
		ResetURL: app.cfg.ResetURL,
	}
	app.housekeeping = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingInterval)
	return nil
}

// initNotifier picks where reset links go: a durable queue when a broker is
// configured, otherwise the log.
func (app *Application) initNotifier(ctx context.Context) error {
	if app.cfg.AMQPURL == "" {
		app.notifier = service.LogNotifier{}
		app.resets.Notifier = app.notifier
		app.logger.Warn("AMQP_URL not set; password reset links will be logged")
		return nil
	}

	n := notify.NewAMQPNotifier(app.cfg.AMQPURL, app.cfg.ResetQueue)
	if err := n.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to amqp broker: %w", err)
	}
	app.amqp = n
	app.notifier = n
	app.resets.Notifier = n
	app.logger.Info("password reset notifications via amqp", "queue", app.cfg.ResetQueue)
	return nil
}

func (app *Application) initRedis(ctx context.Context) error {
	if app.cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = rdb
	app.logger.Info("rate limiting shared through redis", "addr", app.cfg.RedisAddr)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokens.Verifier,
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.CORSOrigins,
	)
	router.Accounts = app.accounts
	router.Sessions = app.sessions
	router.Resets = app.resets
	if app.redis != nil {
		router.Limiters = httpx.RedisLimiters(app.redis, "taskboard")
	}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (app *Application) seed(ctx context.Context) error {
	created, err := app.accounts.Seed(ctx, service.DevSeedUsers)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if created > 0 {
		app.logger.Info("seeded development users", "created", created)
	}
	return nil
}
