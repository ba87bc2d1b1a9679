// @title           Service Desk API
// @version         1.0
// @description     User administration, role-derived permissions and ticket handling for the service desk.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the session token.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/servicedesk/service-desk/internal/api"
	"github.com/servicedesk/service-desk/internal/core/ports"
	"github.com/servicedesk/service-desk/internal/core/service"
	"github.com/servicedesk/service-desk/internal/infrastructure/db/memory"
	mongostore "github.com/servicedesk/service-desk/internal/infrastructure/db/mongo"
	redisstore "github.com/servicedesk/service-desk/internal/infrastructure/db/redis"
	"github.com/servicedesk/service-desk/internal/infrastructure/db/sqlite"
	"github.com/servicedesk/service-desk/internal/infrastructure/http/handlers"
	"github.com/servicedesk/service-desk/internal/infrastructure/queue"
	"github.com/servicedesk/service-desk/internal/pkg/config"
	"github.com/servicedesk/service-desk/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// storage bundles the repositories of the selected backend.
type storage struct {
	users   ports.UserStore
	tickets ports.TicketRepository
	catalog ports.CatalogRepository
	audit   ports.AuditRepository
	checks  map[string]handlers.Check
	close   func(context.Context) error
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "service-desk",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("storage close failed")
		}
	}()
	log.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	revoker, closeRevoker, err := openRevoker(ctx, cfg, store.checks)
	if err != nil {
		return err
	}
	defer closeRevoker()

	// The audit pipeline outlives the HTTP server so queued events drain.
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, store.audit, logger.Component("audit"))
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	access := service.NewAccessControlService(store.users, logger.Component("access"),
		service.WithAuditRecorder(dispatcher))
	if _, err := access.Bootstrap(ctx, cfg.AdminBootstrapPassword); err != nil {
		return fmt.Errorf("bootstrap administrator: %w", err)
	}

	catalog := service.NewCatalogService(store.catalog, logger.Component("catalog"))
	if cfg.SeedSampleData {
		if err := catalog.SeedSampleData(ctx); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
	}
	tickets := service.NewTicketService(store.tickets, store.catalog, logger.Component("tickets"))

	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn().Msg("JWT_SECRET not set; using an ephemeral secret, sessions end on restart")
	}

	e := api.NewRouter(api.Dependencies{
		Access:  access,
		Tickets: tickets,
		Catalog: catalog,
		Tokens:  service.NewTokenService(secret, cfg.TokenTTL),
		Revoker: revoker,
		Checks:  store.checks,
		Logger:  logger.Component("http"),

		LoginRate:  rate.Limit(cfg.LoginRateLimit),
		LoginBurst: cfg.LoginBurst,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info().Msg("shutdown signal received")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		log.Info().Msg("http server stopped")
		return nil
	})
	return g.Wait()
}

// openStorage connects the backend named by STORAGE_BACKEND. There is no
// fallback: a backend that cannot be opened stops the service.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &storage{
			users:   mongostore.NewUserStore(db),
			tickets: mongostore.NewTicketRepository(db),
			catalog: mongostore.NewCatalogRepository(db),
			audit:   mongostore.NewAuditRepository(db),
			checks:  map[string]handlers.Check{"mongodb": handlers.MongoCheck(db)},
			close:   client.Disconnect,
		}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &storage{
			users:   sqlite.NewUserStore(db),
			tickets: sqlite.NewTicketRepository(db),
			catalog: sqlite.NewCatalogRepository(db),
			audit:   sqlite.NewAuditRepository(db),
			checks:  map[string]handlers.Check{"sqlite": handlers.SQLCheck(db)},
			close:   func(context.Context) error { return db.Close() },
		}, nil

	default:
		return &storage{
			users:   memory.NewUserStore(),
			tickets: memory.NewTicketRepository(),
			catalog: memory.NewCatalogRepository(),
			audit:   memory.NewAuditRepository(),
			checks:  map[string]handlers.Check{},
			close:   func(context.Context) error { return nil },
		}, nil
	}
}

// openRevoker uses Redis when REDIS_ADDR is set and registers its health check.
func openRevoker(ctx context.Context, cfg *config.Config, checks map[string]handlers.Check) (ports.TokenRevoker, func(), error) {
	if cfg.Redis.Addr == "" {
		return memory.NewRevocationList(), func() {}, nil
	}
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = handlers.RedisCheck(rdb)
	return redisstore.NewRevocationList(rdb), func() { _ = rdb.Close() }, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("random secret: %v", err))
	}
	return hex.EncodeToString(b)
}
