package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/campaign-manager/backend/internal/app"
	"github.com/campaign-manager/backend/internal/cache"
	"github.com/campaign-manager/backend/internal/config"
	"github.com/campaign-manager/backend/internal/db"
	"github.com/campaign-manager/backend/internal/events"
	apphttp "github.com/campaign-manager/backend/internal/http"
	"github.com/campaign-manager/backend/internal/http/handlers"
	"github.com/campaign-manager/backend/internal/logger"
	"github.com/campaign-manager/backend/internal/platforms"
	"github.com/campaign-manager/backend/internal/repositories/memstore"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/campaign-manager/backend/migrations"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Development: cfg.IsDevelopment(), File: cfg.LogFile})
	defer log.Sync()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stores app.Stores
	if !cfg.MemoryStore {
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.DefaultPoolOptions, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := db.RunMigrations(ctx, pool, migrationsFS(cfg), log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		stores = app.PostgresStores(pool)
	} else {
		log.Warn("MEMORY_STORE set, data is not persisted")
		stores = app.MemoryStores(memstore.New())
	}

	// Redis backs the event bus, the dashboard cache and the rate limiter.
	var (
		rdb        *redis.Client
		publisher  events.Publisher
		subscriber events.Subscriber
		dashCache  services.Cache
	)
	client, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, using in-process bus and cache", zap.Error(err))
	} else {
		defer client.Close()
		rdb = client
		publisher = events.NewRedisPublisher(rdb, log)
		subscriber = events.NewRedisSubscriber(rdb, log)
		dashCache = cache.NewRedis(rdb, "cm:")
	}
	if rdb == nil {
		bus := events.NewLocalBus()
		publisher, subscriber = bus, bus
		dashCache = cache.NewMemory()
	}

	svc := app.NewServices(cfg, stores, dashCache, publisher, platforms.NewFactory(app.PlatformOptions(cfg), log), log)

	wsHub := handlers.NewWSHub(svc.Auth, subscriber, log)
	wsHub.Start(ctx)

	fiberApp := apphttp.NewApp(log)
	apphttp.SetupRouter(fiberApp, cfg, log, rdb, svc.Auth, svc.Handlers(wsHub, log))

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = fiberApp.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := fiberApp.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// migrationsFS prefers MIGRATIONS_DIR on disk and falls back to the embedded copy.
func migrationsFS(cfg *config.Config) fs.FS {
	if st, err := os.Stat(cfg.MigrationsDir); err == nil && st.IsDir() {
		return os.DirFS(cfg.MigrationsDir)
	}
	return migrations.FS
}
