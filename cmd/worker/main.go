package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campaign-manager/backend/internal/app"
	"github.com/campaign-manager/backend/internal/cache"
	"github.com/campaign-manager/backend/internal/config"
	"github.com/campaign-manager/backend/internal/db"
	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/logger"
	"github.com/campaign-manager/backend/internal/platforms"
	"github.com/campaign-manager/backend/internal/worker"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Development: cfg.IsDevelopment(), File: cfg.LogFile}).Named("worker")
	defer log.Sync()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.DefaultPoolOptions, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	publisher := events.NewRedisPublisher(rdb, log)
	svc := app.NewServices(
		cfg,
		app.PostgresStores(pool),
		cache.NewRedis(rdb, "cm:"),
		publisher,
		platforms.NewFactory(app.PlatformOptions(cfg), log),
		log,
	)

	scheduler := worker.NewScheduler(worker.Schedules{
		MetricsSync:      cfg.MetricsSyncCron,
		ConnectionExpiry: cfg.ConnectionExpiryCron,
		JobTimeout:       10 * time.Minute,
	}, svc.Sync, svc.Platform, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("invalid job schedule", zap.Error(err))
	}

	// Metrics endpoint
	metricsApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	metricsApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	metricsApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	go func() {
		addr := fmt.Sprintf(":%s", cfg.WorkerPort)
		if err := metricsApp.Listen(addr); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	log.Info("worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down worker")
	cancel()
	scheduler.Stop()
	_ = metricsApp.Shutdown()
}
