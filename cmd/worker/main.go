package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/reel-tracker/metrics-scheduler-go/internal/config"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/repository"
	"github.com/reel-tracker/metrics-scheduler-go/internal/handler"
	"github.com/reel-tracker/metrics-scheduler-go/internal/platform"
	"github.com/reel-tracker/metrics-scheduler-go/internal/service"
	"github.com/reel-tracker/metrics-scheduler-go/internal/worker"
	"github.com/reel-tracker/metrics-scheduler-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	ctx := context.Background()
	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.ApplySchema(ctx, pool); err != nil {
		log.Fatal("failed to apply database schema", zap.Error(err))
	}
	log.Info("database ready",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	accountRepo := repository.NewAccountRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)

	client := platform.NewClient(&cfg.Platform)

	engine := service.NewEngine(videoRepo, scheduleRepo, snapshotRepo, client, &cfg.Worker, log)
	discovery := service.NewDiscovery(accountRepo, videoRepo, engine, client, &cfg.Worker, log)

	// Snapshot event publishing is optional
	var publisher *service.MessagePublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = service.NewMessagePublisher(&cfg.RabbitMQ)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		engine.SetPublisher(publisher)
	} else {
		log.Info("RabbitMQ publishing disabled")
	}

	driver := worker.NewDriver(engine, discovery, &cfg.Worker, log)
	if err := driver.Start(); err != nil {
		log.Fatal("failed to start worker", zap.Error(err))
	}

	server := newServer(cfg, pool, scheduleRepo, publisher)
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("ops server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("ops server failed", zap.Error(err))
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	// Let in-flight jobs drain before closing shared resources.
	stopCtx := driver.Stop()
	select {
	case <-stopCtx.Done():
		log.Info("worker jobs drained")
	case <-time.After(cfg.Server.ShutdownTimeout):
		log.Warn("timed out waiting for worker jobs")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("ops server shutdown failed", zap.Error(err))
	}

	log.Info("stopped")
}

func newServer(cfg *config.Config, pool *pgxpool.Pool, scheduleRepo repository.ScheduleRepository, publisher *service.MessagePublisher) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pool, publisher)
	statsHandler := handler.NewStatsHandler(scheduleRepo)

	router.GET("/health/live", healthHandler.LivenessProbe)
	router.GET("/health/ready", healthHandler.ReadinessProbe)
	router.GET("/stats/schedules", statsHandler.ScheduleStats)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
