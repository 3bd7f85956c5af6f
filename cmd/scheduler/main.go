package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/app"
	"github.com/Freeeeeet/training_scheduler/internal/config"
	"github.com/Freeeeeet/training_scheduler/internal/controller"
	"github.com/Freeeeeet/training_scheduler/internal/metrics"
	"github.com/Freeeeeet/training_scheduler/internal/repository"
	"github.com/Freeeeeet/training_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Scheduler stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting training scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Location.String()),
		zap.Bool("bot_disabled", cfg.BotDisabled),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to PostgreSQL")

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	schedulerMetrics := metrics.New(registry)

	store := repository.NewStore(pool, logger)
	clock := service.NewSystemClock(cfg.Location)
	policy := service.ReschedulePolicy{
		MaxReschedules: cfg.MaxReschedules,
		MinNotice:      cfg.RescheduleMinNotice,
	}

	seriesService := service.NewSeriesService(store, clock, policy, schedulerMetrics, logger)
	transferService := service.NewTransferService(store, clock, policy, schedulerMetrics, logger)
	userService := service.NewUserService(store.Users, cfg.StaffTelegramIDs, logger)
	catalogService := service.NewCatalogService(store.Packages, logger)

	scheduler := app.NewScheduler(seriesService, cfg.AutoCompleteInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           app.NewHTTPHandler(pool, registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	if cfg.BotDisabled {
		logger.Info("Telegram bot disabled")
		<-ctx.Done()
	} else {
		botInstance, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}

		botController := controller.NewBotController(
			botInstance,
			userService,
			catalogService,
			seriesService,
			transferService,
			cfg.Location,
			logger,
		)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}

		// Блокируется до сигнала остановки
		botController.Start(ctx)
	}

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
