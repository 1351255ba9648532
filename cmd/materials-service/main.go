// Package main is the entry point for the materials inventory service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/bootstrap"
	"github.com/bleu-ims/materials-service/internal/config"
	"github.com/bleu-ims/materials-service/internal/engines/inventory"
	"github.com/bleu-ims/materials-service/internal/engines/security"
	"github.com/bleu-ims/materials-service/internal/metrics"
	"github.com/bleu-ims/materials-service/internal/server"
	"github.com/bleu-ims/materials-service/internal/storage"
	"github.com/bleu-ims/materials-service/pkg/events"
	"github.com/bleu-ims/materials-service/pkg/healthcheck"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	envFile := flag.String("env-file", "", "Path to .env file (optional)")
	migrationsDir := flag.String("migrations", "migrations", "Path to SQL migrations")
	skipMigrations := flag.Bool("skip-migrations", false, "Skip running migrations at startup")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			panic("failed to load env file: " + err.Error())
		}
	} else {
		// best effort: a local .env is optional
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting materials service",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.Bool("broker_enabled", cfg.Broker.Enabled))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := storage.NewPool(ctx, storage.PoolConfig{
		DatabaseURL:    cfg.Database.URL,
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MinConnections,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if !*skipMigrations {
		runner := bootstrap.NewMigrationRunner(pool, *migrationsDir, logger)
		if err := runner.Run(ctx); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	var validator security.TokenValidator
	switch cfg.Auth.Mode {
	case "local":
		validator = security.NewLocalValidator(cfg.Auth.JWTSecret, logger)
	default:
		validator = security.NewRemoteValidator(cfg.Auth.UserServiceURL, cfg.Auth.RequestTimeout, logger)
	}

	materials := inventory.NewMaterialEngine(pool, logger)
	batches := inventory.NewBatchEngine(pool, logger)

	recorder := metrics.NewRecorder(nil)
	health := healthcheck.NewEngine(logger, cfg.Broker.HealthInterval)
	health.Register(storage.NewChecker(pool, cfg.Database.MaxConnections))
	go health.Start(ctx)

	var publisher server.Publisher
	var broker *events.Client
	if cfg.Broker.Enabled {
		broker, err = events.NewClient(&events.Config{
			BrokerURL:            cfg.Broker.URL,
			ClientID:             cfg.Broker.ClientID,
			Username:             cfg.Broker.Username,
			Password:             cfg.Broker.Password,
			QoS:                  1,
			KeepAlive:            cfg.Broker.KeepAlive,
			ConnectTimeout:       cfg.Broker.ConnectTimeout,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create broker client", zap.Error(err))
		}
		if err := broker.Connect(); err != nil {
			// events are best effort, the client reconnects in the background
			logger.Warn("Broker connection failed, continuing without events", zap.Error(err))
		}
		defer broker.Disconnect()

		publisher = broker
		health.Register(events.NewChecker(broker))
		go publishHealth(ctx, broker, health, cfg.Broker.HealthInterval, logger)

		if broker.IsConnected() {
			consumer := inventory.NewSalesConsumer(materials, 30*time.Second, logger)
			if err := consumer.Start(broker); err != nil {
				logger.Warn("Sales consumer not started", zap.Error(err))
			} else {
				defer consumer.Stop(broker)
			}
		}
	}

	srv, err := server.NewServer(server.Options{
		Config:    cfg,
		Logger:    logger,
		Materials: materials,
		Batches:   batches,
		Validator: validator,
		APIKeys:   security.NewAPIKeyEngine(pool, logger),
		Recorder:  recorder,
		Health:    health,
		Publisher: publisher,
	})
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Materials service stopped")
}

// publishHealth pushes the aggregated health summary to the broker on a
// fixed interval.
func publishHealth(ctx context.Context, broker *events.Client, health *healthcheck.Engine, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !broker.IsConnected() {
				continue
			}
			summary := health.CheckAll(ctx)
			components := make(map[string]string, len(summary.Components))
			for name, result := range summary.Components {
				components[name] = string(result.Status)
			}
			msg, err := events.NewMessage(events.MessageTypeStatus, "service:materials",
				events.HealthStatusEvent{
					Status:     string(summary.OverallStatus),
					Components: components,
				})
			if err != nil {
				continue
			}
			if err := broker.PublishMessage(events.HealthTopic(), msg); err != nil {
				logger.Debug("Health publish failed", zap.Error(err))
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	if cfg.Level == "debug" || cfg.Format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
