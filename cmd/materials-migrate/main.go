// Package main is the schema migration tool for the materials service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/bootstrap"
	"github.com/bleu-ims/materials-service/internal/config"
	"github.com/bleu-ims/materials-service/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	migrationsDir := flag.String("migrations", "migrations", "Path to SQL migrations")
	action := flag.String("action", "up", "Action to run: up, status, validate")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	runner := bootstrap.NewMigrationRunner(pool, *migrationsDir, logger)

	switch *action {
	case "up":
		if err := runner.Run(ctx); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			logger.Fatal("Failed to read migration status", zap.Error(err))
		}
		for _, s := range statuses {
			state := "PENDING"
			if s.Applied {
				state = fmt.Sprintf("applied at %s (checksum ok: %t)",
					s.AppliedAt.Format(time.RFC3339), s.ChecksumMatch)
			}
			fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
		}
	case "validate":
		if err := runner.ValidateChecksums(ctx); err != nil {
			logger.Fatal("Checksum validation failed", zap.Error(err))
		}
		logger.Info("All migration checksums are valid")
	default:
		fmt.Fprintf(os.Stderr, "unknown action %q: use up, status or validate\n", *action)
		os.Exit(2)
	}
}
