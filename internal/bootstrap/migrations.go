// Package bootstrap prepares the database schema at service startup.
package bootstrap

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/storage"
)

// Migration is one SQL migration file.
type Migration struct {
	Name      string
	Version   int
	Checksum  string
	SQL       string
	AppliedAt *time.Time
}

// MigrationStatus describes one migration relative to the database.
type MigrationStatus struct {
	Name          string
	Version       int
	Applied       bool
	AppliedAt     *time.Time
	ChecksumMatch bool
}

// MigrationRunner applies SQL migrations in filename order and tracks them
// in schema_migrations with a content checksum.
type MigrationRunner struct {
	db     storage.DB
	dir    string
	logger *zap.Logger
}

// NewMigrationRunner creates a runner reading .sql files from dir.
func NewMigrationRunner(db storage.DB, dir string, logger *zap.Logger) *MigrationRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationRunner{
		db:     db,
		dir:    dir,
		logger: logger.With(zap.String("component", "migrations")),
	}
}

// Initialize creates the schema_migrations tracking table.
func (mr *MigrationRunner) Initialize(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			checksum VARCHAR(64) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	if _, err := mr.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize schema_migrations table: %w", err)
	}
	return nil
}

// LoadMigrations reads the migration directory in lexical filename order.
func (mr *MigrationRunner) LoadMigrations() ([]*Migration, error) {
	if mr.dir == "" {
		return nil, fmt.Errorf("migration directory not configured")
	}

	files, err := filepath.Glob(filepath.Join(mr.dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found in %s", mr.dir)
	}
	sort.Strings(files)

	migrations := make([]*Migration, 0, len(files))
	for i, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", path, err)
		}

		migrations = append(migrations, &Migration{
			Name:     filepath.Base(path),
			Version:  i + 1,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
			SQL:      string(content),
		})
	}
	return migrations, nil
}

func (mr *MigrationRunner) appliedMigrations(ctx context.Context) (map[string]*Migration, error) {
	rows, err := mr.db.Query(ctx,
		"SELECT version, name, checksum, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]*Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Checksum, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Name] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read migration rows: %w", err)
	}
	return applied, nil
}

// Run applies all pending migrations in order. Already applied migrations
// must match their recorded checksum.
func (mr *MigrationRunner) Run(ctx context.Context) error {
	if err := mr.Initialize(ctx); err != nil {
		return err
	}

	migrations, err := mr.LoadMigrations()
	if err != nil {
		return err
	}

	applied, err := mr.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	pending := 0
	for _, migration := range migrations {
		if prior, exists := applied[migration.Name]; exists {
			if prior.Checksum != migration.Checksum {
				return fmt.Errorf("migration %s changed after being applied (recorded %s, current %s)",
					migration.Name, prior.Checksum[:8], migration.Checksum[:8])
			}
			continue
		}

		mr.logger.Info("Applying migration",
			zap.String("name", migration.Name),
			zap.Int("version", migration.Version))

		if err := mr.apply(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Name, err)
		}
		pending++
	}

	if pending == 0 {
		mr.logger.Info("Database schema is up to date")
	} else {
		mr.logger.Info("Migrations applied", zap.Int("count", pending))
	}
	return nil
}

func (mr *MigrationRunner) apply(ctx context.Context, migration *Migration) error {
	tx, err := mr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	appliedAt := time.Now()
	_, err = tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, name, checksum, applied_at) VALUES ($1, $2, $3, $4)",
		migration.Version, migration.Name, migration.Checksum, appliedAt)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	migration.AppliedAt = &appliedAt
	return nil
}

// Status reports every known migration and whether it has been applied.
func (mr *MigrationRunner) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := mr.Initialize(ctx); err != nil {
		return nil, err
	}

	migrations, err := mr.LoadMigrations()
	if err != nil {
		return nil, err
	}

	applied, err := mr.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		status := MigrationStatus{
			Name:    migration.Name,
			Version: migration.Version,
		}
		if prior, exists := applied[migration.Name]; exists {
			status.Applied = true
			status.AppliedAt = prior.AppliedAt
			status.ChecksumMatch = prior.Checksum == migration.Checksum
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ValidateChecksums fails when any applied migration no longer matches its
// recorded checksum.
func (mr *MigrationRunner) ValidateChecksums(ctx context.Context) error {
	statuses, err := mr.Status(ctx)
	if err != nil {
		return err
	}

	mismatches := 0
	for _, status := range statuses {
		if status.Applied && !status.ChecksumMatch {
			mr.logger.Error("Migration checksum mismatch",
				zap.String("name", status.Name),
				zap.Int("version", status.Version))
			mismatches++
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("found %d migration(s) with checksum mismatches", mismatches)
	}
	return nil
}
