package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bleu-ims/materials-service/pkg/healthcheck"
)

// Checker reports database health from pool connectivity and utilization.
type Checker struct {
	pool     *pgxpool.Pool
	maxConns int
}

// NewChecker creates a health checker for the given pool.
func NewChecker(pool *pgxpool.Pool, maxConns int) *Checker {
	return &Checker{pool: pool, maxConns: maxConns}
}

// Name implements healthcheck.Checker.
func (c *Checker) Name() string {
	return "database"
}

// Check pings the database and inspects pool utilization.
func (c *Checker) Check(ctx context.Context) *healthcheck.Result {
	status := healthcheck.StatusHealthy
	message := "Database is healthy"
	details := make(map[string]interface{})

	if c.pool == nil {
		status = healthcheck.StatusUnhealthy
		message = "Database pool not initialized"
		details["pool_initialized"] = false
	} else {
		details["pool_initialized"] = true

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := c.pool.Ping(ctx); err != nil {
			status = healthcheck.StatusUnhealthy
			message = "Database ping failed: " + err.Error()
			details["ping_error"] = err.Error()
		} else {
			stats := c.pool.Stat()
			details["total_conns"] = stats.TotalConns()
			details["idle_conns"] = stats.IdleConns()
			details["acquired_conns"] = stats.AcquiredConns()

			if c.maxConns > 0 && stats.AcquiredConns() >= int32(c.maxConns)-1 {
				status = healthcheck.StatusDegraded
				message = "Database connection pool near capacity"
			}
		}
	}

	return &healthcheck.Result{
		ComponentName: c.Name(),
		Status:        status,
		Message:       message,
		Timestamp:     time.Now(),
		Details:       details,
	}
}
