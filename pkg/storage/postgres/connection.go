package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/pethealth/pethealth/pkg/observability"
)

// ConnectionConfig holds database connection configuration
type ConnectionConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// Open connects to PostgreSQL, configures the pool and verifies the
// connection with a ping bounded by config.Timeout.
func Open(ctx context.Context, config ConnectionConfig) (*sql.DB, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	configurePool(db, config)

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func configurePool(db *sql.DB, config ConnectionConfig) {
	if config.MaxConns > 0 {
		db.SetMaxOpenConns(config.MaxConns)
	}
	if config.MinConns > 0 {
		db.SetMaxIdleConns(config.MinConns)
	}
	db.SetConnMaxLifetime(config.MaxLifetime)
	db.SetConnMaxIdleTime(config.MaxIdleTime)
}

// StatsRecorder receives connection pool statistics
type StatsRecorder interface {
	RecordDBStats(stats sql.DBStats)
}

// StartStatsRoutine samples pool statistics every interval until ctx is done
func StartStatsRoutine(ctx context.Context, db *sql.DB, recorder StatsRecorder, interval time.Duration, logger *observability.Logger) {
	if interval == 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		defer observability.RecoverPanic(logger, "db-stats-routine")

		for {
			select {
			case <-ticker.C:
				recorder.RecordDBStats(db.Stats())
			case <-ctx.Done():
				return
			}
		}
	}()
}
