package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"portal-session-service/app/config"
)

// Connection pool configuration constants
const (
	maxConns        = int32(25)
	minConns        = int32(5)
	maxConnLifetime = time.Hour
	maxConnIdleTime = 30 * time.Minute

	// The privileged pool exists only for policy-bypass profile reads.
	privilegedMaxConns = int32(4)
)

// DB holds the PostgreSQL connection pools. The standard pool connects as
// the application role and is subject to row policies; the privileged pool
// connects as an administrative role that bypasses them, and is nil when
// no privileged credentials are configured.
type DB struct {
	pool       *pgxpool.Pool
	privileged *pgxpool.Pool
	logger     *slog.Logger
}

// NewConnection creates the PostgreSQL connection pools.
func NewConnection(cfg *config.Config, logger *slog.Logger) (*DB, error) {
	pool, err := newPool(buildDSN(cfg, cfg.DatabaseUser, cfg.DatabasePassword), maxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	logger.Info("database connection established",
		"host", cfg.DatabaseHost,
		"database", cfg.DatabaseName,
		"max_conns", maxConns,
		"min_conns", minConns)

	db := &DB{
		pool:   pool,
		logger: logger,
	}

	if cfg.DatabasePrivilegedUser == "" {
		logger.Warn("no privileged database credentials configured, policy-bypass reads disabled")
		return db, nil
	}

	privileged, err := newPool(buildDSN(cfg, cfg.DatabasePrivilegedUser, cfg.DatabasePrivilegedPassword), privilegedMaxConns)
	if err != nil {
		// The privileged path is a fallback. Losing it degrades profile
		// resolution, it does not stop the service.
		logger.Error("failed to create privileged connection pool, policy-bypass reads disabled", "error", err)
		return db, nil
	}

	logger.Info("privileged database connection established", "user", cfg.DatabasePrivilegedUser)
	db.privileged = privileged
	return db, nil
}

func newPool(dsn string, max int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = max
	if minConns < max {
		poolConfig.MinConns = minConns
	} else {
		poolConfig.MinConns = 1
	}
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Close closes both connection pools.
func (db *DB) Close() {
	if db.privileged != nil {
		db.privileged.Close()
	}
	if db.pool != nil {
		db.pool.Close()
		db.logger.Info("database connection closed")
	}
}

// Pool returns the standard connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// PrivilegedPool returns the privileged pool, or nil when unconfigured.
func (db *DB) PrivilegedPool() *pgxpool.Pool {
	return db.privileged
}

// HealthCheck checks if the database is healthy.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.pool == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.pool.Ping(ctx)
}

// buildDSN builds the PostgreSQL connection string for the given role.
func buildDSN(cfg *config.Config, user, password string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user,
		password,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
}
