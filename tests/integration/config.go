package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"portal-session-service/app/config"
	"portal-session-service/app/driver/kratos"
	"portal-session-service/app/utils/logger"
)

const (
	// Test environment configuration
	TestPostgresHost     = "localhost"
	TestPostgresPort     = "5433"
	TestPostgresDB       = "portal_test_db"
	TestPostgresUser     = "portal_test_user"
	TestPostgresPassword = "test_password"
	TestPostgresSSLMode  = "disable"

	TestKratosPublicURL = "http://localhost:4433"

	TestRedisAddr = "localhost:6380"
)

// TestConfig creates a configuration for integration tests
func TestConfig() *config.Config {
	return &config.Config{
		Port:     "9500",
		Host:     "0.0.0.0",
		LogLevel: "debug",

		DatabaseHost:     TestPostgresHost,
		DatabasePort:     TestPostgresPort,
		DatabaseName:     TestPostgresDB,
		DatabaseUser:     TestPostgresUser,
		DatabasePassword: TestPostgresPassword,
		DatabaseSSLMode:  TestPostgresSSLMode,

		KratosPublicURL: TestKratosPublicURL,

		RedisAddr: TestRedisAddr,

		BootstrapTimeout:    10 * time.Second,
		SessionPollInterval: time.Second,
	}
}

// TestDatabaseConnection opens a pgx pool against the test database.
func TestDatabaseConnection(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		TestPostgresUser, TestPostgresPassword,
		TestPostgresHost, TestPostgresPort,
		TestPostgresDB, TestPostgresSSLMode)
	return pgxpool.New(ctx, dsn)
}

// TestKratosClient builds a Kratos client against the local test instance.
func TestKratosClient() (*kratos.Client, error) {
	testLogger, err := logger.New("debug")
	if err != nil {
		return nil, err
	}
	return kratos.NewClient(TestConfig(), testLogger)
}

// WaitForDatabase blocks until the test database accepts connections.
func WaitForDatabase(ctx context.Context) error {
	return waitFor(ctx, func(ctx context.Context) error {
		pool, err := TestDatabaseConnection(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		return pool.Ping(ctx)
	})
}

// WaitForKratos blocks until the local Kratos instance answers.
func WaitForKratos(ctx context.Context) error {
	client, err := TestKratosClient()
	if err != nil {
		return err
	}
	return waitFor(ctx, client.HealthCheck)
}

func waitFor(ctx context.Context, probe func(context.Context) error) error {
	deadline := time.Now().Add(30 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		if err := probe(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("dependency not ready: %w", lastErr)
}
