package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"portal-session-service/app/port"
)

const (
	tokenKey = "portal:session:token"

	// Kratos session lifetimes are provider-side; the cache entry only has
	// to outlive them.
	tokenTTL = 30 * 24 * time.Hour

	opTimeout = 2 * time.Second
)

// TokenCache implements port.SessionCache on Redis. It persists the active
// session token across restarts so bootstrap can recover the session.
type TokenCache struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a TokenCache and verifies connectivity. A failed ping is an
// error for the caller to decide on; the returned cache still works once
// Redis comes back.
func New(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*TokenCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	logger.Info("session token cache connected", "addr", addr, "db", db)
	return &TokenCache{
		client: client,
		logger: logger.With("component", "token_cache"),
	}, nil
}

var _ port.SessionCache = (*TokenCache)(nil)

// StoreToken writes the session token.
func (c *TokenCache) StoreToken(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, tokenKey, token, tokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

// LoadToken reads the session token. A missing key is an empty token, not
// an error.
func (c *TokenCache) LoadToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	token, err := c.client.Get(ctx, tokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session token: %w", err)
	}
	return token, nil
}

// Clear removes the session token.
func (c *TokenCache) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, tokenKey).Err(); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity.
func (c *TokenCache) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *TokenCache) Close() error {
	return c.client.Close()
}
