package port

//go:generate mockgen -source=cache_port.go -destination=../mocks/mock_cache_port.go

import "context"

// SessionCache holds best-effort cached session artifacts. It is never
// authoritative: the provider's own session retrieval is the source of
// truth on load, and every method tolerates the cache being down.
type SessionCache interface {
	StoreToken(ctx context.Context, token string) error
	LoadToken(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}
