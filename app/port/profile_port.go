package port

//go:generate mockgen -source=profile_port.go -destination=../mocks/mock_profile_port.go

import (
	"context"

	"github.com/google/uuid"

	"portal-session-service/app/domain"
)

// ProfileStore is the durable profile store boundary.
type ProfileStore interface {
	// GetByIdentity fetches the profile keyed by identity id through the
	// standard, policy-evaluated path. Returns domain.ErrProfileNotFound
	// when no row exists and wraps domain.ErrRecursivePolicy when the
	// store's own policy evaluation references itself.
	GetByIdentity(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error)

	// GetByIdentityPrivileged fetches the profile through the
	// administrative path that bypasses per-row policy evaluation.
	// Returns domain.ErrPrivilegedUnavailable when no privileged
	// connection is configured.
	GetByIdentityPrivileged(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error)

	// Upsert writes profile fields durably and returns the stored row.
	Upsert(ctx context.Context, identityID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error)
}
