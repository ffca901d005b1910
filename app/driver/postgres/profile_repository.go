package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
)

// ProfileRepository implements port.ProfileStore for PostgreSQL. The
// standard connection is evaluated against row policies; the privileged
// connection bypasses them and may be nil.
type ProfileRepository struct {
	db         DatabaseIface
	privileged DatabaseIface
	logger     *slog.Logger
}

// NewProfileRepository creates a new PostgreSQL profile repository.
// privileged may be nil when no policy-bypass connection is configured.
func NewProfileRepository(db DatabaseIface, privileged DatabaseIface, logger *slog.Logger) port.ProfileStore {
	return &ProfileRepository{
		db:         db,
		privileged: privileged,
		logger:     logger.With("component", "profile_repository"),
	}
}

const selectProfileQuery = `
	SELECT id, identity_id, role, organization_id, display_name, phone, created_at, updated_at
	FROM profiles
	WHERE identity_id = $1`

// GetByIdentity fetches a profile through the policy-evaluated connection.
func (r *ProfileRepository) GetByIdentity(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error) {
	profile, err := r.scanProfile(r.db.QueryRow(ctx, selectProfileQuery, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for identity %s: %w", identityID, domain.ErrProfileNotFound)
		}
		if isRecursivePolicyError(err) {
			r.logger.Error("row policy recursion detected on profiles table", "identity_id", identityID, "error", err)
			return nil, fmt.Errorf("profile lookup for identity %s: %w", identityID, domain.ErrRecursivePolicy)
		}
		r.logger.Error("profile lookup failed", "identity_id", identityID, "error", err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// GetByIdentityPrivileged fetches a profile through the policy-bypass
// connection.
func (r *ProfileRepository) GetByIdentityPrivileged(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error) {
	if r.privileged == nil {
		return nil, domain.ErrPrivilegedUnavailable
	}

	profile, err := r.scanProfile(r.privileged.QueryRow(ctx, selectProfileQuery, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for identity %s: %w", identityID, domain.ErrProfileNotFound)
		}
		r.logger.Error("privileged profile lookup failed", "identity_id", identityID, "error", err)
		return nil, fmt.Errorf("failed to get profile via privileged connection: %w", err)
	}

	r.logger.Warn("profile resolved via privileged connection", "identity_id", identityID)
	return profile, nil
}

// Upsert writes the update durably and returns the stored row. Nil update
// fields keep their stored values.
func (r *ProfileRepository) Upsert(ctx context.Context, identityID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	query := `
		INSERT INTO profiles (id, identity_id, role, organization_id, display_name, phone)
		VALUES ($1, $1, 'client', $2, COALESCE($3, ''), COALESCE($4, ''))
		ON CONFLICT (identity_id) DO UPDATE SET
			organization_id = COALESCE($2, profiles.organization_id),
			display_name    = COALESCE($3, profiles.display_name),
			phone           = COALESCE($4, profiles.phone),
			updated_at      = NOW()
		RETURNING id, identity_id, role, organization_id, display_name, phone, created_at, updated_at`

	profile, err := r.scanProfile(r.db.QueryRow(ctx, query,
		identityID,
		update.OrganizationID,
		update.DisplayName,
		update.Phone,
	))
	if err != nil {
		r.logger.Error("profile upsert failed", "identity_id", identityID, "error", err)
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	r.logger.Info("profile updated", "identity_id", identityID)
	return profile, nil
}

func (r *ProfileRepository) scanProfile(row pgx.Row) (*domain.Profile, error) {
	profile := &domain.Profile{}
	var role string

	err := row.Scan(
		&profile.ID,
		&profile.IdentityID,
		&role,
		&profile.OrganizationID,
		&profile.DisplayName,
		&profile.Phone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("stored profile %s carries %w", profile.ID, err)
	}
	profile.Role = parsed
	return profile, nil
}

// isRecursivePolicyError detects the 42P17 misconfiguration raised when the
// profiles table's own row policy references the profiles table.
func isRecursivePolicyError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.InvalidObjectDefinition &&
		strings.Contains(strings.ToLower(pgErr.Message), "infinite recursion detected in policy")
}
