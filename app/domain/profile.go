package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role governs access-control decisions.
type Role string

const (
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
	RoleAdmin  Role = "admin"

	// RoleNone is the zero role: no profile has been resolved yet.
	RoleNone Role = ""
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleAgent, RoleAdmin:
		return Role(s), nil
	default:
		return RoleNone, fmt.Errorf("invalid role: %q", s)
	}
}

// IsValid reports whether the role is one of the three known roles.
func (r Role) IsValid() bool {
	return r == RoleClient || r == RoleAgent || r == RoleAdmin
}

// Profile is the application-owned record carrying the role and business
// attributes for one identity. A profile is keyed one-to-one by identity id.
type Profile struct {
	ID             uuid.UUID  `json:"id"`
	IdentityID     uuid.UUID  `json:"identity_id"`
	Role           Role       `json:"role"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	DisplayName    string     `json:"display_name,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Synthesized marks a fallback profile constructed locally because the
	// durable store was unreachable or misconfigured. It is functionally
	// valid but never persisted, and is not guaranteed to match a
	// later-fetched durable profile.
	Synthesized bool `json:"synthesized,omitempty"`
}

// NewFallbackProfile synthesizes a least-privilege profile from identity
// metadata. The role is always RoleClient; a durable lookup failure must
// never elevate privilege.
func NewFallbackProfile(identity *Identity, now time.Time) *Profile {
	createdAt := identity.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &Profile{
		ID:          identity.ID,
		IdentityID:  identity.ID,
		Role:        RoleClient,
		DisplayName: identity.DisplayName(),
		Phone:       "",
		CreatedAt:   createdAt,
		UpdatedAt:   now,
		Synthesized: true,
	}
}

// ProfileUpdate carries a partial profile mutation. Nil fields are left
// untouched by the durable upsert.
type ProfileUpdate struct {
	DisplayName    *string    `json:"display_name,omitempty" validate:"omitempty,max=200"`
	Phone          *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

// Apply merges the update into a copy of the profile.
func (u ProfileUpdate) Apply(p Profile, now time.Time) Profile {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.OrganizationID != nil {
		p.OrganizationID = u.OrganizationID
	}
	p.UpdatedAt = now
	return p
}
