package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity represents a provider-issued authenticated principal.
// It is owned by the identity provider and is read-only to this service:
// created at sign-up, discarded locally at sign-out, never mutated here.
type Identity struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// IsValid reports whether the identity carries a usable id.
func (i *Identity) IsValid() bool {
	return i != nil && i.ID != uuid.Nil
}

// DisplayName returns the best available human-readable name for the
// identity: the provider metadata's display name when present, otherwise
// the local part of the email address.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if name, ok := i.Metadata["display_name"].(string); ok && name != "" {
		return name
	}
	if name, ok := i.Metadata["name"].(string); ok && name != "" {
		return name
	}
	return EmailLocalPart(i.Email)
}

// EmailLocalPart returns the part of an email address before the '@'.
func EmailLocalPart(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}
