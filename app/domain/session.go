package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the opaque provider-issued credential bundle referencing
// exactly one identity. The service only observes presence and identity
// linkage; expiry and refresh stay under provider control.
type Session struct {
	ID         string    `json:"id"`
	Token      string    `json:"-"`
	IdentityID uuid.UUID `json:"identity_id"`
	Active     bool      `json:"active"`
	ExpiresAt  time.Time `json:"expires_at"`
	IssuedAt   time.Time `json:"issued_at"`
}

// SessionEventType classifies provider-pushed session transitions.
type SessionEventType string

const (
	EventInitialSession SessionEventType = "initial_session"
	EventSignedIn       SessionEventType = "signed_in"
	EventSignedOut      SessionEventType = "signed_out"
	EventTokenRefreshed SessionEventType = "token_refreshed"
)

// SessionEvent is one provider-delivered session transition. Session and
// Identity are nil for signed-out events.
type SessionEvent struct {
	Type     SessionEventType
	Session  *Session
	Identity *Identity
}
