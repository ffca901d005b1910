package port

//go:generate mockgen -source=auth_port.go -destination=../mocks/mock_auth_port.go

import (
	"context"

	"portal-session-service/app/domain"
)

// LoginResult is returned directly to the login caller so the UI can
// navigate immediately instead of waiting for the asynchronous
// session-change event to arrive.
type LoginResult struct {
	Success bool              `json:"success"`
	Role    domain.Role       `json:"role,omitempty"`
	Error   *domain.AuthError `json:"error,omitempty"`
}

// SignUpResult carries the confirm-by-email instruction.
type SignUpResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Error   *domain.AuthError `json:"error,omitempty"`
}

// AuthOperations are the user-initiated session transitions exposed to the
// rest of the application, alongside the read-only session snapshot.
type AuthOperations interface {
	Login(ctx context.Context, email, password string) LoginResult
	Logout(ctx context.Context)
	SignUp(ctx context.Context, email, password, displayName string) SignUpResult
	ResetPassword(ctx context.Context, email string) string
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.Profile, *domain.AuthError)
}

// SessionReader is the read-only consumer-facing view of session state.
type SessionReader interface {
	Snapshot() domain.SessionState
}
