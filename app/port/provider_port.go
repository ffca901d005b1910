package port

//go:generate mockgen -source=provider_port.go -destination=../mocks/mock_provider_port.go

import (
	"context"

	"portal-session-service/app/domain"
)

// UnsubscribeFunc releases a session-change registration. It is safe to
// call more than once.
type UnsubscribeFunc func()

// IdentityProvider is the boundary to the remote identity provider. All
// calls are asynchronous at the provider and may fail with provider-shaped
// errors; the gateway normalizes those into domain.AuthError values.
type IdentityProvider interface {
	// GetSession recovers the current session from ambient provider state.
	// A nil session with a nil error means no session exists.
	GetSession(ctx context.Context) (*domain.Session, *domain.Identity, error)

	// OnSessionChange registers a listener for provider-pushed session
	// transitions. Events are delivered strictly in order. The returned
	// function unregisters the listener.
	OnSessionChange(handler func(domain.SessionEvent)) UnsubscribeFunc

	// SignInWithPassword performs credential sign-in.
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error)

	// SignOut revokes the session identified by token at the provider.
	SignOut(ctx context.Context, token string) error

	// SignUp registers a new identity. No session is established; the
	// provider sends a confirmation email.
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.Identity, error)

	// ResetPasswordForEmail requests a recovery email. Whether the address
	// exists must not be observable from the result.
	ResetPasswordForEmail(ctx context.Context, email string) error
}

// KratosClient is the low-level driver interface the provider gateway
// wraps. It mirrors the Ory Kratos native self-service flows.
type KratosClient interface {
	WhoAmI(ctx context.Context, sessionToken string) (*domain.Session, *domain.Identity, error)
	SubmitPasswordLogin(ctx context.Context, email, password string) (*domain.Session, *domain.Identity, error)
	SubmitRegistration(ctx context.Context, email, password string, traits map[string]any) (*domain.Identity, error)
	SubmitRecovery(ctx context.Context, email string) error
	RevokeSession(ctx context.Context, sessionToken string) error
}
