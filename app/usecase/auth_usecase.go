package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
	"portal-session-service/app/state"
)

// AuthUsecase implements the user-initiated session transitions. It writes
// the session store opportunistically; consumers must tolerate a brief
// window where a direct return value and a soon-following event-driven
// write disagree.
type AuthUsecase struct {
	provider port.IdentityProvider
	profiles port.ProfileStore
	resolver *ProfileResolver
	store    *state.Store
	cache    port.SessionCache
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthUsecase creates a new AuthUsecase instance.
func NewAuthUsecase(
	provider port.IdentityProvider,
	profiles port.ProfileStore,
	resolver *ProfileResolver,
	store *state.Store,
	cache port.SessionCache,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		provider: provider,
		profiles: profiles,
		resolver: resolver,
		store:    store,
		cache:    cache,
		logger:   logger.With("component", "auth_usecase"),
		now:      time.Now,
	}
}

var _ port.AuthOperations = (*AuthUsecase)(nil)

// Snapshot exposes the read-only session view.
func (uc *AuthUsecase) Snapshot() domain.SessionState {
	return uc.store.Snapshot()
}

// Login performs credential sign-in, resolves the profile through the
// shared fallback chain, and returns the role directly so the caller can
// navigate without waiting for the asynchronous session-change event.
func (uc *AuthUsecase) Login(ctx context.Context, email, password string) port.LoginResult {
	identity, session, err := uc.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		authErr := normalizeAuthError(err, domain.NewLoginFailedError)
		uc.logger.Warn("login rejected",
			"email", email,
			"code", authErr.Code)
		// Identity and session stay untouched on failure.
		return port.LoginResult{Success: false, Error: authErr}
	}

	epoch := uc.store.Publish(domain.SessionState{
		Identity: identity,
		Session:  session,
		Loading:  true,
	})

	profile := uc.resolver.Resolve(ctx, identity)

	uc.store.PublishAt(epoch, domain.SessionState{
		Identity: identity,
		Profile:  profile,
		Session:  session,
		Role:     roleOf(profile),
		Loading:  false,
	})

	uc.logger.Info("login succeeded",
		"identity_id", identity.ID,
		"role", roleOf(profile))

	return port.LoginResult{Success: true, Role: roleOf(profile)}
}

// Logout clears local state first so consumers reflect the signed-out
// status immediately regardless of network latency, then revokes the
// provider session and clears cached artifacts best-effort. It never fails
// the caller; the local clear is authoritative.
func (uc *AuthUsecase) Logout(ctx context.Context) {
	snap := uc.store.Snapshot()

	uc.store.Publish(domain.SignedOut())

	if snap.Session != nil && snap.Session.Token != "" {
		if err := uc.provider.SignOut(ctx, snap.Session.Token); err != nil {
			uc.logger.Warn("provider sign-out failed, local state already cleared",
				"error", err)
		}
	}

	if err := uc.cache.Clear(ctx); err != nil {
		uc.logger.Warn("failed to clear cached session artifacts", "error", err)
	}

	uc.logger.Info("logged out")
}

// SignUp registers a new identity with the provider. No durable profile is
// created here; the first login synthesizes one through the resolver's
// fallback chain.
func (uc *AuthUsecase) SignUp(ctx context.Context, email, password, displayName string) port.SignUpResult {
	metadata := map[string]any{}
	if displayName != "" {
		metadata["display_name"] = displayName
	}

	identity, err := uc.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		authErr := normalizeAuthError(err, domain.NewSignUpFailedError)
		uc.logger.Warn("sign-up rejected", "email", email, "code", authErr.Code)
		return port.SignUpResult{Success: false, Error: authErr}
	}

	uc.logger.Info("sign-up accepted", "identity_id", identity.ID)
	return port.SignUpResult{
		Success: true,
		Message: "Check your email to confirm your account before signing in.",
	}
}

// ResetPassword requests a recovery email. The response never reveals
// whether the address is registered; failures are logged only.
func (uc *AuthUsecase) ResetPassword(ctx context.Context, email string) string {
	if err := uc.provider.ResetPasswordForEmail(ctx, email); err != nil {
		uc.logger.Warn("password reset request failed", "error", err)
	}
	return fmt.Sprintf("If an account exists for %s, a password reset link has been sent.", email)
}

// UpdateProfile performs a durable profile write and merges the stored row
// into the session state. The merge is discarded if the signed-in identity
// changed while the write was in flight.
func (uc *AuthUsecase) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.Profile, *domain.AuthError) {
	snap := uc.store.Snapshot()
	if !snap.Authenticated() {
		return nil, domain.NewIdentityRequiredError()
	}

	epoch := uc.store.Epoch()

	profile, err := uc.profiles.Upsert(ctx, snap.Identity.ID, update)
	if err != nil {
		uc.logger.Error("durable profile update failed",
			"identity_id", snap.Identity.ID,
			"error", err)
		return nil, domain.NewProfileWriteError(err)
	}

	uc.store.PublishAt(epoch, domain.SessionState{
		Identity: snap.Identity,
		Profile:  profile,
		Session:  snap.Session,
		Role:     profile.Role,
		Loading:  false,
	})

	uc.logger.Info("profile updated",
		"identity_id", snap.Identity.ID,
		"role", profile.Role)
	return profile, nil
}

// normalizeAuthError passes through already-normalized provider errors and
// wraps anything else with the operation's fallback shape.
func normalizeAuthError(err error, fallback func(error) *domain.AuthError) *domain.AuthError {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return fallback(err)
}
