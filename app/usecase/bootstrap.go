package usecase

import (
	"context"
	"log/slog"
	"time"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
	"portal-session-service/app/state"
)

// DefaultBootstrapTimeout bounds the initial session retrieval.
const DefaultBootstrapTimeout = 10 * time.Second

// Bootstrapper establishes the initial session state exactly once at
// application start. It races the provider's session retrieval against a
// fixed timeout and fails open: on timeout or provider error it publishes
// the unauthenticated, non-loading state rather than leaving consumers
// hanging in the loading state.
type Bootstrapper struct {
	provider port.IdentityProvider
	resolver *ProfileResolver
	store    *state.Store
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBootstrapper creates a new Bootstrapper. A non-positive timeout falls
// back to DefaultBootstrapTimeout.
func NewBootstrapper(
	provider port.IdentityProvider,
	resolver *ProfileResolver,
	store *state.Store,
	timeout time.Duration,
	logger *slog.Logger,
) *Bootstrapper {
	if timeout <= 0 {
		timeout = DefaultBootstrapTimeout
	}
	return &Bootstrapper{
		provider: provider,
		resolver: resolver,
		store:    store,
		timeout:  timeout,
		logger:   logger.With("component", "session_bootstrapper"),
	}
}

type sessionLookup struct {
	session  *domain.Session
	identity *domain.Identity
	err      error
}

// Bootstrap recovers an existing session from the provider, resolves its
// profile, and publishes the first non-loading tuple. It never retries and
// never leaves the store loading.
func (b *Bootstrapper) Bootstrap(ctx context.Context) {
	start := time.Now()

	// Explicit first-of race: the timer branch deterministically produces
	// the fail-open result instead of relying on call-site cancellation.
	lookupCh := make(chan sessionLookup, 1)
	go func() {
		session, identity, err := b.provider.GetSession(ctx)
		lookupCh <- sessionLookup{session: session, identity: identity, err: err}
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case res := <-lookupCh:
		b.finish(ctx, res, start)
	case <-timer.C:
		b.logger.Warn("session bootstrap timed out, failing open to signed-out state",
			"timeout", b.timeout)
		b.store.Publish(domain.SignedOut())
	}
}

func (b *Bootstrapper) finish(ctx context.Context, res sessionLookup, start time.Time) {
	if res.err != nil {
		b.logger.Error("session bootstrap failed, failing open to signed-out state",
			"error", res.err,
			"elapsed", time.Since(start))
		b.store.Publish(domain.SignedOut())
		return
	}

	if res.session == nil || !res.identity.IsValid() {
		b.logger.Info("no existing session found at bootstrap",
			"elapsed", time.Since(start))
		b.store.Publish(domain.SignedOut())
		return
	}

	// Profile resolution completes before the loading flag drops so
	// consumers never observe an identity without its role settled.
	profile := b.resolver.Resolve(ctx, res.identity)

	b.store.Publish(domain.SessionState{
		Identity: res.identity,
		Profile:  profile,
		Session:  res.session,
		Role:     roleOf(profile),
		Loading:  false,
	})

	b.logger.Info("session bootstrapped",
		"identity_id", res.identity.ID,
		"role", roleOf(profile),
		"synthesized_profile", profile != nil && profile.Synthesized,
		"elapsed", time.Since(start))
}

func roleOf(p *domain.Profile) domain.Role {
	if p == nil {
		return domain.RoleNone
	}
	return p.Role
}
