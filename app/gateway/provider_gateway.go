package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
)

// ProviderGateway implements port.IdentityProvider over the Kratos driver.
// It acts as an anti-corruption layer between the session subsystem and the
// remote identity provider: raw provider errors never cross it un-normalized,
// and session-change notifications are fanned out to subscribers strictly in
// emission order.
type ProviderGateway struct {
	client       port.KratosClient
	cache        port.SessionCache
	logger       *slog.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	handlers map[int]func(domain.SessionEvent)
	nextID   int

	events    chan domain.SessionEvent
	watchStop chan struct{}
	watchDone chan struct{}
	started   bool
	emitters  sync.WaitGroup

	// watcher baseline, guarded by mu
	lastIdentity uuid.UUID
	lastExpiry   time.Time
	sawSession   bool
}

// NewProviderGateway creates a new ProviderGateway instance.
func NewProviderGateway(client port.KratosClient, cache port.SessionCache, pollInterval time.Duration, logger *slog.Logger) *ProviderGateway {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &ProviderGateway{
		client:       client,
		cache:        cache,
		logger:       logger.With("component", "provider_gateway"),
		pollInterval: pollInterval,
		handlers:     make(map[int]func(domain.SessionEvent)),
	}
}

var _ port.IdentityProvider = (*ProviderGateway)(nil)

// Start launches the event dispatcher and the session watcher. The watcher
// emits one initial-session event reflecting the state it finds, then polls
// for external transitions (revocation, refresh) for the process lifetime.
func (g *ProviderGateway) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.started = true

	g.events = make(chan domain.SessionEvent)
	g.watchStop = make(chan struct{})
	g.watchDone = make(chan struct{})

	go g.dispatch()
	go g.watch(ctx)

	g.logger.Info("provider gateway started", "poll_interval", g.pollInterval)
}

// Close stops the watcher and the dispatcher. The mutex is released before
// waiting: the watch goroutine takes it for baseline bookkeeping, so holding
// it here would deadlock against an in-flight poll.
func (g *ProviderGateway) Close() {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return
	}
	g.started = false
	watchStop := g.watchStop
	watchDone := g.watchDone
	events := g.events
	g.mu.Unlock()

	close(watchStop)
	<-watchDone

	// Every in-flight emit either delivered or saw watchStop; only then is
	// the event channel safe to close.
	g.emitters.Wait()
	close(events)

	g.logger.Info("provider gateway stopped")
}

// OnSessionChange registers a session-change listener. The returned function
// releases the registration and is safe to call more than once.
func (g *ProviderGateway) OnSessionChange(handler func(domain.SessionEvent)) port.UnsubscribeFunc {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.handlers, id)
		})
	}
}

// GetSession recovers the current session from the cached token. A missing
// or invalid token is "no session", not an error; only provider
// connectivity failures surface as errors so the bootstrapper can log them.
func (g *ProviderGateway) GetSession(ctx context.Context) (*domain.Session, *domain.Identity, error) {
	token, err := g.cache.LoadToken(ctx)
	if err != nil {
		g.logger.Warn("session token cache unavailable, treating as no session", "error", err)
		return nil, nil, nil
	}
	if token == "" {
		return nil, nil, nil
	}

	session, identity, err := g.client.WhoAmI(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrSessionNotFound) {
			g.logger.Info("cached session token no longer valid", "error", err)
			return nil, nil, nil
		}
		return nil, nil, err
	}

	g.recordBaseline(session, identity)
	return session, identity, nil
}

// SignInWithPassword performs credential sign-in, caches the session token
// best-effort, and emits a signed-in event.
func (g *ProviderGateway) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error) {
	session, identity, err := g.client.SubmitPasswordLogin(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	if cacheErr := g.cache.StoreToken(ctx, session.Token); cacheErr != nil {
		g.logger.Warn("failed to cache session token", "error", cacheErr)
	}

	g.recordBaseline(session, identity)
	g.emit(domain.SessionEvent{Type: domain.EventSignedIn, Session: session, Identity: identity})
	return identity, session, nil
}

// SignOut revokes the provider session and emits a signed-out event. The
// caller has already cleared local state; revocation failures are its
// problem to log, not to fail on.
func (g *ProviderGateway) SignOut(ctx context.Context, token string) error {
	err := g.client.RevokeSession(ctx, token)

	g.clearBaseline()
	g.emit(domain.SessionEvent{Type: domain.EventSignedOut})
	return err
}

// SignUp registers a new identity. No session is established.
func (g *ProviderGateway) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.Identity, error) {
	return g.client.SubmitRegistration(ctx, email, password, metadata)
}

// ResetPasswordForEmail requests a recovery email.
func (g *ProviderGateway) ResetPasswordForEmail(ctx context.Context, email string) error {
	return g.client.SubmitRecovery(ctx, email)
}

// dispatch delivers events to handlers one at a time, preserving emission
// order end to end.
func (g *ProviderGateway) dispatch() {
	for ev := range g.events {
		for _, handler := range g.snapshotHandlers() {
			handler(ev)
		}
	}
}

func (g *ProviderGateway) snapshotHandlers() []func(domain.SessionEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]func(domain.SessionEvent), 0, len(g.handlers))
	for id := 0; id < g.nextID; id++ {
		if h, ok := g.handlers[id]; ok {
			out = append(out, h)
		}
	}
	return out
}

func (g *ProviderGateway) emit(ev domain.SessionEvent) {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return
	}
	events := g.events
	watchStop := g.watchStop
	g.emitters.Add(1)
	g.mu.Unlock()
	defer g.emitters.Done()

	select {
	case events <- ev:
	case <-watchStop:
	}
}

// watch polls the provider for externally driven transitions: revocation
// from another device, token refresh, a session appearing out of band.
func (g *ProviderGateway) watch(ctx context.Context) {
	defer close(g.watchDone)

	g.emitInitial(ctx)

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.poll(ctx)
		case <-g.watchStop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (g *ProviderGateway) emitInitial(ctx context.Context) {
	session, identity, err := g.GetSession(ctx)
	if err != nil {
		g.logger.Warn("initial session probe failed", "error", err)
		g.emit(domain.SessionEvent{Type: domain.EventInitialSession})
		return
	}
	g.emit(domain.SessionEvent{Type: domain.EventInitialSession, Session: session, Identity: identity})
}

func (g *ProviderGateway) poll(ctx context.Context) {
	// Capture the baseline first; GetSession re-records it on success.
	g.mu.Lock()
	hadSession := g.sawSession
	lastIdentity := g.lastIdentity
	lastExpiry := g.lastExpiry
	g.mu.Unlock()

	session, identity, err := g.GetSession(ctx)
	if err != nil {
		// Connectivity problems are not session transitions.
		g.logger.Debug("session poll failed", "error", err)
		return
	}

	switch {
	case session == nil && hadSession:
		g.clearBaseline()
		g.emit(domain.SessionEvent{Type: domain.EventSignedOut})
	case session == nil:
		// still signed out
	case !hadSession || identity.ID != lastIdentity:
		g.recordBaseline(session, identity)
		g.emit(domain.SessionEvent{Type: domain.EventSignedIn, Session: session, Identity: identity})
	case !session.ExpiresAt.Equal(lastExpiry):
		g.recordBaseline(session, identity)
		g.emit(domain.SessionEvent{Type: domain.EventTokenRefreshed, Session: session, Identity: identity})
	}
}

func (g *ProviderGateway) recordBaseline(session *domain.Session, identity *domain.Identity) {
	if session == nil || identity == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sawSession = true
	g.lastIdentity = identity.ID
	g.lastExpiry = session.ExpiresAt
}

func (g *ProviderGateway) clearBaseline() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sawSession = false
	g.lastIdentity = uuid.Nil
	g.lastExpiry = time.Time{}
}
