package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
	"portal-session-service/app/state"
)

// EventSubscriber holds the one long-lived session-change registration with
// the identity provider for the process lifetime. Events are processed on a
// single goroutine strictly in delivery order; event n+1 is not taken up
// until event n's state writes have completed, so there are never two
// overlapping resolutions for the same transition.
type EventSubscriber struct {
	provider port.IdentityProvider
	resolver *ProfileResolver
	store    *state.Store
	logger   *slog.Logger

	mu          sync.Mutex
	events      chan domain.SessionEvent
	unsubscribe port.UnsubscribeFunc
	done        chan struct{}
	started     bool
}

// NewEventSubscriber creates a new EventSubscriber.
func NewEventSubscriber(
	provider port.IdentityProvider,
	resolver *ProfileResolver,
	store *state.Store,
	logger *slog.Logger,
) *EventSubscriber {
	return &EventSubscriber{
		provider: provider,
		resolver: resolver,
		store:    store,
		logger:   logger.With("component", "session_event_subscriber"),
	}
}

// Start registers the provider listener and begins processing. The
// registration is released by Close; it is never left to garbage
// collection.
func (s *EventSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("event subscriber already started")
	}

	s.events = make(chan domain.SessionEvent)
	s.done = make(chan struct{})

	events, done := s.events, s.done
	s.unsubscribe = s.provider.OnSessionChange(func(ev domain.SessionEvent) {
		// Blocking send: delivery order is the ordering guarantee, so the
		// provider watcher waits rather than the channel reordering or
		// coalescing events.
		select {
		case events <- ev:
		case <-done:
		}
	})

	go s.run(ctx, events, done)
	s.started = true

	s.logger.Info("session event subscriber started")
	return nil
}

// Close releases the provider registration and stops the processing loop.
// Safe to call more than once.
func (s *EventSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false

	s.unsubscribe()
	close(s.done)

	s.logger.Info("session event subscriber stopped")
}

func (s *EventSubscriber) run(ctx context.Context, events chan domain.SessionEvent, done chan struct{}) {
	for {
		select {
		case ev := <-events:
			s.handleEvent(ctx, ev)
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleEvent applies one provider-pushed transition. Every path through it
// ends in a non-loading publish (or is superseded by a newer non-loading
// write); no execution path leaves the store loading.
func (s *EventSubscriber) handleEvent(ctx context.Context, ev domain.SessionEvent) {
	s.logger.Debug("session event received", "type", ev.Type)

	initial := ev.Type == domain.EventInitialSession

	// The bootstrapper owns the first transition; re-raising the loading
	// flag for the initial-session event would flicker the first paint.
	if !initial {
		s.store.Publish(domain.LoadingState())
	}

	if ev.Identity == nil || ev.Session == nil {
		s.store.Publish(domain.SignedOut())
		return
	}

	var epoch uint64
	if initial {
		epoch = s.store.Epoch()
	} else {
		epoch = s.store.Publish(domain.SessionState{
			Identity: ev.Identity,
			Session:  ev.Session,
			Loading:  true,
		})
	}

	profile := s.resolver.Resolve(ctx, ev.Identity)

	applied := s.store.PublishAt(epoch, domain.SessionState{
		Identity: ev.Identity,
		Profile:  profile,
		Session:  ev.Session,
		Role:     roleOf(profile),
		Loading:  false,
	})
	if !applied {
		s.logger.Debug("session event result superseded by a newer transition",
			"type", ev.Type,
			"identity_id", ev.Identity.ID)
	}
}
