package state

import (
	"fmt"
	"log/slog"
	"sync"

	"portal-session-service/app/domain"
)

// subscriberBuffer bounds the per-subscriber fan-out channel. A slow
// subscriber loses intermediate snapshots, never the ordering of the ones
// it does receive.
const subscriberBuffer = 16

// Store is the single shared mutable resource of the session subsystem: a
// process-wide container for the {identity, profile, session, role, loading}
// tuple. Mutation goes through Publish/PublishAt only; the bootstrapper, the
// event subscriber and the auth operations are its only writers. Readers
// always observe a complete tuple.
//
// The store carries a monotonically increasing epoch. Every publish that
// changes the signed-in identity (including sign-out) bumps it; an
// asynchronous completion that started under an older epoch is discarded by
// PublishAt instead of being re-applied to state it no longer describes.
type Store struct {
	mu      sync.RWMutex
	state   domain.SessionState
	epoch   uint64
	subs    map[int]chan domain.SessionState
	nextSub int
	logger  *slog.Logger
}

// New creates a store in the loading state; the bootstrapper owns the first
// transition out of it.
func New(logger *slog.Logger) *Store {
	return &Store{
		state:  domain.LoadingState(),
		subs:   make(map[int]chan domain.SessionState),
		logger: logger.With("component", "session_state_store"),
	}
}

// Snapshot returns the current complete tuple.
func (s *Store) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Epoch returns the current epoch. Writers capture it before starting an
// asynchronous resolution and hand it back to PublishAt.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Publish replaces the tuple and notifies subscribers. It returns the epoch
// in effect after the write.
func (s *Store) Publish(next domain.SessionState) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked(next)
}

// PublishAt replaces the tuple only if the identity epoch has not moved
// since the caller captured it. It reports whether the write was applied.
func (s *Store) PublishAt(epoch uint64, next domain.SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.logger.Debug("discarding stale session state write",
			"write_epoch", epoch,
			"current_epoch", s.epoch)
		return false
	}
	s.publishLocked(next)
	return true
}

func (s *Store) publishLocked(next domain.SessionState) uint64 {
	if !next.Consistent() {
		// A partial or contradictory tuple is a programming error in the
		// writer, not a recoverable runtime condition.
		panic(fmt.Sprintf("inconsistent session state published: %+v", next))
	}

	if identityChanged(s.state, next) {
		s.epoch++
	}
	s.state = next

	for id, ch := range s.subs {
		select {
		case ch <- next:
		default:
			s.logger.Warn("session state subscriber lagging, snapshot dropped",
				"subscriber", id)
		}
	}
	return s.epoch
}

// Subscribe registers an observer of state transitions. The returned
// function releases the registration and closes the channel; it is safe to
// call more than once.
func (s *Store) Subscribe() (<-chan domain.SessionState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.SessionState, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
	return ch, unsubscribe
}

func identityChanged(prev, next domain.SessionState) bool {
	switch {
	case prev.Identity == nil && next.Identity == nil:
		return false
	case prev.Identity == nil || next.Identity == nil:
		return true
	default:
		return prev.Identity.ID != next.Identity.ID
	}
}
