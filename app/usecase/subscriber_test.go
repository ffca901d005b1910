package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"portal-session-service/app/domain"
	"portal-session-service/app/gateway"
	mock_port "portal-session-service/app/mocks"
	"portal-session-service/app/port"
	"portal-session-service/app/state"
)

// startSubscriber wires a subscriber to a captured event handler so tests
// can play provider-delivered events in order.
func startSubscriber(t *testing.T, ctrl *gomock.Controller, profiles *mock_port.MockProfileStore) (*state.Store, func(domain.SessionEvent), *int) {
	t.Helper()

	var handler func(domain.SessionEvent)
	unsubscribed := 0

	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		OnSessionChange(gomock.Any()).
		DoAndReturn(func(h func(domain.SessionEvent)) port.UnsubscribeFunc {
			handler = h
			return func() { unsubscribed++ }
		})

	store := state.New(testLogger())
	sub := NewEventSubscriber(provider, NewProfileResolver(profiles, testLogger()), store, testLogger())
	require.NoError(t, sub.Start(context.Background()))
	t.Cleanup(sub.Close)

	require.NotNil(t, handler)
	return store, handler, &unsubscribed
}

func waitForIdentity(t *testing.T, store *state.Store, want *domain.Identity) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		if snap.Loading {
			return false
		}
		if want == nil {
			return snap.Identity == nil
		}
		return snap.Identity != nil && snap.Identity.ID == want.ID
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEventSubscriber_SignedInEventResolvesProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := testIdentity("agent@brokerage.example")
	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(durableProfile(identity.ID, domain.RoleAgent), nil)

	store, emit, _ := startSubscriber(t, ctrl, profiles)

	emit(domain.SessionEvent{
		Type:     domain.EventSignedIn,
		Session:  activeSession(identity),
		Identity: identity,
	})

	waitForIdentity(t, store, identity)
	snap := store.Snapshot()
	assert.Equal(t, domain.RoleAgent, snap.Role)
	assert.False(t, snap.Loading)
}

func TestEventSubscriber_SignedOutEventClearsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := testIdentity("client@portal.example")
	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(durableProfile(identity.ID, domain.RoleClient), nil)

	store, emit, _ := startSubscriber(t, ctrl, profiles)

	emit(domain.SessionEvent{Type: domain.EventSignedIn, Session: activeSession(identity), Identity: identity})
	waitForIdentity(t, store, identity)

	emit(domain.SessionEvent{Type: domain.EventSignedOut})
	waitForIdentity(t, store, nil)

	snap := store.Snapshot()
	assert.Nil(t, snap.Profile)
	assert.Equal(t, domain.RoleNone, snap.Role)
}

func TestEventSubscriber_StrictOrdering(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userA := testIdentity("a@brokerage.example")
	userB := testIdentity("b@brokerage.example")

	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), userA.ID).
		Return(durableProfile(userA.ID, domain.RoleAgent), nil).
		AnyTimes()
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), userB.ID).
		Return(durableProfile(userB.ID, domain.RoleAdmin), nil).
		AnyTimes()

	store, emit, _ := startSubscriber(t, ctrl, profiles)

	emit(domain.SessionEvent{Type: domain.EventSignedOut})
	emit(domain.SessionEvent{Type: domain.EventSignedIn, Session: activeSession(userA), Identity: userA})
	emit(domain.SessionEvent{Type: domain.EventSignedIn, Session: activeSession(userB), Identity: userB})

	waitForIdentity(t, store, userB)

	// After the third event settles, no state for A may be observable.
	snap := store.Snapshot()
	require.NotNil(t, snap.Identity)
	assert.Equal(t, userB.ID, snap.Identity.ID)
	assert.Equal(t, domain.RoleAdmin, snap.Role)
	assert.False(t, snap.Loading)
}

func TestEventSubscriber_LoadingAlwaysDropsOnStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := testIdentity("broken@portal.example")
	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(nil, errors.New("profile store down"))

	store, emit, _ := startSubscriber(t, ctrl, profiles)

	emit(domain.SessionEvent{Type: domain.EventSignedIn, Session: activeSession(identity), Identity: identity})

	waitForIdentity(t, store, identity)
	snap := store.Snapshot()
	assert.False(t, snap.Loading, "no event path may leave the store loading")
	require.NotNil(t, snap.Profile)
	assert.True(t, snap.Profile.Synthesized)
	assert.Equal(t, domain.RoleClient, snap.Role)
}

func TestEventSubscriber_InitialSessionEventSkipsLoadingFlicker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := testIdentity("returning@portal.example")
	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(durableProfile(identity.ID, domain.RoleClient), nil)

	store, emit, _ := startSubscriber(t, ctrl, profiles)

	// Bootstrap already owns the first transition.
	store.Publish(domain.SignedOut())

	transitions, unsubscribe := store.Subscribe()
	defer unsubscribe()

	emit(domain.SessionEvent{Type: domain.EventInitialSession, Session: activeSession(identity), Identity: identity})
	waitForIdentity(t, store, identity)

	// The only observed transition is the final one; no loading flip.
	for snap := range transitions {
		assert.False(t, snap.Loading)
		if snap.Identity != nil && snap.Identity.ID == identity.ID {
			return
		}
	}
	t.Fatal("final snapshot never observed")
}

func TestEventSubscriber_CloseReleasesRegistration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mock_port.NewMockProfileStore(ctrl)

	var handler func(domain.SessionEvent)
	unsubscribed := 0

	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		OnSessionChange(gomock.Any()).
		DoAndReturn(func(h func(domain.SessionEvent)) port.UnsubscribeFunc {
			handler = h
			return func() { unsubscribed++ }
		})

	store := state.New(testLogger())
	sub := NewEventSubscriber(provider, NewProfileResolver(profiles, testLogger()), store, testLogger())
	require.NoError(t, sub.Start(context.Background()))
	require.NotNil(t, handler)

	sub.Close()
	assert.Equal(t, 1, unsubscribed)

	sub.Close()
	assert.Equal(t, 1, unsubscribed, "double close must not unsubscribe twice")
}

func TestEventSubscriber_DoubleStartFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mock_port.NewMockProfileStore(ctrl)
	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		OnSessionChange(gomock.Any()).
		Return(port.UnsubscribeFunc(func() {}))

	store := state.New(testLogger())
	sub := NewEventSubscriber(provider, NewProfileResolver(profiles, testLogger()), store, testLogger())

	require.NoError(t, sub.Start(context.Background()))
	t.Cleanup(sub.Close)

	assert.Error(t, sub.Start(context.Background()))
}

// The subscriber must be registered with the gateway before the gateway's
// watcher starts, or the initial-session event is dispatched to nobody.
// This exercises the real gateway rather than a hand-fed handler.
func TestEventSubscriber_ReceivesInitialSessionFromGatewayStartedAfterIt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := &domain.Identity{ID: uuid.New(), Email: "returning@portal.example"}
	session := &domain.Session{
		ID:         uuid.NewString(),
		Token:      "tok-returning",
		IdentityID: identity.ID,
		Active:     true,
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	client := mock_port.NewMockKratosClient(ctrl)
	cache := mock_port.NewMockSessionCache(ctrl)
	cache.EXPECT().LoadToken(gomock.Any()).Return(session.Token, nil).AnyTimes()
	client.EXPECT().WhoAmI(gomock.Any(), session.Token).Return(session, identity, nil).AnyTimes()

	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(&domain.Profile{ID: identity.ID, IdentityID: identity.ID, Role: domain.RoleClient}, nil).
		AnyTimes()

	provider := gateway.NewProviderGateway(client, cache, time.Minute, testLogger())
	store := state.New(testLogger())
	sub := NewEventSubscriber(provider, NewProfileResolver(profiles, testLogger()), store, testLogger())

	require.NoError(t, sub.Start(context.Background()))
	t.Cleanup(sub.Close)

	provider.Start(context.Background())
	t.Cleanup(provider.Close)

	waitForIdentity(t, store, identity)
	snap := store.Snapshot()
	assert.Equal(t, domain.RoleClient, snap.Role)
}
