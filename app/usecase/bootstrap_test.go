package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"portal-session-service/app/domain"
	mock_port "portal-session-service/app/mocks"
	"portal-session-service/app/state"
)

func activeSession(identity *domain.Identity) *domain.Session {
	return &domain.Session{
		ID:         "sess-" + identity.ID.String(),
		Token:      "tok-" + identity.ID.String(),
		IdentityID: identity.ID,
		Active:     true,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}
}

func TestBootstrapper_ExistingSessionWithDurableProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := testIdentity("admin@brokerage.example")
	session := activeSession(identity)

	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		GetSession(gomock.Any()).
		Return(session, identity, nil)

	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(durableProfile(identity.ID, domain.RoleAdmin), nil)

	store := state.New(testLogger())
	b := NewBootstrapper(provider, NewProfileResolver(profiles, testLogger()), store, time.Second, testLogger())

	b.Bootstrap(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, identity.ID, snap.Identity.ID)
	assert.Equal(t, domain.RoleAdmin, snap.Role)
	require.NotNil(t, snap.Profile)
	assert.False(t, snap.Profile.Synthesized)
}

func TestBootstrapper_NoSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		GetSession(gomock.Any()).
		Return(nil, nil, nil)

	profiles := mock_port.NewMockProfileStore(ctrl)
	store := state.New(testLogger())
	b := NewBootstrapper(provider, NewProfileResolver(profiles, testLogger()), store, time.Second, testLogger())

	b.Bootstrap(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Identity)
	assert.Equal(t, domain.RoleNone, snap.Role)
}

func TestBootstrapper_ProviderErrorFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		GetSession(gomock.Any()).
		Return(nil, nil, errors.New("provider unreachable"))

	profiles := mock_port.NewMockProfileStore(ctrl)
	store := state.New(testLogger())
	b := NewBootstrapper(provider, NewProfileResolver(profiles, testLogger()), store, time.Second, testLogger())

	b.Bootstrap(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Loading, "provider errors must never leave the store loading")
	assert.Nil(t, snap.Identity)
}

func TestBootstrapper_TimeoutFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		GetSession(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (*domain.Session, *domain.Identity, error) {
			// The provider never responds within the timeout bound.
			<-release
			return nil, nil, nil
		})

	profiles := mock_port.NewMockProfileStore(ctrl)
	store := state.New(testLogger())
	b := NewBootstrapper(provider, NewProfileResolver(profiles, testLogger()), store, 50*time.Millisecond, testLogger())

	start := time.Now()
	b.Bootstrap(context.Background())
	elapsed := time.Since(start)

	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Identity)
	assert.Less(t, elapsed, time.Second, "bootstrap must resolve at the timeout mark, not wait for the provider")
}

func TestBootstrapper_BrokenProfileStoreStillFinishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := testIdentity("client@portal.example")
	session := activeSession(identity)

	provider := mock_port.NewMockIdentityProvider(ctrl)
	provider.EXPECT().
		GetSession(gomock.Any()).
		Return(session, identity, nil)

	profiles := mock_port.NewMockProfileStore(ctrl)
	profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(nil, errors.New("connection refused"))

	store := state.New(testLogger())
	b := NewBootstrapper(provider, NewProfileResolver(profiles, testLogger()), store, time.Second, testLogger())

	b.Bootstrap(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, domain.RoleClient, snap.Role)
	assert.True(t, snap.Profile.Synthesized)
}
