package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"portal-session-service/app/domain"
	mock_port "portal-session-service/app/mocks"
	"portal-session-service/app/state"
)

type authFixture struct {
	provider *mock_port.MockIdentityProvider
	profiles *mock_port.MockProfileStore
	cache    *mock_port.MockSessionCache
	store    *state.Store
	uc       *AuthUsecase
}

func newAuthFixture(t *testing.T, ctrl *gomock.Controller) *authFixture {
	t.Helper()
	f := &authFixture{
		provider: mock_port.NewMockIdentityProvider(ctrl),
		profiles: mock_port.NewMockProfileStore(ctrl),
		cache:    mock_port.NewMockSessionCache(ctrl),
		store:    state.New(testLogger()),
	}
	resolver := NewProfileResolver(f.profiles, testLogger())
	f.uc = NewAuthUsecase(f.provider, f.profiles, resolver, f.store, f.cache, testLogger())
	return f
}

func TestAuthUsecase_LoginSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)
	identity := testIdentity("agent@brokerage.example")
	session := activeSession(identity)

	f.provider.EXPECT().
		SignInWithPassword(gomock.Any(), "agent@brokerage.example", "correct-horse").
		Return(identity, session, nil)
	f.profiles.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(durableProfile(identity.ID, domain.RoleAgent), nil)

	result := f.uc.Login(context.Background(), "agent@brokerage.example", "correct-horse")

	assert.True(t, result.Success)
	assert.Equal(t, domain.RoleAgent, result.Role)
	assert.Nil(t, result.Error)

	// The shared store carries the same resolution.
	snap := f.store.Snapshot()
	require.NotNil(t, snap.Identity)
	assert.Equal(t, identity.ID, snap.Identity.ID)
	assert.Equal(t, domain.RoleAgent, snap.Role)
	assert.False(t, snap.Loading)
}

func TestAuthUsecase_LoginRejectedCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)
	f.store.Publish(domain.SignedOut())

	f.provider.EXPECT().
		SignInWithPassword(gomock.Any(), "a@b.com", "wrong").
		Return(nil, nil, domain.NewLoginFailedError(errors.New("credentials rejected")))

	result := f.uc.Login(context.Background(), "a@b.com", "wrong")

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "Login Failed", result.Error.Title)
	assert.Equal(t, domain.ErrCodeInvalidCredentials, result.Error.Code)

	// Failure must not mutate identity or session.
	snap := f.store.Snapshot()
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Session)
}

func TestAuthUsecase_LoginWrapsUnrecognizedProviderErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)

	f.provider.EXPECT().
		SignInWithPassword(gomock.Any(), "a@b.com", "pw").
		Return(nil, nil, errors.New("dial tcp: connection refused"))

	result := f.uc.Login(context.Background(), "a@b.com", "pw")

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "Login Failed", result.Error.Title)
}

func TestAuthUsecase_LogoutClearsLocallyFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)
	identity := testIdentity("client@portal.example")
	session := activeSession(identity)
	f.store.Publish(domain.SessionState{
		Identity: identity,
		Profile:  durableProfile(identity.ID, domain.RoleClient),
		Session:  session,
		Role:     domain.RoleClient,
		Loading:  false,
	})

	// Remote sign-out failing must not fail the caller; the local clear is
	// authoritative.
	f.provider.EXPECT().
		SignOut(gomock.Any(), session.Token).
		Return(errors.New("network timeout"))
	f.cache.EXPECT().
		Clear(gomock.Any()).
		Return(errors.New("redis down"))

	f.uc.Logout(context.Background())

	snap := f.store.Snapshot()
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Profile)
	assert.Nil(t, snap.Session)
	assert.Equal(t, domain.RoleNone, snap.Role)
	assert.False(t, snap.Loading)
}

func TestAuthUsecase_SignUpDefersProfileCreation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)
	identity := testIdentity("new@portal.example")

	// No profile store expectations: sign-up must not create a durable
	// profile; first login synthesizes one.
	f.provider.EXPECT().
		SignUp(gomock.Any(), "new@portal.example", "pw123456", map[string]any{"display_name": "New User"}).
		Return(identity, nil)

	result := f.uc.SignUp(context.Background(), "new@portal.example", "pw123456", "New User")

	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "confirm")
	assert.Nil(t, result.Error)

	// No session is established by sign-up.
	assert.Nil(t, f.store.Snapshot().Session)
}

func TestAuthUsecase_SignUpFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)

	f.provider.EXPECT().
		SignUp(gomock.Any(), "taken@portal.example", "pw123456", gomock.Any()).
		Return(nil, errors.New("identity already exists"))

	result := f.uc.SignUp(context.Background(), "taken@portal.example", "pw123456", "")

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, domain.ErrCodeSignUpFailed, result.Error.Code)
}

func TestAuthUsecase_ResetPasswordNeverLeaksExistence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)

	f.provider.EXPECT().
		ResetPasswordForEmail(gomock.Any(), "known@portal.example").
		Return(nil)
	f.provider.EXPECT().
		ResetPasswordForEmail(gomock.Any(), "unknown@portal.example").
		Return(errors.New("no such identity"))

	okMsg := f.uc.ResetPassword(context.Background(), "known@portal.example")
	failMsg := f.uc.ResetPassword(context.Background(), "unknown@portal.example")

	assert.Contains(t, okMsg, "known@portal.example")
	assert.Contains(t, failMsg, "unknown@portal.example")
	assert.Contains(t, okMsg, "password reset link")
	assert.Contains(t, failMsg, "password reset link")
}

func TestAuthUsecase_UpdateProfileRequiresIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)
	f.store.Publish(domain.SignedOut())

	profile, authErr := f.uc.UpdateProfile(context.Background(), domain.ProfileUpdate{})

	assert.Nil(t, profile)
	require.NotNil(t, authErr)
	assert.Equal(t, domain.ErrCodeIdentityRequired, authErr.Code)
}

func TestAuthUsecase_UpdateProfileMergesIntoStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)
	identity := testIdentity("agent@brokerage.example")
	f.store.Publish(domain.SessionState{
		Identity: identity,
		Profile:  durableProfile(identity.ID, domain.RoleAgent),
		Session:  activeSession(identity),
		Role:     domain.RoleAgent,
		Loading:  false,
	})

	newName := "Updated Name"
	updated := durableProfile(identity.ID, domain.RoleAgent)
	updated.DisplayName = newName

	f.profiles.EXPECT().
		Upsert(gomock.Any(), identity.ID, gomock.Any()).
		Return(updated, nil)

	profile, authErr := f.uc.UpdateProfile(context.Background(), domain.ProfileUpdate{DisplayName: &newName})

	require.Nil(t, authErr)
	require.NotNil(t, profile)
	assert.Equal(t, newName, profile.DisplayName)
	assert.Equal(t, newName, f.store.Snapshot().Profile.DisplayName)
}

func TestAuthUsecase_UpdateProfileDiscardedAfterLogout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(t, ctrl)
	identity := testIdentity("racer@portal.example")
	f.store.Publish(domain.SessionState{
		Identity: identity,
		Profile:  durableProfile(identity.ID, domain.RoleClient),
		Session:  activeSession(identity),
		Role:     domain.RoleClient,
		Loading:  false,
	})

	newName := "Late Write"
	f.profiles.EXPECT().
		Upsert(gomock.Any(), identity.ID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, id interface{}, update domain.ProfileUpdate) (*domain.Profile, error) {
			// A logout lands while the durable write is in flight.
			f.store.Publish(domain.SignedOut())
			updated := durableProfile(identity.ID, domain.RoleClient)
			updated.DisplayName = newName
			return updated, nil
		})

	profile, authErr := f.uc.UpdateProfile(context.Background(), domain.ProfileUpdate{DisplayName: &newName})

	// The caller still gets its result, but the shared store must not be
	// re-populated with state for a signed-out identity.
	require.Nil(t, authErr)
	require.NotNil(t, profile)
	assert.Nil(t, f.store.Snapshot().Identity)
}
