package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"portal-session-service/app/domain"
	mock_port "portal-session-service/app/mocks"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func testIdentity(email string) *domain.Identity {
	return &domain.Identity{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

func durableProfile(identityID uuid.UUID, role domain.Role) *domain.Profile {
	return &domain.Profile{
		ID:         identityID,
		IdentityID: identityID,
		Role:       role,
		DisplayName: "Durable Name",
		CreatedAt:  time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC),
	}
}

func TestProfileResolver_Resolve(t *testing.T) {
	recursiveErr := fmt.Errorf("policy evaluation failed: %w", domain.ErrRecursivePolicy)

	tests := []struct {
		name       string
		identity   *domain.Identity
		setupMocks func(identityID uuid.UUID, store *mock_port.MockProfileStore)
		validate   func(t *testing.T, identity *domain.Identity, got *domain.Profile)
	}{
		{
			name:     "durable profile returned as-is",
			identity: testIdentity("admin@brokerage.example"),
			setupMocks: func(id uuid.UUID, store *mock_port.MockProfileStore) {
				store.EXPECT().
					GetByIdentity(gomock.Any(), id).
					Return(durableProfile(id, domain.RoleAdmin), nil)
			},
			validate: func(t *testing.T, identity *domain.Identity, got *domain.Profile) {
				assert.Equal(t, domain.RoleAdmin, got.Role)
				assert.False(t, got.Synthesized)
				assert.Equal(t, "Durable Name", got.DisplayName)
			},
		},
		{
			name:     "recursive policy error falls through to privileged lookup",
			identity: testIdentity("agent@brokerage.example"),
			setupMocks: func(id uuid.UUID, store *mock_port.MockProfileStore) {
				store.EXPECT().
					GetByIdentity(gomock.Any(), id).
					Return(nil, recursiveErr)
				store.EXPECT().
					GetByIdentityPrivileged(gomock.Any(), id).
					Return(durableProfile(id, domain.RoleAgent), nil)
			},
			validate: func(t *testing.T, identity *domain.Identity, got *domain.Profile) {
				assert.Equal(t, domain.RoleAgent, got.Role)
				assert.False(t, got.Synthesized)
			},
		},
		{
			name:     "recursive policy and failed bypass synthesize a client profile",
			identity: testIdentity("jane.doe@brokerage.example"),
			setupMocks: func(id uuid.UUID, store *mock_port.MockProfileStore) {
				store.EXPECT().
					GetByIdentity(gomock.Any(), id).
					Return(nil, recursiveErr)
				store.EXPECT().
					GetByIdentityPrivileged(gomock.Any(), id).
					Return(nil, errors.New("permission denied"))
			},
			validate: func(t *testing.T, identity *domain.Identity, got *domain.Profile) {
				assert.Equal(t, domain.RoleClient, got.Role)
				assert.True(t, got.Synthesized)
				assert.Equal(t, "jane.doe", got.DisplayName)
				assert.Empty(t, got.Phone)
			},
		},
		{
			name:     "unconfigured privileged path is treated like its failure",
			identity: testIdentity("someone@brokerage.example"),
			setupMocks: func(id uuid.UUID, store *mock_port.MockProfileStore) {
				store.EXPECT().
					GetByIdentity(gomock.Any(), id).
					Return(nil, recursiveErr)
				store.EXPECT().
					GetByIdentityPrivileged(gomock.Any(), id).
					Return(nil, domain.ErrPrivilegedUnavailable)
			},
			validate: func(t *testing.T, identity *domain.Identity, got *domain.Profile) {
				assert.Equal(t, domain.RoleClient, got.Role)
				assert.True(t, got.Synthesized)
			},
		},
		{
			name:     "not-found synthesizes without touching the privileged path",
			identity: testIdentity("new.user@brokerage.example"),
			setupMocks: func(id uuid.UUID, store *mock_port.MockProfileStore) {
				store.EXPECT().
					GetByIdentity(gomock.Any(), id).
					Return(nil, domain.ErrProfileNotFound)
			},
			validate: func(t *testing.T, identity *domain.Identity, got *domain.Profile) {
				assert.Equal(t, domain.RoleClient, got.Role)
				assert.True(t, got.Synthesized)
				assert.Equal(t, identity.CreatedAt, got.CreatedAt)
			},
		},
		{
			name:     "transient store failure synthesizes",
			identity: testIdentity("x@y.z"),
			setupMocks: func(id uuid.UUID, store *mock_port.MockProfileStore) {
				store.EXPECT().
					GetByIdentity(gomock.Any(), id).
					Return(nil, errors.New("connection refused"))
			},
			validate: func(t *testing.T, identity *domain.Identity, got *domain.Profile) {
				assert.Equal(t, domain.RoleClient, got.Role)
				assert.True(t, got.Synthesized)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := mock_port.NewMockProfileStore(ctrl)
			tt.setupMocks(tt.identity.ID, store)

			resolver := NewProfileResolver(store, testLogger())
			got := resolver.Resolve(context.Background(), tt.identity)

			require.NotNil(t, got, "Resolve must always yield a usable profile for a valid identity")
			assert.Equal(t, tt.identity.ID, got.IdentityID)
			tt.validate(t, tt.identity, got)
		})
	}
}

func TestProfileResolver_InvalidIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No store calls expected for an invalid identity.
	store := mock_port.NewMockProfileStore(ctrl)
	resolver := NewProfileResolver(store, testLogger())

	assert.Nil(t, resolver.Resolve(context.Background(), nil))
	assert.Nil(t, resolver.Resolve(context.Background(), &domain.Identity{}))
}

func TestProfileResolver_SynthesisIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	identity := testIdentity("repeat@brokerage.example")
	store := mock_port.NewMockProfileStore(ctrl)
	store.EXPECT().
		GetByIdentity(gomock.Any(), identity.ID).
		Return(nil, domain.ErrProfileNotFound).
		Times(2)

	resolver := NewProfileResolver(store, testLogger())
	fixed := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	resolver.now = func() time.Time { return fixed }

	first := resolver.Resolve(context.Background(), identity)
	second := resolver.Resolve(context.Background(), identity)

	assert.Equal(t, first, second, "repeated synthesis for the same store state must not drift")
}
