package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-session-service/app/domain"
	"portal-session-service/app/driver/postgres"
	"portal-session-service/app/utils/logger"
)

func TestProfileStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	require.NoError(t, WaitForDatabase(ctx), "Database should be ready")

	pool, err := TestDatabaseConnection(ctx)
	require.NoError(t, err, "Should connect to test database")
	defer pool.Close()

	testLogger, err := logger.New("debug")
	require.NoError(t, err, "Should create logger")

	// No privileged pool in the test environment; the privileged path is
	// expected to report itself unavailable.
	store := postgres.NewProfileRepository(pool, nil, testLogger)

	t.Run("missing profile reports not found", func(t *testing.T) {
		_, err := store.GetByIdentity(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	t.Run("upsert then read round trip", func(t *testing.T) {
		identityID := uuid.New()
		displayName := "Integration User"
		phone := "+81 90 1234 5678"

		created, err := store.Upsert(ctx, identityID, domain.ProfileUpdate{
			DisplayName: &displayName,
			Phone:       &phone,
		})
		require.NoError(t, err, "Should upsert profile")
		assert.Equal(t, identityID, created.IdentityID)
		assert.Equal(t, domain.RoleClient, created.Role)
		assert.Equal(t, displayName, created.DisplayName)

		fetched, err := store.GetByIdentity(ctx, identityID)
		require.NoError(t, err, "Should read profile back")
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, displayName, fetched.DisplayName)
		assert.Equal(t, phone, fetched.Phone)

		t.Cleanup(func() {
			_, _ = pool.Exec(ctx, "DELETE FROM profiles WHERE identity_id = $1", identityID)
		})
	})

	t.Run("upsert is idempotent per identity", func(t *testing.T) {
		identityID := uuid.New()
		first := "First Name"
		second := "Second Name"

		_, err := store.Upsert(ctx, identityID, domain.ProfileUpdate{DisplayName: &first})
		require.NoError(t, err)

		updated, err := store.Upsert(ctx, identityID, domain.ProfileUpdate{DisplayName: &second})
		require.NoError(t, err)
		assert.Equal(t, second, updated.DisplayName)

		var count int
		require.NoError(t, pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM profiles WHERE identity_id = $1", identityID).Scan(&count))
		assert.Equal(t, 1, count, "Upsert should never duplicate a profile row")

		t.Cleanup(func() {
			_, _ = pool.Exec(ctx, "DELETE FROM profiles WHERE identity_id = $1", identityID)
		})
	})

	t.Run("privileged path unavailable without privileged pool", func(t *testing.T) {
		_, err := store.GetByIdentityPrivileged(ctx, uuid.New())
		assert.True(t, errors.Is(err, domain.ErrPrivilegedUnavailable))
	})
}
