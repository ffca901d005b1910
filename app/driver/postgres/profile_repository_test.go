package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-session-service/app/domain"
	"portal-session-service/app/utils/logger"
)

func profileColumns() []string {
	return []string{"id", "identity_id", "role", "organization_id", "display_name", "phone", "created_at", "updated_at"}
}

func profileRow(identityID uuid.UUID, role string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(profileColumns()).
		AddRow(identityID, identityID, role, (*uuid.UUID)(nil), "Display Name", "", now.Add(-time.Hour), now)
}

func recursivePolicyPgError() *pgconn.PgError {
	return &pgconn.PgError{
		Code:    "42P17",
		Message: `infinite recursion detected in policy for relation "profiles"`,
	}
}

func createTestProfileRepository(t *testing.T, withPrivileged bool) (*ProfileRepository, pgxmock.PgxPoolIface, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)

	testLogger, err := logger.New("debug")
	require.NoError(t, err)

	var privileged DatabaseIface
	var mockPrivileged pgxmock.PgxPoolIface
	if withPrivileged {
		mockPrivileged, err = pgxmock.NewPool()
		require.NoError(t, err)
		privileged = mockPrivileged
	}

	repo := NewProfileRepository(mockDB, privileged, testLogger).(*ProfileRepository)
	return repo, mockDB, mockPrivileged
}

func TestProfileRepository_GetByIdentity(t *testing.T) {
	identityID := uuid.New()

	t.Run("returns stored profile", func(t *testing.T) {
		repo, mockDB, _ := createTestProfileRepository(t, false)
		mockDB.ExpectQuery("SELECT (.+) FROM profiles").
			WithArgs(identityID).
			WillReturnRows(profileRow(identityID, "agent"))

		profile, err := repo.GetByIdentity(context.Background(), identityID)

		require.NoError(t, err)
		assert.Equal(t, identityID, profile.IdentityID)
		assert.Equal(t, domain.RoleAgent, profile.Role)
		assert.False(t, profile.Synthesized)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("missing row maps to ErrProfileNotFound", func(t *testing.T) {
		repo, mockDB, _ := createTestProfileRepository(t, false)
		mockDB.ExpectQuery("SELECT (.+) FROM profiles").
			WithArgs(identityID).
			WillReturnError(pgx.ErrNoRows)

		profile, err := repo.GetByIdentity(context.Background(), identityID)

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	t.Run("policy recursion maps to ErrRecursivePolicy", func(t *testing.T) {
		repo, mockDB, _ := createTestProfileRepository(t, false)
		mockDB.ExpectQuery("SELECT (.+) FROM profiles").
			WithArgs(identityID).
			WillReturnError(recursivePolicyPgError())

		profile, err := repo.GetByIdentity(context.Background(), identityID)

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, domain.ErrRecursivePolicy)
		assert.True(t, domain.IsRecursivePolicy(err))
	})

	t.Run("other pg errors are not recursion", func(t *testing.T) {
		repo, mockDB, _ := createTestProfileRepository(t, false)
		mockDB.ExpectQuery("SELECT (.+) FROM profiles").
			WithArgs(identityID).
			WillReturnError(&pgconn.PgError{Code: "57P01", Message: "terminating connection"})

		_, err := repo.GetByIdentity(context.Background(), identityID)

		require.Error(t, err)
		assert.False(t, domain.IsRecursivePolicy(err))
	})

	t.Run("unknown stored role is rejected", func(t *testing.T) {
		repo, mockDB, _ := createTestProfileRepository(t, false)
		mockDB.ExpectQuery("SELECT (.+) FROM profiles").
			WithArgs(identityID).
			WillReturnRows(profileRow(identityID, "superuser"))

		_, err := repo.GetByIdentity(context.Background(), identityID)

		assert.Error(t, err)
	})
}

func TestProfileRepository_GetByIdentityPrivileged(t *testing.T) {
	identityID := uuid.New()

	t.Run("unconfigured privileged connection", func(t *testing.T) {
		repo, _, _ := createTestProfileRepository(t, false)

		profile, err := repo.GetByIdentityPrivileged(context.Background(), identityID)

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, domain.ErrPrivilegedUnavailable)
	})

	t.Run("bypasses policy via privileged connection", func(t *testing.T) {
		repo, mockDB, mockPrivileged := createTestProfileRepository(t, true)
		mockPrivileged.ExpectQuery("SELECT (.+) FROM profiles").
			WithArgs(identityID).
			WillReturnRows(profileRow(identityID, "admin"))

		profile, err := repo.GetByIdentityPrivileged(context.Background(), identityID)

		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, profile.Role)
		// The standard connection must not be touched.
		assert.NoError(t, mockDB.ExpectationsWereMet())
		assert.NoError(t, mockPrivileged.ExpectationsWereMet())
	})

	t.Run("missing row maps to ErrProfileNotFound", func(t *testing.T) {
		repo, _, mockPrivileged := createTestProfileRepository(t, true)
		mockPrivileged.ExpectQuery("SELECT (.+) FROM profiles").
			WithArgs(identityID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByIdentityPrivileged(context.Background(), identityID)

		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})
}

func TestProfileRepository_Upsert(t *testing.T) {
	identityID := uuid.New()
	newName := "Updated Name"

	t.Run("partial update returns stored row", func(t *testing.T) {
		repo, mockDB, _ := createTestProfileRepository(t, false)

		returned := profileRow(identityID, "client")
		mockDB.ExpectQuery("INSERT INTO profiles").
			WithArgs(identityID, (*uuid.UUID)(nil), &newName, (*string)(nil)).
			WillReturnRows(returned)

		profile, err := repo.Upsert(context.Background(), identityID, domain.ProfileUpdate{DisplayName: &newName})

		require.NoError(t, err)
		assert.Equal(t, identityID, profile.IdentityID)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("write failure surfaces", func(t *testing.T) {
		repo, mockDB, _ := createTestProfileRepository(t, false)
		mockDB.ExpectQuery("INSERT INTO profiles").
			WithArgs(identityID, (*uuid.UUID)(nil), &newName, (*string)(nil)).
			WillReturnError(pgx.ErrTxClosed)

		profile, err := repo.Upsert(context.Background(), identityID, domain.ProfileUpdate{DisplayName: &newName})

		assert.Nil(t, profile)
		assert.ErrorContains(t, err, "failed to upsert profile")
	})
}
