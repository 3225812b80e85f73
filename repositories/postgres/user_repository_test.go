package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LunchTimeCode/outerspace/models"
	"github.com/LunchTimeCode/outerspace/repositories"
)

const userColumnsQuery = `SELECT id, email, given_name, family_name, environments, created_at, updated_at`

func newMockRepository(t *testing.T) (repositories.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewUserRepository(NewDBFromConn(db, zap.NewNop()), zap.NewNop())
	return repo, mock
}

func userColumns() []string {
	return []string{"id", "email", "given_name", "family_name", "environments", "created_at", "updated_at"}
}

func TestUserRepositoryGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		id := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(userColumns()).
			AddRow(id, "ada@example.com", "Ada", "Lovelace", []byte("{prod,test}"), now, now)

		mock.ExpectQuery(regexp.QuoteMeta(userColumnsQuery)).
			WithArgs(id).
			WillReturnRows(rows)

		user, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)

		assert.Equal(t, id, user.ID)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "Ada", user.GivenName)
		assert.Equal(t, "Lovelace", user.FamilyName)
		assert.Equal(t, []models.Environment{models.EnvironmentProd, models.EnvironmentTest}, user.Environments)
		assert.True(t, user.HasEnvironment(models.EnvironmentProd))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta(userColumnsQuery)).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(userColumns()))

		user, err := repo.GetByID(context.Background(), id)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})
}

func TestUserRepositoryList(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow(uuid.New(), "ada@example.com", "Ada", "Lovelace", []byte("{prod}"), now, now).
		AddRow(uuid.New(), "grace@example.com", "Grace", "Hopper", []byte("{}"), now, now)

	mock.ExpectQuery(regexp.QuoteMeta(userColumnsQuery)).WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, []models.Environment{models.EnvironmentProd}, users[0].Environments)
	assert.Empty(t, users[1].Environments)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.Exists(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("does not exist", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.Exists(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
