package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/accounts-api/internal/database"
)

var userColumns = []string{
	"id", "first_name", "last_name", "email", "password_hash",
	"reset_guid", "deleted", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := database.NewBunDB(sqlDB)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func userRow(id, reset uuid.UUID, email string) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(userColumns).
		AddRow(id.String(), "Ada", "Lovelace", email, "$2a$10$hash", reset.String(), false, now, now)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, reset := uuid.New(), uuid.New()

	mock.ExpectQuery(`INSERT INTO "users" .*RETURNING \*`).
		WillReturnRows(userRow(id, reset, "ada@example.com"))

	got, err := repo.Create(context.Background(), NewUser{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		ResetToken:   reset,
	})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, reset, got.ResetToken)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.False(t, got.Deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: database.ActiveEmailIndex})

	_, err := repo.Create(context.Background(), NewUser{Email: "ada@example.com", ResetToken: uuid.New()})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_Create_OtherUniqueViolation(t *testing.T) {
	for _, constraint := range []string{"users_pkey", "users_reset_guid_key"} {
		t.Run(constraint, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectQuery(`INSERT INTO "users"`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: constraint})

			_, err := repo.Create(context.Background(), NewUser{Email: "ada@example.com", ResetToken: uuid.New()})
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrDuplicateEmail)

			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, "USER_CREATE_FAILED", oopsErr.Code())
		})
	}
}

func TestRepository_Create_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), NewUser{Email: "ada@example.com", ResetToken: uuid.New()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "USER_CREATE_FAILED", oopsErr.Code())
}

func TestRepository_GetActiveByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, reset := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "users" AS "u" WHERE .*email = 'ada@example\.com'.*deleted = FALSE.*LIMIT 1`).
		WillReturnRows(userRow(id, reset, "ada@example.com"))

	got, err := repo.GetActiveByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetActiveByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetActiveByEmail(context.Background(), "ghost@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_GetActiveByEmail_StoreFailure(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM "users"`).
		WillReturnError(errors.New("db down"))

	_, err := repo.GetActiveByEmail(context.Background(), "ada@example.com")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "db down")
}

func TestRepository_GetActiveByResetToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, reset := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "users" AS "u" WHERE .*reset_guid = '` + reset.String() + `'.*deleted = FALSE`).
		WillReturnRows(userRow(id, reset, "ada@example.com"))

	got, err := repo.GetActiveByResetToken(context.Background(), reset)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestRepository_GetActiveByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, reset := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "users" AS "u" WHERE .*id = '` + id.String() + `'`).
		WillReturnRows(userRow(id, reset, "ada@example.com"))

	got, err := repo.GetActiveByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
}

func TestRepository_RotateCredentials(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, current, next := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE "users" .*reset_guid = '` + next.String() + `'.*reset_guid = '` + current.String() + `'.*deleted = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RotateCredentials(context.Background(), id, current, "$2a$10$new", next)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RotateCredentials_AlreadyConsumed(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RotateCredentials(context.Background(), uuid.New(), uuid.New(), "$2a$10$new", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_RotateCredentials_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users"`).
		WillReturnError(errors.New("db down"))

	err := repo.RotateCredentials(context.Background(), uuid.New(), uuid.New(), "$2a$10$new", uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUser_Profile(t *testing.T) {
	u := &User{
		ID:           uuid.New(),
		FirstName:    "A",
		LastName:     "B",
		Email:        "a@b.com",
		PasswordHash: "secret-hash",
		ResetToken:   uuid.New(),
	}

	p := u.Profile()
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "A", p.FirstName)
	assert.Equal(t, "a@b.com", p.Email)
}
