package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/accounts-api/internal/database"
)

var (
	// ErrNotFound reports that no non-deleted account matched. It is never
	// wrapped, so callers can tell it apart from store failures.
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// NewUser holds the fields written when an account is created.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	ResetToken   uuid.UUID
}

// Repository handles user data persistence. Every query excludes
// soft-deleted rows.
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, nu NewUser) (*User, error) {
	dbUser := &database.User{
		ID:           uuid.New(),
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		ResetGUID:    nu.ResetToken,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if isDuplicateEmail(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetActiveByEmail retrieves a non-deleted user by email
func (r *Repository) GetActiveByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "GetActiveByEmail", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
}

// GetActiveByResetToken retrieves the non-deleted user holding token
func (r *Repository) GetActiveByResetToken(ctx context.Context, token uuid.UUID) (*User, error) {
	return r.getOne(ctx, "GetActiveByResetToken", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("reset_guid = ?", token)
	})
}

// GetActiveByID retrieves a non-deleted user by ID
func (r *Repository) GetActiveByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "GetActiveByID", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
}

// RotateCredentials replaces the password hash and reset token of a user,
// but only while currentToken is still the stored reset token. Of two
// concurrent rotations with the same token exactly one succeeds; the other
// gets ErrNotFound.
func (r *Repository) RotateCredentials(ctx context.Context, id, currentToken uuid.UUID, passwordHash string, nextToken uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_guid = ?", nextToken).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Where("reset_guid = ?", currentToken).
		Where("deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return oops.Code("USER_ROTATE_FAILED").
			With("operation", "update credentials").
			With("user_id", id.String()).
			Wrap(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return oops.Code("USER_ROTATE_FAILED").
			With("operation", "rows affected").
			Wrap(err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) getOne(ctx context.Context, op string, filter func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	dbUser := new(database.User)
	q := r.db.NewSelect().Model(dbUser)
	err := filter(q).
		Where("deleted = ?", false).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", op).
			Wrap(err)
	}

	return mapDBUserToModel(dbUser), nil
}

// isDuplicateEmail reports a conflict on the active-email index only; other
// unique constraints (primary key, reset_guid) are store failures.
func isDuplicateEmail(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) &&
		pqErr.Code.Name() == "unique_violation" &&
		pqErr.Constraint == database.ActiveEmailIndex
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		FirstName:    dbu.FirstName,
		LastName:     dbu.LastName,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		ResetToken:   dbu.ResetGUID,
		Deleted:      dbu.Deleted,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
