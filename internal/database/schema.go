package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// ActiveEmailIndex is the partial unique index that lets at most one
// non-deleted account own an email address.
const ActiveEmailIndex = "users_email_active_key"

// CreateSchema creates the users table and its indexes if they do not exist.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := db.NewCreateIndex().
		Model((*User)(nil)).
		Index(ActiveEmailIndex).
		IfNotExists().
		Unique().
		Column("email").
		Where("deleted = false").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create %s index: %w", ActiveEmailIndex, err)
	}

	return nil
}
