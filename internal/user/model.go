package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an account as held by the credential store. It carries the
// password hash and reset token, so it never leaves the service layer;
// callers receive a Profile instead.
type User struct {
	ID           uuid.UUID `json:"-"`
	FirstName    string    `json:"-"`
	LastName     string    `json:"-"`
	Email        string    `json:"-"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	ResetToken   uuid.UUID `json:"-"`
	Deleted      bool      `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Profile is the sanitized view of an account returned to callers.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile strips the credential and reset token from u.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Deleted:   u.Deleted,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
