package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/accounts-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// TokenClaims represents the identity asserted by a bearer token
type TokenClaims struct {
	UserID    string    `json:"user_id"` // UUID stored as string in token
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// UserStore is the credential store the service works against.
// Lookups return user.ErrNotFound when no non-deleted account matches.
type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (*user.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*user.User, error)
	GetActiveByResetToken(ctx context.Context, token uuid.UUID) (*user.User, error)
	GetActiveByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	RotateCredentials(ctx context.Context, id, currentToken uuid.UUID, passwordHash string, nextToken uuid.UUID) error
}

// Mailer sends a templated message.
type Mailer interface {
	Send(ctx context.Context, to, subject, templateName string, vars map[string]string) error
}

// ResetWindow bounds how long a dispatched reset link may be used.
type ResetWindow interface {
	// Open starts (or restarts) the window for token.
	Open(ctx context.Context, token string) error
	// IsOpen reports whether token may still be used.
	IsOpen(ctx context.Context, token string) (bool, error)
	// Close ends the window for token.
	Close(ctx context.Context, token string) error
}

var _ UserStore = (*user.Repository)(nil)
