package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PasswordResetRepository keeps the expiry window of dispatched reset links
// in Redis. The key holds nothing but its TTL; the reset token itself lives
// on the account row.
type PasswordResetRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewPasswordResetRepository creates a new password reset repository instance
func NewPasswordResetRepository(client redis.Cmdable, ttl time.Duration) *PasswordResetRepository {
	return &PasswordResetRepository{
		client: client,
		ttl:    ttl,
	}
}

// Open marks the token as dispatched for the configured TTL
func (r *PasswordResetRepository) Open(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, passwordResetKey(token), time.Now().Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store password reset window: %w", err)
	}
	return nil
}

// IsOpen reports whether the token was dispatched within the TTL
func (r *PasswordResetRepository) IsOpen(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, passwordResetKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check password reset window: %w", err)
	}
	return n > 0, nil
}

// Close removes the window of a consumed token
func (r *PasswordResetRepository) Close(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, passwordResetKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete password reset window: %w", err)
	}
	return nil
}

// passwordResetKey generates a Redis key for password reset tokens
func passwordResetKey(token string) string {
	return fmt.Sprintf("password_reset:%s", hashToken(token))
}

// unboundedResetWindow keeps every reset token usable until it is consumed.
type unboundedResetWindow struct{}

// UnboundedResetWindow returns a ResetWindow that never expires tokens.
func UnboundedResetWindow() ResetWindow { return unboundedResetWindow{} }

func (unboundedResetWindow) Open(context.Context, string) error           { return nil }
func (unboundedResetWindow) IsOpen(context.Context, string) (bool, error) { return true, nil }
func (unboundedResetWindow) Close(context.Context, string) error          { return nil }

var _ ResetWindow = (*PasswordResetRepository)(nil)
