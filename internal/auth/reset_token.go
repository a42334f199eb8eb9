package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// ResetTokenGenerator produces reset tokens. The default draws random
// (version 4) UUIDs.
type ResetTokenGenerator func() (uuid.UUID, error)

// NewResetToken returns a fresh random reset token.
func NewResetToken() (uuid.UUID, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	return token, nil
}

// hashToken returns the hex SHA-256 of a token, used wherever a token is a
// lookup key outside the users table.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
