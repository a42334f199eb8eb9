package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher()

	hash, err := h.Hash("Analytical1")
	require.NoError(t, err)

	assert.NotEqual(t, "Analytical1", hash)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)

	assert.True(t, h.Verify("Analytical1", hash))
	assert.False(t, h.Verify("analytical1", hash))

	again, err := h.Hash("Analytical1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestArgon2idHasher(t *testing.T) {
	h := NewArgon2idHasher()

	hash, err := h.Hash("Analytical1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))
	assert.True(t, h.Verify("Analytical1", hash))
	assert.False(t, h.Verify("Analytical2", hash))
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	bcryptHash, err := NewBcryptHasher().Hash("Analytical1")
	require.NoError(t, err)

	malformed := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2id$v=19$m=x,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA",
		"$2a$10$short",
	}

	for _, hasher := range []PasswordHasher{NewBcryptHasher(), NewArgon2idHasher()} {
		for _, hash := range malformed {
			assert.NotPanics(t, func() {
				assert.False(t, hasher.Verify("Analytical1", hash), "hash %q", hash)
			})
		}
	}

	// Each hasher treats the other's format as a mismatch.
	assert.False(t, NewArgon2idHasher().Verify("Analytical1", bcryptHash))
}

func TestArgon2idVerifyRejectsExcessiveParameters(t *testing.T) {
	h := NewArgon2idHasher()
	salt := base64.RawStdEncoding.EncodeToString([]byte("saltsaltsaltsalt"))
	key := base64.RawStdEncoding.EncodeToString(make([]byte, argon2KeyLen))

	tests := []struct {
		name   string
		params string
	}{
		{"memory", "m=4294967295,t=1,p=1"},
		{"memory above ceiling", fmt.Sprintf("m=%d,t=1,p=1", argon2MaxMemory+1)},
		{"time", "m=65536,t=4294967295,p=1"},
		{"threads", "m=65536,t=3,p=255"},
		{"zero memory", "m=0,t=3,p=4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := fmt.Sprintf("$argon2id$v=19$%s$%s$%s", tt.params, salt, key)
			assert.False(t, h.Verify("Analytical1", hash))
		})
	}

	oversizedKey := base64.RawStdEncoding.EncodeToString(make([]byte, argon2MaxKeyLen+1))
	assert.False(t, h.Verify("Analytical1", "$argon2id$v=19$m=65536,t=3,p=4$"+salt+"$"+oversizedKey))
}
