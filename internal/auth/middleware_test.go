package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/accounts-api/internal/user"
)

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t, ServiceOptions{})
	registered := env.register(t, validRegistration)
	token, err := env.svc.Login(context.Background(), "ada@example.com", "Analytical1")
	require.NoError(t, err)

	var seen *user.Profile
	protected := NewMiddleware(env.svc).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetProfileFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := do(t, protected, http.MethodGet, "/", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, registered.ID, seen.ID)

	// The scheme is case-insensitive.
	rec = do(t, protected, http.MethodGet, "/", "", "Authorization", "bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAuthRejects(t *testing.T) {
	env := newTestEnv(t, ServiceOptions{})
	profile := env.register(t, validRegistration)
	expired, err := env.tokens.CreateToken(profile.ID, profile.Email, -time.Minute)
	require.NoError(t, err)

	protected := NewMiddleware(env.svc).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"missing":      "",
		"no scheme":    expired,
		"basic scheme": "Basic YWRhOnB3",
		"empty token":  "Bearer ",
		"expired":      "Bearer " + expired,
		"garbage":      "Bearer abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, protected, http.MethodGet, "/", "", "Authorization", header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestRequireAuthStoreFailure(t *testing.T) {
	env := newTestEnv(t, ServiceOptions{})
	profile := env.register(t, validRegistration)
	token, err := env.tokens.CreateToken(profile.ID, profile.Email, time.Hour)
	require.NoError(t, err)
	env.store.err = errors.New("connection reset")

	protected := NewMiddleware(env.svc).RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := do(t, protected, http.MethodGet, "/", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternalError, rec.Body.String())
}

func TestGetProfileFromContextEmpty(t *testing.T) {
	_, ok := GetProfileFromContext(context.Background())
	assert.False(t, ok)
}
