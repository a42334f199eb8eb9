package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memStore is an in-memory UserStore with the same uniqueness and
// compare-and-swap guarantees as the Postgres repository.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
	// err, when set, is returned by every method.
	err error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uuid.UUID]*user.User)}
}

func (s *memStore) Create(_ context.Context, nu user.NewUser) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	for _, u := range s.users {
		if !u.Deleted && u.Email == nu.Email {
			return nil, user.ErrDuplicateEmail
		}
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		ResetToken:   nu.ResetToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u

	c := *u
	return &c, nil
}

func (s *memStore) find(match func(*user.User) bool) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	for _, u := range s.users {
		if !u.Deleted && match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetActiveByEmail(_ context.Context, email string) (*user.User, error) {
	return s.find(func(u *user.User) bool { return u.Email == email })
}

func (s *memStore) GetActiveByResetToken(_ context.Context, token uuid.UUID) (*user.User, error) {
	return s.find(func(u *user.User) bool { return u.ResetToken == token })
}

func (s *memStore) GetActiveByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	return s.find(func(u *user.User) bool { return u.ID == id })
}

func (s *memStore) RotateCredentials(_ context.Context, id, currentToken uuid.UUID, passwordHash string, nextToken uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	u, ok := s.users[id]
	if !ok || u.Deleted || u.ResetToken != currentToken {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nextToken
	u.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) get(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := s.GetActiveByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func (s *memStore) markDeleted(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].Deleted = true
}

type sentMail struct {
	to, subject, template string
	vars                  map[string]string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, templateName string, vars map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, template: templateName, vars: vars})
	return nil
}

// lastToken returns the reset token embedded in the last mailed link.
func (m *recordingMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail was sent")
	link := m.sent[len(m.sent)-1].vars["ACTION"]
	return link[strings.LastIndex(link, "/")+1:]
}

// memWindow is a ResetWindow whose windows never expire on their own.
type memWindow struct {
	mu   sync.Mutex
	open map[string]bool
}

func newMemWindow() *memWindow {
	return &memWindow{open: make(map[string]bool)}
}

func (w *memWindow) Open(_ context.Context, token string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open[token] = true
	return nil
}

func (w *memWindow) IsOpen(_ context.Context, token string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open[token], nil
}

func (w *memWindow) Close(_ context.Context, token string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.open, token)
	return nil
}

func (w *memWindow) expire(token string) {
	_ = w.Close(context.Background(), token)
}

type testEnv struct {
	svc    *Service
	store  *memStore
	mailer *recordingMailer
	window *memWindow
	tokens TokenService
}

func newTestEnv(t *testing.T, opts ServiceOptions) *testEnv {
	t.Helper()

	tokens, err := NewJWTService([]byte(testSecret))
	require.NoError(t, err)

	if opts.TokenDuration == 0 {
		opts.TokenDuration = time.Hour
	}
	if opts.ResetLinkBaseURL == "" {
		opts.ResetLinkBaseURL = "http://localhost:8080/reset-password"
	}

	env := &testEnv{
		store:  newMemStore(),
		mailer: &recordingMailer{},
		window: newMemWindow(),
		tokens: tokens,
	}
	env.svc = NewService(env.store, NewBcryptHasher(), tokens, env.mailer, env.window, logging.Nop(), opts)
	return env
}

var validRegistration = RegisterInput{
	FirstName: "Ada",
	LastName:  "Lovelace",
	Email:     "ada@example.com",
	Password:  "Analytical1",
}

func (e *testEnv) register(t *testing.T, in RegisterInput) *user.Profile {
	t.Helper()
	profile, err := e.svc.Register(context.Background(), in)
	require.NoError(t, err)
	return profile
}
