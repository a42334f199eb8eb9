package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/metrics"
	"github.com/redmonkez12/accounts-api/internal/user"
)

const (
	ResetMailTemplate = "forgot-password"
	ResetMailSubject  = "Reset your password"
)

// ServiceOptions holds the tunables of the lifecycle service.
type ServiceOptions struct {
	TokenDuration time.Duration
	// ResetLinkBaseURL is joined with "/" and the reset token to form the
	// link placed in the reset mail.
	ResetLinkBaseURL string
	// ConcealUnknownEmail makes RequestPasswordReset succeed silently for
	// addresses that have no active account.
	ConcealUnknownEmail bool
}

// Service handles the account lifecycle: registration, login, password
// reset and token authentication.
type Service struct {
	store         UserStore
	hasher        PasswordHasher
	tokens        TokenService
	mailer        Mailer
	window        ResetWindow
	validator     *Validator
	newResetToken ResetTokenGenerator
	logger        *logging.Logger
	opts          ServiceOptions

	// decoyOnce guards decoyHash, a hash of no account's password that
	// unknown-email logins are verified against.
	decoyOnce sync.Once
	decoyHash string
}

func NewService(
	store UserStore,
	hasher PasswordHasher,
	tokens TokenService,
	mailer Mailer,
	window ResetWindow,
	logger *logging.Logger,
	opts ServiceOptions,
) *Service {
	if window == nil {
		window = UnboundedResetWindow()
	}
	opts.ResetLinkBaseURL = strings.TrimSuffix(opts.ResetLinkBaseURL, "/")

	return &Service{
		store:         store,
		hasher:        hasher,
		tokens:        tokens,
		mailer:        mailer,
		window:        window,
		validator:     NewValidator(),
		newResetToken: NewResetToken,
		logger:        logger,
		opts:          opts,
	}
}

// RegisterInput carries the fields of a registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an account and returns its sanitized profile.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.Profile, error) {
	profile, err := s.register(ctx, in)
	metrics.RegistrationsTotal.WithLabelValues(outcome(err)).Inc()
	return profile, err
}

func (s *Service) register(ctx context.Context, in RegisterInput) (*user.Profile, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	email := strings.TrimSpace(in.Email)

	if !s.validator.ValidName(firstName) || !s.validator.ValidName(lastName) {
		return nil, oops.Code(CodeInvalidNames).Wrap(ErrInvalidNames)
	}
	if !s.validator.ValidEmail(email) {
		return nil, oops.Code(CodeInvalidEmail).Wrap(ErrInvalidEmail)
	}
	if !s.validator.ValidPassword(in.Password) {
		return nil, oops.Code(CodeInvalidPassword).Wrap(ErrInvalidPassword)
	}

	// Fast path only; the unique index decides concurrent registrations.
	_, err := s.store.GetActiveByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, oops.Code(CodeEmailTaken).Wrap(ErrEmailTaken)
	case !errors.Is(err, user.ErrNotFound):
		return nil, oops.Code("REGISTER_LOOKUP_FAILED").Wrap(err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}

	resetToken, err := s.newResetToken()
	if err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, user.NewUser{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		ResetToken:   resetToken,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, oops.Code(CodeEmailTaken).Wrap(ErrEmailTaken)
		}
		return nil, err
	}

	s.logger.Info("account registered", "user_id", created.ID.String())

	return created.Profile(), nil
}

// Login verifies the credentials and issues a bearer token. Unknown
// accounts and wrong passwords both yield ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	token, err := s.login(ctx, email, password)
	metrics.LoginsTotal.WithLabelValues(outcome(err)).Inc()
	return token, err
}

func (s *Service) login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrUnauthorized
	}

	u, err := s.store.GetActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Spend the same hashing work as a wrong password.
			s.hasher.Verify(password, s.decoy())
			return "", ErrUnauthorized
		}
		return "", oops.Code("LOGIN_LOOKUP_FAILED").Wrap(err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", ErrUnauthorized
	}

	token, err := s.tokens.CreateToken(u.ID, u.Email, s.opts.TokenDuration)
	if err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").
			With("user_id", u.ID.String()).
			Wrap(err)
	}

	return token, nil
}

func (s *Service) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("failed to build login decoy hash", "error", err.Error())
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// RequestPasswordReset mails the account's current reset token as a link.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	err := s.requestPasswordReset(ctx, email)
	metrics.ResetRequestsTotal.WithLabelValues(outcome(err)).Inc()
	return err
}

func (s *Service) requestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	u, err := s.lookupForReset(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			if s.opts.ConcealUnknownEmail {
				s.logger.Debug("password reset requested for unknown email")
				return nil
			}
			return ErrUserNotFound
		}
		return oops.Code("RESET_LOOKUP_FAILED").Wrap(err)
	}

	token := u.ResetToken.String()

	if err := s.window.Open(ctx, token); err != nil {
		return oops.Code("RESET_WINDOW_FAILED").
			With("user_id", u.ID.String()).
			Wrap(err)
	}

	vars := map[string]string{"ACTION": s.opts.ResetLinkBaseURL + "/" + token}
	if err := s.mailer.Send(ctx, u.Email, ResetMailSubject, ResetMailTemplate, vars); err != nil {
		return oops.Code("RESET_MAIL_FAILED").
			With("user_id", u.ID.String()).
			Wrap(err)
	}

	s.logger.Info("password reset link sent", "user_id", u.ID.String())

	return nil
}

func (s *Service) lookupForReset(ctx context.Context, email string) (*user.User, error) {
	if email == "" {
		return nil, user.ErrNotFound
	}
	return s.store.GetActiveByEmail(ctx, email)
}

// ResetPassword replaces the password of the account holding guid and
// rotates its reset token, so a token can be used at most once.
func (s *Service) ResetPassword(ctx context.Context, guid, password string) error {
	err := s.resetPassword(ctx, guid, password)
	metrics.ResetsAppliedTotal.WithLabelValues(outcome(err)).Inc()
	return err
}

func (s *Service) resetPassword(ctx context.Context, guid, password string) error {
	token, err := uuid.Parse(strings.TrimSpace(guid))
	if err != nil {
		return ErrResetTokenNotFound
	}

	u, err := s.store.GetActiveByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrResetTokenNotFound
		}
		return oops.Code("RESET_LOOKUP_FAILED").Wrap(err)
	}

	open, err := s.window.IsOpen(ctx, token.String())
	if err != nil {
		return oops.Code("RESET_WINDOW_FAILED").
			With("user_id", u.ID.String()).
			Wrap(err)
	}
	if !open {
		return ErrResetTokenNotFound
	}

	if !s.validator.ValidPassword(password) {
		return oops.Code(CodeInvalidPassword).Wrap(ErrInvalidPassword)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}

	next, err := s.newResetToken()
	if err != nil {
		return err
	}

	if err := s.store.RotateCredentials(ctx, u.ID, token, passwordHash, next); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Another request consumed the token first.
			return ErrResetTokenNotFound
		}
		return err
	}

	// Best effort; the old token no longer matches any account.
	if err := s.window.Close(ctx, token.String()); err != nil {
		s.logger.Warn("failed to close password reset window", "user_id", u.ID.String(), "error", err.Error())
	}

	s.logger.Info("password reset applied", "user_id", u.ID.String())

	return nil
}

// Authenticate resolves a bearer token to the current profile of its
// account. Every verification failure yields ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*user.Profile, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		s.logger.Debug("token rejected", "reason", err.Error())
		return nil, ErrUnauthorized
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrUnauthorized
	}

	u, err := s.store.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, oops.Code("AUTHENTICATE_LOOKUP_FAILED").Wrap(err)
	}

	return u.Profile(), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrInvalidNames), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidPassword):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrEmailTaken):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrResetTokenNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
