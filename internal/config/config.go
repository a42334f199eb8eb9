package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Token formats accepted by TOKEN_FORMAT.
const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"
)

// Password hashers accepted by PASSWORD_HASHER.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT, default=8080"`
	Env             string        `env:"APP_ENV, default=dev"` // dev or prod
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT, default=10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT, default=10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT, default=15s"`
	TrustedOrigins  []string      `env:"TRUSTED_ORIGINS, default=http://localhost:3000"`
}

type DatabaseConfig struct {
	Host           string        `env:"DB_HOST, default=localhost"`
	Port           string        `env:"DB_PORT, default=5432"`
	User           string        `env:"DB_USER, default=postgres"`
	Password       string        `env:"DB_PASSWORD, default=postgres"`
	DBName         string        `env:"DB_NAME, default=accounts"`
	SSLMode        string        `env:"DB_SSLMODE, default=disable"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT, default=15s"`
	MaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS, default=25"`
	MaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	// AutoSchema creates the users table and its indexes on startup when missing.
	AutoSchema bool `env:"DB_AUTO_SCHEMA, default=true"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST, default=localhost"`
	Port     string `env:"REDIS_PORT, default=6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type AuthConfig struct {
	TokenFormat string `env:"TOKEN_FORMAT, default=jwt"`
	// TokenSecret signs JWTs; for PASETO v4.local it must be exactly 32 bytes.
	TokenSecret         string        `env:"TOKEN_SECRET"`
	AccessTokenDuration time.Duration `env:"ACCESS_TOKEN_DURATION, default=24h"`
	PasswordHasher      string        `env:"PASSWORD_HASHER, default=bcrypt"`
	// ResetTokenTTL bounds how long an emailed reset link stays usable. Zero
	// keeps a reset token valid until it is consumed.
	ResetTokenTTL            time.Duration `env:"RESET_TOKEN_TTL, default=1h"`
	ResetLinkBaseURL         string        `env:"RESET_LINK_BASE_URL, default=http://localhost:8080/reset-password"`
	ConcealUnknownResetEmail bool          `env:"RESET_CONCEAL_UNKNOWN_EMAIL, default=false"`
}

type EmailConfig struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT, default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	From         string `env:"EMAIL_FROM"` // falls back to SMTP_USER
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL, default=info"`
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load(ctx context.Context) (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit variable source.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.SMTPUser
	}
	cfg.Auth.ResetLinkBaseURL = strings.TrimRight(cfg.Auth.ResetLinkBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required")
	}

	switch c.Auth.TokenFormat {
	case TokenFormatJWT:
	case TokenFormatPaseto:
		// v4.local needs a 32 byte symmetric key
		if len(c.Auth.TokenSecret) != 32 {
			return fmt.Errorf("TOKEN_SECRET must be exactly 32 bytes for paseto, got %d", len(c.Auth.TokenSecret))
		}
	default:
		return fmt.Errorf("unsupported TOKEN_FORMAT %q", c.Auth.TokenFormat)
	}

	switch c.Auth.PasswordHasher {
	case HasherBcrypt, HasherArgon2id:
	default:
		return fmt.Errorf("unsupported PASSWORD_HASHER %q", c.Auth.PasswordHasher)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_DURATION must be positive")
	}
	if c.Auth.ResetTokenTTL < 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must not be negative")
	}

	return nil
}

// ConnectionString returns a postgres:// URL for lib/pq with every part
// escaped, so credentials may contain any character.
func (c *DatabaseConfig) ConnectionString() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// ResetWindowEnabled reports whether reset links expire by time.
func (c *AuthConfig) ResetWindowEnabled() bool {
	return c.ResetTokenTTL > 0
}
