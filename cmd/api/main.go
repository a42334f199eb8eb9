package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/accounts-api/docs" // Swagger docs
	"github.com/redmonkez12/accounts-api/internal/auth"
	"github.com/redmonkez12/accounts-api/internal/config"
	"github.com/redmonkez12/accounts-api/internal/database"
	"github.com/redmonkez12/accounts-api/internal/email"
	httpServer "github.com/redmonkez12/accounts-api/internal/http"
	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/user"
	"github.com/redmonkez12/accounts-api/templates"
)

// @title           Accounts API
// @version         1.0
// @description     Registration, login, password reset and current-account lookup.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
		"password_hasher", cfg.Auth.PasswordHasher,
	)

	// Initialize database connection
	dbCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	db, err := database.Open(dbCtx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoSchema {
		if err := database.CreateSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	// Reset links expire only when a window is configured
	resetWindow := auth.UnboundedResetWindow()
	if cfg.Auth.ResetWindowEnabled() {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		resetWindow = auth.NewPasswordResetRepository(redisClient, cfg.Auth.ResetTokenTTL)
	}

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	emailService, err := email.NewService(cfg.Email, templates.EmailFS)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	authService := auth.NewService(
		user.NewRepository(db),
		newPasswordHasher(cfg.Auth),
		tokenService,
		emailService,
		resetWindow,
		logger,
		auth.ServiceOptions{
			TokenDuration:       cfg.Auth.AccessTokenDuration,
			ResetLinkBaseURL:    cfg.Auth.ResetLinkBaseURL,
			ConcealUnknownEmail: cfg.Auth.ConcealUnknownResetEmail,
		},
	)

	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(authService)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenFormat == config.TokenFormatPaseto {
		return auth.NewPasetoService([]byte(cfg.TokenSecret))
	}
	return auth.NewJWTService([]byte(cfg.TokenSecret))
}

func newPasswordHasher(cfg config.AuthConfig) auth.PasswordHasher {
	if cfg.PasswordHasher == config.HasherArgon2id {
		return auth.NewArgon2idHasher()
	}
	return auth.NewBcryptHasher()
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
