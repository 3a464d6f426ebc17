package cmdutil

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/uptrace/bun"

	"github.com/terraconstructs/blogapi/internal/auth"
	"github.com/terraconstructs/blogapi/internal/config"
	"github.com/terraconstructs/blogapi/internal/db/bunx"
	"github.com/terraconstructs/blogapi/internal/repository"
	"github.com/terraconstructs/blogapi/internal/services/blog"
	"github.com/terraconstructs/blogapi/internal/telemetry"
)

// NewLogger returns a text logger on stderr, at debug level when debug is set.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewAuthService builds the token codec, credential verifier and authorization policy
// described by cfg and wires them into an auth.Service.
func NewAuthService(cfg *config.Config, accounts auth.AccountLookup, logger *slog.Logger) (*auth.Service, error) {
	secret, err := cfg.Token.SecretBytes()
	if err != nil {
		return nil, err
	}
	codec, err := auth.NewTokenCodec(secret, cfg.Token.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	verifier, err := auth.NewCredentialVerifier(accounts, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential verifier: %w", err)
	}

	policy, err := auth.NewPolicyFromFile(cfg.Authz.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization policy: %w", err)
	}

	metrics, err := telemetry.NewAuthMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create auth metrics: %w", err)
	}

	return auth.NewService(codec, verifier, policy, auth.WithLogger(logger), auth.WithMetrics(metrics), auth.WithTokenScheme(cfg.Token.Scheme))
}

// AppBundle bundles the services with their underlying DB connection so callers can
// reuse the connection for other repositories when necessary.
type AppBundle struct {
	DB       *bun.DB
	Accounts repository.AccountRepository
	Lookup   *repository.CachedAccountLookup
	Auth     *auth.Service
	Blog     *blog.Service
}

// Close releases the underlying database connection.
func (b *AppBundle) Close() {
	if b == nil || b.DB == nil {
		return
	}
	bunx.Close(b.DB)
}

// NewAppBundle centralizes service construction for CLI commands.
func NewAppBundle(cfg *config.Config, logger *slog.Logger) (*AppBundle, error) {
	db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	accounts := repository.NewBunAccountRepository(db)
	lookup := repository.NewCachedAccountLookup(
		repository.NewAccountLookup(accounts),
		cfg.Cache.AccountSize,
		cfg.Cache.AccountTTL,
	)

	authService, err := NewAuthService(cfg, lookup, logger)
	if err != nil {
		bunx.Close(db)
		return nil, err
	}

	blogService := blog.NewService(
		repository.NewBunPostRepository(db),
		repository.NewBunCommentRepository(db),
		lookup,
		authService,
	)

	return &AppBundle{
		DB:       db,
		Accounts: accounts,
		Lookup:   lookup,
		Auth:     authService,
		Blog:     blogService,
	}, nil
}
