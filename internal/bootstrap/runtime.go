// Package bootstrap wires the process-wide runtime shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"instaclone/internal/cache"
	"instaclone/internal/config"
	"instaclone/internal/database"
	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/repository"
	"instaclone/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations according to DB_SCHEMA_MODE before anything else.
	ApplySchema bool
}

// InitRuntime connects to the database and Redis, ensures the default groups
// exist and, in development, the root account.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := repository.NewGroupRepository(db).EnsureDefaults(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure default groups: %w", err)
	}

	if err := EnsureDevRoot(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root user: %w", err)
	}

	return db, r, nil
}

// EnsureDevRoot creates or promotes the development superuser when
// DEV_BOOTSTRAP_ROOT is enabled. Outside development it does nothing.
func EnsureDevRoot(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.ToLower(strings.TrimSpace(cfg.DevRootUsername))
	if username == "" {
		username = "root"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevRootEmail))
	if email == "" {
		email = "root@instaclone.local"
	}
	if cfg.DevRootPassword == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	users := repository.NewUserRepository(db)
	svc := service.NewUserService(users, repository.NewTransactor(db), nil)

	existing, err := users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.IsSuperuser && existing.IsActive {
			return nil
		}
		if _, err := svc.SetSuperuser(ctx, username, true); err != nil {
			return err
		}
		if _, err := svc.SetActive(ctx, username, true); err != nil {
			return err
		}
		middleware.Logger.InfoContext(ctx, "development root user promoted", slog.String("username", username))
		return nil
	case models.ErrorCode(err) != models.CodeNotFound:
		return err
	}

	if _, err := svc.CreateSuperuser(ctx, service.CreateUserInput{
		Username:       username,
		Email:          email,
		Password:       cfg.DevRootPassword,
		RepeatPassword: cfg.DevRootPassword,
	}); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "development root user created",
		slog.String("username", username),
		slog.String("email", email),
	)
	return nil
}
