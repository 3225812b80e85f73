package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/LunchTimeCode/outerspace/config"
	"github.com/LunchTimeCode/outerspace/middleware"
	"github.com/LunchTimeCode/outerspace/repositories"
	"github.com/LunchTimeCode/outerspace/repositories/postgres"
	"github.com/LunchTimeCode/outerspace/token"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection: key material
// is resolved exactly once here and shared read-only for the process
// lifetime.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil when no user store is configured

	// Repositories
	Users repositories.UserRepository // nil when no user store is configured

	// Auth
	KeyMaterial    token.KeyMaterial
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// Key material resolution happens on this startup path only; a failure
// here is fatal because every protected route would otherwise be
// unreachable.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initKeyMaterial(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve key material: %w", err)
	}

	if err := deps.initUserStore(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize user store: %w", err)
	}

	var users middleware.UserStore
	if deps.Users != nil {
		users = deps.Users
	}
	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.KeyMaterial, users, logger)

	logger.Info("all dependencies initialized successfully",
		zap.String("key_material_mode", deps.KeyMaterial.Mode()))
	return deps, nil
}

// initKeyMaterial resolves the frozen verification key material
func (d *Dependencies) initKeyMaterial(ctx context.Context, cfg *config.Config) error {
	material, err := token.LoadKeyMaterial(ctx, token.Config{
		JWKSURL:     cfg.Auth.JWKSURL,
		HS256Secret: cfg.Auth.HS256Secret,
		Audience:    cfg.Auth.Audience,
		HTTPTimeout: cfg.Auth.JWKSTimeout,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.KeyMaterial = material
	return nil
}

// initUserStore initializes the optional platform user store
func (d *Dependencies) initUserStore(cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Info("no user store configured, identities come from token claims only")
		return nil
	}

	db, err := postgres.NewDB(*cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	d.DB = db
	d.Users = postgres.NewUserRepository(db, d.Logger)
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close() error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
