package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shashiranjanraj/folio/app/models"
	"github.com/shashiranjanraj/folio/app/repositories"
	"github.com/shashiranjanraj/folio/pkg/auth"
	"github.com/shashiranjanraj/folio/pkg/metrics"
)

// AdminStore is the slice of the user repository the bootstrap needs.
type AdminStore interface {
	EnsureIndexes(ctx context.Context) error
	FindAdmin(ctx context.Context) (models.User, error)
	InsertAdminIfAbsent(ctx context.Context, u models.User) (bool, error)
}

// AdminSettings is the account to create when none exists.
type AdminSettings struct {
	Name     string
	Email    string
	Password string
}

// BootstrapResult says what Ensure did.
type BootstrapResult struct {
	Created bool
	Email   string
}

// AdminBootstrap makes sure the store holds exactly one admin account.
type AdminBootstrap struct {
	store    AdminStore
	settings AdminSettings
	log      *slog.Logger
}

func NewAdminBootstrap(store AdminStore, settings AdminSettings, log *slog.Logger) *AdminBootstrap {
	if log == nil {
		log = slog.Default()
	}
	return &AdminBootstrap{store: store, settings: settings, log: log}
}

// Ensure creates the configured admin unless any admin already exists.
// Concurrent callers against one empty store create a single admin.
func (b *AdminBootstrap) Ensure(ctx context.Context) (BootstrapResult, error) {
	res, err := b.ensure(ctx)
	switch {
	case err != nil:
		metrics.AdminBootstrap.WithLabelValues("failed").Inc()
		b.log.Error("Error creating admin user", "error", err)
	case res.Created:
		metrics.AdminBootstrap.WithLabelValues("created").Inc()
		b.log.Info("Admin user created successfully", "email", res.Email)
	default:
		metrics.AdminBootstrap.WithLabelValues("existing").Inc()
		b.log.Debug("admin user already present", "email", res.Email)
	}
	return res, err
}

func (b *AdminBootstrap) ensure(ctx context.Context) (BootstrapResult, error) {
	if err := b.store.EnsureIndexes(ctx); err != nil {
		b.log.Warn("could not ensure user indexes", "error", err)
	}

	existing, err := b.store.FindAdmin(ctx)
	if err == nil {
		return BootstrapResult{Email: existing.Email}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return BootstrapResult{}, fmt.Errorf("services: look up admin: %w", err)
	}

	email := repositories.NormalizeEmail(b.settings.Email)
	hash, err := auth.HashPassword(b.settings.Password)
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("services: hash admin password: %w", err)
	}

	created, err := b.store.InsertAdminIfAbsent(ctx, models.User{
		Name:     b.settings.Name,
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("services: insert admin: %w", err)
	}
	if !created {
		// Another instance got there between the lookup and the insert.
		if winner, err := b.store.FindAdmin(ctx); err == nil {
			return BootstrapResult{Email: winner.Email}, nil
		}
	}

	return BootstrapResult{Created: created, Email: email}, nil
}
