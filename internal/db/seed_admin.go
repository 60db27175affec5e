package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/amnii/internal/config"
	"github.com/geocoder89/amnii/internal/domain/user"
)

type hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
}

// EnsureAdminUser creates the configured admin once. It is the only path that
// produces a user with IsAdmin set. Works against any user.Store.
func EnsureAdminUser(ctx context.Context, users user.Store, h hasher, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	_, err := users.GetByEmail(ctx, email)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := h.Hash(ctx, cfg.AdminPassword)

	if err != nil {
		return err
	}

	u, err := users.Create(ctx, user.NewUser{
		Name:         cfg.AdminName,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
	})

	// another instance seeded it first
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "admin user seeded", "user_id", u.ID)
	return nil
}
