package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfreview/internal/domain/auth"
	"perfreview/internal/platform/config"
)

// Seed makes sure the bootstrap admin account exists. It never overwrites an
// existing account with the same email.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		return nil
	}

	var id int64
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	err = pool.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, first_name, last_name, role, is_active)
    VALUES ($1,$2,$3,$4,$5,true)
    ON CONFLICT (email) DO NOTHING
    RETURNING id
  `, email, hash, cfg.SeedAdminFirstName, cfg.SeedAdminLastName, auth.RoleAdmin).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("seeded admin user", "userId", id, "email", email)
	return nil
}
