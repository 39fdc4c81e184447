package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"perfreview/internal/domain/auth"
)

// CreateUser inserts a user directly and returns its id.
func CreateUser(t *testing.T, pool *pgxpool.Pool, email, role string, active bool) int64 {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	var id int64
	if err := pool.QueryRow(context.Background(), `
    INSERT INTO users (email, password_hash, first_name, last_name, role, is_active)
    VALUES ($1,$2,'Test','User',$3,$4)
    RETURNING id
  `, email, hash, role, active).Scan(&id); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}
