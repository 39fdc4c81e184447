// Package testutil provisions Postgres for integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"perfreview/internal/platform/config"
	"perfreview/internal/platform/db"
)

// DatabaseURL returns TEST_DATABASE_URL when set. Otherwise it starts a
// throwaway postgres container if PERFREVIEW_TESTCONTAINERS=1, and skips the
// test when neither is available.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	if dbURL := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL")); dbURL != "" {
		return dbURL
	}
	if os.Getenv("PERFREVIEW_TESTCONTAINERS") != "1" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("perfreview_test"),
		postgres.WithUsername("perfreview_test"),
		postgres.WithPassword("perfreview_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	return connStr
}

// Config returns a test configuration pointed at dbURL.
func Config(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		Environment:        "test",
		LogLevel:           "error",
		MigrationsDir:      MigrationsDir(),
		RunMigrations:      true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		DBMaxConns:         8,
		DBMinConns:         0,
	}
}

// Pool connects to a migrated, emptied database.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	cfg := Config(DatabaseURL(t))

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	Reset(t, pool)
	return pool
}

// Reset empties every application table.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), `
    TRUNCATE feedback, review_assignments, performance_reviews, audit_events, users RESTART IDENTITY CASCADE
  `); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

// MigrationsDir finds the migrations directory next to go.mod, walking up
// from the test's working directory.
func MigrationsDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "migrations"
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "migrations"
		}
		dir = parent
	}
}
