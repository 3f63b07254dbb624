package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/prop-edge/internal/config"
)

// SetupTestDB creates a test database connection with the schema applied.
// Tests that need a live database are skipped unless PROP_EDGE_TEST_DB_HOST
// is set, so the unit suite runs clean without Postgres.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv("PROP_EDGE_TEST_DB_HOST")
	if host == "" {
		t.Skip("PROP_EDGE_TEST_DB_HOST not set; skipping database test")
	}

	cfg := &config.DatabaseConfig{
		Host:               host,
		Port:               5432,
		Name:               envOrDefault("PROP_EDGE_TEST_DB_NAME", "prop_edge_test"),
		User:               envOrDefault("PROP_EDGE_TEST_DB_USER", "postgres"),
		Password:           envOrDefault("PROP_EDGE_TEST_DB_PASSWORD", "postgres"),
		SSLMode:            "disable",
		MaxConnections:     4,
		MaxIdleConnections: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := db.CreateSchema(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to bootstrap test schema: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
