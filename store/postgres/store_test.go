package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway PostgreSQL container and returns a
// pgx connection to it.
func setupPostgres(t *testing.T) *pgx.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("gatehouse_test"),
		tcpostgres.WithUsername("gatehouse"),
		tcpostgres.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(ctx) })
	return conn
}

// The store maps unique-constraint violations to typed errors by
// inspecting the server error code. Verify the code against a real
// server rather than trusting the constant.
func TestUniqueViolationMapping(t *testing.T) {
	ctx := context.Background()
	conn := setupPostgres(t)

	_, err := conn.Exec(ctx, `CREATE TABLE dedupe_probe (name TEXT NOT NULL UNIQUE)`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Exec(ctx, `INSERT INTO dedupe_probe (name) VALUES ('editor')`); err != nil {
		t.Fatal(err)
	}

	_, err = conn.Exec(ctx, `INSERT INTO dedupe_probe (name) VALUES ('editor')`)
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !isUniqueViolation(err) {
		t.Fatalf("expected unique violation mapping, got %v", err)
	}
}

func TestIsUniqueViolation_OtherErrors(t *testing.T) {
	if isUniqueViolation(nil) {
		t.Fatal("nil is not a unique violation")
	}
	if isUniqueViolation(context.Canceled) {
		t.Fatal("unrelated errors are not unique violations")
	}
}
