//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Postgres is a running Postgres container and a pool connected to it.
type Postgres struct {
	DSN string
	DB  *sql.DB
}

// NewPostgres starts Postgres, applies schemas and terminates the container
// when the test ends.
func NewPostgres(t *testing.T, schemas ...string) *Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("epp_gateway"),
		tcpostgres.WithUsername("epp"),
		tcpostgres.WithPassword("epp"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, s := range schemas {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("failed to apply schema: %v", err)
		}
	}
	return &Postgres{DSN: dsn, DB: db}
}
