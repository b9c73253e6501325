package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RequireIntegration skips the test in -short mode or when Docker is not
// reachable.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// StartPostgres runs a throwaway postgres and returns its DSN.
func StartPostgres(t *testing.T) string {
	t.Helper()
	RequireIntegration(t)
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("equiprent"),
		postgres.WithUsername("equiprent"),
		postgres.WithPassword("equiprent"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	return dsn
}

// StartMongo runs a throwaway mongod, as a single-node replica set when
// replicaSet is non-empty and as a standalone server otherwise.
func StartMongo(t *testing.T, replicaSet string) string {
	t.Helper()
	RequireIntegration(t)
	ctx := context.Background()

	var opts []testcontainers.ContainerCustomizer
	if replicaSet != "" {
		opts = append(opts, mongodb.WithReplicaSet(replicaSet))
	}
	c, err := mongodb.Run(ctx, "mongo:7", opts...)
	if err != nil {
		t.Skipf("mongodb container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate mongodb: %v", err)
		}
	})

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("mongodb connection string: %v", err)
	}
	return uri
}
