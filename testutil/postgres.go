// Package testutil provides shared test utilities for plrustgen
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var suppressedLogger = log.New(io.Discard, "", 0)

// PostgresVersion returns the PostgreSQL major version to test against.
// It reads PLRUSTGEN_POSTGRES_VERSION, defaulting to "17".
func PostgresVersion() string {
	if version := os.Getenv("PLRUSTGEN_POSTGRES_VERSION"); version != "" {
		return version
	}
	return "17"
}

// ContainerInfo holds PostgreSQL container connection details
type ContainerInfo struct {
	Container testcontainers.Container
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
	DSN       string
	Conn      *sql.DB
}

// SetupPostgresContainer starts a PostgreSQL container for the duration of
// the test. It skips the test in -short mode. The container is terminated
// through t.Cleanup.
func SetupPostgresContainer(ctx context.Context, t *testing.T) *ContainerInfo {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	const (
		database = "testdb"
		username = "testuser"
		password = "testpass"
	)

	postgresContainer, err := postgres.Run(ctx,
		"postgres:"+PostgresVersion()+"-alpine",
		postgres.WithDatabase(database),
		postgres.WithUsername(username),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(suppressedLogger),
	)
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	testDSN, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	conn, err := sql.Open("pgx", testDSN)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	containerHost, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	containerPort, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	ci := &ContainerInfo{
		Container: postgresContainer,
		Host:      containerHost,
		Port:      containerPort.Int(),
		Database:  database,
		User:      username,
		Password:  password,
		DSN:       testDSN,
		Conn:      conn,
	}
	t.Cleanup(func() { ci.terminate(t) })
	return ci
}

// ExecSQL runs statements against the container database, failing the test
// on error.
func (ci *ContainerInfo) ExecSQL(ctx context.Context, t *testing.T, statements string) {
	t.Helper()
	if _, err := ci.Conn.ExecContext(ctx, statements); err != nil {
		t.Fatalf("Failed to execute SQL: %v", err)
	}
}

func (ci *ContainerInfo) terminate(t *testing.T) {
	ci.Conn.Close()
	if err := ci.Container.Terminate(context.Background()); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}
