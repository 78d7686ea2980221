package util

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgschema/plrustgen/internal/logger"
)

// ConnectionConfig holds database connection parameters
type ConnectionConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	ApplicationName string
}

// Connect establishes a database connection using the provided configuration
func Connect(ctx context.Context, config *ConnectionConfig) (*sql.DB, error) {
	log := logger.Get()

	log.Debug("Attempting database connection",
		"host", config.Host,
		"port", config.Port,
		"database", config.Database,
		"user", config.User,
		"sslmode", config.SSLMode,
		"application_name", config.ApplicationName,
	)

	conn, err := sql.Open("pgx", buildDSN(config))
	if err != nil {
		log.Debug("Database connection failed", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		log.Debug("Database ping failed", "error", err)
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug("Database connection established successfully")
	return conn, nil
}

// buildDSN constructs a PostgreSQL keyword/value connection string. Values
// are quoted when they contain spaces, quotes or backslashes.
func buildDSN(config *ConnectionConfig) string {
	var parts []string

	add := func(key, value string) {
		parts = append(parts, key+"="+quoteDSNValue(value))
	}

	add("host", config.Host)
	add("port", fmt.Sprintf("%d", config.Port))
	add("dbname", config.Database)
	add("user", config.User)

	if config.Password != "" {
		add("password", config.Password)
	}
	if config.SSLMode != "" {
		add("sslmode", config.SSLMode)
	}
	if config.ApplicationName != "" {
		add("application_name", config.ApplicationName)
	}

	return strings.Join(parts, " ")
}

func quoteDSNValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}
