package util

import (
	"errors"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ApplyPGEnv fills connection fields whose flag was not set on the command
// line and whose value is still empty from the libpq environment variables
// PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD and PGAPPNAME.
func ApplyPGEnv(cmd *cobra.Command, config *ConnectionConfig) {
	unset := func(flag string) bool {
		f := cmd.Flags().Lookup(flag)
		return f == nil || !f.Changed
	}

	if unset("host") && config.Host == "" {
		config.Host = GetEnvWithDefault("PGHOST", "localhost")
	}
	if unset("port") && config.Port == 0 {
		config.Port = GetEnvIntWithDefault("PGPORT", 5432)
	}
	if unset("db") && config.Database == "" {
		config.Database = GetEnvWithDefault("PGDATABASE", "")
	}
	if unset("user") && config.User == "" {
		config.User = GetEnvWithDefault("PGUSER", "")
	}
	if unset("password") && config.Password == "" {
		config.Password = GetEnvWithDefault("PGPASSWORD", "")
	}
	if unset("application-name") && config.ApplicationName == "" {
		config.ApplicationName = GetEnvWithDefault("PGAPPNAME", "plrustgen")
	}
}

// Validate reports missing required connection parameters.
func (c *ConnectionConfig) Validate() error {
	if c.Database == "" {
		return errors.New("database name is required (use --db flag or PGDATABASE environment variable)")
	}
	if c.User == "" {
		return errors.New("database user is required (use --user flag or PGUSER environment variable)")
	}
	return nil
}
