package util

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("TEST_STRING", "test-value")
	if got := GetEnvWithDefault("TEST_STRING", "default"); got != "test-value" {
		t.Errorf("Expected GetEnvWithDefault to return 'test-value', got '%s'", got)
	}

	if got := GetEnvWithDefault("PLRUSTGEN_MISSING_VAR", "default"); got != "default" {
		t.Errorf("Expected GetEnvWithDefault to return 'default', got '%s'", got)
	}

	t.Setenv("EMPTY_VAR", "")
	if got := GetEnvWithDefault("EMPTY_VAR", "default"); got != "default" {
		t.Errorf("Expected GetEnvWithDefault to return 'default' for empty var, got '%s'", got)
	}
}

func TestGetEnvIntWithDefault(t *testing.T) {
	t.Setenv("TEST_INT", "12345")
	if got := GetEnvIntWithDefault("TEST_INT", 0); got != 12345 {
		t.Errorf("Expected GetEnvIntWithDefault to return 12345, got %d", got)
	}

	t.Setenv("TEST_INVALID_INT", "not-a-number")
	if got := GetEnvIntWithDefault("TEST_INVALID_INT", 999); got != 999 {
		t.Errorf("Expected GetEnvIntWithDefault to return default 999, got %d", got)
	}

	if got := GetEnvIntWithDefault("PLRUSTGEN_MISSING_INT_VAR", 777); got != 777 {
		t.Errorf("Expected GetEnvIntWithDefault to return default 777, got %d", got)
	}
}

func newConnCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("host", "", "")
	cmd.Flags().Int("port", 0, "")
	cmd.Flags().String("db", "", "")
	cmd.Flags().String("user", "", "")
	cmd.Flags().String("password", "", "")
	cmd.Flags().String("application-name", "", "")
	return cmd
}

func TestApplyPGEnv(t *testing.T) {
	t.Setenv("PGDATABASE", "test-db")
	t.Setenv("PGUSER", "test-user")
	t.Setenv("PGHOST", "test-host")
	t.Setenv("PGPORT", "1234")
	t.Setenv("PGPASSWORD", "test-pass")
	t.Setenv("PGAPPNAME", "test-app")

	config := &ConnectionConfig{}
	ApplyPGEnv(newConnCommand(), config)

	want := ConnectionConfig{
		Host:            "test-host",
		Port:            1234,
		Database:        "test-db",
		User:            "test-user",
		Password:        "test-pass",
		ApplicationName: "test-app",
	}
	if *config != want {
		t.Errorf("ApplyPGEnv() = %+v, want %+v", *config, want)
	}
}

func TestApplyPGEnvRespectsFlags(t *testing.T) {
	t.Setenv("PGUSER", "env-user")
	t.Setenv("PGHOST", "")
	t.Setenv("PGPORT", "")

	cmd := newConnCommand()
	if err := cmd.Flags().Set("user", "flag-user"); err != nil {
		t.Fatal(err)
	}

	config := &ConnectionConfig{User: "flag-user", Database: "from-config"}
	ApplyPGEnv(cmd, config)

	if config.User != "flag-user" {
		t.Errorf("User = %q, want flag-user", config.User)
	}
	if config.Database != "from-config" {
		t.Errorf("Database = %q, want from-config", config.Database)
	}
	if config.Host != "localhost" || config.Port != 5432 {
		t.Errorf("defaults = %s:%d, want localhost:5432", config.Host, config.Port)
	}
}

func TestConnectionConfigValidate(t *testing.T) {
	if err := (&ConnectionConfig{User: "u"}).Validate(); err == nil {
		t.Error("expected error without database")
	}
	if err := (&ConnectionConfig{Database: "d"}).Validate(); err == nil {
		t.Error("expected error without user")
	}
	if err := (&ConnectionConfig{Database: "d", User: "u"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
