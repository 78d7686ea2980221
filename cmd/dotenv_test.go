package cmd

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/pgschema/plrustgen/cmd/util"
	"github.com/spf13/cobra"
)

func TestDotenvLoading(t *testing.T) {
	tmpDir := t.TempDir()
	originalDir, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}
	defer func() {
		os.Chdir(originalDir)
	}()

	envVars := []string{"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD", "PGAPPNAME"}
	for _, envVar := range envVars {
		t.Setenv(envVar, "")
		os.Unsetenv(envVar)
	}

	t.Run("MissingEnvFile", func(t *testing.T) {
		if err := godotenv.Load(); err == nil {
			t.Error("Expected error when loading non-existent .env file, but got nil")
		}
	})

	t.Run("EnvVarPriority", func(t *testing.T) {
		os.Setenv("PGPASSWORD", "env_password")
		defer os.Unsetenv("PGPASSWORD")

		if err := os.WriteFile(".env", []byte("PGPASSWORD=dotenv_password\n"), 0644); err != nil {
			t.Fatalf("Failed to create .env file: %v", err)
		}
		defer os.Remove(".env")

		if err := godotenv.Load(); err != nil {
			t.Fatalf("Failed to load .env file: %v", err)
		}
		if password := os.Getenv("PGPASSWORD"); password != "env_password" {
			t.Errorf("Expected PGPASSWORD='env_password' (existing env var should take precedence), got '%s'", password)
		}
	})

	t.Run("DotenvFeedsConnection", func(t *testing.T) {
		envContent := `PGHOST=test.example.com
PGPORT=5433
PGDATABASE=testdb
PGUSER=testuser
PGPASSWORD=testpass
PGAPPNAME=test-plrustgen
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create .env file: %v", err)
		}
		defer func() {
			os.Remove(".env")
			for _, envVar := range envVars {
				os.Unsetenv(envVar)
			}
		}()

		if err := godotenv.Load(); err != nil {
			t.Fatalf("Failed to load .env file: %v", err)
		}

		config := &util.ConnectionConfig{}
		util.ApplyPGEnv(&cobra.Command{}, config)

		want := util.ConnectionConfig{
			Host:            "test.example.com",
			Port:            5433,
			Database:        "testdb",
			User:            "testuser",
			Password:        "testpass",
			ApplicationName: "test-plrustgen",
		}
		if *config != want {
			t.Errorf("connection from .env = %+v, want %+v", *config, want)
		}
	})
}
