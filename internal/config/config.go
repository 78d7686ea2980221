// Package config loads plrustgen.yaml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
	envPrefix    = "PLRUSTGEN"
)

// FileNames are the config file names searched for, in order.
var FileNames = []string{"plrustgen.yaml", "plrustgen.yml"}

// Config represents the plrustgen configuration from plrustgen.yaml.
type Config struct {
	Schema      string `mapstructure:"schema"`
	Language    string `mapstructure:"language"`
	Format      string `mapstructure:"format"`
	Concurrency int    `mapstructure:"concurrency"`

	Database DatabaseConfig `mapstructure:"database"`

	// TypeOverrides replaces the Rust type of selected SQL types.
	TypeOverrides []TypeOverride `mapstructure:"type_overrides"`
}

// DatabaseConfig holds database connection settings. Empty fields fall back
// to flags and PG* environment variables.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	ApplicationName string `mapstructure:"application_name"`
}

// TypeOverride maps an SQL type name to Rust type text. It is a list entry
// rather than a map key because type names may contain dots, which viper
// treats as nesting.
type TypeOverride struct {
	Type string `mapstructure:"type"`
	Rust string `mapstructure:"rust"`
}

// OverrideMap returns the overrides keyed by SQL type name. Later entries
// win over earlier ones.
func (c *Config) OverrideMap() map[string]string {
	out := make(map[string]string, len(c.TypeOverrides))
	for _, o := range c.TypeOverrides {
		out[o.Type] = o.Rust
	}
	return out
}

// Validate checks values that have a fixed domain.
func (c *Config) Validate() error {
	var problems []string
	for i, o := range c.TypeOverrides {
		if strings.TrimSpace(o.Type) == "" || strings.TrimSpace(o.Rust) == "" {
			problems = append(problems, fmt.Sprintf("type_overrides[%d] needs both type and rust", i))
		}
	}
	if c.Concurrency < 0 {
		problems = append(problems, "concurrency must not be negative")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		problems = append(problems, fmt.Sprintf("database.port %d out of range", c.Database.Port))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LoadConfig discovers and loads configuration with proper precedence:
// env > config file > defaults. Command-line flags are applied by the caller.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "public")
	v.SetDefault("language", "plrust")
	v.SetDefault("format", "text")
	v.SetDefault("concurrency", 0) // runtime.NumCPU()

	// Registered so AutomaticEnv can see them; empty means unset
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.application_name", "")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for plrustgen.yaml or plrustgen.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break // Stop at repo root
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}
