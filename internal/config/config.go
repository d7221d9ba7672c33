package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// EnvPrefix is prepended to every environment variable read by LoadConfig
	EnvPrefix = "SCHEMASYNC_"

	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `json:"database"`
	Schema   SchemaConfig   `json:"schema"`
	Sync     SyncConfig     `json:"sync"`
	Logging  LoggingConfig  `json:"logging"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver         string `json:"driver"          env:"DB_DRIVER"          envDefault:"sqlite"` // sqlite, duckdb
	Path           string `json:"path"            env:"DB_PATH"            envDefault:"~/.local/share/schemasync/schemasync.db"`
	BusyTimeout    string `json:"busy_timeout"    env:"DB_BUSY_TIMEOUT"    envDefault:"5s"`
	MaxConnections int    `json:"max_connections" env:"DB_MAX_CONNECTIONS" envDefault:"1"`
	QueryTimeout   string `json:"query_timeout"   env:"DB_QUERY_TIMEOUT"   envDefault:"30s"`
}

// SchemaConfig points at the declaration file
type SchemaConfig struct {
	File string `json:"file" env:"SCHEMA_FILE" envDefault:"schema.yaml"`
}

// SyncConfig controls how sync applies migrations
type SyncConfig struct {
	DryRun      bool `json:"dry_run"      env:"DRY_RUN"      envDefault:"false"`
	SkipJournal bool `json:"skip_journal" env:"SKIP_JOURNAL" envDefault:"false"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.local/share/schemasync/logs/schemasync.log"`
}

// DefaultConfig returns the configuration with every default applied and no
// environment variables consulted
func DefaultConfig() *Config {
	cfg := &Config{}
	_ = env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}})

	return cfg
}

// LoadConfig loads configuration from file, environment variables, and command-line flags
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag overrides.
// Precedence, lowest first: defaults, config file, environment, flags.
func LoadConfigWithOverrides(flagOverrides map[string]any) (*Config, error) {
	return LoadConfigFile(GetConfigPath(), flagOverrides)
}

// LoadConfigFile is LoadConfigWithOverrides reading configPath instead of the
// default location. A missing file is not an error.
func LoadConfigFile(configPath string, flagOverrides map[string]any) (*Config, error) {
	config := &Config{}

	configPath = expandPath(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Defaults only fill fields the file left empty
	if err := env.ParseWithOptions(config, env.Options{
		Prefix:                       EnvPrefix,
		SetDefaultsForZeroValuesOnly: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if flagOverrides != nil {
		applyFlagOverrides(config, flagOverrides)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]any) {
	for key, value := range overrides {
		switch key {
		case "db":
			if str, ok := value.(string); ok && str != "" {
				config.Database.Path = str
			}
		case "driver":
			if str, ok := value.(string); ok && str != "" {
				config.Database.Driver = str
			}
		case "schema":
			if str, ok := value.(string); ok && str != "" {
				config.Schema.File = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "dry-run":
			if b, ok := value.(bool); ok {
				config.Sync.DryRun = b
			}
		case "skip-journal":
			if b, ok := value.(bool); ok {
				config.Sync.SkipJournal = b
			}
		}
	}
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validDrivers := map[string]bool{DriverSQLite: true, DriverDuckDB: true}
	if !validDrivers[strings.ToLower(config.Database.Driver)] {
		return fmt.Errorf("invalid database driver: %s (must be sqlite or duckdb)", config.Database.Driver)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if _, err := time.ParseDuration(config.Database.QueryTimeout); err != nil {
		return fmt.Errorf("invalid database query timeout: %s", config.Database.QueryTimeout)
	}

	if _, err := time.ParseDuration(config.Database.BusyTimeout); err != nil {
		return fmt.Errorf("invalid database busy timeout: %s", config.Database.BusyTimeout)
	}

	if config.Database.MaxConnections <= 0 {
		return fmt.Errorf(
			"database max connections must be positive: %d",
			config.Database.MaxConnections,
		)
	}

	return nil
}

// QueryTimeoutDuration returns the parsed per-query timeout
func (c DatabaseConfig) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// BusyTimeoutDuration returns the parsed SQLite busy timeout
func (c DatabaseConfig) BusyTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.BusyTimeout)
	if err != nil {
		return 5 * time.Second
	}

	return d
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath := GetConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	if configPath := os.Getenv(EnvPrefix + "CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	return filepath.Join(GetConfigDir(), "config.json")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Database.Path = expandPath(c.Database.Path)
	c.Schema.File = expandPath(c.Schema.File)
	c.Logging.File = expandPath(c.Logging.File)
}

// GetConfigDir returns the configuration directory
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".config/schemasync"
	}

	return filepath.Join(homeDir, ".config", "schemasync")
}

// EnsureDirectories creates the directories holding the database and log file
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Database.Path)}
	if strings.EqualFold(c.Logging.Output, "file") {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
