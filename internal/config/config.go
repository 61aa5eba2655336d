/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides configuration management for the sqlens tools.

The configuration system supports multiple sources with clear precedence:
 1. Command-line flags (highest priority)
 2. Environment variables
 3. Configuration file
 4. Default values (lowest priority)

Configuration File Format:
The configuration file uses TOML format for readability and ease of use.

Example configuration file:

	# sqlens Configuration
	schema_path = "schema.json"
	default_schema = "public"
	log_level = "info"
	log_json = false
	check_where = true
	check_join_on = true
	check_group_by = true
	check_having = true
	check_order_by = true
	check_returning = true
	check_conflict = true
	check_set = true

Environment Variables:
  - SQLENS_SCHEMA_PATH: Path to the schema document (JSON)
  - SQLENS_DEFAULT_SCHEMA: Default schema for unqualified table names
  - SQLENS_HISTORY_FILE: Shell history file path
  - SQLENS_LOG_LEVEL: Log level (debug, info, warn, error)
  - SQLENS_LOG_JSON: Enable JSON logging (true/false)
  - SQLENS_CONFIG_FILE: Path to configuration file
  - SQLENS_CHECK_WHERE, SQLENS_CHECK_JOIN_ON, SQLENS_CHECK_GROUP_BY,
    SQLENS_CHECK_HAVING, SQLENS_CHECK_ORDER_BY, SQLENS_CHECK_RETURNING,
    SQLENS_CHECK_CONFLICT, SQLENS_CHECK_SET: Validator clause toggles (true/false)
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sqlens"
)

// Environment variable names for configuration.
const (
	EnvSchemaPath     = "SQLENS_SCHEMA_PATH"
	EnvDefaultSchema  = "SQLENS_DEFAULT_SCHEMA"
	EnvHistoryFile    = "SQLENS_HISTORY_FILE"
	EnvLogLevel       = "SQLENS_LOG_LEVEL"
	EnvLogJSON        = "SQLENS_LOG_JSON"
	EnvConfigFile     = "SQLENS_CONFIG_FILE"
	EnvCheckWhere     = "SQLENS_CHECK_WHERE"
	EnvCheckJoinOn    = "SQLENS_CHECK_JOIN_ON"
	EnvCheckGroupBy   = "SQLENS_CHECK_GROUP_BY"
	EnvCheckHaving    = "SQLENS_CHECK_HAVING"
	EnvCheckOrderBy   = "SQLENS_CHECK_ORDER_BY"
	EnvCheckReturning = "SQLENS_CHECK_RETURNING"
	EnvCheckConflict  = "SQLENS_CHECK_CONFLICT"
	EnvCheckSet       = "SQLENS_CHECK_SET"
)

// GetDefaultHistoryFile returns the default path for the shell history file.
// It follows the XDG Base Directory layout when available and falls back to
// a dotfile in the home directory.
func GetDefaultHistoryFile() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "sqlens", "history")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".sqlens_history")
	}
	return ".sqlens_history"
}

// Default configuration file paths (searched in order).
var DefaultConfigPaths = []string{
	"/etc/sqlens/sqlens.conf",
	"$HOME/.config/sqlens/sqlens.conf",
	"./sqlens.conf",
}

// Config holds all configuration values for the sqlens tools.
type Config struct {
	// Schema configuration
	SchemaPath    string `toml:"schema_path" json:"schema_path"`
	DefaultSchema string `toml:"default_schema" json:"default_schema"` // Overrides the schema document's default

	// Shell configuration
	HistoryFile string `toml:"history_file" json:"history_file"`

	// Logging configuration
	LogLevel string `toml:"log_level" json:"log_level"`
	LogJSON  bool   `toml:"log_json" json:"log_json"`

	// Validator clause toggles
	CheckWhere     bool `toml:"check_where" json:"check_where"`
	CheckJoinOn    bool `toml:"check_join_on" json:"check_join_on"`
	CheckGroupBy   bool `toml:"check_group_by" json:"check_group_by"`
	CheckHaving    bool `toml:"check_having" json:"check_having"`
	CheckOrderBy   bool `toml:"check_order_by" json:"check_order_by"`
	CheckReturning bool `toml:"check_returning" json:"check_returning"`
	CheckConflict  bool `toml:"check_conflict" json:"check_conflict"`
	CheckSet       bool `toml:"check_set" json:"check_set"`

	// Metadata
	ConfigFile string `toml:"-" json:"-"` // Path to loaded config file
}

// DefaultConfig returns a Config with sensible default values.
// All validator clause toggles default to enabled.
func DefaultConfig() *Config {
	return &Config{
		SchemaPath:     "schema.json",
		DefaultSchema:  "",
		HistoryFile:    GetDefaultHistoryFile(),
		LogLevel:       "info",
		LogJSON:        false,
		CheckWhere:     true,
		CheckJoinOn:    true,
		CheckGroupBy:   true,
		CheckHaving:    true,
		CheckOrderBy:   true,
		CheckReturning: true,
		CheckConflict:  true,
		CheckSet:       true,
	}
}

// Manager handles configuration loading, validation, and access.
type Manager struct {
	config *Config
	mu     sync.RWMutex
}

// NewManager creates a new configuration manager with default values.
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// Global manager instance for convenience.
var globalManager = NewManager()

// Global returns the global configuration manager.
func Global() *Manager {
	return globalManager
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return a copy to prevent external modification
	cfg := *m.config
	return &cfg
}

// Set updates the configuration.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.SchemaPath == "" {
		errs = append(errs, "schema_path cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		// Valid log levels
	default:
		errs = append(errs, fmt.Sprintf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// LoadFromFile loads configuration from a TOML file.
func (m *Manager) LoadFromFile(path string) error {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := parseTOML(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ConfigFile = path
	m.Set(cfg)
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// This merges with existing configuration (env vars override file values).
func (m *Manager) LoadFromEnv() {
	cfg := m.Get()

	if v := os.Getenv(EnvSchemaPath); v != "" {
		cfg.SchemaPath = v
	}
	if v := os.Getenv(EnvDefaultSchema); v != "" {
		cfg.DefaultSchema = v
	}
	if v := os.Getenv(EnvHistoryFile); v != "" {
		cfg.HistoryFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv(EnvCheckWhere); v != "" {
		cfg.CheckWhere = parseBool(v)
	}
	if v := os.Getenv(EnvCheckJoinOn); v != "" {
		cfg.CheckJoinOn = parseBool(v)
	}
	if v := os.Getenv(EnvCheckGroupBy); v != "" {
		cfg.CheckGroupBy = parseBool(v)
	}
	if v := os.Getenv(EnvCheckHaving); v != "" {
		cfg.CheckHaving = parseBool(v)
	}
	if v := os.Getenv(EnvCheckOrderBy); v != "" {
		cfg.CheckOrderBy = parseBool(v)
	}
	if v := os.Getenv(EnvCheckReturning); v != "" {
		cfg.CheckReturning = parseBool(v)
	}
	if v := os.Getenv(EnvCheckConflict); v != "" {
		cfg.CheckConflict = parseBool(v)
	}
	if v := os.Getenv(EnvCheckSet); v != "" {
		cfg.CheckSet = parseBool(v)
	}

	m.Set(cfg)
}

// FindConfigFile searches for a configuration file in default locations.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(EnvConfigFile); envPath != "" {
		if _, err := os.Stat(os.ExpandEnv(envPath)); err == nil {
			return os.ExpandEnv(envPath)
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		expandedPath := os.ExpandEnv(path)
		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath
		}
	}

	return ""
}

// Load loads configuration from all sources with proper precedence.
// Order: defaults -> config file -> environment variables
// Command-line flags should be applied after calling this function.
func (m *Manager) Load() error {
	// Start with defaults (already set in NewManager)

	// Try to load from config file
	configPath := FindConfigFile()
	if configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}

	// Apply environment variables (override file values)
	m.LoadFromEnv()

	return nil
}

// parseBool interprets the truthy spellings accepted in config values.
func parseBool(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}

// parseTOML is a simple TOML parser for our configuration format.
// It handles the subset of TOML we need without external dependencies.
func parseTOML(data string, cfg *Config) error {
	lines := strings.Split(data, "\n")

	for lineNum, line := range lines {
		// Remove comments
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)

		// Skip empty lines
		if line == "" {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("line %d: invalid syntax: %s", lineNum+1, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes from string values
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		// Apply value to config
		if err := applyConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNum+1, err)
		}
	}

	return nil
}

// applyConfigValue applies a key-value pair to the configuration.
func applyConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "schema_path":
		cfg.SchemaPath = value
	case "default_schema":
		cfg.DefaultSchema = value
	case "history_file":
		cfg.HistoryFile = value
	case "log_level":
		cfg.LogLevel = value
	case "log_json":
		cfg.LogJSON = parseBool(value)
	case "check_where":
		cfg.CheckWhere = parseBool(value)
	case "check_join_on":
		cfg.CheckJoinOn = parseBool(value)
	case "check_group_by":
		cfg.CheckGroupBy = parseBool(value)
	case "check_having":
		cfg.CheckHaving = parseBool(value)
	case "check_order_by":
		cfg.CheckOrderBy = parseBool(value)
	case "check_returning":
		cfg.CheckReturning = parseBool(value)
	case "check_conflict":
		cfg.CheckConflict = parseBool(value)
	case "check_set":
		cfg.CheckSet = parseBool(value)
	default:
		// Ignore unknown keys for forward compatibility
	}

	return nil
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("sqlens Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Schema Path:      %s\n", c.SchemaPath))
	if c.DefaultSchema != "" {
		sb.WriteString(fmt.Sprintf("  Default Schema:   %s\n", c.DefaultSchema))
	}
	sb.WriteString(fmt.Sprintf("  History File:     %s\n", c.HistoryFile))
	sb.WriteString(fmt.Sprintf("  Log Level:        %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  Log JSON:         %v\n", c.LogJSON))
	sb.WriteString(fmt.Sprintf("  Checks:           where=%v join_on=%v group_by=%v having=%v order_by=%v returning=%v conflict=%v set=%v\n",
		c.CheckWhere, c.CheckJoinOn, c.CheckGroupBy, c.CheckHaving,
		c.CheckOrderBy, c.CheckReturning, c.CheckConflict, c.CheckSet))
	if c.ConfigFile != "" {
		sb.WriteString(fmt.Sprintf("  Config File:      %s\n", c.ConfigFile))
	}
	return sb.String()
}

// CheckOptions returns the validator clause toggles as a sqlens.Options value.
func (c *Config) CheckOptions() *sqlens.Options {
	return &sqlens.Options{
		CheckWhere:     c.CheckWhere,
		CheckJoinOn:    c.CheckJoinOn,
		CheckGroupBy:   c.CheckGroupBy,
		CheckHaving:    c.CheckHaving,
		CheckOrderBy:   c.CheckOrderBy,
		CheckReturning: c.CheckReturning,
		CheckConflict:  c.CheckConflict,
		CheckSet:       c.CheckSet,
	}
}
