package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the client configuration, read from a TOML file with environment
// overrides for the account URL and access token. The agent coordinates have
// defaults so a minimal config only needs credentials.
type Config struct {
	AccountURL  string `toml:"account_url"`
	PAT         string `toml:"pat"`
	Database    string `toml:"database"`
	Schema      string `toml:"schema"`
	Agent       string `toml:"agent"`
	Application string `toml:"application"`
	LogLevel    string `toml:"log_level"`
}

// MissingKeysError reports required configuration keys with no value. It is
// fatal at startup: nothing touches the network before configuration passes.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return "missing required config keys: " + strings.Join(e.Keys, ", ")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".cortex-chat", "config.toml")
}

// SessionPath returns the file where the active chat session is persisted
// between invocations.
func SessionPath() string {
	return filepath.Join(os.Getenv("HOME"), ".cortex-chat", "session.json")
}

// Load reads the config file at path (if it exists), applies defaults, then
// environment overrides SNOWFLAKE_ACCOUNT_URL and SNOWFLAKE_PAT, and finally
// validates that every required key has a value.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Database:    "SNOWFLAKE_INTELLIGENCE",
		Schema:      "AGENTS",
		Agent:       "DATA_FOR_GOOD",
		Application: "threads_demo",
		LogLevel:    "info",
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	// Env overrides take precedence over the file.
	if v := os.Getenv("SNOWFLAKE_ACCOUNT_URL"); v != "" {
		cfg.AccountURL = v
	}
	if v := os.Getenv("SNOWFLAKE_PAT"); v != "" {
		cfg.PAT = v
	}

	var missing []string
	if cfg.AccountURL == "" {
		missing = append(missing, "account_url")
	}
	if cfg.PAT == "" {
		missing = append(missing, "pat")
	}
	if len(missing) > 0 {
		return nil, &MissingKeysError{Keys: missing}
	}
	return cfg, nil
}
