package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every todolist environment variable.
const EnvPrefix = "TODOLIST_"

// Load builds the configuration:
// 1. Defaults
// 2. Config file at path, if path is non-empty (.toml, .yaml or .yml)
// 3. Environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

// loadFromEnv overrides config from environment variables. PORT and DB_PATH
// are honored without the prefix.
func loadFromEnv(cfg *Config) error {
	setString := func(target *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*target = v
			}
		}
	}

	setString(&cfg.Port, "PORT", EnvPrefix+"PORT")
	setString(&cfg.StorePort, EnvPrefix+"STORE_PORT")
	setString(&cfg.Backend, EnvPrefix+"BACKEND")
	setString(&cfg.DBPath, "DB_PATH", EnvPrefix+"DB_PATH")
	setString(&cfg.Neo4j.URI, EnvPrefix+"NEO4J_URI")
	setString(&cfg.Neo4j.Username, EnvPrefix+"NEO4J_USERNAME")
	setString(&cfg.Neo4j.Password, EnvPrefix+"NEO4J_PASSWORD")
	setString(&cfg.Neo4j.Database, EnvPrefix+"NEO4J_DATABASE")
	setString(&cfg.RemoteURL, EnvPrefix+"REMOTE_URL")
	setString(&cfg.LogLevel, EnvPrefix+"LOG_LEVEL")
	setString(&cfg.LogFormat, EnvPrefix+"LOG_FORMAT")

	if v := os.Getenv(EnvPrefix + "REMOTE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREMOTE_TIMEOUT %q: %w", EnvPrefix, v, err)
		}
		cfg.RemoteTimeout = Duration{d}
	}

	return nil
}
