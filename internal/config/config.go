// Package config loads todolist settings from defaults, an optional TOML or
// YAML file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
	BackendHTTP   = "http"
)

// Config is the full application configuration.
type Config struct {
	// Port is the web UI port.
	Port string `toml:"port" yaml:"port"`
	// StorePort is the port of the document-store API (serve-store).
	StorePort string `toml:"store_port" yaml:"store_port"`

	// Backend selects the document store: sqlite, neo4j or http.
	Backend string `toml:"backend" yaml:"backend"`
	DBPath  string `toml:"db_path" yaml:"db_path"`

	Neo4j Neo4j `toml:"neo4j" yaml:"neo4j"`

	// RemoteURL is the base URL of a serve-store instance (backend=http).
	RemoteURL     string   `toml:"remote_url" yaml:"remote_url"`
	RemoteTimeout Duration `toml:"remote_timeout" yaml:"remote_timeout"`

	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
}

// Neo4j holds the Neo4j connection settings.
type Neo4j struct {
	URI      string `toml:"uri" yaml:"uri"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
	Database string `toml:"database" yaml:"database"`
}

// Duration is a time.Duration read from strings like "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML reads the duration from a YAML scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, line %d", value.Line)
	}
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      "8080",
		StorePort: "8081",
		Backend:   BackendSQLite,
		DBPath:    "./data/todolist.db",
		Neo4j: Neo4j{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		RemoteURL:     "http://localhost:8081",
		RemoteTimeout: Duration{10 * time.Second},
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}

	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for the sqlite backend")
		}
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri is required for the neo4j backend")
		}
	case BackendHTTP:
		u, err := url.Parse(c.RemoteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("remote_url must be an absolute URL, got %q", c.RemoteURL)
		}
	default:
		return fmt.Errorf("backend must be 'sqlite', 'neo4j', or 'http'")
	}

	if c.RemoteTimeout.Duration < 0 {
		return fmt.Errorf("remote_timeout cannot be negative")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be 'json' or 'console'")
	}

	return nil
}
