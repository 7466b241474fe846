package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_PATH",
		EnvPrefix + "PORT", EnvPrefix + "STORE_PORT", EnvPrefix + "BACKEND",
		EnvPrefix + "DB_PATH", EnvPrefix + "NEO4J_URI", EnvPrefix + "NEO4J_USERNAME",
		EnvPrefix + "NEO4J_PASSWORD", EnvPrefix + "NEO4J_DATABASE",
		EnvPrefix + "REMOTE_URL", EnvPrefix + "REMOTE_TIMEOUT",
		EnvPrefix + "LOG_LEVEL", EnvPrefix + "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "./data/todolist.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout.Duration)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "todolist.toml", `
port = "9000"
backend = "neo4j"
remote_timeout = "3s"

[neo4j]
uri = "neo4j://db:7687"
username = "admin"
password = "secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendNeo4j, cfg.Backend)
	assert.Equal(t, "neo4j://db:7687", cfg.Neo4j.URI)
	assert.Equal(t, "admin", cfg.Neo4j.Username)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, "neo4j", cfg.Neo4j.Database, "unset keys keep their defaults")
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout.Duration)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "todolist.yaml", `
backend: http
remote_url: http://store.internal:8081
remote_timeout: 250ms
log_format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendHTTP, cfg.Backend)
	assert.Equal(t, "http://store.internal:8081", cfg.RemoteURL)
	assert.Equal(t, 250*time.Millisecond, cfg.RemoteTimeout.Duration)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "todolist.toml", `port = "9000"`)
	t.Setenv("PORT", "7000")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv(EnvPrefix+"REMOTE_TIMEOUT", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, time.Minute, cfg.RemoteTimeout.Duration)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		env  map[string]string
	}{
		{name: "unknown extension", file: "todolist.ini", body: "port=1"},
		{name: "broken toml", file: "todolist.toml", body: "port = "},
		{name: "bad duration", file: "todolist.yaml", body: "remote_timeout: soon"},
		{name: "unknown backend", env: map[string]string{EnvPrefix + "BACKEND": "mongo"}},
		{name: "bad env duration", env: map[string]string{EnvPrefix + "REMOTE_TIMEOUT": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file, tt.body)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "empty port",
			mutate:  func(c *Config) { c.Port = "" },
			wantErr: "port is required",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.DBPath = "" },
			wantErr: "db_path is required for the sqlite backend",
		},
		{
			name:    "http with relative url",
			mutate:  func(c *Config) { c.Backend = BackendHTTP; c.RemoteURL = "store:8081" },
			wantErr: `remote_url must be an absolute URL, got "store:8081"`,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "log_format must be 'json' or 'console'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
