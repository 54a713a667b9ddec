// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  driver: "postgres"
  dsn: "postgres://partdb@localhost/partdb?sslmode=disable"

logging:
  level: "debug"
  format: "json"

tree:
  path_delimiter: " / "
  max_cache_entries: 4

metrics:
  enabled: true
  namespace: "lab"

auth:
  token_secret: "s3cret"
  superuser: "root"
  token_ttl: "2h"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "postgres")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
	if cfg.Tree.PathDelimiter != " / " {
		t.Errorf("Tree.PathDelimiter = %q, want %q", cfg.Tree.PathDelimiter, " / ")
	}
	if cfg.Tree.MaxCacheEntries != 4 {
		t.Errorf("Tree.MaxCacheEntries = %d, want 4", cfg.Tree.MaxCacheEntries)
	}
	if cfg.Tree.HrefPattern != "/%ID%" {
		t.Errorf("Tree.HrefPattern = %q, want default", cfg.Tree.HrefPattern)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "lab" {
		t.Errorf("Metrics = %+v, want enabled/lab", cfg.Metrics)
	}
	if cfg.Auth.Superuser != "root" {
		t.Errorf("Auth.Superuser = %q, want %q", cfg.Auth.Superuser, "root")
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want %v", cfg.Auth.TokenTTL, 2*time.Hour)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[database]
driver = "sqlite3"
dsn = "/var/lib/partdb/partdb.db"

[tree]
path_delimiter = " > "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "sqlite3")
	}
	if cfg.Database.DSN != "/var/lib/partdb/partdb.db" {
		t.Errorf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Tree.PathDelimiter != " > " {
		t.Errorf("Tree.PathDelimiter = %q, want %q", cfg.Tree.PathDelimiter, " > ")
	}
	if cfg.Tree.MaxCacheEntries != 16 {
		t.Errorf("Tree.MaxCacheEntries = %d, want default 16", cfg.Tree.MaxCacheEntries)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want default", cfg.Auth.TokenTTL)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("PARTDB_TEST_DSN", "/tmp/from-env.db")
	t.Setenv("PARTDB_TEST_SECRET", "env-secret")

	path := writeConfig(t, "config.yaml", `
database:
  dsn: "${PARTDB_TEST_DSN}"
auth:
  token_secret: "${PARTDB_TEST_SECRET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.DSN != "/tmp/from-env.db" {
		t.Errorf("Database.DSN = %q, want %q", cfg.Database.DSN, "/tmp/from-env.db")
	}
	if cfg.Auth.TokenSecret != "env-secret" {
		t.Errorf("Auth.TokenSecret = %q, want %q", cfg.Auth.TokenSecret, "env-secret")
	}
}

func TestLoad_UnsetEnvVarIsEmpty(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  dsn: "${PARTDB_TEST_DEFINITELY_UNSET}"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "database.dsn is required") {
		t.Errorf("Load() error = %v, want database.dsn is required", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			file:    "config.yaml",
			content: "database: [unclosed",
			wantErr: "parsing config file",
		},
		{
			name:    "invalid toml",
			file:    "config.toml",
			content: "[database\n",
			wantErr: "parsing config file",
		},
		{
			name:    "bad duration",
			file:    "config.yaml",
			content: "auth:\n  token_ttl: \"soon\"\n",
			wantErr: "parsing token_ttl",
		},
		{
			name:    "unknown driver",
			file:    "config.yaml",
			content: "database:\n  driver: \"mysql\"\n",
			wantErr: "database.driver must be one of",
		},
		{
			name:    "bad log level",
			file:    "config.yaml",
			content: "logging:\n  level: \"loud\"\n",
			wantErr: "logging.level",
		},
		{
			name:    "zero cache",
			file:    "config.yaml",
			content: "tree:\n  max_cache_entries: 0\n",
			wantErr: "tree.max_cache_entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("Load() error = %v, want reading config file", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
