// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, durations and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  http_addr: "0.0.0.0:9000"
  cors_origin: "https://example.test"

database:
  driver: "Postgres"
  dsn: "postgres://localhost/dataverse"
  query_timeout: "10s"

cache:
  enabled: false
  ttl: "90s"
  max_entries: 50

search:
  table: "cases"
  kind: "case"
  id_column: "caseid"
  field_aliases:
    client: "clientname"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "https://example.test", cfg.Server.CORSOrigin)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver, "driver should be lower-cased")
	assert.Equal(t, 10*time.Second, cfg.Database.QueryTimeout)
	assert.False(t, cfg.Cache.IsEnabled())
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
	assert.Equal(t, "cases", cfg.Search.Table)
	assert.Equal(t, "case", cfg.Search.Kind)
	assert.Equal(t, "caseid", cfg.Search.IDColumn)
	assert.Equal(t, "clientname", cfg.Search.FieldAliases["client"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
http_addr = "127.0.0.1:7000"

[database]
driver = "libsql"
dsn = "libsql://db.example.test"
auth_token = "secret"

[search]
max_results = 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.HTTPAddr)
	assert.Equal(t, DriverLibSQL, cfg.Database.Driver)
	assert.Equal(t, "secret", cfg.Database.AuthToken)
	assert.Equal(t, 10, cfg.Search.MaxResults)
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DATAVERSE_DSN", "file:test.db")
	t.Setenv("TEST_DATAVERSE_TABLE", "projects")

	path := writeConfig(t, "config.yaml", `
database:
  dsn: "${TEST_DATAVERSE_DSN}"
search:
  table: "${TEST_DATAVERSE_TABLE}"
  kind: "${TEST_DATAVERSE_UNSET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "projects", cfg.Search.Table)
	assert.Equal(t, "matter", cfg.Search.Kind, "unset variables expand to empty and pick up defaults")
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.Server.MaxBodyBytes)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, DefaultQueryTimeout, cfg.Database.QueryTimeout)
	assert.True(t, cfg.Cache.IsEnabled())
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, []string{"name", "code", "description"}, cfg.Search.DefaultColumns)
	assert.Equal(t, DefaultMaxResults, cfg.Search.MaxResults)
	assert.Equal(t, DefaultProtocolVersion, cfg.MCP.ProtocolVersion)
	assert.Equal(t, DefaultServerName, cfg.MCP.ServerName)
	assert.False(t, cfg.Audit.Enabled)
}

func TestLoad_AuditPathDefault(t *testing.T) {
	path := writeConfig(t, "config.yaml", "audit:\n  enabled: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dataverse-mcp-audit.db", cfg.Audit.Path)
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
			content: "server: [unclosed",
			wantErr: "parsing config file",
		},
		{
			name:    "invalid toml",
			file:    "config.toml",
			content: "[server\nhttp_addr =",
			wantErr: "parsing config file",
		},
		{
			name:    "bad duration",
			file:    "config.yaml",
			content: "cache:\n  ttl: \"soon\"\n",
			wantErr: "parsing cache ttl",
		},
		{
			name:    "bad query timeout",
			file:    "config.yaml",
			content: "database:\n  query_timeout: \"forever\"\n",
			wantErr: "parsing query_timeout",
		},
		{
			name:    "unsupported driver",
			file:    "config.yaml",
			content: "database:\n  driver: \"oracle\"\n",
			wantErr: "database.driver",
		},
		{
			name:    "bad log level",
			file:    "config.yaml",
			content: "logging:\n  level: \"loud\"\n",
			wantErr: "logging.level",
		},
		{
			name:    "empty alias column",
			file:    "config.yaml",
			content: "search:\n  field_aliases:\n    client: \"\"\n",
			wantErr: "field_aliases",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDefaultPath(t *testing.T) {
	t.Run("explicit env var", func(t *testing.T) {
		t.Setenv("DATAVERSE_MCP_CONFIG", "/etc/dataverse/config.yaml")
		assert.Equal(t, "/etc/dataverse/config.yaml", DefaultPath())
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("DATAVERSE_MCP_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		assert.Equal(t, filepath.Join("/tmp/xdg", "dataverse-mcp", "config.yaml"), DefaultPath())
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Cache.IsEnabled())
	assert.Empty(t, cfg.Database.DSN)
}
