// ABOUTME: Configuration loading and parsing for dataverse-mcp
// ABOUTME: Supports YAML or TOML files with environment variable expansion, defaults and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverLibSQL   = "libsql"
)

// Default values applied before validation.
const (
	DefaultHTTPAddr        = "127.0.0.1:8090"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultQueryTimeout    = 30 * time.Second
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 1000
	DefaultMaxResults      = 50
	DefaultProtocolVersion = "2024-11-05"
	DefaultServerName      = "dataverse-mcp"
	DefaultServiceURL      = "dataverse://matters"
)

// Config represents the complete dataverse-mcp configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Search   SearchConfig   `yaml:"search" toml:"search"`
	Audit    AuditConfig    `yaml:"audit" toml:"audit"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	MCP      MCPConfig      `yaml:"mcp" toml:"mcp"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	HTTPAddr     string `yaml:"http_addr" toml:"http_addr"`
	CORSOrigin   string `yaml:"cors_origin" toml:"cors_origin"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// DatabaseConfig describes the backing store the query executor talks to.
// An empty DSN leaves the executor unconfigured.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver" toml:"driver"`
	DSN          string        `yaml:"dsn" toml:"dsn"`
	AuthToken    string        `yaml:"auth_token" toml:"auth_token"` // libsql remote databases only
	MaxOpenConns int           `yaml:"max_open_conns" toml:"max_open_conns"`
	QueryTimeout time.Duration `yaml:"-" toml:"-"`

	QueryTimeoutRaw string `yaml:"query_timeout" toml:"query_timeout"`
}

// CacheConfig holds the metadata cache settings. The cache is on unless
// enabled is explicitly false.
type CacheConfig struct {
	Enabled    *bool         `yaml:"enabled" toml:"enabled"`
	MaxEntries int           `yaml:"max_entries" toml:"max_entries"`
	TTL        time.Duration `yaml:"-" toml:"-"`

	TTLRaw string `yaml:"ttl" toml:"ttl"`
}

// IsEnabled reports whether the cache should be created.
func (c CacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// SearchConfig describes the entity table that search and fetch operate on
type SearchConfig struct {
	Table              string            `yaml:"table" toml:"table"`
	Kind               string            `yaml:"kind" toml:"kind"`
	IDColumn           string            `yaml:"id_column" toml:"id_column"`
	NameColumn         string            `yaml:"name_column" toml:"name_column"`
	CodeColumn         string            `yaml:"code_column" toml:"code_column"`
	DescriptionColumn  string            `yaml:"description_column" toml:"description_column"`
	ConfidentialColumn string            `yaml:"confidential_column" toml:"confidential_column"`
	DefaultColumns     []string          `yaml:"default_columns" toml:"default_columns"`
	FieldAliases       map[string]string `yaml:"field_aliases" toml:"field_aliases"`
	ServiceURL         string            `yaml:"service_url" toml:"service_url"`
	Classification     string            `yaml:"classification" toml:"classification"`
	MaxResults         int               `yaml:"max_results" toml:"max_results"`
}

// AuditConfig holds the tool-call audit log settings
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MCPConfig holds the values reported by initialize
type MCPConfig struct {
	ServerName      string `yaml:"server_name" toml:"server_name"`
	ServerVersion   string `yaml:"server_version" toml:"server_version"`
	ProtocolVersion string `yaml:"protocol_version" toml:"protocol_version"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied and no database.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// DefaultPath returns the config file location, honouring DATAVERSE_MCP_CONFIG
// and XDG_CONFIG_HOME.
func DefaultPath() string {
	if p := os.Getenv("DATAVERSE_MCP_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dataverse-mcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "dataverse-mcp", "config.yaml")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = DefaultQueryTimeout
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheMaxEntries
	}

	s := &c.Search
	if s.Table == "" {
		s.Table = "matters"
	}
	if s.Kind == "" {
		s.Kind = "matter"
	}
	if s.IDColumn == "" {
		s.IDColumn = "matterid"
	}
	if s.NameColumn == "" {
		s.NameColumn = "name"
	}
	if s.CodeColumn == "" {
		s.CodeColumn = "code"
	}
	if s.DescriptionColumn == "" {
		s.DescriptionColumn = "description"
	}
	if s.ConfidentialColumn == "" {
		s.ConfidentialColumn = "highlyconfidential"
	}
	if len(s.DefaultColumns) == 0 {
		s.DefaultColumns = []string{s.NameColumn, s.CodeColumn, s.DescriptionColumn}
	}
	if s.ServiceURL == "" {
		s.ServiceURL = DefaultServiceURL
	}
	if s.Classification == "" {
		s.Classification = "Standard"
	}
	if s.MaxResults <= 0 {
		s.MaxResults = DefaultMaxResults
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		c.Audit.Path = "dataverse-mcp-audit.db"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.MCP.ServerName == "" {
		c.MCP.ServerName = DefaultServerName
	}
	if c.MCP.ServerVersion == "" {
		c.MCP.ServerVersion = "dev"
	}
	if c.MCP.ProtocolVersion == "" {
		c.MCP.ProtocolVersion = DefaultProtocolVersion
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverSQLite3, DriverPostgres, DriverMySQL, DriverLibSQL:
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("database.query_timeout must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if c.Search.Table == "" || c.Search.IDColumn == "" {
		return fmt.Errorf("search.table and search.id_column are required")
	}
	for prefix, column := range c.Search.FieldAliases {
		if strings.TrimSpace(prefix) == "" || strings.TrimSpace(column) == "" {
			return fmt.Errorf("search.field_aliases entries need both a prefix and a column")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Database.QueryTimeoutRaw != "" {
		cfg.Database.QueryTimeout, err = time.ParseDuration(cfg.Database.QueryTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing query_timeout %q: %w", cfg.Database.QueryTimeoutRaw, err)
		}
	}

	if cfg.Cache.TTLRaw != "" {
		cfg.Cache.TTL, err = time.ParseDuration(cfg.Cache.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing cache ttl %q: %w", cfg.Cache.TTLRaw, err)
		}
	}

	return nil
}
