// Package config handles configuration loading for dataverse-mcp.
//
// # Overview
//
// Configuration is loaded from a YAML file (or TOML when the file ends in
// .toml) with environment variable expansion. Defaults are applied before
// validation, so an almost empty file is enough to start a server.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from DATAVERSE_MCP_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/dataverse-mcp/config.yaml
//  3. ~/.config/dataverse-mcp/config.yaml
//
// # Environment Variable Expansion
//
//	database:
//	  dsn: "${DATAVERSE_DSN}"
//	  auth_token: "${LIBSQL_AUTH_TOKEN}"
//
// # Example
//
//	server:
//	  http_addr: "127.0.0.1:8090"
//	  cors_origin: "*"
//
//	database:
//	  driver: "postgres"            # sqlite, sqlite3, postgres, mysql, libsql
//	  dsn: "${DATAVERSE_DSN}"
//	  query_timeout: "30s"
//
//	cache:
//	  ttl: "5m"
//	  max_entries: 1000
//
//	search:
//	  table: "matters"
//	  kind: "matter"
//	  id_column: "matterid"
//	  confidential_column: "highlyconfidential"
//	  field_aliases:
//	    client: "clientname"
//
//	audit:
//	  enabled: true
//	  path: "./audit.db"
//
//	logging:
//	  level: "info"
//	  format: "json"
package config
