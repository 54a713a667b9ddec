// Package config handles configuration loading for partdb-admin.
//
// # Configuration File
//
// Files ending in .toml are decoded as TOML; anything else is read as YAML.
// Fields missing from the file keep the values of Default.
//
//	database:
//	  driver: sqlite          # sqlite, sqlite3 or postgres
//	  dsn: ./partdb.db
//	logging:
//	  level: info             # debug, info, warn, error
//	  format: text            # text or json
//	tree:
//	  path_delimiter: " → "
//	  max_cache_entries: 16
//	  href_pattern: "/%ID%"
//	metrics:
//	  enabled: false
//	  namespace: partdb
//	auth:
//	  superuser: admin
//	  token_secret: "${PARTDB_TOKEN_SECRET}"
//	  token_ttl: 24h
//
// # Environment Variable Expansion
//
// Values may reference environment variables with the ${VAR_NAME} syntax.
// Unset variables expand to the empty string.
//
// # Duration Parsing
//
// auth.token_ttl uses Go's time.ParseDuration syntax.
package config
