// Package config provides centralized configuration management for keygate.
// It loads configuration from multiple sources, validates it, and exposes a
// typed struct to the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern KEYGATE_<SECTION>_<FIELD>:
//
//	KEYGATE_SERVER_PORT=5000
//	KEYGATE_STORE_SQLITE_PATH=/var/data/keys.db
//	KEYGATE_STORE_DRIVER=postgres
//	KEYGATE_STORE_DSN=postgres://keygate@db/keygate?sslmode=disable
//	KEYGATE_LOGGING_LEVEL=debug
//	KEYGATE_TELEMETRY_TRACE_EXPORTER=stdout
//
// The bare PORT variable is honored when KEYGATE_SERVER_PORT is not set.
//
// # Configuration File
//
// The file is read from the path given to Load, then KEYGATE_CONFIG, then
// keygate.yaml or configs/keygate.yaml in the working directory, then the
// same two names next to the executable:
//
//	server:
//	  port: 5000
//	store:
//	  driver: sqlite
//	  path: /var/data/keys.db
package config
