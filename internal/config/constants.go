package config

import "time"

// Application defaults
const (
	AppName = "keygate"

	// ConfigFileName is searched for when no config path is given
	ConfigFileName = "keygate.yaml"

	DefaultPort       = 5000
	DefaultSQLitePath = "/var/data/keys.db"
	DefaultLogFile    = "logs/keygate.log"

	// Network Timeouts
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 10 * time.Second

	// Rate Limiting
	DefaultRateLimitRPS   = 100
	DefaultRateLimitBurst = 50

	DefaultMaxBodyBytes = 1 << 20 // 1MB
)
