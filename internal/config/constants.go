package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Websocket connection settings
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSWriteTimeout    = 10 * time.Second
)

// Background job intervals
const (
	JanitorInterval = 5 * time.Minute
	// Sessions still open after this long with no clean close are assumed
	// abandoned by a dead connection.
	AbandonedSessionCutoff = 24 * time.Hour
)

// Deadline for draining in-flight summarization tasks at shutdown.
const TaskDrainTimeout = 15 * time.Second

// Default rate limiting for the session read API
const DefaultRateLimitPerMin = 60
