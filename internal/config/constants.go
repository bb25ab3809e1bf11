package config

import "time"

// HTTP server timeouts
const (
	ServerRequestTimeout  = 120 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background sweep interval for expired approvals and finished sessions
const SweepInterval = time.Minute

// Finished delivery sessions older than this are reaped
const SessionRetention = time.Hour

// Request body size cap
const MaxBodyBytes = 64 * 1024
