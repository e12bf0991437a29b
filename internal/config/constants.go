package config

import "time"

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Registration rules
const MinPasswordLength = 8

// Login rate limiting per client IP
const (
	LoginMaxAttempts = 5
	LoginWindow      = time.Minute
)
