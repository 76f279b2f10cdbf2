package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// sessionGCInterval is how often the session store reclaims disk space.
	sessionGCInterval = 10 * time.Minute
)
