package providers

import "time"

// fallbackShutdownTimeout bounds component shutdown when the config does not.
const fallbackShutdownTimeout = 10 * time.Second

func shutdownTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return fallbackShutdownTimeout
	}
	return d
}
