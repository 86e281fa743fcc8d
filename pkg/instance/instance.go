package instance

import "os"

// GetID returns the identifier used as the cron lock holder. It prefers the
// deployment-provided worker id and falls back to the hostname so locks stay
// attributable even without explicit configuration.
func GetID() string {
	if id := os.Getenv("LOADPILOT_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
