package instance

import "os"

// GetID returns the process instance identifier used in log context.
func GetID() string {
	for _, key := range []string{"WORKER_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
