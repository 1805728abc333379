// Package env reads process settings that must be known before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
