package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// AutoDueGeneration enables the monthly due-generation worker
	AutoDueGeneration = "auto_due_generation"
	// DashboardPush enables the /ws/dashboard stream
	DashboardPush = "dashboard_push"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes/on (case-insensitive)
func Enabled(name string) bool {
	return Lookup(os.Getenv, name)
}

// Lookup is Enabled over an arbitrary env source
func Lookup(getenv func(string) string, name string) bool {
	v := getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// EnabledOr returns def when the flag is unset, otherwise its parsed value
func EnabledOr(name string, def bool) bool {
	if _, ok := os.LookupEnv("FLAG_" + strings.ToUpper(name)); !ok {
		return def
	}
	return Enabled(name)
}
