package cli

import (
	"os"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with values from the environment or defaults
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("GRIDRACE_SERVER", "http://localhost:8080"),
		Output:    getEnvOrDefault("GRIDRACE_FORMAT", FormatText),
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
