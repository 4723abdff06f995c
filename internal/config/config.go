package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds shared configuration values for the wiretap proxy
type Config struct {
	// ListenAddr is the address the intercepting listener binds to
	ListenAddr string

	// TargetAddr is the upstream server address traffic is relayed to
	TargetAddr string

	// APIPort is the port for the inspection HTTP API
	APIPort int

	// LogLevel controls logging verbosity (debug, info, warn, error)
	LogLevel string
}

// Load creates a Config by reading from environment variables
// and applying defaults where values are not set
func Load() *Config {
	return &Config{
		ListenAddr: getEnvOrDefault("WIRETAP_LISTEN", "127.0.0.1:9000"),
		TargetAddr: getEnvOrDefault("WIRETAP_TARGET", ""),
		APIPort:    getEnvIntOrDefault("WIRETAP_API_PORT", 8080),
		LogLevel:   getEnvOrDefault("WIRETAP_LOG_LEVEL", "info"),
	}
}

// Validate checks that required configuration values are present
func (c *Config) Validate() error {
	var missing []string

	if c.ListenAddr == "" {
		missing = append(missing, "WIRETAP_LISTEN")
	}
	if c.TargetAddr == "" {
		missing = append(missing, "WIRETAP_TARGET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", c.APIPort)
	}

	return nil
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvIntOrDefault retrieves an integer environment variable or returns a default value
func getEnvIntOrDefault(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return n
}
