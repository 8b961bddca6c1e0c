package utils

import "os"

// SafeEnv reads an environment variable, substituting fallback when the
// variable is unset or empty.
func SafeEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
