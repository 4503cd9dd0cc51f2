package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup returns the trimmed value of key. Blank values count as unset so an
// empty line in .env falls back to the default.
func lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func getEnv(key, defaultVal string) string {
	if value, ok := lookup(key); ok {
		return value
	}
	return defaultVal
}

// getEnvAsDriver reads a driver or exporter name, lower-cased.
func getEnvAsDriver(key, defaultVal string) string {
	return strings.ToLower(getEnv(key, defaultVal))
}

// getEnvAsBaseURL reads a base URL without its trailing slash, so paths can
// be appended with a single "/".
func getEnvAsBaseURL(key, defaultVal string) string {
	return strings.TrimRight(getEnv(key, defaultVal), "/")
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, ok := lookup(key); ok {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value, ok := lookup(key); ok {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaults []string) []string {
	value, ok := lookup(key)
	if !ok {
		return defaults
	}
	filtered := make([]string, 0, strings.Count(value, ",")+1)
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return defaults
	}
	return filtered
}

// orDefault replaces non-positive sizes and intervals.
func orDefault[T int | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}

// routePath makes p an absolute route, "/" prefixed.
func routePath(p, fallback string) string {
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// loadLocation resolves the IANA zone the dashboard computes "today" in.
func loadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}
