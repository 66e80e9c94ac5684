package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Helpers for the optional subsystems (cache, rate limit, redis, queue).
// They never fail: malformed values fall back to the default.

// EnvOr returns the value of k, or d when it is unset or empty.
func EnvOr(k, d string) string { return envStr(k, d) }

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	b, ok := parseBool(os.Getenv(k))
	if !ok {
		return d
	}
	return b
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
