// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/argustv-pvr/internal/log"
)

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "ARGUSTV_"

// parseEnv resolves key from the environment. Unset, empty and unparsable
// values fall back to def; every decision is logged at debug, with secrets
// masked.
func parseEnv[T any](key string, def T, parse func(string) (T, error), kind string) T {
	logger := log.WithComponent("config")
	raw := os.Getenv(key)
	if raw == "" {
		logger.Debug().Str("key", key).Str("source", "default").
			Interface("value", masked(key, def)).Msg("environment key not set")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Str("source", "default").
			Interface("value", masked(key, def)).
			Msgf("environment value is not a valid %s", kind)
		return def
	}
	logger.Debug().Str("key", key).Str("source", "environment").
		Interface("value", masked(key, v)).Msg("environment override")
	return v
}

// masked hides values of keys that look like credentials.
func masked(key string, v any) any {
	k := strings.ToLower(key)
	if strings.Contains(k, "pass") || strings.Contains(k, "token") {
		return "***"
	}
	return v
}

// ParseString returns the value of key, or defaultValue when unset.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, func(s string) (string, error) { return s, nil }, "string")
}

// ParseInt parses key as a base-10 int.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi, "integer")
}

// ParseDuration reads a duration in Go duration format (e.g. "5s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration, "duration")
}

// ParseFloat parses key as a float64.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, "float")
}

// ParseBool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, parseBool, "boolean")
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// parsePathMappings reads "remote=local" pairs separated by ';'.
func parsePathMappings(s string) ([]PathMapping, error) {
	var out []PathMapping
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		remote, local, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(remote) == "" || strings.TrimSpace(local) == "" {
			return nil, strconv.ErrSyntax
		}
		out = append(out, PathMapping{RemoteRoot: strings.TrimSpace(remote), LocalRoot: strings.TrimSpace(local)})
	}
	return out, nil
}
