package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/patch-tools-mcp/internal/server"
)

const (
	envLogLevel  = "PATCH_MCP_LOG_LEVEL"
	envWorkers   = "PATCH_MCP_WORKERS"
	envMaxRegion = "PATCH_MCP_MAX_REGION"
	envMaxWindow = "PATCH_MCP_MAX_WINDOW"
)

type config struct {
	Level     logrus.Level
	Workers   int
	MaxRegion     int
	MaxWindowSize int
}

// loadConfig reads settings through getenv. Invalid values fall back to the
// default and produce a warning for the caller to log once logging is set up.
func loadConfig(getenv func(string) string) (config, []string) {
	cfg := config{
		Level:         logrus.InfoLevel,
		MaxRegion:     server.DefaultMaxRegion,
		MaxWindowSize: server.DefaultMaxWindowSize,
	}
	var warnings []string

	if v := getenv(envLogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring %s: %v", envLogLevel, err))
		} else {
			cfg.Level = level
		}
	}

	if v := getenv(envWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			warnings = append(warnings, fmt.Sprintf("ignoring %s=%q: want a non-negative integer", envWorkers, v))
		} else {
			cfg.Workers = n
		}
	}

	if v := getenv(envMaxRegion); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			warnings = append(warnings, fmt.Sprintf("ignoring %s=%q: want a positive integer", envMaxRegion, v))
		} else {
			cfg.MaxRegion = n
		}
	}

	if v := getenv(envMaxWindow); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n%2 == 0 {
			warnings = append(warnings, fmt.Sprintf("ignoring %s=%q: want a positive odd integer", envMaxWindow, v))
		} else {
			cfg.MaxWindowSize = n
		}
	}

	return cfg, warnings
}
