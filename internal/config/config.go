// Package config reads the server's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/oct-analysis-mcp/internal/cv"
)

// Environment variable names.
const (
	EnvLogLevel        = "OCT_MCP_LOG_LEVEL"
	EnvLogFormat       = "OCT_MCP_LOG_FORMAT"
	EnvOutputDir       = "OCT_MCP_OUTPUT_DIR"
	EnvClampThresholds = "OCT_MCP_CLAMP_THRESHOLDS"
	EnvPreviewWidth    = "OCT_MCP_PREVIEW_WIDTH"
	EnvAdaptiveMethod  = "OCT_MCP_ADAPTIVE_METHOD"
)

// Log output formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DefaultPreviewWidth matches the width the stage images were shown at.
const DefaultPreviewWidth = 200

// Config holds everything that can be tuned without rebuilding.
type Config struct {
	LogLevel        zerolog.Level
	LogFormat       string
	OutputDir       string
	ClampThresholds bool
	PreviewWidth    int
	AdaptiveMethod  cv.AdaptiveMethod
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		LogLevel:        zerolog.InfoLevel,
		LogFormat:       LogFormatConsole,
		OutputDir:       ".",
		ClampThresholds: true,
		PreviewWidth:    DefaultPreviewWidth,
		AdaptiveMethod:  cv.AdaptiveGaussian,
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function. Unset or
// empty variables keep their defaults; malformed values are an error.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvLogLevel); ok {
		level, err := ParseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if v, ok := get(EnvLogFormat); ok {
		switch strings.ToLower(v) {
		case LogFormatConsole, LogFormatJSON:
			cfg.LogFormat = strings.ToLower(v)
		default:
			return Config{}, fmt.Errorf("%s: unknown format %q (want console or json)", EnvLogFormat, v)
		}
	}

	if v, ok := get(EnvOutputDir); ok {
		cfg.OutputDir = v
	}

	if v, ok := get(EnvClampThresholds); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvClampThresholds, err)
		}
		cfg.ClampThresholds = b
	}

	if v, ok := get(EnvPreviewWidth); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvPreviewWidth, err)
		}
		if n < 0 {
			return Config{}, fmt.Errorf("%s: must not be negative, got %d", EnvPreviewWidth, n)
		}
		cfg.PreviewWidth = n
	}

	if v, ok := get(EnvAdaptiveMethod); ok {
		m, err := cv.ParseAdaptiveMethod(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvAdaptiveMethod, err)
		}
		cfg.AdaptiveMethod = m
	}

	return cfg, nil
}

// ParseLogLevel accepts debug, info, warn (or warning) and error.
func ParseLogLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}
