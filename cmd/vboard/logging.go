package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"vboard/internal/config"
)

const (
	logLevelEnvKey  = "VBOARD_LOG_LEVEL"
	logFormatEnvKey = "VBOARD_LOG_FORMAT"
)

// configureLoggerForCLI installs the default slog logger. The level comes
// from the flag, then the environment, then the config file. An invalid flag
// is an error; an invalid env or config value falls back to the default and
// returns a warning for stderr.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	rawLevel, source := selectedLogLevel(flagLevel, envLevel, configLevel)

	level, err := parseLogLevel(rawLevel)
	warning := ""
	if err != nil {
		switch source {
		case "flag":
			return "", fmt.Errorf("invalid --log-level %q", flagLevel)
		case "env":
			warning = fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, envLevel, config.DefaultLogLevel)
		case "config":
			warning = fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, config.DefaultLogLevel)
		}
		level, _ = parseLogLevel("")
	}

	slog.SetDefault(newLogger(os.Stderr, level, os.Getenv(logFormatEnvKey)))
	return warning, nil
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, string) {
	switch {
	case strings.TrimSpace(flagLevel) != "":
		return flagLevel, "flag"
	case strings.TrimSpace(envLevel) != "":
		return envLevel, "env"
	case strings.TrimSpace(configLevel) != "":
		return configLevel, "config"
	default:
		return "", "default"
	}
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = config.DefaultLogLevel
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// newLogger builds a text logger, or a JSON logger when format is "json".
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
