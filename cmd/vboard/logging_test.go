package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    slog.Level
		wantErr bool
	}{
		{name: "default debug", raw: "", want: slog.LevelDebug},
		{name: "info", raw: "info", want: slog.LevelInfo},
		{name: "upper case", raw: "ERROR", want: slog.LevelError},
		{name: "warning alias", raw: "warning", want: slog.LevelWarn},
		{name: "numeric", raw: "4", want: slog.LevelWarn},
		{name: "invalid", raw: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse level: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSelectedLogLevelPrecedence(t *testing.T) {
	cases := []struct {
		flag, env, cfg string
		raw, source    string
	}{
		{"info", "error", "warn", "info", "flag"},
		{"", "error", "warn", "error", "env"},
		{" ", "", "warn", "warn", "config"},
		{"", "", "", "", "default"},
	}
	for _, tc := range cases {
		raw, source := selectedLogLevel(tc.flag, tc.env, tc.cfg)
		if raw != tc.raw || source != tc.source {
			t.Fatalf("selectedLogLevel(%q, %q, %q) = %q/%q, want %q/%q",
				tc.flag, tc.env, tc.cfg, raw, source, tc.raw, tc.source)
		}
	}
}

func TestConfigureLoggerForCLI(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("valid flag wins over invalid env", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "chatty")
		warning, err := configureLoggerForCLI("info", "")
		if err != nil || warning != "" {
			t.Fatalf("expected clean setup, got warning=%q err=%v", warning, err)
		}
	})

	t.Run("invalid flag is an error", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "")
		if _, err := configureLoggerForCLI("chatty", ""); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid env warns", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "chatty")
		warning, err := configureLoggerForCLI("", "info")
		if err != nil {
			t.Fatalf("configure logger: %v", err)
		}
		if !strings.Contains(warning, logLevelEnvKey) || !strings.Contains(warning, "defaulting to debug") {
			t.Fatalf("unexpected warning %q", warning)
		}
	})

	t.Run("invalid config warns", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "")
		warning, err := configureLoggerForCLI("", "chatty")
		if err != nil {
			t.Fatalf("configure logger: %v", err)
		}
		if !strings.Contains(warning, "invalid log_level") {
			t.Fatalf("unexpected warning %q", warning)
		}
	})
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, slog.LevelInfo, "json").Info("probe", "post_id", 7)
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "probe" || record["post_id"] != float64(7) {
		t.Fatalf("unexpected record %v", record)
	}

	buf.Reset()
	logger := newLogger(&buf, slog.LevelWarn, "")
	logger.Info("hidden")
	logger.Warn("shown", "scope", "global")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "scope=global") {
		t.Fatalf("unexpected text output %q", out)
	}
}
