package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be INFO, got %s", cfg.Level)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Expected default format to be json, got %s", cfg.Format)
	}
	if cfg.Output != os.Stderr {
		t.Error("Expected default output to be stderr")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name   string
		level  LogLevel
		format Format
		emit   func(zerolog.Logger, string)
	}{
		{"debug_json", LevelDebug, FormatJSON, func(l zerolog.Logger, m string) { l.Debug().Msg(m) }},
		{"info_json", LevelInfo, FormatJSON, func(l zerolog.Logger, m string) { l.Info().Msg(m) }},
		{"warning_text", LevelWarning, FormatText, func(l zerolog.Logger, m string) { l.Warn().Msg(m) }},
		{"critical_json", LevelCritical, FormatJSON, func(l zerolog.Logger, m string) { l.Error().Msg(m) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Format: tt.format, Output: buf})

			tt.emit(logger, "test message "+tt.name)

			if !strings.Contains(buf.String(), "test message "+tt.name) {
				t.Errorf("Expected output to contain message, got %q", buf.String())
			}
		})
	}
}

func TestSetup_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Format: FormatJSON, Output: buf})

	logger.Info().Str("endpoint", "detections").Msg("hello")

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("Expected JSON line, got %q", out)
	}
	if !strings.Contains(out, `"endpoint":"detections"`) {
		t.Errorf("Expected endpoint field, got %q", out)
	}
}

func TestSetup_RedactsOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Format: FormatJSON, Output: buf})

	logger.Info().Str("api_key", "abcdef123456").Msg("Authorization: Bearer eyJhbGciOi")

	out := buf.String()
	if strings.Contains(out, "abcdef123456") {
		t.Errorf("API key leaked into log output: %q", out)
	}
	if strings.Contains(out, "eyJhbGciOi") {
		t.Errorf("Bearer token leaked into log output: %q", out)
	}
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	buf := &bytes.Buffer{}

	logger := Setup(Config{Level: LevelInfo, Format: FormatJSON, Output: buf, File: path})
	logger.Info().Msg("written to both sinks password=hunter2")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	for name, got := range map[string]string{"stderr": buf.String(), "file": string(data)} {
		if !strings.Contains(got, "written to both sinks") {
			t.Errorf("Expected %s sink to contain message, got %q", name, got)
		}
		if strings.Contains(got, "hunter2") {
			t.Errorf("Password leaked into %s sink: %q", name, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"WARNING", zerolog.WarnLevel},
		{"warn", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"CRITICAL", zerolog.ErrorLevel},
		{" info ", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("test-component")
	logger.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test-component") {
		t.Errorf("Expected output to contain 'test-component', got %q", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarning, Output: buf})

	logger := NewLogger("test")

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at WARNING level")
	}
	if strings.Contains(output, "info message") {
		t.Error("Info message should be filtered out at WARNING level")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message should be included at WARNING level")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error message should be included at WARNING level")
	}
}
