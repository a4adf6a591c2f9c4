package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
	if cfg.Output == nil {
		t.Error("Expected default output to be set")
	}
}

func TestSetup_WritesToOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelDebug, Output: buf})

	logger.Debug().Str("endpoint", "/api/item_list/").Msg("fetching page")

	out := buf.String()
	if !strings.Contains(out, "fetching page") {
		t.Errorf("Expected output to contain message, got %q", out)
	}
	if !strings.Contains(out, `"endpoint":"/api/item_list/"`) {
		t.Errorf("Expected output to contain endpoint field, got %q", out)
	}
}

func TestSetup_NilOutputFallsBack(t *testing.T) {
	// Must not panic on a zero Config.
	logger := Setup(Config{})
	logger.Info().Msg("zero config")

	Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
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

	logger := NewLogger("signer")
	logger.Info().Msg("browser signer ready")

	out := buf.String()
	if !strings.Contains(out, `"component":"signer"`) {
		t.Errorf("Expected output to contain component, got %q", out)
	}
	if !strings.Contains(out, "browser signer ready") {
		t.Errorf("Expected output to contain message, got %q", out)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})

	logger := NewLogger("test")

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	out := buf.String()

	if strings.Contains(out, "debug message") {
		t.Error("Debug message should be filtered out at Warn level")
	}
	if strings.Contains(out, "info message") {
		t.Error("Info message should be filtered out at Warn level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(out, "error message") {
		t.Error("Error message should be included at Warn level")
	}

	// Reset for other tests in the package.
	Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}})
}
