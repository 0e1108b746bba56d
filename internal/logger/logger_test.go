package logger

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"WARN", zerolog.WarnLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		if got := parseLevel(tc.input); got != tc.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestInitAppliesFirstLevelOnly(t *testing.T) {
	Init("warn")
	Init("debug") // ignored, the first Init wins

	if got := Get().GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("Expected warn level to stick, got %s", got)
	}

	// All facade helpers are callable against the shared logger.
	Info("content collected", "count", 3)
	Warn("result budget low", "budget", 1)
	Error("scrape failed", errors.New("connection refused"), "url", "https://example.com")
	Debug("verbose detail")
}
