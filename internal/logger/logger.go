package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger writing JSON to stderr.
// It ensures that the logger is initialized only once.
func Init(level string) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		defaultLogger = zerolog.New(os.Stderr).Level(parseLevel(level)).With().Timestamp().Logger()
	})
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the initialized default logger. The pointer is required:
// zerolog's level methods have pointer receivers.
func Get() *zerolog.Logger {
	Init("info") // No-op if Init was already called with a configured level
	return &defaultLogger
}

// Info logs an informational message with alternating key/value fields.
func Info(msg string, kv ...any) {
	Get().Info().Fields(kv).Msg(msg)
}

// Warn logs a warning message with alternating key/value fields.
func Warn(msg string, kv ...any) {
	Get().Warn().Fields(kv).Msg(msg)
}

// Error logs an error message. A nil err is allowed and simply omitted.
func Error(msg string, err error, kv ...any) {
	Get().Error().Err(err).Fields(kv).Msg(msg)
}

// Debug logs a debug message with alternating key/value fields.
func Debug(msg string, kv ...any) {
	Get().Debug().Fields(kv).Msg(msg)
}
