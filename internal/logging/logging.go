package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the service logger: human-readable console output in development,
// JSON elsewhere.
func New(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" || appEnv == "test" {
		level = zerolog.DebugLevel
	}

	var logger zerolog.Logger
	if appEnv == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
