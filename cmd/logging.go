package cmd

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// setupLogger builds the application logger. Unknown levels fall back to
// warn so a typo never silences errors.
func setupLogger(output io.Writer, logLevel string) zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
