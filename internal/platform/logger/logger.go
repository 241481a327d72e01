// Package logger provides a configured zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger writing structured lines to stderr, tagged with the
// emitting service. Stdout stays free for command output (notectl).
func New(serviceName string) zerolog.Logger {
	return zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}
