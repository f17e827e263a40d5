package spin

import (
	"github.com/rs/zerolog/log"
)

// Logger is used by the checked wrappers to report lock misuse before
// panicking.
type Logger interface {
	// Printf must have the same semantics as log.Printf.
	Printf(format string, args ...interface{})
}

var defaultLogger Logger = zeroLogger{}

// zeroLogger routes misuse reports through the global zerolog logger.
type zeroLogger struct{}

func (zeroLogger) Printf(format string, args ...interface{}) {
	log.Error().Msgf(format, args...)
}
