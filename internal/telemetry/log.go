// Package telemetry centralizes the zerolog logger configuration and the
// prometheus metric vectors shared across components, keeping one
// metrics file per package instead of scattering ad-hoc counters.
package telemetry

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Call once from process
// bootstrap (out of scope for this module; nothing in the module calls
// it).
func Init(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Component returns a logger pre-tagged with the component name, so
// every log line carries its owning package ("cache", "authproxy", ...).
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
