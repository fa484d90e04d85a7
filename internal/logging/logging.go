// Package logging bootstraps the process-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures zerolog's global logger. console selects the
// human-readable writer used for local/interactive runs; when false the
// logger emits structured JSON, suited to production log shipping.
func Init(console bool, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// ForSource returns a logger scoped with a source_key field, used by
// the collection pipeline's per-alias fetch logging so every such line
// is attributable.
func ForSource(sourceKey string) zerolog.Logger {
	return log.With().Str("source", sourceKey).Logger()
}

// ForRun returns a logger scoped to one (ip, geo, timeframe) collection
// run.
func ForRun(ipID, geo, timeframe string) zerolog.Logger {
	return log.With().
		Str("ip_id", ipID).
		Str("geo", geo).
		Str("timeframe", timeframe).
		Logger()
}
