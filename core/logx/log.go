// Package logx holds the shared zerolog logger.
package logx

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the logger used throughout the project. Library consumers that want
// their own sink can replace it before constructing an adapter.
var Log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	Configure(os.Getenv("LOG_LEVEL"))
}

// Configure sets the global log level from a string such as "debug" or "warn".
// Empty or unknown levels fall back to info.
func Configure(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
