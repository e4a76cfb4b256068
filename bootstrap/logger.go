package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/artpar/plancart/config"
	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Format "console" writes human
// readable lines; anything else writes JSON.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	SetLogLevel(cfg.Level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "plancart").Logger()
}

// SetLogLevel changes the global level. Unknown levels fall back to info.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
