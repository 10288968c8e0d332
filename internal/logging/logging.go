// Package logging configures the process-wide structured logger. The
// playback core logs through this package rather than fmt.Printf, so
// diagnostic output from the playback and monitor threads never blocks on
// the transport mutex it describes.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config controls the destination and verbosity of the logger.
type Config struct {
	Level  string `json:"level" default:"info"`
	Pretty bool   `json:"pretty" default:"true"`
}

// Init builds a zerolog.Logger per cfg and installs it as the package
// logger returned by L().
func Init(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	current = logger
	return logger
}

var current = zerolog.New(os.Stderr).With().Timestamp().Logger()

// L returns the current process-wide logger.
func L() *zerolog.Logger {
	return &current
}
