// Package logger builds the application's zerolog logger.
package logger

import (
    "io"
    "os"
    "strings"
    "time"

    "github.com/rs/zerolog"
)

// New returns a logger writing to stdout.  In the dev environment output is
// human-readable; elsewhere it is one JSON object per line.  An unknown
// level falls back to info.
func New(env, level string) zerolog.Logger {
    var out io.Writer = os.Stdout
    if strings.EqualFold(env, "dev") {
        out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    }
    return NewWithWriter(out, level)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
    lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
    if err != nil || level == "" {
        lvl = zerolog.InfoLevel
    }
    return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "table-reservation").Logger()
}
