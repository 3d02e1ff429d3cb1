package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config string to a zerolog level, unknown values fall back to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a timestamped JSON logger writing to w at level
func New(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Options selects the log sinks for a process
type Options struct {
	Level   string
	Console io.Writer // human readable, nil to disable
	NoColor bool
	File    string // JSON lines appended, empty to disable
}

// Sink is an open logger plus whatever must be closed on exit
type Sink struct {
	Logger zerolog.Logger
	file   *os.File
}

// Close releases the log file if one was opened
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Open builds a logger fanning out to a console writer and a JSON file
// With neither sink configured the logger discards everything
func Open(opts Options) (*Sink, error) {
	var writers []io.Writer
	sink := &Sink{}

	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		})
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", opts.File, err)
		}
		sink.file = f
		writers = append(writers, f)
	}

	if len(writers) == 0 {
		sink.Logger = zerolog.Nop()
		return sink, nil
	}

	sink.Logger = New(opts.Level, zerolog.MultiLevelWriter(writers...))
	return sink, nil
}
