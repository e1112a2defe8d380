package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

type Options struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Graylog is a GELF UDP address. Empty disables shipping.
	Graylog string
	// Out defaults to stdout.
	Out     io.Writer
	NoColor bool
}

// ParseLevel maps a config string to a zerolog level.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds the process logger. The returned close func releases the
// Graylog connection, if any.
func Setup(opts Options) (zerolog.Logger, func() error, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		},
	}

	closer := func() error { return nil }
	if opts.Graylog != "" {
		gw, err := gelf.NewWriter(opts.Graylog)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("logging: graylog %s: %w", opts.Graylog, err)
		}
		writers = append(writers, gw)
		closer = gw.Close
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()
	return logger, closer, nil
}
