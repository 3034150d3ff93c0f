package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and destination of the global logger.
type Options struct {
	Level      string
	File       string // empty logs to stderr
	MaxAgeDays int
}

// Setup configures the global zerolog logger. Interactive runs get a console
// writer on stderr; with File set, JSON lines go to a rotating file instead.
// The returned closer releases the file.
func Setup(opts Options) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		return nil, fmt.Errorf("invalid log level %q", opts.Level)
	}
	zerolog.SetGlobalLevel(level)

	if opts.File == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return nopCloser{}, nil
	}

	w := &lumberjack.Logger{
		Filename: opts.File,
		MaxAge:   opts.MaxAgeDays,
		MaxSize:  100,
		Compress: true,
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
