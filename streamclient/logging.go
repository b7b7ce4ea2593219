package streamclient

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const appName = "gamestream"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger writes human readable output to stderr and, when file is set,
// JSON lines to a rotating log file. The returned closer releases the file.
func NewLogger(level, file string) (zerolog.Logger, io.Closer, error) {
	lvl := zerolog.InfoLevel
	if strings.TrimSpace(level) != "" {
		var err error
		lvl, err = zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
	}

	var closer io.Closer = nopCloser{}
	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
	}

	if file != "" {
		fileLog := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		writers = append(writers, fileLog)
		closer = fileLog
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Str("app", appName).
		Logger()

	return logger, closer, nil
}
