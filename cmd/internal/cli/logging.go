package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/velmie/ingestsync"
)

// zerologLogger adapts zerolog to ingestsync.Logger. Args are key/value pairs.
type zerologLogger struct {
	log zerolog.Logger
}

var _ ingestsync.Logger = zerologLogger{}

func (l zerologLogger) Debug(msg string, args ...any) { l.log.Debug().Fields(args).Msg(msg) }

func (l zerologLogger) Info(msg string, args ...any) { l.log.Info().Fields(args).Msg(msg) }

func (l zerologLogger) Warn(msg string, args ...any) { l.log.Warn().Fields(args).Msg(msg) }

func (l zerologLogger) Error(msg string, args ...any) { l.log.Error().Fields(args).Msg(msg) }

// newLogger builds the command logger. Output goes to a rotated file when file
// is set, to fallback otherwise. verbose forces debug level.
func newLogger(level, file string, verbose bool, fallback io.Writer) (ingestsync.Logger, io.Closer, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	var (
		writer = fallback
		closer io.Closer
	)
	if file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		writer = rotating
		closer = rotating
	}

	logger := zerolog.New(writer).Level(lvl).With().Timestamp().Logger()

	return zerologLogger{log: logger}, closer, nil
}
