// Package zerolog implements logger.Logger on top of rs/zerolog with a compact colored console layout.
package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options controls the console layout of the logger.
type Options struct {
	Level      string
	TimeFormat string
	Colored    bool
	JSON       bool
	Output     io.Writer
}

// Adapter implements logger.Logger.
type Adapter struct {
	zl *zerolog.Logger
}

// New builds a zerolog backed logger from the given options.
func New(opts Options) (*Adapter, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if !opts.JSON {
		console := zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !opts.Colored,
			TimeFormat: opts.TimeFormat,
		}
		if opts.Colored {
			console.FormatLevel = formatLevel
			console.FormatCaller = formatCaller
			console.FormatTimestamp = func(i any) string {
				return formatTimestamp(i, opts.TimeFormat)
			}
		}
		out = console
	}

	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &Adapter{zl: &zl}, nil
}

// NewAdapter wraps an existing zerolog logger.
func NewAdapter(zl zerolog.Logger) *Adapter {
	return &Adapter{zl: &zl}
}

// Nop returns a logger that discards everything, handy in tests.
func Nop() *Adapter {
	return NewAdapter(zerolog.Nop())
}

func (a *Adapter) WithField(key string, value any) logger.Logger {
	zl := a.zl.With().Interface(key, value).Logger()
	return &Adapter{zl: &zl}
}

func (a *Adapter) WithFields(fields logger.Fields) logger.Logger {
	zl := a.zl.With().Fields(fields).Logger()
	return &Adapter{zl: &zl}
}

func (a *Adapter) WithError(err error) logger.Logger {
	zl := a.zl.With().Err(err).Logger()
	return &Adapter{zl: &zl}
}

func (a *Adapter) Debug(args ...any) { a.zl.Debug().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Info(args ...any)  { a.zl.Info().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Warn(args ...any)  { a.zl.Warn().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Error(args ...any) { a.zl.Error().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Fatal(args ...any) { a.zl.Fatal().Msg(fmt.Sprint(args...)) }

func (a *Adapter) Debugf(format string, args ...any) { a.zl.Debug().Msgf(format, args...) }
func (a *Adapter) Infof(format string, args ...any)  { a.zl.Info().Msgf(format, args...) }
func (a *Adapter) Warnf(format string, args ...any)  { a.zl.Warn().Msgf(format, args...) }
func (a *Adapter) Errorf(format string, args ...any) { a.zl.Error().Msgf(format, args...) }
func (a *Adapter) Fatalf(format string, args ...any) { a.zl.Fatal().Msgf(format, args...) }

// SetLevel changes the level of this logger instance only.
func (a *Adapter) SetLevel(level logger.Level) {
	zl := a.zl.Level(toZerologLevel(level))
	a.zl = &zl
}

func (a *Adapter) GetLevel() logger.Level {
	return toLevel(a.zl.GetLevel())
}

var levels = map[zerolog.Level]logger.Level{
	zerolog.Disabled:   logger.Disabled,
	zerolog.NoLevel:    logger.NoLevel,
	zerolog.TraceLevel: logger.TraceLevel,
	zerolog.DebugLevel: logger.DebugLevel,
	zerolog.InfoLevel:  logger.InfoLevel,
	zerolog.WarnLevel:  logger.WarnLevel,
	zerolog.ErrorLevel: logger.ErrorLevel,
	zerolog.FatalLevel: logger.FatalLevel,
}

func toLevel(level zerolog.Level) logger.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return logger.NoLevel
}

func toZerologLevel(level logger.Level) zerolog.Level {
	for zl, l := range levels {
		if l == level {
			return zl
		}
	}
	return zerolog.NoLevel
}

func formatLevel(i any) string {
	switch i {
	case zerolog.LevelTraceValue:
		return term.Cyanf("[TRC]")
	case zerolog.LevelDebugValue:
		return term.Cyanf("[DBG]")
	case zerolog.LevelInfoValue:
		return term.Greenf("[INF]")
	case zerolog.LevelWarnValue:
		return term.Yellowf("[WAR]")
	case zerolog.LevelErrorValue:
		return term.Redf("[ERR]")
	case zerolog.LevelFatalValue:
		return term.Redf("[FTL]")
	default:
		return term.Whitef("[UNK]")
	}
}

func formatCaller(i any) string {
	const maxFileSize = 18

	fname, ok := i.(string)
	if !ok || fname == "" {
		return ""
	}

	file, line, found := strings.Cut(filepath.Base(fname), ":")
	if !found {
		return term.Yellowf("[%s]", file)
	}
	if len(file) > maxFileSize {
		file = file[:maxFileSize]
	}

	return term.Yellowf("[%-*s:%4s]", maxFileSize, file, line)
}

func formatTimestamp(i any, layout string) string {
	s, ok := i.(string)
	if !ok {
		return term.Cyanf("[%v]", i)
	}

	if ts, err := time.ParseInLocation(time.RFC3339, s, time.Local); err == nil {
		s = ts.In(time.Local).Format(layout)
	}

	return term.Cyanf("[%s]", s)
}
