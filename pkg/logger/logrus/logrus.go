// Package logrus implements logger.Logger with sirupsen/logrus.
package logrus

import (
	"io"
	"os"

	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/sirupsen/logrus"
)

type Adapter struct {
	entry *logrus.Entry
}

// New creates a logrus backed logger writing text or JSON lines to out (stdout when nil).
func New(level, timeFormat string, jsonFormat bool, out io.Writer) *Adapter {
	l := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)

	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timeFormat})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timeFormat})
	}

	a := &Adapter{entry: logrus.NewEntry(l)}
	a.SetLevel(logger.ParseLevel(level))
	return a
}

func (a *Adapter) WithField(key string, value any) logger.Logger {
	return &Adapter{entry: a.entry.WithField(key, value)}
}

func (a *Adapter) WithFields(fields logger.Fields) logger.Logger {
	return &Adapter{entry: a.entry.WithFields(logrus.Fields(fields))}
}

func (a *Adapter) WithError(err error) logger.Logger {
	return &Adapter{entry: a.entry.WithError(err)}
}

func (a *Adapter) Debug(args ...any) { a.entry.Debug(args...) }
func (a *Adapter) Info(args ...any)  { a.entry.Info(args...) }
func (a *Adapter) Warn(args ...any)  { a.entry.Warn(args...) }
func (a *Adapter) Error(args ...any) { a.entry.Error(args...) }
func (a *Adapter) Fatal(args ...any) { a.entry.Fatal(args...) }

func (a *Adapter) Debugf(format string, args ...any) { a.entry.Debugf(format, args...) }
func (a *Adapter) Infof(format string, args ...any)  { a.entry.Infof(format, args...) }
func (a *Adapter) Warnf(format string, args ...any)  { a.entry.Warnf(format, args...) }
func (a *Adapter) Errorf(format string, args ...any) { a.entry.Errorf(format, args...) }
func (a *Adapter) Fatalf(format string, args ...any) { a.entry.Fatalf(format, args...) }

// SetLevel changes the level of this logger instance only. Loggers derived from it
// afterwards inherit the new level, the one it was derived from keeps its own.
func (a *Adapter) SetLevel(level logger.Level) {
	parent := a.entry.Logger

	l := logrus.New()
	l.SetOutput(parent.Out)
	l.SetFormatter(parent.Formatter)
	l.ReplaceHooks(parent.Hooks)
	l.SetReportCaller(parent.ReportCaller)
	l.ExitFunc = parent.ExitFunc

	switch level {
	case logger.Disabled:
		l.SetOutput(io.Discard)
	case logger.TraceLevel:
		l.SetLevel(logrus.TraceLevel)
	case logger.DebugLevel:
		l.SetLevel(logrus.DebugLevel)
	case logger.WarnLevel:
		l.SetLevel(logrus.WarnLevel)
	case logger.ErrorLevel:
		l.SetLevel(logrus.ErrorLevel)
	case logger.FatalLevel:
		l.SetLevel(logrus.FatalLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	entry := a.entry.Dup()
	entry.Logger = l
	a.entry = entry
}

func (a *Adapter) GetLevel() logger.Level {
	switch a.entry.Logger.GetLevel() {
	case logrus.TraceLevel:
		return logger.TraceLevel
	case logrus.DebugLevel:
		return logger.DebugLevel
	case logrus.InfoLevel:
		return logger.InfoLevel
	case logrus.WarnLevel:
		return logger.WarnLevel
	case logrus.ErrorLevel:
		return logger.ErrorLevel
	case logrus.FatalLevel, logrus.PanicLevel:
		return logger.FatalLevel
	default:
		return logger.NoLevel
	}
}
