// Package logger defines the logging contract shared by every component of the daemon.
package logger

type Level int8

const (
	Disabled   Level = -1   // Disabled turns logging off.
	TraceLevel Level = iota // TraceLevel is used for very verbose diagnostics.
	DebugLevel              // DebugLevel is used for skipped candidates and other noise.
	InfoLevel               // InfoLevel is used for state transitions.
	WarnLevel               // WarnLevel is used for recoverable failures.
	ErrorLevel              // ErrorLevel is used for failures that need attention.
	FatalLevel              // FatalLevel logs and exits the program.
	NoLevel                 // NoLevel is used when a level cannot be mapped.
)

// Fields is a set of structured key/value pairs attached to a log line.
type Fields = map[string]any

type Logger interface {
	WithField(key string, value any) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)

	SetLevel(level Level)
	GetLevel() Level
}

// ParseLevel maps a textual level to a Level, falling back to InfoLevel.
func ParseLevel(s string) Level {
	switch s {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info", "":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	case "disabled", "off":
		return Disabled
	default:
		return InfoLevel
	}
}
