package autoblacklist

import (
	"time"

	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger"
)

// Option is a functional option for configuring an Autoblacklist instance
type Option func(*Autoblacklist)

// WithSource replaces the Binance HTML listing source, mostly for tests
func WithSource(source core.ListingSource) Option {
	return func(a *Autoblacklist) {
		a.source = source
	}
}

// WithNotifier registers a notifier for new listings, in addition to the configured ones
func WithNotifier(notifier core.Notifier) Option {
	return func(a *Autoblacklist) {
		a.notifiers = append(a.notifiers, notifier)
	}
}

// WithLogger sets the logger, DefaultLog is used otherwise
func WithLogger(log logger.Logger) Option {
	return func(a *Autoblacklist) {
		a.log = log
	}
}

// WithLogLevel sets the log level. eg: logger.DebugLevel, logger.InfoLevel, logger.WarnLevel
func WithLogLevel(level logger.Level) Option {
	return func(a *Autoblacklist) {
		a.logLevel = &level
	}
}

// WithClock overrides the time source used to compute listing ages
func WithClock(now func() time.Time) Option {
	return func(a *Autoblacklist) {
		a.now = now
	}
}

// WithDryRun computes pair file changes without writing them
func WithDryRun() Option {
	return func(a *Autoblacklist) {
		a.dryRun = true
	}
}
