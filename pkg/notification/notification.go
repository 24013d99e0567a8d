// Package notification delivers new listing events to humans.
package notification

import (
	"fmt"
	"time"

	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger"
)

// FormatListing renders the message sent for a new listing.
func FormatListing(entry core.ListingEntry) string {
	return fmt.Sprintf("🆕 New Binance listing: %s (released %s UTC)",
		entry.Symbol, entry.ReleasedAt.UTC().Format(time.DateTime))
}

// Log writes notifications to the application log.
type Log struct {
	log logger.Logger
}

func NewLog(log logger.Logger) *Log {
	return &Log{log: log.WithField("component", "notification")}
}

func (l *Log) Notify(text string) {
	l.log.Info(text)
}

func (l *Log) OnListing(entry core.ListingEntry) {
	l.log.WithField("symbol", entry.Symbol).Info(FormatListing(entry))
}

// Broadcast fans notifications out to several notifiers.
type Broadcast []core.Notifier

func (b Broadcast) Notify(text string) {
	for _, n := range b {
		n.Notify(text)
	}
}

func (b Broadcast) OnListing(entry core.ListingEntry) {
	for _, n := range b {
		n.OnListing(entry)
	}
}
