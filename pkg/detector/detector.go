// Package detector runs the listing detection cycle and feeds the listing cache.
package detector

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/raykavin/autoblacklist/pkg/cache"
	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger"
)

const recentListings = 5

// Result describes one detection cycle.
type Result struct {
	New     []core.ListingEntry
	Elapsed time.Duration
}

// Detector owns the listing cache. Cycles must not run concurrently.
type Detector struct {
	source   core.ListingSource
	cache    *cache.ListingCache
	notifier core.Notifier
	log      logger.Logger
	marker   string
	now      func() time.Time

	warmedUp atomic.Bool
}

type Option func(*Detector)

// WithMarker overrides the phrase that identifies listing titles.
func WithMarker(marker string) Option {
	return func(d *Detector) {
		d.marker = marker
	}
}

// WithNotifier registers the receiver of new listing events.
func WithNotifier(notifier core.Notifier) Option {
	return func(d *Detector) {
		d.notifier = notifier
	}
}

// WithClock overrides the time source used for ages in log lines.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

func New(source core.ListingSource, c *cache.ListingCache, log logger.Logger, options ...Option) *Detector {
	d := &Detector{
		source: source,
		cache:  c,
		log:    log,
		marker: DefaultMarker,
		now:    time.Now,
	}

	for _, option := range options {
		option(d)
	}

	return d
}

// WarmedUp reports whether a cycle has completed since start, after which new
// listings are announced.
func (d *Detector) WarmedUp() bool {
	return d.warmedUp.Load()
}

// Run performs one detection cycle. An unavailable index ends the cycle with no new
// listings; a failing detail page only skips that announcement. Listings found by the
// first completed cycle populate the cache silently.
func (d *Detector) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	result := Result{New: make([]core.ListingEntry, 0)}
	announce := d.WarmedUp()

	d.log.Info("Fetching data...")
	announcements, err := d.source.FetchIndex(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
		d.log.WithError(err).Warn("Failed to query listing index")
		result.Elapsed = time.Since(start)
		return result, err
	}

	for _, announcement := range announcements {
		if ctx.Err() != nil {
			break
		}

		entry, ok := d.resolve(ctx, announcement)
		if !ok {
			continue
		}

		inserted, err := d.cache.Put(entry)
		if err != nil {
			d.log.WithError(err).Warnf("Failed to cache %s", entry.Symbol)
			continue
		}
		if !inserted {
			continue
		}

		result.New = append(result.New, entry)
		if announce {
			d.log.Infof("New listing: %s (released %s)", entry.Symbol, entry.ReleasedAt.Format(time.DateTime))
			if d.notifier != nil {
				d.notifier.OnListing(entry)
			}
		}
	}

	result.Elapsed = time.Since(start)
	d.warmedUp.Store(true)
	d.summarize(result)

	return result, nil
}

func (d *Detector) resolve(ctx context.Context, announcement core.Announcement) (core.ListingEntry, bool) {
	symbol, ok := ExtractSymbol(announcement.Title, d.marker)
	if !ok {
		d.log.WithError(core.ErrSymbolUnresolved).Debugf("Skipping %q", announcement.Title)
		return core.ListingEntry{}, false
	}

	if d.cache.Has(symbol) {
		return core.ListingEntry{}, false
	}

	released, err := d.source.FetchReleaseDate(ctx, announcement.URL)
	if err != nil {
		d.log.WithFields(logger.Fields{
			"symbol": symbol,
			"url":    announcement.URL,
		}).WithError(fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)).Warn("Failed to resolve release date")
		return core.ListingEntry{}, false
	}

	return core.ListingEntry{Symbol: symbol, ReleasedAt: released}, true
}

func (d *Detector) summarize(result Result) {
	if len(result.New) == 0 {
		d.log.Info("No new listings found")
		return
	}

	d.log.Infof("Loaded %d newest listings (took %d ms)", len(result.New), result.Elapsed.Milliseconds())
	d.log.Info("Most recent:")

	now := d.now()
	for _, entry := range d.cache.Recent(recentListings) {
		d.log.Infof("  %s (listed %d days ago)", entry.Symbol, entry.Age(now))
	}
}
