package autoblacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/autoblacklist/internal/config"
	"github.com/raykavin/autoblacklist/pkg/cache"
	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/detector"
	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/raykavin/autoblacklist/pkg/notification"
	"github.com/raykavin/autoblacklist/pkg/pairsync"
	"github.com/raykavin/autoblacklist/pkg/scheduler"
	"github.com/raykavin/autoblacklist/pkg/settings"
	"github.com/raykavin/autoblacklist/pkg/source"
	"github.com/raykavin/autoblacklist/pkg/watcher"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

// Autoblacklist watches the listing announcements and keeps the pair files in sync
type Autoblacklist struct {
	cfg       *config.AppConfig
	source    core.ListingSource
	notifiers []core.Notifier
	log       logger.Logger
	logLevel  *logger.Level
	now       func() time.Time
	dryRun    bool

	store     *settings.Store
	cache     *cache.ListingCache
	detector  *detector.Detector
	sync      *pairsync.Synchronizer
	scheduler *scheduler.Scheduler
	watcher   *watcher.Watcher
}

// CheckResult is the outcome of a single detection and synchronization pass
type CheckResult struct {
	Settings core.Settings
	Entries  []core.ListingEntry
	Report   pairsync.Report
	Now      time.Time
}

// New creates an Autoblacklist instance from the application configuration
func New(cfg *config.AppConfig, options ...Option) (*Autoblacklist, error) {
	a := &Autoblacklist{
		cfg: cfg,
		log: DefaultLog,
		now: time.Now,
	}

	// Apply custom options
	for _, option := range options {
		option(a)
	}

	a.log = a.log.WithField("component", "autoblacklist")
	if a.logLevel != nil {
		a.log.SetLevel(*a.logLevel)
	}

	// Initialize listing source
	if err := initializeSource(a); err != nil {
		return nil, err
	}

	// Initialize notification systems
	if err := initializeNotifications(a); err != nil {
		return nil, err
	}

	// Initialize listing cache
	var err error
	if a.cache, err = cache.New(); err != nil {
		return nil, fmt.Errorf("failed to create listing cache: %w", err)
	}

	a.store = settings.New(cfg.SettingsPath, a.log)
	a.detector = detector.New(a.source, a.cache, a.log,
		detector.WithMarker(cfg.Marker),
		detector.WithNotifier(notification.Broadcast(a.notifiers)),
		detector.WithClock(a.now),
	)

	syncOptions := []pairsync.Option{pairsync.WithClock(a.now)}
	if a.dryRun {
		syncOptions = append(syncOptions, pairsync.WithDryRun())
	}
	a.sync = pairsync.New(pairsync.Config{
		PrimaryFile: cfg.PrimaryFile,
		ConfigRoot:  cfg.ConfigRoot,
		FileNames:   cfg.FileNames,
	}, a.log, syncOptions...)

	a.scheduler = scheduler.New(a.Cycle, a.log)
	a.watcher = watcher.New(cfg.SettingsPath, a.onSettingsChange, a.log)

	return a, nil
}

// initializeSource sets up the Binance HTML source unless one was provided
func initializeSource(a *Autoblacklist) error {
	if a.source != nil {
		return nil
	}

	src, err := source.NewHTMLSource(source.Config{
		IndexURL: a.cfg.IndexURL,
		Timeout:  a.cfg.HTTPTimeout,
	})
	if err != nil {
		return err
	}
	a.source = src
	return nil
}

// initializeNotifications sets up notification systems like Telegram and email
func initializeNotifications(a *Autoblacklist) error {
	a.notifiers = append(a.notifiers, notification.NewLog(a.log))

	if a.cfg.Telegram.Enabled {
		telegram, err := notification.NewTelegram(notification.TelegramSettings{
			Token: a.cfg.Telegram.Token,
			Users: a.cfg.Telegram.Users,
		}, a.log)
		if err != nil {
			return err
		}
		a.notifiers = append(a.notifiers, telegram)
	}

	if a.cfg.Mail.Enabled() {
		a.notifiers = append(a.notifiers, notification.NewMail(notification.MailParams{
			SMTPServerAddress: a.cfg.Mail.Server,
			SMTPServerPort:    a.cfg.Mail.Port,
			From:              a.cfg.Mail.From,
			To:                a.cfg.Mail.To,
			Password:          a.cfg.Mail.Password,
		}, a.log))
	}

	return nil
}

// Settings returns the settings currently in effect
func (a *Autoblacklist) Settings() core.Settings {
	return a.store.Current()
}

// Cycle runs one detection pass followed by one synchronization pass. It is the
// scheduled job and never runs concurrently with itself.
func (a *Autoblacklist) Cycle(ctx context.Context) {
	current := a.store.Current()
	if !current.Enabled {
		a.log.Info("Currently disabled, set 'enabled = true' in the settings file to re-enable")
		return
	}

	// failures are logged by the detector
	_, _ = a.detector.Run(ctx)

	if a.cache.Len() == 0 {
		return
	}

	report := a.sync.Apply(ctx, a.cache.Entries(), current)
	if len(report.Changes) > 0 {
		a.log.WithFields(logger.Fields{
			"changes": len(report.Changes),
			"written": len(report.Written),
			"failed":  len(report.Failed),
		}).Info("Synchronized pair files")
	}
}

func (a *Autoblacklist) onSettingsChange() {
	current, intervalChanged := a.store.Reload()
	if !intervalChanged {
		return
	}

	if err := a.scheduler.Reschedule(current.IntervalDuration()); err != nil {
		a.log.WithError(err).Error("Failed to reschedule")
		return
	}
	a.log.Infof("Checking for new listings every %d minutes", current.Interval)
}

// Run loads the settings, starts the periodic cycle and the settings watcher, and
// blocks until ctx is done.
func (a *Autoblacklist) Run(ctx context.Context) error {
	current := a.store.Load()

	if err := a.scheduler.Start(ctx, current.IntervalDuration()); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	a.log.Infof("Checking for new listings every %d minutes", current.Interval)

	if err := a.watcher.Start(); err != nil {
		a.scheduler.Stop()
		return fmt.Errorf("failed to watch settings: %w", err)
	}

	<-ctx.Done()
	a.log.Info("Shutting down")

	if err := a.watcher.Stop(); err != nil {
		a.log.WithError(err).Warn("Failed to stop settings watcher")
	}
	a.scheduler.Stop()

	return a.cache.Close()
}

// Check runs a single detection and synchronization pass and reports what it
// found. Pair files are only written when the instance was not created with
// WithDryRun.
func (a *Autoblacklist) Check(ctx context.Context) (CheckResult, error) {
	current := a.store.Load()
	defer a.cache.Close()

	if _, err := a.detector.Run(ctx); err != nil {
		return CheckResult{}, err
	}

	entries := a.cache.Entries()
	return CheckResult{
		Settings: current,
		Entries:  entries,
		Report:   a.sync.Apply(ctx, entries, current),
		Now:      a.now(),
	}, nil
}
