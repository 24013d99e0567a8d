// Package pairsync keeps the pair files of the trading bot in line with the detected listings.
package pairsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/StudioSol/set"
	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/raykavin/autoblacklist/pkg/pairfile"
)

// DefaultFileNames are looked up, in order, inside every subdirectory of the config root.
var DefaultFileNames = []string{"PAIRS.properties", "pairs.properties", "pairs.json"}

// Config locates the pair files.
type Config struct {
	PrimaryFile string   // Pair file of the bot itself, e.g. trading/PAIRS.properties
	ConfigRoot  string   // Directory whose immediate subdirectories may hold feeder pair files
	FileNames   []string // Candidate file names inside each subdirectory
}

// Action is the mutation applied to a pair key.
type Action string

const (
	ActionSuppress Action = "suppress"
	ActionClear    Action = "clear"
)

// Change describes one mutation of one file.
type Change struct {
	File   string
	Symbol string
	Key    string
	Action Action
	Age    int
}

// Report summarizes a synchronization run.
type Report struct {
	Written []string
	Changes []Change
	Failed  map[string]error
}

// Target is one pair file loaded for the duration of a single run.
type Target struct {
	Path  string
	Doc   pairfile.Document
	Dirty bool
}

type Synchronizer struct {
	cfg    Config
	log    logger.Logger
	now    func() time.Time
	open   pairfile.Opener
	dryRun bool
}

type Option func(*Synchronizer)

// WithClock overrides the time source used to compute listing ages.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// WithOpener overrides how pair files are opened.
func WithOpener(open pairfile.Opener) Option {
	return func(s *Synchronizer) {
		s.open = open
	}
}

// WithDryRun computes the changes without writing any file.
func WithDryRun() Option {
	return func(s *Synchronizer) {
		s.dryRun = true
	}
}

func New(cfg Config, log logger.Logger, options ...Option) *Synchronizer {
	if len(cfg.FileNames) == 0 {
		cfg.FileNames = DefaultFileNames
	}

	s := &Synchronizer{
		cfg:  cfg,
		log:  log,
		now:  time.Now,
		open: pairfile.Open,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Discover returns the pair files that exist right now: the primary file followed by
// one file per immediate subdirectory of the config root.
func (s *Synchronizer) Discover() []string {
	paths := set.NewLinkedHashSetString()

	if s.cfg.PrimaryFile != "" && isFile(s.cfg.PrimaryFile) {
		paths.Add(filepath.Clean(s.cfg.PrimaryFile))
	}

	if s.cfg.ConfigRoot == "" {
		return toSlice(paths)
	}

	dirs, err := os.ReadDir(s.cfg.ConfigRoot)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.WithError(err).Warnf("Failed to scan %s", s.cfg.ConfigRoot)
		}
		return toSlice(paths)
	}

	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		for _, name := range s.cfg.FileNames {
			candidate := filepath.Join(s.cfg.ConfigRoot, dir.Name(), name)
			if isFile(candidate) {
				paths.Add(filepath.Clean(candidate))
				break
			}
		}
	}

	return toSlice(paths)
}

// Apply brings every discovered pair file in line with entries and settings.
// Only files that actually changed are written. Failures are isolated per file.
func (s *Synchronizer) Apply(ctx context.Context, entries []core.ListingEntry, settings core.Settings) Report {
	report := Report{Failed: make(map[string]error)}

	if !settings.Enabled {
		s.log.Info("Currently disabled, set 'enabled = true' in the settings file to re-enable")
		return report
	}
	if len(entries) == 0 {
		return report
	}

	now := s.now()
	flag := settings.Flag()

	for _, path := range s.Discover() {
		if ctx.Err() != nil {
			break
		}

		doc, err := s.open(path)
		if err != nil {
			err = fmt.Errorf("%w: %v", core.ErrConfigRead, err)
			s.log.WithError(err).Warnf("Failed to load %s", path)
			report.Failed[path] = err
			continue
		}

		target := &Target{Path: path, Doc: doc}
		report.Changes = append(report.Changes, s.reconcile(target, entries, settings, flag, now)...)

		if !target.Dirty || s.dryRun {
			continue
		}

		if err := target.Doc.Save(); err != nil {
			err = fmt.Errorf("%w: %v", core.ErrConfigWrite, err)
			s.log.WithError(err).Warnf("Failed to save %s", path)
			report.Failed[path] = err
			continue
		}

		s.log.Infof("Saved %s", path)
		report.Written = append(report.Written, path)
	}

	return report
}

func (s *Synchronizer) reconcile(target *Target, entries []core.ListingEntry, settings core.Settings,
	flag core.PairFlag, now time.Time) []Change {

	changes := make([]Change, 0)

	for _, entry := range entries {
		key := flag.Key(entry.Symbol, settings.Market)
		age := entry.Age(now)
		current, present := target.Doc.Get(key)

		log := s.log.WithFields(logger.Fields{
			"file":   target.Path,
			"symbol": entry.Symbol,
			"age":    age,
		})

		switch {
		case age <= settings.Days:
			if present && current == flag.Suppressed {
				continue
			}
			target.Doc.Set(key, flag.Suppressed)
			target.Dirty = true
			changes = append(changes, Change{File: target.Path, Symbol: entry.Symbol, Key: key, Action: ActionSuppress, Age: age})
			log.Infof("Suppressed %s (listed %d days ago)", key, age)

		case settings.Clear && present:
			target.Doc.Delete(key)
			target.Dirty = true
			changes = append(changes, Change{File: target.Path, Symbol: entry.Symbol, Key: key, Action: ActionClear, Age: age})
			log.Infof("Cleared %s (listed %d days ago)", key, age)
		}
	}

	return changes
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func toSlice(s *set.LinkedHashSetString) []string {
	out := make([]string, 0)
	for path := range s.Iter() {
		out = append(out, path)
	}
	return out
}
