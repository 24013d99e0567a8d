// Package settings loads the runtime tunables from a properties file and keeps the last good copy in memory.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const configType = "properties"

// Store owns the in-memory Settings. Reload is the only writer, readers get copies.
type Store struct {
	path string
	log  logger.Logger

	mu      sync.RWMutex
	current core.Settings
}

// New creates a store for the given file, holding the default settings until Load is called.
func New(path string, log logger.Logger) *Store {
	return &Store{
		path:    path,
		log:     log.WithField("settings", path),
		current: core.DefaultSettings(),
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Current returns a snapshot of the held settings.
func (s *Store) Current() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load reads the settings file, creating it with the defaults on first run.
func (s *Store) Load() core.Settings {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		if err := s.writeDefaults(); err != nil {
			s.log.WithError(err).Warnf("Failed to save %s", filepath.Base(s.path))
		} else {
			s.log.Infof("Created %s", s.path)
		}
		current := s.Current()
		s.logSettings(current)
		return current
	}

	current, _ := s.Reload()
	return current
}

// Reload re-reads the file and reports whether the polling interval changed.
// Keys that are missing, unparsable or invalid keep their previous value.
func (s *Store) Reload() (core.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType(configType)
	if err := v.ReadInConfig(); err != nil {
		s.log.WithError(fmt.Errorf("%w: %v", core.ErrSettingsCorrupt, err)).
			Warn("Failed to load settings, keeping previous values")
		return prev, false
	}

	next := s.merge(v, prev)
	s.current = next

	s.log.Info("Loaded settings")
	s.logSettings(next)

	return next, next.Interval != prev.Interval
}

func (s *Store) merge(v *viper.Viper, prev core.Settings) core.Settings {
	next := prev

	if v.IsSet(core.KeyEnabled) {
		if b, err := cast.ToBoolE(v.Get(core.KeyEnabled)); err == nil {
			next.Enabled = b
		} else {
			s.invalid(core.KeyEnabled, v.Get(core.KeyEnabled), err)
		}
	}

	if v.IsSet(core.KeyInterval) {
		i, err := cast.ToIntE(v.Get(core.KeyInterval))
		if err == nil && i <= 0 {
			err = fmt.Errorf("%w: must be positive", core.ErrInvalidSetting)
		}
		if err == nil {
			next.Interval = i
		} else {
			s.invalid(core.KeyInterval, v.Get(core.KeyInterval), err)
		}
	}

	if v.IsSet(core.KeyMarket) {
		if m := cast.ToString(v.Get(core.KeyMarket)); m != "" {
			next.Market = m
		} else {
			s.invalid(core.KeyMarket, m, fmt.Errorf("%w: cannot be empty", core.ErrInvalidSetting))
		}
	}

	if v.IsSet(core.KeyDays) {
		d, err := cast.ToIntE(v.Get(core.KeyDays))
		if err == nil && d < 0 {
			err = fmt.Errorf("%w: cannot be negative", core.ErrInvalidSetting)
		}
		if err == nil {
			next.Days = d
		} else {
			s.invalid(core.KeyDays, v.Get(core.KeyDays), err)
		}
	}

	if v.IsSet(core.KeyClear) {
		if b, err := cast.ToBoolE(v.Get(core.KeyClear)); err == nil {
			next.Clear = b
		} else {
			s.invalid(core.KeyClear, v.Get(core.KeyClear), err)
		}
	}

	if v.IsSet(core.KeyMode) {
		if m := core.ParsePairMode(cast.ToString(v.Get(core.KeyMode))); m.Valid() {
			next.Mode = m
		} else {
			s.invalid(core.KeyMode, v.Get(core.KeyMode), fmt.Errorf("%w: unknown mode", core.ErrInvalidSetting))
		}
	}

	return next
}

func (s *Store) invalid(key string, value any, err error) {
	s.log.WithFields(logger.Fields{
		"key":   key,
		"value": value,
	}).WithError(err).Warn("Ignoring invalid setting")
}

func (s *Store) writeDefaults() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create settings directory: %w", err)
		}
	}

	def := core.DefaultSettings()

	v := viper.New()
	v.SetConfigType(configType)
	v.Set(core.KeyEnabled, def.Enabled)
	v.Set(core.KeyInterval, def.Interval)
	v.Set(core.KeyMarket, def.Market)
	v.Set(core.KeyDays, def.Days)
	v.Set(core.KeyClear, def.Clear)
	v.Set(core.KeyMode, string(def.Mode))

	if err := v.SafeWriteConfigAs(s.path); err != nil {
		return fmt.Errorf("could not save default settings: %w", err)
	}

	return nil
}

func (s *Store) logSettings(current core.Settings) {
	unit := "minutes"
	if current.Interval == 1 {
		unit = "minute"
	}

	s.log.Infof("  enabled  = %t", current.Enabled)
	s.log.Infof("  interval = %d %s", current.Interval, unit)
	s.log.Infof("  market   = %s", current.Market)
	s.log.Infof("  days     = %d", current.Days)
	s.log.Infof("  clear    = %t", current.Clear)
	s.log.Infof("  mode     = %s", current.Mode)
}
