package core

import (
	"fmt"
	"time"
)

// Settings holds the runtime tunables read from the settings properties file
type Settings struct {
	Enabled  bool     // Whether pair files are modified at all
	Interval int      // Minutes between two detection cycles
	Market   string   // Quote market appended to symbols, e.g. BTC
	Days     int      // Risk window in days
	Clear    bool     // Remove suppression once the risk window has passed
	Mode     PairMode // Flag convention used in pair files
}

// Settings keys as they appear in the properties file.
const (
	KeyEnabled  = "enabled"
	KeyInterval = "interval"
	KeyMarket   = "market"
	KeyDays     = "days"
	KeyClear    = "clear"
	KeyMode     = "mode"
)

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		Enabled:  true,
		Interval: 30,
		Market:   "BTC",
		Days:     14,
		Clear:    true,
		Mode:     ModeTrading,
	}
}

// IntervalDuration returns the polling interval as a duration.
func (s Settings) IntervalDuration() time.Duration {
	return time.Duration(s.Interval) * time.Minute
}

// Flag returns the pair flag convention selected by Mode.
func (s Settings) Flag() PairFlag {
	return s.Mode.Flag()
}

// Validate checks the invariants of every field.
func (s Settings) Validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidSetting, s.Interval)
	}
	if s.Market == "" {
		return fmt.Errorf("%w: market cannot be empty", ErrInvalidSetting)
	}
	if s.Days < 0 {
		return fmt.Errorf("%w: days cannot be negative, got %d", ErrInvalidSetting, s.Days)
	}
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSetting, s.Mode)
	}
	return nil
}
