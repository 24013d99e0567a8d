package core

import "errors"

var (
	ErrSourceUnavailable = errors.New("listing source unavailable")
	ErrSymbolUnresolved  = errors.New("symbol unresolved")
	ErrConfigRead        = errors.New("config read failed")
	ErrConfigWrite       = errors.New("config write failed")
	ErrSettingsCorrupt   = errors.New("settings corrupt")
	ErrInvalidSetting    = errors.New("invalid setting")
)
