package core

import "strings"

// PairMode selects how a suppressed pair is written to the pair files.
type PairMode string

const (
	ModeTrading  PairMode = "trading"  // <PAIR>_trading_enabled = false
	ModeSellOnly PairMode = "sellonly" // <PAIR>_sell_only_mode = true
)

// PairFlag describes the key suffix and the literal values of a pair flag.
type PairFlag struct {
	Suffix     string
	Suppressed string
	Released   string
}

var pairFlags = map[PairMode]PairFlag{
	ModeTrading:  {Suffix: "_trading_enabled", Suppressed: "false", Released: "true"},
	ModeSellOnly: {Suffix: "_sell_only_mode", Suppressed: "true", Released: "false"},
}

// ParsePairMode normalizes user input, e.g. "Sell-Only" becomes ModeSellOnly.
func ParsePairMode(s string) PairMode {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	return PairMode(s)
}

func (m PairMode) Valid() bool {
	_, ok := pairFlags[m]
	return ok
}

// Flag returns the convention for the mode, the trading convention for unknown modes.
func (m PairMode) Flag() PairFlag {
	if f, ok := pairFlags[m]; ok {
		return f
	}
	return pairFlags[ModeTrading]
}

// Key builds the pair file key for a symbol traded against market.
func (f PairFlag) Key(symbol, market string) string {
	return symbol + market + f.Suffix
}
