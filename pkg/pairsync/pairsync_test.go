package pairsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger/zerolog"
	"github.com/raykavin/autoblacklist/pkg/pairfile"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(symbol string, days int) core.ListingEntry {
	return core.ListingEntry{Symbol: symbol, ReleasedAt: now.Add(-time.Duration(days) * 24 * time.Hour)}
}

type layout struct {
	root    string
	primary string
	feeder  string
}

func newLayout(t *testing.T, primary, feeder string) layout {
	t.Helper()
	dir := t.TempDir()

	l := layout{
		root:    filepath.Join(dir, "config"),
		primary: filepath.Join(dir, "trading", "PAIRS.properties"),
		feeder:  filepath.Join(dir, "config", "feeder", "PAIRS.properties"),
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(l.primary), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(l.feeder), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(l.root, "empty"), 0o755))
	require.NoError(t, os.WriteFile(l.primary, []byte(primary), 0o644))
	require.NoError(t, os.WriteFile(l.feeder, []byte(feeder), 0o644))

	return l
}

func newSynchronizer(l layout, options ...Option) *Synchronizer {
	options = append([]Option{WithClock(func() time.Time { return now })}, options...)
	return New(Config{PrimaryFile: l.primary, ConfigRoot: l.root}, zerolog.Nop(), options...)
}

func get(t *testing.T, path, key string) (string, bool) {
	t.Helper()
	doc, err := pairfile.Open(path)
	require.NoError(t, err)
	return doc.Get(key)
}

func TestSynchronizer_Discover(t *testing.T) {
	l := newLayout(t, "", "")
	jsonDir := filepath.Join(l.root, "json")
	require.NoError(t, os.MkdirAll(jsonDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jsonDir, "pairs.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(l.root, "PAIRS.properties"), nil, 0o644))

	got := newSynchronizer(l).Discover()
	require.Equal(t, []string{l.primary, l.feeder, filepath.Join(jsonDir, "pairs.json")}, got)
}

func TestSynchronizer_AgeWindow(t *testing.T) {
	l := newLayout(t, "OLDBTC_trading_enabled = false\n", "")
	settings := core.DefaultSettings()

	report := newSynchronizer(l).Apply(context.Background(), []core.ListingEntry{
		daysAgo("NEW", 10),
		daysAgo("OLD", 20),
	}, settings)

	require.ElementsMatch(t, []string{l.primary, l.feeder}, report.Written)
	require.Empty(t, report.Failed)

	value, ok := get(t, l.primary, "NEWBTC_trading_enabled")
	require.True(t, ok)
	require.Equal(t, "false", value)

	_, ok = get(t, l.primary, "OLDBTC_trading_enabled")
	require.False(t, ok)
}

func TestSynchronizer_KeepsExpiredWithoutClear(t *testing.T) {
	l := newLayout(t, "OLDBTC_trading_enabled = false\n", "")
	settings := core.DefaultSettings()
	settings.Clear = false

	report := newSynchronizer(l).Apply(context.Background(), []core.ListingEntry{daysAgo("OLD", 20)}, settings)
	require.Empty(t, report.Written)
	require.Empty(t, report.Changes)

	value, ok := get(t, l.primary, "OLDBTC_trading_enabled")
	require.True(t, ok)
	require.Equal(t, "false", value)
}

func TestSynchronizer_SuppressesExplicitlyEnabledPair(t *testing.T) {
	l := newLayout(t, "NEWBTC_trading_enabled = true\n", "NEWBTC_trading_enabled = false\n")

	report := newSynchronizer(l).Apply(context.Background(), []core.ListingEntry{daysAgo("NEW", 1)}, core.DefaultSettings())
	require.Equal(t, []string{l.primary}, report.Written)
	require.Equal(t, []Change{{File: l.primary, Symbol: "NEW", Key: "NEWBTC_trading_enabled", Action: ActionSuppress, Age: 1}}, report.Changes)
}

func TestSynchronizer_Idempotent(t *testing.T) {
	l := newLayout(t, "", "")
	entries := []core.ListingEntry{daysAgo("NEW", 3), daysAgo("OLD", 30)}
	sync := newSynchronizer(l)

	first := sync.Apply(context.Background(), entries, core.DefaultSettings())
	require.Len(t, first.Written, 2)

	second := sync.Apply(context.Background(), entries, core.DefaultSettings())
	require.Empty(t, second.Written)
	require.Empty(t, second.Changes)
}

func TestSynchronizer_UntouchedFileIsByteIdentical(t *testing.T) {
	feeder := "# feeder overrides\nDEFAULT_trading_enabled=true\nNEWBTC_trading_enabled   =   false\n"
	l := newLayout(t, "MARKET = BTC\n", feeder)

	report := newSynchronizer(l).Apply(context.Background(), []core.ListingEntry{daysAgo("NEW", 2)}, core.DefaultSettings())
	require.Equal(t, []string{l.primary}, report.Written)

	raw, err := os.ReadFile(l.feeder)
	require.NoError(t, err)
	require.Equal(t, feeder, string(raw))

	value, ok := get(t, l.primary, "MARKET")
	require.True(t, ok)
	require.Equal(t, "BTC", value)
}

func TestSynchronizer_Disabled(t *testing.T) {
	l := newLayout(t, "", "")
	settings := core.DefaultSettings()
	settings.Enabled = false

	report := newSynchronizer(l).Apply(context.Background(), []core.ListingEntry{daysAgo("NEW", 1)}, settings)
	require.Empty(t, report.Written)

	_, ok := get(t, l.primary, "NEWBTC_trading_enabled")
	require.False(t, ok)
}

func TestSynchronizer_DryRun(t *testing.T) {
	l := newLayout(t, "", "")

	report := newSynchronizer(l, WithDryRun()).Apply(context.Background(), []core.ListingEntry{daysAgo("NEW", 1)}, core.DefaultSettings())
	require.Empty(t, report.Written)
	require.Len(t, report.Changes, 2)

	_, ok := get(t, l.primary, "NEWBTC_trading_enabled")
	require.False(t, ok)
}

func TestSynchronizer_SellOnlyMode(t *testing.T) {
	l := newLayout(t, "NEWETH_sell_only_mode = false\n", "")
	settings := core.DefaultSettings()
	settings.Market = "ETH"
	settings.Mode = core.ModeSellOnly

	newSynchronizer(l).Apply(context.Background(), []core.ListingEntry{daysAgo("NEW", 0)}, settings)

	value, ok := get(t, l.primary, "NEWETH_sell_only_mode")
	require.True(t, ok)
	require.Equal(t, "true", value)
}

func TestSynchronizer_ReadFailureIsIsolated(t *testing.T) {
	l := newLayout(t, "", "")
	broken := filepath.Join(l.root, "broken")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, "pairs.json"), []byte(`{not json`), 0o644))

	report := newSynchronizer(l).Apply(context.Background(), []core.ListingEntry{daysAgo("NEW", 1)}, core.DefaultSettings())

	require.ErrorIs(t, report.Failed[filepath.Join(broken, "pairs.json")], core.ErrConfigRead)
	require.ElementsMatch(t, []string{l.primary, l.feeder}, report.Written)
}

type mockDocument struct {
	mock.Mock
}

func (m *mockDocument) Path() string { return m.Called().String(0) }

func (m *mockDocument) Get(key string) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}

func (m *mockDocument) Set(key, value string) { m.Called(key, value) }

func (m *mockDocument) Delete(key string) bool { return m.Called(key).Bool(0) }

func (m *mockDocument) Keys() []string { return m.Called().Get(0).([]string) }

func (m *mockDocument) Save() error { return m.Called().Error(0) }

func TestSynchronizer_WriteFailureIsIsolated(t *testing.T) {
	l := newLayout(t, "", "")

	failing := new(mockDocument)
	failing.On("Get", "NEWBTC_trading_enabled").Return("", false)
	failing.On("Set", "NEWBTC_trading_enabled", "false").Return()
	failing.On("Save").Return(errors.New("read-only file system"))

	opener := func(path string) (pairfile.Document, error) {
		if path == l.primary {
			return failing, nil
		}
		return pairfile.Open(path)
	}

	report := newSynchronizer(l, WithOpener(opener)).Apply(context.Background(), []core.ListingEntry{daysAgo("NEW", 1)}, core.DefaultSettings())

	failing.AssertExpectations(t)
	require.ErrorIs(t, report.Failed[l.primary], core.ErrConfigWrite)
	require.Equal(t, []string{l.feeder}, report.Written)
}
