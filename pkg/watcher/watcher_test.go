package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raykavin/autoblacklist/pkg/logger/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcher_NotifiesOnlyForWatchedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blacklist.properties")
	require.NoError(t, os.WriteFile(path, []byte("interval = 30\n"), 0o644))

	var calls atomic.Int32
	w := New(path, func() { calls.Add(1) }, zerolog.Nop())
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.properties"), []byte("x = 1\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, calls.Load())

	require.NoError(t, os.WriteFile(path, []byte("interval = 10\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopReleasesWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blacklist.properties")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	var calls atomic.Int32
	w := New(path, func() { calls.Add(1) }, zerolog.Nop())
	require.NoError(t, w.Start())
	require.Error(t, w.Start())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	require.NoError(t, os.WriteFile(path, []byte("interval = 5\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, calls.Load())

	// a stopped watcher can be started again
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "blacklist.properties"), func() {}, zerolog.Nop())
	require.Error(t, w.Start())
}
