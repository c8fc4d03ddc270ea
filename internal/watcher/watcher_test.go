package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacpac/internal/console"
)

func TestWatcher_RebuildsOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "index.js")
	require.NoError(t, os.WriteFile(entry, []byte("export function a() {}\n"), 0o644))

	var calls atomic.Int32
	changed := make(chan struct{}, 8)
	w := New(dir, console.Discard(), func(context.Context) error {
		calls.Add(1)
		changed <- struct{}{}
		return nil
	})
	w.Debounce = 50 * time.Millisecond
	w.Generated = []string{"rollup.config.js"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register its directories.
	time.Sleep(200 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(entry, []byte("export function b() {}\n"), 0o644))
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after writing the entry file")
	}

	// Output files never trigger a rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.mkshftpb.js"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rollup.config.js"), []byte("export default {};\n"), 0o644))
	time.Sleep(300 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, int32(1), calls.Load())
}
