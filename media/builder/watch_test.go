package builder

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeforge/assetpipe/logging"
)

func TestWatch_DebouncesAndRebuilds(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(out, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	var rebuilds atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 50*time.Millisecond, func(context.Context) error {
			rebuilds.Add(1)
			return nil
		}, WithWatchLogger(logging.NewNop()), WithIgnore(out))
	}()

	// Give the watcher time to register the tree.
	time.Sleep(200 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte{byte(i)}, 0o644))
	}
	assert.Eventually(t, func() bool { return rebuilds.Load() == 1 }, 3*time.Second, 20*time.Millisecond)

	// Writes into the ignored output directory do not trigger a rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(out, "a_100w.jpg"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), rebuilds.Load())

	// New directories are picked up.
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Eventually(t, func() bool { return rebuilds.Load() == 2 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.png"), []byte("b"), 0o644))
	assert.Eventually(t, func() bool { return rebuilds.Load() == 3 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchConfig_Skip(t *testing.T) {
	var cfg watchConfig
	WithIgnore("/tmp/site/dist")(&cfg)

	assert.True(t, cfg.skip("/tmp/site/.DS_Store"))
	assert.True(t, cfg.skip("/tmp/site/dist/a_100w.jpg"))
	assert.True(t, cfg.skip("/tmp/site/dist"))
	assert.False(t, cfg.skip("/tmp/site/distant/a.png"))
	assert.False(t, cfg.skip("/tmp/site/images/a.png"))
}

func TestNormalizeRel(t *testing.T) {
	assert.Equal(t, "a/b.png", normalizeRel("./a/b.png"))
	assert.Equal(t, "a/b.png", normalizeRel("/a/b.png"))
	assert.Equal(t, "a/b.png", normalizeRel("a\\b.png"))
}
