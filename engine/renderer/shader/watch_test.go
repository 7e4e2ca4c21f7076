package shader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/avenir/engine/core"
)

func setupWatchEvents(t *testing.T) {
	t.Helper()
	if !core.EventInitialize() {
		require.NoError(t, core.EventShutdown())
		require.True(t, core.EventInitialize())
	}
	core.EventPump()
	t.Cleanup(func() { _ = core.EventShutdown() })
}

// pumpUntil pumps posted events until the condition holds or the deadline
// passes.
func pumpUntil(t *testing.T, deadline time.Duration, condition func() bool) bool {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		core.EventPump()
		if condition() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	core.EventPump()
	return condition()
}

func TestWatcherPostsEventOnShaderChange(t *testing.T) {
	setupWatchEvents(t)

	var changed string
	_, ok := core.EventRegister(core.EVENT_CODE_SHADERS_CHANGED, nil, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		changed = data.Data.C[0]
		return true
	})
	require.True(t, ok)

	dir := t.TempDir()
	watcher, err := NewWatcher(dir)
	require.NoError(t, err)
	defer watcher.Close()

	path := filepath.Join(dir, "scene.vert.wgsl")
	require.NoError(t, os.WriteFile(path, []byte("// edited\n"), 0o644))

	require.True(t, pumpUntil(t, 5*time.Second, func() bool { return changed != "" }),
		"no reload event arrived")
	assert.Equal(t, path, changed)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	setupWatchEvents(t)

	fired := false
	_, ok := core.EventRegister(core.EVENT_CODE_SHADERS_CHANGED, nil, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		fired = true
		return true
	})
	require.True(t, ok)

	dir := t.TempDir()
	watcher, err := NewWatcher(dir)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a shader"), 0o644))

	// Well past the debounce window; nothing may arrive.
	pumpUntil(t, 600*time.Millisecond, func() bool { return fired })
	assert.False(t, fired)
}

func TestWatcherRejectsMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
