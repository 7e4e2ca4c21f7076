package shader

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/avenir/engine/core"
)

// Editors save in bursts of writes and renames; only the quiet period after
// the last one posts the reload event.
const debounceDelay = 200 * time.Millisecond

// Watcher posts EVENT_CODE_SHADERS_CHANGED when a .wgsl file under the
// watched directory changes. The event goes through the posted queue, so the
// engine picks it up between frames and never mid-draw.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching dir for shader changes. Close releases the
// watch and stops the goroutine.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.run()
	core.LogInfo("watching %s for shader changes", dir)
	return w, nil
}

func (w *Watcher) run() {
	timer := time.NewTimer(debounceDelay)
	if !timer.Stop() {
		<-timer.C
	}
	var changed string
	for {
		select {
		case <-w.done:
			timer.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".wgsl" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			changed = event.Name
			timer.Reset(debounceDelay)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("shader watch error: %s", err.Error())
		case <-timer.C:
			var context core.EventContext
			context.Data.C[0] = changed
			core.EventPost(core.EVENT_CODE_SHADERS_CHANGED, nil, context)
		}
	}
}

// Close stops the watcher goroutine and releases the underlying watch.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
