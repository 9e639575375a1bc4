// Package watch reports changes to a weather info file.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/weather-bot/meow/internal/logger"
)

// Watcher signals on Events after path changes. The directory is watched
// rather than the file so editors that replace the file are still seen.
// Bursts of writes within the debounce window produce one signal.
type Watcher struct {
	path     string
	events   chan struct{}
	done     chan struct{}
	fsw      *fsnotify.Watcher
	once     sync.Once
	polling  atomic.Bool
	interval time.Duration
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		interval: time.Second,
		debounce: debounce,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.InfoModule("watch", "fsnotify unavailable, polling %s: %v", abs, err)
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		logger.InfoModule("watch", "cannot watch %s, polling: %v", filepath.Dir(abs), err)
		fsw.Close()
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	w.fsw = fsw
	go w.watch()
	return w, nil
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.trigger()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.WarnModule("watch", "fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) poll() {
	lastMod := w.modTime()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if mod := w.modTime(); mod.After(lastMod) {
				lastMod = mod
				w.trigger()
			}
		}
	}
}

func (w *Watcher) modTime() time.Time {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (w *Watcher) trigger() {
	if w.debounce <= 0 {
		w.notify()
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.notify)
}

// notify never blocks; a pending signal absorbs new ones.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	return err
}
