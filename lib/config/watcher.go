package config

import (
	"log/slog"
	"time"

	"github.com/jhenstridge/go-inotify"
)

// Watch reloads the config whenever the file is rewritten and hands each
// valid new config to onReload. Invalid rewrites are logged and skipped, so
// a half-saved file never replaces a running config. Blocks; run it in its
// own goroutine.
func Watch(path string, onReload func(*Config)) {
	log := slog.With("module", "config")

	watcher, err := inotify.NewWatcher()
	if err != nil {
		log.Error("could not create inotify watcher", "err", err)
		return
	}
	defer func(watcher *inotify.Watcher) {
		err := watcher.Close()
		if err != nil {
			return
		}
	}(watcher)

	_, err = watcher.Watch(path)
	if err != nil {
		log.Error("could not watch config file", "path", path, "err", err)
		return
	}

	for ev := range watcher.Event {
		if ev.Mask&inotify.IN_CLOSE_WRITE == 0 {
			continue
		}
		log.Debug("reloading config due to inotify event", "path", path)
		// editors often replace-and-rename; give them a moment to settle
		time.Sleep(100 * time.Millisecond)

		cfg, err := Parse(path)
		if err != nil {
			log.Error("ignoring invalid config rewrite", "err", err)
			continue
		}
		onReload(cfg)
	}
}
