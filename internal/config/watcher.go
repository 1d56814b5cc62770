package config

import (
	"mcp-gateway/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// WatchForChanges watches path (the config file actually loaded, as
// returned by Load) and logs when it's edited. The running gateway never
// hot-reloads upstream connections from a config edit (spec.md §1
// non-goals: no persistent state or live reconfiguration), so this is
// purely a developer-loop nudge: a log line telling whoever is iterating on
// config.yaml to restart the process to pick it up. Returns a stop function;
// callers should defer it. A watcher that fails to start (e.g. path does
// not exist yet) logs a warning and returns a no-op stop function.
func WatchForChanges(path string) (stop func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("ConfigWatcher", "could not start config file watcher: %v", err)
		return func() {}
	}

	if err := watcher.Add(path); err != nil {
		logging.Warn("ConfigWatcher", "could not watch %s: %v", path, err)
		_ = watcher.Close()
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					logging.Info("ConfigWatcher", "%s changed, restart to apply", path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("ConfigWatcher", "watch error on %s: %v", path, err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = watcher.Close()
	}
}
