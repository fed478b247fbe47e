package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file on change and delivers the new value
// through Changes. Only used in daemon mode (spec §4.2.4/§A.3); a
// one-shot run has no running process to apply the change to.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	Changes chan Config
}

// NewWatcher starts watching the directory containing path (fsnotify
// watches directories, not bare files, so a file replaced by an editor's
// atomic rename is still picked up).
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, fsw: fsw, logger: logger, Changes: make(chan Config, 1)}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config reload failed, keeping previous values", "error", err)
				continue
			}
			w.logger.Info("config file changed, reloaded")
			select {
			case w.Changes <- cfg:
			default:
				// drop a stale pending reload in favor of the fresh one
				select {
				case <-w.Changes:
				default:
				}
				w.Changes <- cfg
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
