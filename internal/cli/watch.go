package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/fsnotify.v1"
)

// inputWatcher reports changes to the files a rewriting depends on.
//
// Editors often save by renaming a new file over the old one, which drops
// a watch on the file itself, so the parent directories are watched and
// events are filtered by name. A watched directory (a CUE package) matches
// every .cue file inside it.
type inputWatcher struct {
	w     *fsnotify.Watcher
	files map[string]bool
	dirs  map[string]bool
}

func newInputWatcher(paths []string) (*inputWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	iw := &inputWatcher{w: w, files: map[string]bool{}, dirs: map[string]bool{}}

	watched := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		dir := filepath.Dir(abs)
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			iw.dirs[abs] = true
			dir = abs
		} else {
			iw.files[abs] = true
		}
		if watched[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
		watched[dir] = true
	}
	return iw, nil
}

// relevant reports whether an event on name concerns an input.
func (iw *inputWatcher) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if iw.files[abs] {
		return true
	}
	return iw.dirs[filepath.Dir(abs)] && filepath.Ext(abs) == ".cue"
}

// Run calls onChange after every write, create or rename of an input,
// until ctx is done.
func (iw *inputWatcher) Run(ctx context.Context, logger *slog.Logger, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-iw.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !iw.relevant(ev.Name) {
				continue
			}
			logger.Info("input changed", "file", ev.Name, "op", ev.Op.String())
			onChange()
		case err, ok := <-iw.w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func (iw *inputWatcher) Close() error {
	return iw.w.Close()
}
