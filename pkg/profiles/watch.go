package profiles

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the profile file at path whenever it changes and hands each
// good Set to onChange. It returns when ctx is cancelled.
//
// The parent directory is watched rather than the file, so editors that save
// by writing a temporary file and renaming it over path keep triggering
// reloads. A file that fails to parse is logged and the previous Set stays.
func Watch(ctx context.Context, path string, onChange func(*Set)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}

	slog.Info("profiles: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || !relevant(event) {
				continue
			}

			set, err := Load(path)
			if err != nil {
				slog.Warn("profiles: reload failed, keeping previous profiles",
					"path", path, "op", event.Op.String(), "err", err)
				continue
			}
			slog.Info("profiles: reloaded", "path", path, "parts", len(set.FillProfiles))
			onChange(set)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("profiles: watcher error", "err", err)
		}
	}
}

// relevant reports whether event can leave new content at the watched name.
// Rename and Remove are skipped; the replacement shows up as Create.
func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
