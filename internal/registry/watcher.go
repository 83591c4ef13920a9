package registry

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Event signals that the plugin directory changed and a re-discovery
// may be warranted.
type Event struct {
	Path string
	Op   string
}

// Watch emits an Event whenever a manifest under root is created,
// modified, or removed. The channel closes when ctx is cancelled or
// the underlying watcher fails.
func Watch(ctx context.Context, root string) (<-chan Event, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(root); err != nil {
		w.Close()
		return nil, err
	}

	// Manifests live one level down, so watch existing subdirectories
	// too. New subdirectories are picked up from create events on root.
	matches, _ := filepath.Glob(filepath.Join(root, "*"))
	for _, m := range matches {
		_ = w.Add(m)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Create) {
					// Could be a new plugin directory.
					_ = w.Add(ev.Name)
				}
				if filepath.Base(ev.Name) != ManifestFileName && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Remove) {
					continue
				}
				select {
				case out <- Event{Path: ev.Name, Op: ev.Op.String()}:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}
