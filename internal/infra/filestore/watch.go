package filestore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/infra/logging"
)

var _ adapter.ResultNotifier = (*WatchNotifier)(nil)

// WatchNotifier turns file system events on a result document into wake-up
// signals. It does not know which id changed, so it delivers an empty id
// and the subscriber re-polls.
type WatchNotifier struct {
	shared *Shared
	log    *zerolog.Logger
}

func NewWatchNotifier(shared *Shared, logger *zerolog.Logger) *WatchNotifier {
	l := logging.Component(logger, "WatchNotifier")
	return &WatchNotifier{shared: shared, log: l}
}

// Notify is a no-op: writing the result document is the notification.
func (n *WatchNotifier) Notify(context.Context, model.WorkType, string) error { return nil }

func (n *WatchNotifier) Subscribe(ctx context.Context, wt model.WorkType) (<-chan string, error) {
	p, err := n.shared.Pipeline(wt)
	if err != nil {
		return nil, err
	}
	target := p.Results.Path()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	// Watch the directory: atomic renames replace the file's inode.
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	out := make(chan string, 1)
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
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				select {
				case out <- "":
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				n.log.Warn().Err(err).Msg("watcher error")
			}
		}
	}()
	return out, nil
}
