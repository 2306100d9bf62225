package rvtools

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultDebounce = 2 * time.Second

// Watcher calls onChange once a burst of workbook changes in a directory has
// settled. Workbooks are usually copied in place, which produces several
// write events per file.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(ctx context.Context)
}

func NewWatcher(dir string, debounce time.Duration, onChange func(ctx context.Context)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, onChange: onChange}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create workbook watcher")
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.dir)
	}
	zap.S().Named("rvtools").Infow("watching workbook directory", "dir", w.dir, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !IsWorkbookName(event.Name) || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			zap.S().Named("rvtools").Debugw("workbook changed", "path", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			zap.S().Named("rvtools").Errorw("workbook watcher error", "error", err)
		case <-timer.C:
			pending = false
			w.onChange(ctx)
		}
	}
}
