// Package watch triggers a callback when files under a directory tree change,
// coalescing bursts of filesystem events into a single batch.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pkg/errors"
)

// DefaultDelay is the quiet period that ends a burst of events.
const DefaultDelay = 300 * time.Millisecond

// ignoredNames are editor and OS droppings that never warrant a rebuild.
var ignoredNames = []string{".DS_Store", "4913"}

// Handler is called with the sorted, de-duplicated paths of one burst.
type Handler func(ctx context.Context, paths []string)

// Watcher watches a set of directory trees.
type Watcher struct {
	dirs    []string
	delay   time.Duration
	handler Handler
}

// New creates a Watcher over dirs. Missing directories are skipped when Run starts.
func New(handler Handler, delay time.Duration, dirs ...string) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	if len(dirs) == 0 {
		return nil, errors.New("at least one directory is required")
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{dirs: dirs, delay: delay, handler: handler}, nil
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := addTree(ctx, fsw, dir); err != nil {
			return err
		}
	}

	changes := make(chan string)
	batches := make(chan []string)
	go Debounce(ctx, changes, batches, w.delay)
	go func() {
		for {
			select {
			case batch := <-batches:
				w.handler(ctx, batch)
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(ctx, fsw, event.Name); err != nil {
						logger.G(ctx).WithError(err).Warn("failed to watch new directory")
					}
				}
			}
			logger.G(ctx).WithFields(map[string]any{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("file change detected")
			select {
			case changes <- event.Name:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "file watcher error")
		}
	}
}

func addTree(ctx context.Context, fsw *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		logger.G(ctx).WithField("dir", root).Debug("watch directory not found, skipping")
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch '%s'", path)
		}
		logger.G(ctx).WithField("dir", path).Debug("watching directory")
		return nil
	})
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	for _, name := range ignoredNames {
		if base == name {
			return false
		}
	}
	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}

// Debounce collects paths from in and sends them to out once no new path has
// arrived for delay. It returns when in is closed or ctx is done; a pending
// batch is flushed when in closes.
func Debounce(ctx context.Context, in <-chan string, out chan<- []string, delay time.Duration) {
	pending := make(map[string]struct{})
	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	flush := func() bool {
		if len(pending) == 0 {
			return true
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		sort.Strings(batch)
		pending = make(map[string]struct{})
		select {
		case out <- batch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case path, ok := <-in:
			if !ok {
				flush()
				return
			}
			pending[path] = struct{}{}
			timer.Reset(delay)
		case <-timer.C:
			if !flush() {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
