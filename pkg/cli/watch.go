package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits for more events before
// replaying changed files.
const defaultDebounce = 200 * time.Millisecond

// fileWatcher replays scenario files when they change on disk.
//
// Parent directories are watched rather than the files themselves so that
// editors which save by rename keep triggering events.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	logger   *slog.Logger
	onChange func(paths []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

func newFileWatcher(paths []string, debounce time.Duration, logger *slog.Logger, onChange func([]string)) (*fileWatcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	fw := &fileWatcher{
		watcher:  w,
		files:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		logger:   logger,
		onChange: onChange,
		pending:  make(map[string]struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		fw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logger.Debug("watching directory", "dir", dir)
	}
	return fw, nil
}

// run processes events until ctx is cancelled or the watcher fails.
func (fw *fileWatcher) run(ctx context.Context) error {
	defer fw.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("watcher error", "error", err)
		}
	}
}

func (fw *fileWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := fw.files[abs]; !ok {
		return
	}

	fw.logger.Debug("file changed", "path", abs, "op", event.Op.String())

	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.pending[abs] = struct{}{}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.flush)
}

func (fw *fileWatcher) flush() {
	fw.mu.Lock()
	paths := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		paths = append(paths, p)
	}
	fw.pending = make(map[string]struct{})
	fw.timer = nil
	fw.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	fw.onChange(paths)
}

func (fw *fileWatcher) stop() {
	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
	fw.mu.Unlock()
	_ = fw.watcher.Close()
}
