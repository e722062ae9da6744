package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// dropDebounceDelay batches the create/write bursts editors and file
// managers produce while a file is still being copied in.
const dropDebounceDelay = 200 * time.Millisecond

// DropWatcher feeds files appearing in a directory to an [Ingestor].
type DropWatcher struct {
	ingestor *Ingestor
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDropWatcher watches dir for new files. A nil logger falls back to
// stderr.
func NewDropWatcher(ingestor *Ingestor, dir string, logger *log.Logger) (*DropWatcher, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create drop watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &DropWatcher{
		ingestor: ingestor,
		watcher:  watcher,
		logger:   logger,
		debounce: dropDebounceDelay,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Watch blocks until ctx is canceled or the underlying watcher closes,
// ingesting each dropped file once its writes have settled. Hidden files are
// ignored.
func (d *DropWatcher) Watch(ctx context.Context) error {
	d.logger.Debug("drop watcher started")

	for {
		select {
		case <-ctx.Done():
			d.stopTimers()
			return nil
		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			d.schedule(event.Name)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Error("drop watcher error", "error", err)
		}
	}
}

// Close stops pending ingestions and releases the underlying watcher.
func (d *DropWatcher) Close() error {
	d.stopTimers()
	return d.watcher.Close()
}

// schedule (re)arms the debounce timer for path. The drag flag covers the
// debounce window, while a candidate file is still settling.
func (d *DropWatcher) schedule(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[path]; ok {
		timer.Stop()
	}
	d.timers[path] = time.AfterFunc(d.debounce, func() { d.ingest(path) })
	d.ingestor.SetDragActive(true)
}

func (d *DropWatcher) ingest(path string) {
	d.mu.Lock()
	delete(d.timers, path)
	pending := len(d.timers)
	d.mu.Unlock()

	// The flag drops when the last pending candidate starts ingesting.
	if pending == 0 {
		d.ingestor.SetDragActive(false)
	}

	d.logger.Debug("ingesting dropped file", "file", filepath.Base(path))
	if err := d.ingestor.SelectFile(path); err != nil {
		d.logger.Warn("dropped file rejected", "file", filepath.Base(path), "error", err)
	}
}

func (d *DropWatcher) stopTimers() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, timer := range d.timers {
		timer.Stop()
		delete(d.timers, path)
	}
	d.ingestor.SetDragActive(false)
}
