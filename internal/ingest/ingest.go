package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"github.com/charmbracelet/log"
)

// Defaults for [Config] fields left at their zero value.
const (
	DefaultMaxSizeMB      = 2
	DefaultMaxDimensionPx = 900
)

// Config bounds what the pipeline accepts and what it emits.
type Config struct {
	MaxSizeMB      int  // raw upload ceiling in megabytes
	MaxEncodedKB   int  // stored-size ceiling for the emitted value; 0 means none
	MaxDimensionPx int  // longest side when the image has to be recompressed
	Disabled       bool // reject picker and drop interactions
	Required       bool // the surrounding form treats an empty value as invalid
}

func (c Config) withDefaults() Config {
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.MaxDimensionPx <= 0 {
		c.MaxDimensionPx = DefaultMaxDimensionPx
	}
	return c
}

func (c Config) maxRawBytes() int64 { return int64(c.MaxSizeMB) << 20 }

func (c Config) maxEncodedBytes() int { return c.MaxEncodedKB * 1024 }

// FileMeta records the name and declared size of the most recently accepted
// file, for display next to the widget.
type FileMeta struct {
	Name      string
	SizeBytes int64
}

// Ingestor validates, encodes and emits cover images. All methods are safe
// for concurrent use. The sink must not call back into the Ingestor.
//
// A rejected file never overwrites a previously emitted value: on any
// validation or encoding failure the sink is not called and only the
// session's error text changes.
type Ingestor struct {
	logger *log.Logger
	sink   func(string)

	mu         sync.Mutex
	cfg        Config
	seq        uint64 // latest ingestion attempt; stale completions are discarded
	resetToken string
	destroyed  bool
	dragActive bool
	lastErr    string
	meta       *FileMeta
}

// New creates an [Ingestor] that emits encoded values through sink. A nil
// sink discards emissions; a nil logger falls back to stderr.
func New(cfg Config, sink func(string), logger *log.Logger) *Ingestor {
	if sink == nil {
		sink = func(string) {}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Ingestor{
		logger: logger,
		sink:   sink,
		cfg:    cfg.withDefaults(),
	}
}

// SelectFile ingests the file at path. It is a silent no-op while the
// session is destroyed or disabled. The returned error is also recorded on
// the session for inline display.
func (i *Ingestor) SelectFile(path string) error {
	i.mu.Lock()
	if i.destroyed || i.cfg.Disabled {
		i.mu.Unlock()
		return nil
	}
	i.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return i.reject(fmt.Errorf("%w: %s", shared.ErrFileNotFound, path))
		}
		return i.reject(fmt.Errorf("%w: %v, try again", shared.ErrReadFailed, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return i.reject(fmt.Errorf("%w: %v, try again", shared.ErrReadFailed, err))
	}
	if info.IsDir() {
		return i.reject(fmt.Errorf("%w: %s is a directory", shared.ErrNotAnImage, path))
	}

	return i.SelectReader(filepath.Base(path), info.Size(), f)
}

// SelectReader ingests an image from r. name and size are the file's
// declared name and size; size is validated against the raw ceiling before
// the contents are read in full.
//
// The read and any recompression run without the session lock, so a newer
// selection can supersede a slow one. Each attempt is tagged with a sequence
// number at start and its result is applied only if it is still the latest,
// which keeps overlapping ingestions from completing out of order.
func (i *Ingestor) SelectReader(name string, size int64, r io.Reader) error {
	i.mu.Lock()
	if i.destroyed || i.cfg.Disabled {
		i.mu.Unlock()
		return nil
	}
	i.seq++
	attempt := i.seq
	cfg := i.cfg
	i.mu.Unlock()

	encoded, err := i.encode(cfg, name, size, r)

	i.mu.Lock()
	defer i.mu.Unlock()
	if attempt != i.seq || i.destroyed {
		// A newer selection, clear or reset superseded this attempt.
		i.logger.Debug("discarding stale ingestion", "file", name, "attempt", attempt)
		return nil
	}
	if err != nil {
		i.lastErr = err.Error()
		i.logger.Warn("cover rejected", "file", name, "error", err)
		return err
	}

	i.lastErr = ""
	i.meta = &FileMeta{Name: name, SizeBytes: size}
	i.logger.Debug("cover accepted", "file", name, "size", shared.FormatByteSize(size), "encoded", shared.FormatByteSize(int64(len(encoded))))
	i.sink(encoded)
	return nil
}

// reject records err on the session unless a concurrent interaction already
// moved it on, then returns err for the caller.
func (i *Ingestor) reject(err error) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return nil
	}
	i.lastErr = err.Error()
	return err
}

// Clear emits the empty value and resets metadata and error state. It works
// regardless of prior state, including a destroyed session, and invalidates
// any in-flight ingestion so the same file can be selected again.
func (i *Ingestor) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.seq++
	i.lastErr = ""
	i.meta = nil
	i.sink("")
}

// Destroy transitions the session to destroyed and emits the empty value.
// Selection and drag interactions become silent no-ops until [Ingestor.Reinitialize].
// Destroying an already destroyed session does nothing.
func (i *Ingestor) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.seq++
	i.lastErr = ""
	i.meta = nil
	i.sink("")
}

// Reinitialize clears the destroyed flag and all transient state. It does
// not call the sink: a previously cleared image is not restored.
func (i *Ingestor) Reinitialize() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.destroyed = false
	i.dragActive = false
	i.lastErr = ""
	i.meta = nil
	i.seq++
}

// ResetSession resets all transient state (error, metadata, drag flag,
// destroyed flag) whenever token differs from the one last seen. It never
// calls the sink; the externally owned image value is deliberately left
// untouched.
func (i *Ingestor) ResetSession(token string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if token == i.resetToken {
		return
	}
	i.resetToken = token
	i.destroyed = false
	i.dragActive = false
	i.lastErr = ""
	i.meta = nil
	i.seq++
}

// SetDragActive toggles the transient drag highlight. No-op while destroyed
// or disabled.
func (i *Ingestor) SetDragActive(active bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed || i.cfg.Disabled {
		return
	}
	i.dragActive = active
}

// SetDisabled toggles whether selection interactions are accepted.
func (i *Ingestor) SetDisabled(disabled bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cfg.Disabled = disabled
}

// LastError returns the inline error text from the most recent rejected
// interaction, or "" when the last interaction succeeded.
func (i *Ingestor) LastError() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastErr
}

// Meta returns a copy of the accepted file's metadata, or nil when no file
// has been accepted since the last clear or reset.
func (i *Ingestor) Meta() *FileMeta {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.meta == nil {
		return nil
	}
	m := *i.meta
	return &m
}

func (i *Ingestor) DragActive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.dragActive
}

func (i *Ingestor) Destroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}

func (i *Ingestor) Disabled() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cfg.Disabled
}

func (i *Ingestor) Required() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cfg.Required
}
