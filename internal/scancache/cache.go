// Package scancache maintains an incrementally-updated index of task markers
// across a markdown note tree.
package scancache

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/ports"
)

// Options bound the cache's freshness and scan behavior.
type Options struct {
	// Staleness is how long a completed pass may serve results without
	// touching the filesystem.
	Staleness time.Duration

	// WaitTimeout bounds how long a caller blocks on another caller's
	// in-flight pass before settling for whatever the cache holds.
	WaitTimeout time.Duration

	// BatchSize is the number of files reconciled between yield points.
	BatchSize int
}

// DefaultOptions returns the documented defaults: 30s staleness, 5s wait,
// 64-file batches.
func DefaultOptions() Options {
	return Options{
		Staleness:   30 * time.Second,
		WaitTimeout: 5 * time.Second,
		BatchSize:   64,
	}
}

type entry struct {
	tasks []domain.Task
	info  ports.FileInfo
}

// Cache answers "what are all currently-open tasks?" cheaply under external
// edits. Entries are independent per file: one file changing never touches
// another file's parse results. At most one reconciliation pass runs at a
// time; concurrent callers wait on it rather than starting their own.
type Cache struct {
	store   ports.NoteStore
	persist ports.EntryStore
	clock   func() time.Time
	logger  *log.Logger
	opts    Options

	mu       sync.Mutex // guards everything below
	entries  map[string]*entry
	lastScan time.Time
	inflight chan struct{} // non-nil while a pass runs; closed when it completes
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithLogger sets the structured logger for per-file scan failures.
func WithLogger(logger *log.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithEntryStore mirrors entries to a persistent store so later processes can
// skip re-parsing unchanged files. Persisted stamps are still verified
// against the filesystem on every pass.
func WithEntryStore(persist ports.EntryStore) Option {
	return func(c *Cache) { c.persist = persist }
}

// WithOptions replaces the default freshness bounds.
func WithOptions(opts Options) Option {
	return func(c *Cache) {
		if opts.Staleness > 0 {
			c.opts.Staleness = opts.Staleness
		}
		if opts.WaitTimeout > 0 {
			c.opts.WaitTimeout = opts.WaitTimeout
		}
		if opts.BatchSize > 0 {
			c.opts.BatchSize = opts.BatchSize
		}
	}
}

// New creates a cache over a note store. The first OpenTasks call always
// runs a reconciliation pass.
func New(store ports.NoteStore, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		clock:   time.Now,
		logger:  log.Default(),
		opts:    DefaultOptions(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.persist != nil {
		if persisted, err := c.persist.LoadAll(); err != nil {
			c.logger.Warn("could not load persisted scan entries", "err", err)
		} else {
			for path, pe := range persisted {
				c.entries[path] = &entry{tasks: pe.Tasks, info: pe.Info}
			}
		}
	}
	return c
}

// OpenTasks returns every TODO-status task across the note tree. A result
// younger than the staleness window is served without I/O. If another
// caller's pass is in flight, the call blocks for it up to WaitTimeout and
// then returns whatever the cache holds, even if stale.
func (c *Cache) OpenTasks(ctx context.Context) ([]domain.Task, error) {
	c.mu.Lock()

	if c.inflight == nil && !c.lastScan.IsZero() && c.clock().Sub(c.lastScan) < c.opts.Staleness {
		tasks := c.openLocked()
		c.mu.Unlock()
		return tasks, nil
	}

	if done := c.inflight; done != nil {
		c.mu.Unlock()
		timer := time.NewTimer(c.opts.WaitTimeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		case <-ctx.Done():
		}
		c.mu.Lock()
		tasks := c.openLocked()
		c.mu.Unlock()
		return tasks, nil
	}

	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	err := c.reconcile(ctx)

	c.mu.Lock()
	c.inflight = nil
	if err == nil {
		c.lastScan = c.clock()
	}
	tasks := c.openLocked()
	c.mu.Unlock()
	close(done)

	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// openLocked filters cached entries to open tasks in discovery order: files
// sorted by path, tasks in line order within each file. Caller holds the
// lock.
func (c *Cache) openLocked() []domain.Task {
	paths := make([]string, 0, len(c.entries))
	for path := range c.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var open []domain.Task
	for _, path := range paths {
		for _, t := range c.entries[path].tasks {
			if t.Open() {
				open = append(open, t)
			}
		}
	}
	return open
}

// reconcile brings every entry in line with the file tree. Unchanged files
// are never re-read; changed or new files are re-parsed and replaced as a
// unit; vanished files have their entries dropped. A single file failing to
// read contributes zero tasks and never aborts the pass.
func (c *Cache) reconcile(ctx context.Context) error {
	files, err := c.store.List()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(files))
	for start := 0; start < len(files); start += c.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+c.opts.BatchSize, len(files))
		for _, path := range files[start:end] {
			seen[path] = true
			c.reconcileFile(path)
		}
		// Yield between batches so a large tree cannot starve other work.
		runtime.Gosched()
	}

	c.mu.Lock()
	var dropped []string
	for path := range c.entries {
		if !seen[path] {
			delete(c.entries, path)
			dropped = append(dropped, path)
		}
	}
	c.mu.Unlock()
	for _, path := range dropped {
		c.persistDelete(path)
	}
	return nil
}

func (c *Cache) reconcileFile(path string) {
	info, err := c.store.Stat(path)
	if err != nil {
		// Stat failure means the file is gone or unreadable; either way it
		// contributes nothing this pass.
		c.logger.Warn("stat failed during scan", "file", path, "err", err)
		c.mu.Lock()
		delete(c.entries, path)
		c.mu.Unlock()
		c.persistDelete(path)
		return
	}

	c.mu.Lock()
	prior, ok := c.entries[path]
	c.mu.Unlock()
	if ok && prior.info.Version == info.Version && prior.info.ModTime.Equal(info.ModTime) {
		return
	}

	note, err := c.store.Read(path)
	if err != nil {
		c.logger.Warn("read failed during scan", "file", path, "err", err)
		c.mu.Lock()
		c.entries[path] = &entry{}
		c.mu.Unlock()
		c.persistPut(path, ports.CachedEntry{})
		return
	}

	tasks := ParseNote(note)
	c.mu.Lock()
	c.entries[path] = &entry{tasks: tasks, info: note.Info}
	c.mu.Unlock()
	c.persistPut(path, ports.CachedEntry{Tasks: tasks, Info: note.Info})
}

func (c *Cache) persistPut(path string, e ports.CachedEntry) {
	if c.persist == nil {
		return
	}
	if err := c.persist.Put(path, e); err != nil {
		c.logger.Warn("could not persist scan entry", "file", path, "err", err)
	}
}

func (c *Cache) persistDelete(path string) {
	if c.persist == nil {
		return
	}
	if err := c.persist.Delete(path); err != nil {
		c.logger.Warn("could not drop persisted scan entry", "file", path, "err", err)
	}
}

// Invalidate clears one file's entry so the next OpenTasks call re-parses
// that file (and only that file).
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.lastScan = time.Time{}
	c.mu.Unlock()
	c.persistDelete(path)
}

// Reset drops the entire cache. Used when the configured root changes.
func (c *Cache) Reset() {
	c.mu.Lock()
	paths := make([]string, 0, len(c.entries))
	for path := range c.entries {
		paths = append(paths, path)
	}
	c.entries = make(map[string]*entry)
	c.lastScan = time.Time{}
	c.mu.Unlock()
	for _, path := range paths {
		c.persistDelete(path)
	}
}

// Stats summarizes the cache contents for logging and the watch command.
type Stats struct {
	Files    int
	Tasks    int
	Open     int
	LastScan time.Time
}

// Stats reports counts over the current entries without any I/O.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Files: len(c.entries), LastScan: c.lastScan}
	for _, e := range c.entries {
		s.Tasks += len(e.tasks)
		for _, t := range e.tasks {
			if t.Open() {
				s.Open++
			}
		}
	}
	return s
}

// ParseNote runs the marker parser over every line of a note.
func ParseNote(note ports.Note) []domain.Task {
	var tasks []domain.Task
	for i, line := range note.Lines {
		if t, ok := domain.ParseMarker(note.Path, i, line); ok {
			tasks = append(tasks, t)
		}
	}
	return tasks
}
