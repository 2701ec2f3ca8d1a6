package registry

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/loader"
)

// Handle is a slot index in the registry table.
type Handle int

// InvalidHandle is returned when a library could not be loaded.
const InvalidHandle Handle = -1

// DefaultGrowth is the number of slots added each time the table is full.
const DefaultGrowth = 4

type entry struct {
	name     string
	lib      loader.Library
	table    *EntryPoints
	useCount int
	static   bool
}

func (e *entry) loaded() bool {
	return e.table != nil
}

// Option configures a Registry.
type Option func(*Registry)

// WithGrowth sets how many slots are appended when the table is full.
func WithGrowth(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.growth = n
		}
	}
}

// WithLogger sets the logger used by one registry.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSingleLibrary allows at most one loaded library at a time. Binding a
// second, different library while one is loaded is a contract error.
func WithSingleLibrary() Option {
	return func(r *Registry) {
		r.single = true
	}
}

// Registry is a refcounted table of loaded client libraries.
type Registry struct {
	mu      sync.Mutex
	loader  loader.Loader
	entries []entry
	growth  int
	logger  *zap.Logger
	single  bool
	closed  bool
}

// New creates a registry that opens libraries with l.
func New(l loader.Loader, opts ...Option) *Registry {
	r := &Registry{
		loader: l,
		growth: DefaultGrowth,
		logger: Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// findLib returns the slot holding name and bumps its use count, or -1.
// The scan stops at the first unnamed slot.
func (r *Registry) findLib(name string) int {
	for i := range r.entries {
		e := &r.entries[i]
		if e.name == "" {
			break
		}
		if e.name == name {
			e.useCount++
			return i
		}
	}
	return -1
}

// freeSlot returns the first unnamed slot, growing the table if needed.
func (r *Registry) freeSlot() int {
	for i := range r.entries {
		if r.entries[i].name == "" {
			return i
		}
	}
	i := len(r.entries)
	r.entries = append(r.entries, make([]entry, r.growth)...)
	r.logger.Debug("registry grown", zap.Int("slots", len(r.entries)))
	return i
}

// boundOther returns the name of a loaded library other than name.
func (r *Registry) boundOther(name string) (string, bool) {
	for i := range r.entries {
		e := &r.entries[i]
		if e.loaded() && e.name != name {
			return e.name, true
		}
	}
	return "", false
}

// LoadInterface loads the named library, or takes another reference to it
// when already loaded. A library that cannot be opened or lacks a required
// entry point yields (InvalidHandle, false) so callers can try another name.
func (r *Registry) LoadInterface(name string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.load(name)
	return h, err == nil
}

func (r *Registry) load(name string) (Handle, error) {
	if r.closed {
		return InvalidHandle, errors.Contract(errors.PhaseRegistry, "registry closed")
	}
	if name == "" {
		return InvalidHandle, errors.InvalidInput(errors.PhaseRegistry, []string{"name"}, "empty library name")
	}

	i := r.findLib(name)
	if i >= 0 && r.entries[i].loaded() {
		r.logger.Debug("library reused",
			zap.String("name", name),
			zap.Int("handle", i),
			zap.Int("use_count", r.entries[i].useCount))
		return Handle(i), nil
	}
	if r.single {
		if other, ok := r.boundOther(name); ok {
			if i >= 0 {
				r.entries[i].useCount--
			}
			return InvalidHandle, errors.New(errors.PhaseRegistry, errors.KindContract).
				Value(name).
				Detail("library %q already bound", other).
				Build()
		}
	}

	lib, err := r.loader.Open(name)
	if err == nil {
		var table *EntryPoints
		table, err = ResolveEntryPoints(lib)
		if err == nil {
			if i < 0 {
				i = r.freeSlot()
			}
			r.entries[i] = entry{name: name, lib: lib, table: table, useCount: 1}
			r.logger.Debug("library loaded", zap.String("name", name), zap.Int("handle", i))
			return Handle(i), nil
		}
		if cerr := lib.Close(); cerr != nil {
			r.logger.Warn("failed to close library after resolve error",
				zap.String("name", name), zap.Error(cerr))
		}
	}

	if i >= 0 {
		r.entries[i].useCount--
	}
	r.logger.Debug("library load failed", zap.String("name", name), zap.Error(err))
	return InvalidHandle, err
}

func (r *Registry) inUse(h Handle) (*entry, error) {
	if r.closed {
		return nil, errors.Contract(errors.PhaseRegistry, "registry closed")
	}
	if h < 0 || int(h) >= len(r.entries) {
		return nil, errors.OutOfBounds(errors.PhaseRegistry, []string{"handle"}, int(h), len(r.entries))
	}
	e := &r.entries[h]
	if !e.loaded() || e.useCount <= 0 {
		return nil, errors.New(errors.PhaseRegistry, errors.KindContract).
			Value(int(h)).
			Detail("handle %d not in use", h).
			Build()
	}
	return e, nil
}

// ReleaseInterface drops one reference. The last release unloads the
// library; the slot keeps its name for a later reload.
func (r *Registry) ReleaseInterface(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.inUse(h)
	if err != nil {
		return err
	}
	e.useCount--
	if e.useCount > 0 {
		r.logger.Debug("library released",
			zap.String("name", e.name),
			zap.Int("handle", int(h)),
			zap.Int("use_count", e.useCount))
		return nil
	}
	r.logger.Debug("library unloaded", zap.String("name", e.name), zap.Int("handle", int(h)))
	return r.unload(e)
}

func (r *Registry) unload(e *entry) error {
	lib := e.lib
	e.lib = nil
	e.table = nil
	e.useCount = 0
	e.static = false
	if lib == nil {
		return nil
	}
	if err := lib.Close(); err != nil {
		return errors.Wrap(errors.PhaseRegistry, errors.KindLoadFailed, err, "unload "+e.name)
	}
	return nil
}

// GetInterface returns the entry points behind h without changing its count.
// The table must be treated as read-only.
func (r *Registry) GetInterface(h Handle) (*EntryPoints, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.inUse(h)
	if err != nil {
		return nil, err
	}
	return e.table, nil
}

// AddInterface registers an already resolved table under name, for
// statically bound clients. Registering an equal table under a loaded name
// takes another reference to it; a different table is rejected.
func (r *Registry) AddInterface(name string, table *EntryPoints) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return InvalidHandle, errors.Contract(errors.PhaseRegistry, "registry closed")
	}
	if name == "" || table == nil {
		return InvalidHandle, errors.InvalidInput(errors.PhaseRegistry, nil, "name and table are required")
	}

	own := *table
	i := r.findLib(name)
	if i >= 0 {
		e := &r.entries[i]
		if e.loaded() {
			if *e.table == own {
				return Handle(i), nil
			}
			e.useCount--
			return InvalidHandle, errors.New(errors.PhaseRegistry, errors.KindMismatch).
				Value(name).
				Detail("library %q already registered with different entry points", name).
				Build()
		}
		*e = entry{name: name, table: &own, useCount: 1, static: true}
		return Handle(i), nil
	}

	i = r.freeSlot()
	r.entries[i] = entry{name: name, table: &own, useCount: 1, static: true}
	r.logger.Debug("static interface added", zap.String("name", name), zap.Int("handle", i))
	return Handle(i), nil
}

// Acquire loads the first candidate that succeeds and returns a lease on it.
func (r *Registry) Acquire(names ...string) (*Lease, error) {
	if len(names) == 0 {
		return nil, errors.InvalidInput(errors.PhaseRegistry, nil, "no library names")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var causes error
	for _, name := range names {
		h, err := r.load(name)
		if err == nil {
			return &Lease{reg: r, handle: h, name: name, table: r.entries[h].table}, nil
		}
		if errors.IsContract(err) {
			return nil, err
		}
		causes = multierr.Append(causes, fmt.Errorf("%s: %w", name, err))
	}
	return nil, errors.LoadFailed(names, causes)
}

// UseCount returns the reference count of h, or 0 for unknown handles.
func (r *Registry) UseCount(h Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h < 0 || int(h) >= len(r.entries) {
		return 0
	}
	return r.entries[h].useCount
}

// Name returns the name stored in slot h.
func (r *Registry) Name(h Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h < 0 || int(h) >= len(r.entries) {
		return ""
	}
	return r.entries[h].name
}

// Len returns the number of named slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.entries {
		if r.entries[i].name == "" {
			break
		}
		n++
	}
	return n
}

// Cap returns the table size including unnamed slots.
func (r *Registry) Cap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// EntryInfo describes one named slot.
type EntryInfo struct {
	Handle   Handle
	Name     string
	UseCount int
	Loaded   bool
	Static   bool
}

// Entries returns a snapshot of every named slot.
func (r *Registry) Entries() []EntryInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []EntryInfo
	for i := range r.entries {
		e := &r.entries[i]
		if e.name == "" {
			break
		}
		out = append(out, EntryInfo{
			Handle:   Handle(i),
			Name:     e.name,
			UseCount: e.useCount,
			Loaded:   e.loaded(),
			Static:   e.static,
		})
	}
	return out
}

// Close unloads every library still loaded, whatever its use count.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	for i := range r.entries {
		e := &r.entries[i]
		if e.loaded() {
			if e.useCount > 0 {
				r.logger.Debug("closing library with live references",
					zap.String("name", e.name), zap.Int("use_count", e.useCount))
			}
			err = multierr.Append(err, r.unload(e))
		}
	}
	r.entries = nil
	return err
}
