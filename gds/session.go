package gds

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/arena"
	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/registry"
	"github.com/wippyai/fbnative/status"
	"github.com/wippyai/fbnative/xsqlda"
)

// Option configures a Session.
type Option func(*Session)

// WithCaller replaces the native caller.
func WithCaller(c Caller) Option {
	return func(s *Session) {
		s.caller = c
	}
}

// WithMemory sets the memory used to read strings referenced by status
// vectors.
func WithMemory(m fbnative.Memory) Option {
	return func(s *Session) {
		s.mem = m
	}
}

// WithDialect sets the SQL dialect passed to DSQL calls.
func WithDialect(d int) Option {
	return func(s *Session) {
		s.dialect = d
	}
}

// WithChunkSize sets the chunk size of every arena the session creates.
func WithChunkSize(n int) Option {
	return func(s *Session) {
		s.chunkSize = n
	}
}

// WithLogger sets the logger for one session.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session issues client API calls through one leased entry-point table.
// A Session is used by one goroutine at a time.
type Session struct {
	id        string
	lease     *registry.Lease
	eps       *registry.EntryPoints
	caller    Caller
	mem       fbnative.Memory
	scratch   *arena.Arena
	rows      *arena.Arena
	abi       fbnative.ABI
	dialect   int
	chunkSize int
	logger    *zap.Logger
	closed    bool
}

// NewSession creates a session over lease. Closing the session closes the
// lease.
func NewSession(lease *registry.Lease, opts ...Option) (*Session, error) {
	if lease == nil || lease.Closed() || lease.EntryPoints() == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, []string{"lease"}, "open lease required")
	}
	s := &Session{
		id:      uuid.New().String(),
		lease:   lease,
		eps:     lease.EntryPoints(),
		caller:  NativeCaller(),
		mem:     fbnative.NativeMemory{},
		abi:     fbnative.Host(),
		dialect: xsqlda.Dialect3,
		logger:  Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.caller == nil {
		return nil, errors.NotInitialized(errors.PhaseCall, "native caller")
	}
	s.scratch = arena.New(s.chunkSize)
	s.logger = s.logger.With(zap.String("session", s.id), zap.String("library", lease.Name()))
	s.logger.Debug("session opened")
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// EntryPoints returns the table calls are made through.
func (s *Session) EntryPoints() *registry.EntryPoints { return s.eps }

// Dialect returns the SQL dialect used for DSQL calls.
func (s *Session) Dialect() int { return s.dialect }

// Close releases scratch memory and returns the lease.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.scratch.Release()
	if s.rows != nil {
		s.rows.Release()
	}
	s.logger.Debug("session closed")
	return s.lease.Close()
}

func (s *Session) newArena() *arena.Arena {
	return arena.New(s.chunkSize)
}

// rowArena returns the arena fetch descriptors are built in. It lives as
// long as the session; every build resets it.
func (s *Session) rowArena() *arena.Arena {
	if s.rows == nil {
		s.rows = s.newArena()
	}
	return s.rows
}

// frame collects the scratch memory of one call. The scratch arena is reset
// when a frame starts, so nothing carved from it survives the call.
type frame struct {
	s      *Session
	name   string
	fn     uintptr
	status uintptr
}

func (s *Session) begin(name string, fn uintptr) (*frame, error) {
	if s.closed {
		return nil, errors.Contract(errors.PhaseCall, "session closed")
	}
	if fn == 0 {
		return nil, errors.NotFound(errors.PhaseCall, "entry point", name)
	}
	s.scratch.Reset()
	f := &frame{s: s, name: name, fn: fn}
	addr, err := f.alloc(status.VectorLength * s.abi.PtrSize)
	if err != nil {
		return nil, err
	}
	f.status = addr
	return f, nil
}

func (f *frame) alloc(n int) (uintptr, error) {
	_, ref, err := f.s.scratch.AllocBytes(n)
	if err != nil {
		return 0, err
	}
	return f.s.scratch.Addr(ref)
}

// bytes copies b into scratch memory. Empty input yields a nil pointer.
func (f *frame) bytes(b []byte) (uintptr, error) {
	if len(b) == 0 {
		return 0, nil
	}
	addr, err := f.alloc(len(b))
	if err != nil {
		return 0, err
	}
	return addr, f.s.scratch.Write(addr, b)
}

// cstring copies str with a NUL terminator.
func (f *frame) cstring(str string) (uintptr, error) {
	addr, err := f.alloc(len(str) + 1)
	if err != nil {
		return 0, err
	}
	return addr, f.s.scratch.Write(addr, []byte(str))
}

// cell allocates a 32-bit handle cell holding v.
func (f *frame) cell(v uint32) (uintptr, error) {
	addr, err := f.alloc(4)
	if err != nil {
		return 0, err
	}
	b := make([]byte, 4)
	f.s.abi.Order.PutUint32(b, v)
	return addr, f.s.scratch.Write(addr, b)
}

func (f *frame) readCell(addr uintptr) (uint32, error) {
	b, err := f.s.scratch.Read(addr, 4)
	if err != nil {
		return 0, err
	}
	return f.s.abi.Order.Uint32(b), nil
}

func (f *frame) readShort(addr uintptr) (uint16, error) {
	b, err := f.s.scratch.Read(addr, 2)
	if err != nil {
		return 0, err
	}
	return f.s.abi.Order.Uint16(b), nil
}

// call invokes the entry point with the status vector as first argument.
func (f *frame) call(args ...uintptr) uintptr {
	full := make([]uintptr, 0, len(args)+1)
	full = append(full, f.status)
	full = append(full, args...)
	ret := f.s.caller.Call(f.fn, full...)
	f.s.logger.Debug("native call", zap.String("fn", f.name), zap.Uintptr("ret", ret))
	return ret
}

// invoke calls the entry point with args as given, for the few API
// functions that take no status vector.
func (f *frame) invoke(args ...uintptr) uintptr {
	ret := f.s.caller.Call(f.fn, args...)
	f.s.logger.Debug("native call", zap.String("fn", f.name), zap.Uintptr("ret", ret))
	return ret
}

// vector reads the status vector back from scratch memory.
func (f *frame) vector() (status.Vector, error) {
	return status.ReadVector(f.s.scratch, f.status, status.VectorLength, f.s.abi)
}

// check raises or attaches whatever the call left in the status vector.
func (f *frame) check(sink status.Sink) error {
	vec, err := f.vector()
	if err != nil {
		return err
	}
	if err := status.Process(vec, f.s.mem, sink); err != nil {
		f.s.logger.Debug("native call failed", zap.String("fn", f.name), zap.Error(err))
		return err
	}
	return nil
}
