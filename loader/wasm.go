package loader

import (
	"context"
	"encoding/binary"
	"fmt"
	"io/fs"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/errors"
)

// WasmABI is the ABI of wasm32 modules.
var WasmABI = fbnative.ABI{Order: binary.LittleEndian, PtrSize: 4}

// WasmLoader opens client libraries compiled to WebAssembly. Names are paths
// inside the loader's file system.
type WasmLoader struct {
	ctx     context.Context
	runtime wazero.Runtime
	fsys    fs.FS

	mu       sync.Mutex
	compiled map[string]wazero.CompiledModule
}

// NewWasm creates a loader reading modules from fsys.
func NewWasm(ctx context.Context, fsys fs.FS) *WasmLoader {
	return &WasmLoader{
		ctx:      ctx,
		runtime:  wazero.NewRuntime(ctx),
		fsys:     fsys,
		compiled: make(map[string]wazero.CompiledModule),
	}
}

// Open compiles (once per name) and instantiates the module at name.
func (l *WasmLoader) Open(name string) (Library, error) {
	compiled, err := l.compile(name)
	if err != nil {
		return nil, err
	}
	mod, err := l.runtime.InstantiateModule(l.ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "instantiate "+name)
	}
	return &WasmLibrary{
		ctx:   l.ctx,
		name:  name,
		mod:   mod,
		index: make(map[string]uintptr),
	}, nil
}

func (l *WasmLoader) compile(name string) (wazero.CompiledModule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.compiled[name]; ok {
		return c, nil
	}
	bin, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "read "+name)
	}
	c, err := l.runtime.CompileModule(l.ctx, bin)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "compile "+name)
	}
	l.compiled[name] = c
	return c, nil
}

// Close releases the runtime and every module instantiated from it.
func (l *WasmLoader) Close() error {
	return l.runtime.Close(l.ctx)
}

// WasmLibrary is an instantiated wasm client library. Symbol addresses are
// small synthetic values, stable for the life of the instance.
type WasmLibrary struct {
	ctx   context.Context
	name  string
	mod   api.Module
	funcs []api.Function
	index map[string]uintptr
}

// Name returns the path the module was loaded from.
func (l *WasmLibrary) Name() string {
	return l.name
}

// Symbol resolves an exported function.
func (l *WasmLibrary) Symbol(name string) (uintptr, error) {
	if l.mod == nil {
		return 0, errors.Contract(errors.PhaseLoad, "symbol lookup on closed library")
	}
	if addr, ok := l.index[name]; ok {
		return addr, nil
	}
	fn := l.mod.ExportedFunction(name)
	if fn == nil {
		return 0, errors.NotFound(errors.PhaseLoad, "export", name)
	}
	l.funcs = append(l.funcs, fn)
	addr := uintptr(len(l.funcs))
	l.index[name] = addr
	return addr, nil
}

// Call invokes the function behind a synthetic address.
func (l *WasmLibrary) Call(ctx context.Context, addr uintptr, args ...uint64) ([]uint64, error) {
	if addr == 0 || int(addr) > len(l.funcs) {
		return nil, errors.OutOfBounds(errors.PhaseCall, []string{l.name}, int(addr), len(l.funcs))
	}
	res, err := l.funcs[addr-1].Call(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindCallFailed, err,
			fmt.Sprintf("call %s#%d", l.name, addr))
	}
	return res, nil
}

// Memory returns the module's linear memory, or nil if it exports none.
func (l *WasmLibrary) Memory() *WasmMemory {
	if l.mod == nil || l.mod.Memory() == nil {
		return nil
	}
	return &WasmMemory{Mem: l.mod.Memory()}
}

// Close closes the module instance.
func (l *WasmLibrary) Close() error {
	if l.mod == nil {
		return nil
	}
	err := l.mod.Close(l.ctx)
	l.mod = nil
	l.funcs = nil
	return err
}

// WasmMemory adapts wazero memory to fbnative.Memory. Addresses are offsets
// into linear memory.
type WasmMemory struct {
	Mem api.Memory
}

func offset(addr uintptr) (uint32, error) {
	if uint64(addr) > 0xffffffff {
		return 0, fmt.Errorf("address %#x outside wasm32 memory", addr)
	}
	return uint32(addr), nil
}

// Read copies length bytes at addr.
func (m *WasmMemory) Read(addr uintptr, length int) ([]byte, error) {
	off, err := offset(addr)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("memory read with negative length %d", length)
	}
	data, ok := m.Mem.Read(off, uint32(length))
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", off, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write copies data to addr.
func (m *WasmMemory) Write(addr uintptr, data []byte) error {
	off, err := offset(addr)
	if err != nil {
		return err
	}
	if !m.Mem.Write(off, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", off, len(data))
	}
	return nil
}

// ReadCString reads bytes up to the first NUL. Offset 0 reads as "".
func (m *WasmMemory) ReadCString(addr uintptr, max int) (string, error) {
	if addr == 0 {
		return "", nil
	}
	off, err := offset(addr)
	if err != nil {
		return "", err
	}
	if max <= 0 {
		max = fbnative.MaxCString
	}
	size := m.Mem.Size()
	if off >= size {
		return "", fmt.Errorf("memory read out of bounds: offset=%d", off)
	}
	n := size - off
	if uint32(max) < n {
		n = uint32(max)
	}
	data, _ := m.Mem.Read(off, n)
	for i, c := range data {
		if c == 0 {
			return string(data[:i]), nil
		}
	}
	return "", fmt.Errorf("unterminated C string at offset %d (limit %d)", off, max)
}
