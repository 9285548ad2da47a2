package library

import (
	"sort"
	"sync"

	"github.com/wippyai/wasm-native/errors"
)

// Table is an in-process symbol table. It serves addresses that do not come
// from a shared object, such as callback trampolines, through the same
// Handle interface.
type Table struct {
	name    string
	mu      sync.RWMutex
	symbols map[string]uintptr
	refs    int
}

var _ Handle = (*Table)(nil)

// NewTable creates an empty table holding one reference.
func NewTable(name string) *Table {
	return &Table{
		name:    name,
		symbols: make(map[string]uintptr),
		refs:    1,
	}
}

// Set adds or replaces a symbol.
func (t *Table) Set(name string, addr uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols[name] = addr
}

// SetFunc exports a Go function under name through a C-callable trampoline.
// fn follows purego.NewCallback rules: integer, pointer and float
// arguments, at most one integer or pointer result. Trampolines are never
// freed and the process has a fixed budget of them.
func (t *Table) SetFunc(name string, fn any) error {
	addr := newCallback(fn)
	if addr == 0 {
		return errors.Unsupported(errors.PhaseLoad, "callbacks on this platform")
	}
	t.Set(name, addr)
	return nil
}

// Names returns the symbol names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the table name.
func (t *Table) Path() string {
	return t.name
}

// Lookup returns the address stored under name.
func (t *Table) Lookup(name string) (uintptr, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.refs == 0 {
		return 0, errors.LibraryClosed(t.name)
	}
	addr, ok := t.symbols[name]
	if !ok {
		return 0, errors.NotFound(errors.PhaseResolve, "symbol", name)
	}
	return addr, nil
}

// Retain adds a reference.
func (t *Table) Retain() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.refs == 0 {
		return errors.LibraryClosed(t.name)
	}
	t.refs++
	return nil
}

// Release drops a reference. The table stops resolving once none remain.
func (t *Table) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.refs == 0 {
		return errors.LibraryClosed(t.name)
	}
	t.refs--
	return nil
}

// Refs returns the current reference count.
func (t *Table) Refs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refs
}
