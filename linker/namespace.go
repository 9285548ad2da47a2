package linker

import (
	"sort"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-native/errors"
)

// FuncDef defines a host function
type FuncDef struct {
	Name        string
	Handler     api.GoModuleFunc
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
	// Closer runs when the definition is removed or the linker is closed.
	Closer func() error
}

// Signature renders the core function type as "(i32, f32) -> i64".
func (f *FuncDef) Signature() string {
	return formatSignature(f.ParamTypes, f.ResultTypes)
}

func (f *FuncDef) close() error {
	if f.Closer == nil {
		return nil
	}
	closer := f.Closer
	f.Closer = nil
	return closer()
}

// Namespace is one import module name, such as "env".
// Once its host module is built it is sealed and accepts no changes.
type Namespace struct {
	funcs  map[string]*FuncDef
	name   string
	sealed bool
	mu     sync.RWMutex
}

// NewNamespace creates an empty namespace
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:  name,
		funcs: make(map[string]*FuncDef),
	}
}

// Name returns the namespace name
func (ns *Namespace) Name() string {
	return ns.name
}

// Sealed reports whether the namespace has been instantiated.
func (ns *Namespace) Sealed() bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.sealed
}

// Define adds a function. An existing name is never replaced.
func (ns *Namespace) Define(def *FuncDef) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, exists := ns.funcs[def.Name]; exists {
		return errors.DuplicateImport(ns.name, def.Name)
	}
	if ns.sealed {
		return errors.New(errors.PhaseRegister, errors.KindRegistration).
			Import(ns.name, def.Name).
			Detail("namespace already instantiated").
			Build()
	}
	ns.funcs[def.Name] = def
	return nil
}

// Undefine removes a function and returns it.
func (ns *Namespace) Undefine(name string) (*FuncDef, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	def, ok := ns.funcs[name]
	if !ok {
		return nil, errors.New(errors.PhaseRegister, errors.KindNotFound).
			Import(ns.name, name).
			Detail("import not defined").
			Build()
	}
	if ns.sealed {
		return nil, errors.New(errors.PhaseRegister, errors.KindRegistration).
			Import(ns.name, name).
			Detail("namespace already instantiated").
			Build()
	}
	delete(ns.funcs, name)
	return def, nil
}

// Func returns the function with the given name, or nil.
func (ns *Namespace) Func(name string) *FuncDef {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.funcs[name]
}

// Funcs returns all functions sorted by name.
func (ns *Namespace) Funcs() []*FuncDef {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	result := make([]*FuncDef, 0, len(ns.funcs))
	for _, f := range ns.funcs {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Len returns the number of functions.
func (ns *Namespace) Len() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.funcs)
}

func (ns *Namespace) seal() {
	ns.mu.Lock()
	ns.sealed = true
	ns.mu.Unlock()
}

// drain removes every function and returns them.
func (ns *Namespace) drain() []*FuncDef {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	result := make([]*FuncDef, 0, len(ns.funcs))
	for name, f := range ns.funcs {
		result = append(result, f)
		delete(ns.funcs, name)
	}
	return result
}
