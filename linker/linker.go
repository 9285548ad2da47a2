package linker

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/errors"
)

// Options configures linker behavior.
type Options struct {
	// CheckImports verifies every function import of a guest against the
	// registry before instantiation.
	CheckImports bool
}

// DefaultOptions returns default linker configuration.
func DefaultOptions() Options {
	return Options{
		CheckImports: true,
	}
}

// Linker maps (namespace, name) pairs to host functions and instantiates
// guests against them. Thread-safe.
type Linker struct {
	runtime     wazero.Runtime
	namespaces  map[string]*Namespace
	hostModules map[string]api.Module
	options     Options
	mu          sync.RWMutex
	hostMu      sync.Mutex
}

// New creates a new Linker with the given wazero runtime and options.
func New(rt wazero.Runtime, opts Options) *Linker {
	return &Linker{
		runtime:     rt,
		namespaces:  make(map[string]*Namespace),
		hostModules: make(map[string]api.Module),
		options:     opts,
	}
}

// NewWithDefaults creates a new Linker with default options.
func NewWithDefaults(rt wazero.Runtime) *Linker {
	return New(rt, DefaultOptions())
}

// Runtime returns the wazero runtime.
func (l *Linker) Runtime() wazero.Runtime {
	return l.runtime
}

// Options returns the configuration.
func (l *Linker) Options() Options {
	return l.options
}

// Namespace returns the named namespace, or nil if nothing is defined in it.
func (l *Linker) Namespace(name string) *Namespace {
	return l.lookup(name)
}

func (l *Linker) lookup(name string) *Namespace {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.namespaces[name]
}

// Define registers fn as the import (namespace, name). It fails with
// errors.KindDuplicateImport if the pair is taken, leaving the existing
// definition untouched. closer, if non-nil, runs when the definition is
// removed or the linker is closed.
func (l *Linker) Define(namespace, name string, fn api.GoModuleFunc, params, results []api.ValueType, closer func() error) error {
	if namespace == "" || name == "" {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Import(namespace, name).
			Detail("namespace and name must not be empty").
			Build()
	}
	if fn == nil {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Import(namespace, name).
			Detail("nil handler").
			Build()
	}

	def := &FuncDef{
		Name:        name,
		Handler:     fn,
		ParamTypes:  params,
		ResultTypes: results,
		Closer:      closer,
	}
	if err := l.define(namespace, def); err != nil {
		return err
	}

	Logger().Debug("import defined",
		zap.String("namespace", namespace),
		zap.String("name", name),
		zap.String("signature", def.Signature()))
	return nil
}

// DefineFunc is a convenience method to define a function at a full path.
// DefineFunc uses path format: "env#incr"
func (l *Linker) DefineFunc(path string, fn api.GoModuleFunc, params, results []api.ValueType) error {
	nsPath, funcName, err := splitFuncPath(path)
	if err != nil {
		return err
	}
	return l.Define(nsPath, funcName, fn, params, results, nil)
}

func (l *Linker) define(namespace string, def *FuncDef) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ns, ok := l.namespaces[namespace]
	if !ok {
		ns = NewNamespace(namespace)
	}
	if err := ns.Define(def); err != nil {
		return err
	}
	l.namespaces[namespace] = ns
	return nil
}

// Undefine removes (namespace, name) and runs its closer. A namespace left
// empty is removed with it, so the linker looks as if it was never defined.
// Fails with errors.KindRegistration once the namespace has been
// instantiated.
func (l *Linker) Undefine(namespace, name string) error {
	l.mu.Lock()
	ns := l.namespaces[namespace]
	if ns == nil {
		l.mu.Unlock()
		return errors.New(errors.PhaseRegister, errors.KindNotFound).
			Import(namespace, name).
			Detail("import not defined").
			Build()
	}
	def, err := ns.Undefine(name)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if ns.Len() == 0 && !ns.Sealed() {
		delete(l.namespaces, namespace)
	}
	l.mu.Unlock()

	Logger().Debug("import undefined", zap.String("namespace", namespace), zap.String("name", name))
	return def.close()
}

// Resolve returns the definition of (namespace, name), or nil.
func (l *Linker) Resolve(namespace, name string) *FuncDef {
	ns := l.lookup(namespace)
	if ns == nil {
		return nil
	}
	return ns.Func(name)
}

// ResolvePath looks up a function by full path: "env#incr"
func (l *Linker) ResolvePath(path string) *FuncDef {
	nsPath, funcName, err := splitFuncPath(path)
	if err != nil {
		return nil
	}
	return l.Resolve(nsPath, funcName)
}

// Namespaces returns the names of non-empty namespaces in sorted order.
func (l *Linker) Namespaces() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.namespaces))
	for name, ns := range l.namespaces {
		if ns.Len() > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Funcs returns the definitions of a namespace sorted by name.
func (l *Linker) Funcs(namespace string) []*FuncDef {
	ns := l.lookup(namespace)
	if ns == nil {
		return nil
	}
	return ns.Funcs()
}

// Len returns the total number of definitions.
func (l *Linker) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, ns := range l.namespaces {
		n += ns.Len()
	}
	return n
}

// splitFuncPath splits "namespace#funcname" into namespace and function parts
func splitFuncPath(path string) (nsPath, funcName string, err error) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '#' {
			return path[:i], path[i+1:], nil
		}
	}
	return "", "", errors.New(errors.PhaseRegister, errors.KindInvalidInput).
		Value(path).
		Detail("invalid function path %q: missing '#' separator", path).
		Build()
}

// CheckImports verifies that every function import of compiled is defined
// with a matching core type. Imports of modules already present in the
// runtime and not owned by the linker, such as WASI, are skipped.
func (l *Linker) CheckImports(compiled wazero.CompiledModule) error {
	var missing []string

	for _, imp := range compiled.ImportedFunctions() {
		modName, name, ok := imp.Import()
		if !ok {
			continue
		}

		def := l.Resolve(modName, name)
		if def == nil {
			if l.lookup(modName) == nil && l.runtime.Module(modName) != nil {
				continue
			}
			missing = append(missing, modName+"#"+name)
			continue
		}

		if !sameValueTypes(def.ParamTypes, imp.ParamTypes()) || !sameValueTypes(def.ResultTypes, imp.ResultTypes()) {
			return errors.TypeMismatch(modName, name,
				formatSignature(imp.ParamTypes(), imp.ResultTypes()),
				def.Signature())
		}
	}

	if len(missing) > 0 {
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

// importedNamespaces returns the linker namespaces compiled imports from.
func (l *Linker) importedNamespaces(compiled wazero.CompiledModule) []string {
	seen := make(map[string]bool)
	var names []string
	for _, imp := range compiled.ImportedFunctions() {
		modName, _, ok := imp.Import()
		if !ok || seen[modName] {
			continue
		}
		seen[modName] = true
		if l.lookup(modName) != nil {
			names = append(names, modName)
		}
	}
	return names
}

// Instantiate builds the host modules compiled imports from and
// instantiates it. Host modules are built once; their namespaces are sealed
// afterwards.
func (l *Linker) Instantiate(ctx context.Context, compiled wazero.CompiledModule, cfg wazero.ModuleConfig) (api.Module, error) {
	if l.options.CheckImports {
		if err := l.CheckImports(compiled); err != nil {
			return nil, err
		}
	}

	for _, name := range l.importedNamespaces(compiled) {
		if _, err := l.hostModule(ctx, name); err != nil {
			return nil, err
		}
	}

	if cfg == nil {
		cfg = wazero.NewModuleConfig()
	}
	mod, err := l.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	return mod, nil
}

// hostModule returns the host module of a namespace, building it on first use.
func (l *Linker) hostModule(ctx context.Context, name string) (api.Module, error) {
	l.hostMu.Lock()
	defer l.hostMu.Unlock()

	if mod, ok := l.hostModules[name]; ok {
		return mod, nil
	}

	ns := l.lookup(name)
	if ns == nil {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindNotFound).
			Value(name).
			Detail("namespace not defined").
			Build()
	}
	ns.seal()

	builder := l.runtime.NewHostModuleBuilder(name)
	funcs := ns.Funcs()
	for _, f := range funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.ParamTypes, f.ResultTypes).
			Export(f.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Registration(name, "", err)
	}
	l.hostModules[name] = mod

	Logger().Info("host module instantiated", zap.String("namespace", name), zap.Int("funcs", len(funcs)))
	return mod, nil
}

// Close closes the host modules and runs the closer of every definition.
// Does not close the wazero runtime.
func (l *Linker) Close(ctx context.Context) error {
	var errs []error

	l.hostMu.Lock()
	for name, mod := range l.hostModules {
		if err := mod.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		delete(l.hostModules, name)
	}
	l.hostMu.Unlock()

	l.mu.Lock()
	namespaces := l.namespaces
	l.namespaces = make(map[string]*Namespace)
	l.mu.Unlock()

	for _, ns := range namespaces {
		for _, def := range ns.drain() {
			if err := def.close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
