package engine

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/linker"
)

// WazeroEngine owns a wazero runtime and the WASI host module shared by
// every guest compiled with it.
type WazeroEngine struct {
	runtime      wazero.Runtime
	config       Config
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// EnableWASI instantiates wasi_snapshot_preview1 before the first guest
	// that imports it.
	EnableWASI bool

	// CloseOnContextDone aborts running guest code when the call context
	// is canceled. Native calls already in progress still run to completion.
	CloseOnContextDone bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	var c Config
	if cfg != nil {
		c = *cfg
		if c.MemoryLimitPages > 0 {
			if c.MemoryLimitPages > maxMemoryPages {
				return nil, errors.InvalidInput(errors.PhaseConfig, "memory limit exceeds 65536 pages")
			}
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
		}
		if c.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	Logger().Debug("engine created",
		zap.Uint32("memory_limit_pages", c.MemoryLimitPages),
		zap.Bool("wasi", c.EnableWASI))
	return &WazeroEngine{runtime: runtime, config: c}, nil
}

const maxMemoryPages = 65536

// Runtime returns the underlying wazero runtime.
func (e *WazeroEngine) Runtime() wazero.Runtime {
	return e.runtime
}

// Config returns the configuration the engine was created with.
func (e *WazeroEngine) Config() Config {
	return e.config
}

// Close closes the runtime and every module instantiated in it.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// InitWASI instantiates the WASI singleton for this engine's runtime.
// Safe for concurrent calls from multiple modules sharing the same engine.
func (e *WazeroEngine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasiModuleName) != nil {
		e.wasiInitDone.Store(true)
		return nil
	}

	if _, err := InstantiateWASI(ctx, e.runtime); err != nil {
		if e.runtime.Module(wasiModuleName) == nil {
			return errors.Wrap(errors.PhaseInstantiate, errors.KindInstantiation, err, "instantiate WASI")
		}
	}

	e.wasiInitDone.Store(true)
	Logger().Debug("WASI instantiated")
	return nil
}

// LoadModule compiles a core WebAssembly module.
func (e *WazeroEngine) LoadModule(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	if len(wasmBytes) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty module")
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	return &WazeroModule{
		engine:   e,
		compiled: compiled,
	}, nil
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
}

// Compiled returns the wazero compiled module.
func (m *WazeroModule) Compiled() wazero.CompiledModule {
	return m.compiled
}

// FuncInfo describes an exported or imported function.
type FuncInfo struct {
	Module  string
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// String renders the function as "name(i32, f64) -> f64".
func (f FuncInfo) String() string {
	s := f.Name + "("
	for i, p := range f.Params {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(p)
	}
	s += ")"
	switch len(f.Results) {
	case 0:
	case 1:
		s += " -> " + api.ValueTypeName(f.Results[0])
	default:
		s += " -> ("
		for i, r := range f.Results {
			if i > 0 {
				s += ", "
			}
			s += api.ValueTypeName(r)
		}
		s += ")"
	}
	return s
}

// Exports lists the exported functions sorted by name.
func (m *WazeroModule) Exports() []FuncInfo {
	defs := m.compiled.ExportedFunctions()
	out := make([]FuncInfo, 0, len(defs))
	for name, def := range defs {
		out = append(out, FuncInfo{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	sortFuncs(out)
	return out
}

// Imports lists the imported functions in declaration order.
func (m *WazeroModule) Imports() []FuncInfo {
	defs := m.compiled.ImportedFunctions()
	out := make([]FuncInfo, 0, len(defs))
	for _, def := range defs {
		mod, name, ok := def.Import()
		if !ok {
			continue
		}
		out = append(out, FuncInfo{
			Module:  mod,
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	return out
}

func (m *WazeroModule) importsWASI() bool {
	for _, def := range m.compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == wasiModuleName {
			return true
		}
	}
	return false
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	Stdout io.Writer
	Stderr io.Writer
	Env    map[string]string
	Name   string
	Args   []string
}

// Instantiate links the module's imports through l and instantiates it.
// Instance names default to anonymous so one module can be instantiated
// several times.
func (m *WazeroModule) Instantiate(ctx context.Context, l *linker.Linker, cfg *InstanceConfig) (*WazeroInstance, error) {
	if l == nil {
		return nil, errors.NotInitialized(errors.PhaseInstantiate, "linker")
	}

	if m.engine.config.EnableWASI && m.importsWASI() {
		if err := m.engine.InitWASI(ctx); err != nil {
			return nil, err
		}
	}

	modCfg := wazero.NewModuleConfig().WithName("")
	if cfg != nil {
		modCfg = modCfg.WithName(cfg.Name)
		if len(cfg.Args) > 0 {
			modCfg = modCfg.WithArgs(cfg.Args...)
		}
		for k, v := range cfg.Env {
			modCfg = modCfg.WithEnv(k, v)
		}
		if cfg.Stdout != nil {
			modCfg = modCfg.WithStdout(cfg.Stdout)
		}
		if cfg.Stderr != nil {
			modCfg = modCfg.WithStderr(cfg.Stderr)
		}
	}

	mod, err := l.Instantiate(ctx, m.compiled, modCfg)
	if err != nil {
		return nil, err
	}

	return &WazeroInstance{instance: mod, memory: NewMemory(mod.Memory())}, nil
}

// Close releases the compiled module.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
