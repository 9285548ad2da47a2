package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/engine"
	"github.com/wippyai/wasm-native/errors"
)

// Module is a compiled guest module.
type Module struct {
	runtime      *Runtime
	wazeroModule *engine.WazeroModule
}

// Instantiate links the module against the runtime's bindings and creates
// an anonymous instance. Missing imports and imports whose core type
// disagrees with the bound signature are reported here.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	return m.InstantiateWithConfig(ctx, nil)
}

// InstantiateWithConfig is Instantiate with instance settings such as the
// name and the WASI arguments.
func (m *Module) InstantiateWithConfig(ctx context.Context, cfg *engine.InstanceConfig) (*Instance, error) {
	if err := m.runtime.checkOpen(); err != nil {
		return nil, err
	}

	inst, err := m.wazeroModule.Instantiate(ctx, m.runtime.linker, cfg)
	if err != nil {
		m.runtime.logger.Debug("instantiation failed", zap.Error(err))
		return nil, err
	}
	return &Instance{module: m, wazeroInstance: inst}, nil
}

// Check reports the error Instantiate would return for the current set of
// bindings without instantiating.
func (m *Module) Check() error {
	if m.wazeroModule == nil {
		return errors.NotInitialized(errors.PhaseInstantiate, "module")
	}
	return m.runtime.linker.CheckImports(m.wazeroModule.Compiled())
}

// Func describes an exported or imported function.
type Func = engine.FuncInfo

// Exports lists the exported functions sorted by name.
func (m *Module) Exports() []Func {
	return m.wazeroModule.Exports()
}

// Imports lists the imported functions in declaration order.
func (m *Module) Imports() []Func {
	return m.wazeroModule.Imports()
}

// Close releases the compiled code. Instances stay usable.
func (m *Module) Close(ctx context.Context) error {
	return m.wazeroModule.Close(ctx)
}
