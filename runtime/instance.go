package runtime

import (
	"context"

	"github.com/wippyai/wasm-native/engine"
	"github.com/wippyai/wasm-native/errors"
)

type Instance struct {
	module         *Module
	wazeroInstance *engine.WazeroInstance
}

// Call invokes an exported function, converting args to its parameter
// types. See engine.WazeroInstance.Call for the accepted values.
func (i *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	if i.module == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "module")
	}
	return i.wazeroInstance.Call(ctx, name, args...)
}

// CallRaw invokes an exported function with encoded stack values.
func (i *Instance) CallRaw(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	return i.wazeroInstance.CallRaw(ctx, name, args...)
}

// CallStrings parses textual arguments by the export's parameter types
// and calls it.
func (i *Instance) CallStrings(ctx context.Context, name string, args ...string) (any, error) {
	fn := i.wazeroInstance.GetExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	values, err := engine.ParseArgs(args, fn.Definition().ParamTypes())
	if err != nil {
		return nil, err
	}
	return i.wazeroInstance.Call(ctx, name, values...)
}

// Memory returns the instance's exported memory, or nil.
func (i *Instance) Memory() *engine.WazeroMemory {
	return i.wazeroInstance.Memory()
}

// Exports lists the instance's exported functions.
func (i *Instance) Exports() []Func {
	return i.wazeroInstance.Exports()
}

func (i *Instance) Close(ctx context.Context) error {
	return i.wazeroInstance.Close(ctx)
}
