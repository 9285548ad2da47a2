package engine

import (
	"context"
	"sort"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-native/errors"
)

// WazeroInstance is an instantiated guest module.
type WazeroInstance struct {
	instance api.Module
	memory   *WazeroMemory
}

// Module returns the underlying wazero module.
func (i *WazeroInstance) Module() api.Module {
	return i.instance
}

// GetExportedFunction returns an exported function by name, or nil.
func (i *WazeroInstance) GetExportedFunction(name string) api.Function {
	if i.instance == nil {
		return nil
	}
	return i.instance.ExportedFunction(name)
}

// Memory returns the instance's exported memory, or nil if it has none.
func (i *WazeroInstance) Memory() *WazeroMemory {
	return i.memory
}

// MemorySize returns the current linear memory size in bytes, or 0 if no memory.
func (i *WazeroInstance) MemorySize() uint32 {
	if i.memory == nil {
		return 0
	}
	return i.memory.Size()
}

// Call invokes an exported function. Arguments are converted to the
// export's parameter types; see EncodeValue. A single result is returned as
// int32, int64, float32 or float64; several results as []any; none as nil.
func (i *WazeroInstance) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, err := i.export(name)
	if err != nil {
		return nil, err
	}

	def := fn.Definition()
	params := def.ParamTypes()
	if len(args) != len(params) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Value(len(args)).
			Detail("%s expects %d arguments, got %d", name, len(params), len(args)).
			Build()
	}

	stack := make([]uint64, len(params))
	for idx, arg := range args {
		raw, err := EncodeValue(arg, params[idx])
		if err != nil {
			return nil, errors.Wrap(errors.PhaseMarshal, errors.KindInvalidInput, err, "argument "+strconv.Itoa(idx)+" of "+name)
		}
		stack[idx] = raw
	}

	out, err := fn.Call(ctx, stack...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "call "+name)
	}

	results := def.ResultTypes()
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return DecodeValue(out[0], results[0]), nil
	}
	values := make([]any, len(results))
	for idx, rt := range results {
		values[idx] = DecodeValue(out[idx], rt)
	}
	return values, nil
}

// CallRaw invokes an exported function with already encoded arguments.
func (i *WazeroInstance) CallRaw(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn, err := i.export(name)
	if err != nil {
		return nil, err
	}
	out, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "call "+name)
	}
	return out, nil
}

// Exports lists the instance's exported functions sorted by name.
func (i *WazeroInstance) Exports() []FuncInfo {
	if i.instance == nil {
		return nil
	}
	defs := i.instance.ExportedFunctionDefinitions()
	out := make([]FuncInfo, 0, len(defs))
	for name, def := range defs {
		out = append(out, FuncInfo{Name: name, Params: def.ParamTypes(), Results: def.ResultTypes()})
	}
	sortFuncs(out)
	return out
}

func (i *WazeroInstance) export(name string) (api.Function, error) {
	if i.instance == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	fn := i.instance.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	return fn, nil
}

func (i *WazeroInstance) Close(ctx context.Context) error {
	if i.instance == nil {
		return nil
	}
	err := i.instance.Close(ctx)
	i.instance = nil
	i.memory = nil
	return err
}

func sortFuncs(funcs []FuncInfo) {
	sort.Slice(funcs, func(a, b int) bool { return funcs[a].Name < funcs[b].Name })
}
