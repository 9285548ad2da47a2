package wasmbuild

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestEncodeHeader(t *testing.T) {
	bin := (&Module{}).Encode()
	require.Len(t, bin, 8)
	assert.Equal(t, []byte{0x00, 'a', 's', 'm'}, bin[:4])
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(bin[4:]))
}

func TestAddTypeDeduplicates(t *testing.T) {
	m := &Module{}
	a := m.AddType(FuncType{Params: []api.ValueType{api.ValueTypeI32}})
	b := m.AddType(FuncType{Params: []api.ValueType{api.ValueTypeI32}})
	c := m.AddType(FuncType{Params: []api.ValueType{api.ValueTypeI64}})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, m.Types, 2)
}

func TestForwarderCompiles(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	params := []api.ValueType{api.ValueTypeI32, api.ValueTypeF32, api.ValueTypeI64}
	results := []api.ValueType{api.ValueTypeF64}

	compiled, err := r.CompileModule(ctx, Forwarder("env", "mix", params, results))
	require.NoError(t, err)

	imports := compiled.ImportedFunctions()
	require.Len(t, imports, 1)
	mod, name, ok := imports[0].Import()
	require.True(t, ok)
	assert.Equal(t, "env", mod)
	assert.Equal(t, "mix", name)
	assert.Equal(t, params, imports[0].ParamTypes())
	assert.Equal(t, results, imports[0].ResultTypes())

	exports := compiled.ExportedFunctions()
	require.Contains(t, exports, "call")
	assert.Equal(t, params, exports["call"].ParamTypes())
	assert.Contains(t, compiled.ExportedMemories(), "memory")
}

func TestForwarderCallsImport(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	var got []uint64
	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			got = append(got, stack[0], stack[1])
			stack[0] = stack[0] + stack[1]
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("add").
		Instantiate(ctx)
	require.NoError(t, err)

	bin := Forwarder("env", "add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32})
	mod, err := r.Instantiate(ctx, bin)
	require.NoError(t, err)

	res, err := mod.ExportedFunction("call").Call(ctx, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{42}, res)
	assert.Equal(t, []uint64{40, 2}, got)
}

func TestDataSegment(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	m := &Module{
		MemoryPages: 1,
		Exports:     []Export{{Name: "memory", Kind: kindMemory}},
		Data:        []Data{{Offset: 16, Init: []byte{41, 0, 0, 0}}},
	}
	mod, err := r.Instantiate(ctx, m.Encode())
	require.NoError(t, err)

	v, ok := mod.Memory().ReadUint32Le(16)
	require.True(t, ok)
	assert.Equal(t, uint32(41), v)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, Memory(2))
	require.NoError(t, err)
	assert.Equal(t, uint32(2*65536), mod.Memory().Size())
}
