package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-native/abi"
	werrors "github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/internal/wasmbuild"
)

func TestBindAll(t *testing.T) {
	_, l := newLinker(t)
	tbl := fakeTable("a", "b", "c")

	bindings, err := UnsafeBindAll(l, []Request{
		{Namespace: "env", Name: "a", Library: tbl},
		{Namespace: "env", Name: "b", Library: tbl, Params: []abi.ParamType{abi.Pointer}},
		{Namespace: "math", Name: "c", Library: tbl, Result: abi.Float64},
	})
	if err != nil && werrors.Is(err, werrors.ErrUnsupported) {
		t.Skip("native calls unsupported on this platform")
	}
	require.NoError(t, err)
	assert.Len(t, bindings, 3)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 4, tbl.Refs())
}

func TestBindAllRollsBack(t *testing.T) {
	_, l := newLinker(t)
	tbl := fakeTable("a", "b")

	mustBind(t, l, Request{Namespace: "env", Name: "existing", Library: tbl, Symbol: "a"})
	refs := tbl.Refs()

	_, err := UnsafeBindAll(l, []Request{
		{Namespace: "env", Name: "a", Library: tbl},
		{Namespace: "env", Name: "b", Library: tbl},
		{Namespace: "env", Name: "missing", Library: tbl},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, werrors.ErrSymbolNotFound)

	assert.Nil(t, l.Resolve("env", "a"))
	assert.Nil(t, l.Resolve("env", "b"))
	assert.NotNil(t, l.Resolve("env", "existing"))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, refs, tbl.Refs())
}

func TestBindAllDuplicateWithinBatch(t *testing.T) {
	_, l := newLinker(t)
	tbl := fakeTable("a")

	_, err := UnsafeBindAll(l, []Request{
		{Namespace: "env", Name: "a", Library: tbl},
		{Namespace: "env", Name: "a", Library: tbl},
	})
	assert.ErrorIs(t, err, werrors.ErrDuplicateImport)
	assert.Zero(t, l.Len())
	assert.Equal(t, 1, tbl.Refs())
}

func TestBindAllRollbackRestoresNamespaces(t *testing.T) {
	ctx, l := newLinker(t)
	tbl := fakeTable("a")

	// "ext" is provided by the runtime, not the linker
	i32 := []api.ValueType{api.ValueTypeI32}
	_, err := l.Runtime().NewHostModuleBuilder("ext").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(context.Context, api.Module, []uint64) {}), i32, nil).
		Export("f").
		Instantiate(ctx)
	require.NoError(t, err)

	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder("ext", "f", i32, nil))
	require.NoError(t, err)
	require.NoError(t, l.CheckImports(compiled))

	_, err = UnsafeBindAll(l, []Request{
		{Namespace: "ext", Name: "g", Library: tbl, Symbol: "a"},
		{Namespace: "ext", Name: "h", Library: tbl, Symbol: "missing"},
	})
	if werrors.Is(err, werrors.ErrUnsupported) {
		t.Skip("native calls unsupported on this platform")
	}
	require.ErrorIs(t, err, werrors.ErrSymbolNotFound)

	assert.Zero(t, l.Len())
	assert.Empty(t, l.Namespaces())
	assert.Nil(t, l.Namespace("ext"))
	assert.Equal(t, 1, tbl.Refs())

	require.NoError(t, l.CheckImports(compiled))
	_, err = l.Instantiate(ctx, compiled, nil)
	require.NoError(t, err)
}
