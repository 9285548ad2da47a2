package linker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	werrors "github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/internal/wasmbuild"
)

var (
	i32 = []api.ValueType{api.ValueTypeI32}
	f32 = []api.ValueType{api.ValueTypeF32}
)

func noop(context.Context, api.Module, []uint64) {}

func newLinker(t *testing.T) (context.Context, *Linker) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })
	return ctx, NewWithDefaults(rt)
}

func TestNewLinker(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	l := NewWithDefaults(rt)
	require.NotNil(t, l)
	assert.Equal(t, rt, l.Runtime())
	assert.True(t, l.Options().CheckImports)
	assert.Zero(t, l.Len())
}

func TestLinkerDefine(t *testing.T) {
	_, l := newLinker(t)

	require.NoError(t, l.Define("env", "incr", noop, i32, nil, nil))

	def := l.Resolve("env", "incr")
	require.NotNil(t, def)
	assert.Equal(t, "incr", def.Name)
	assert.Equal(t, i32, def.ParamTypes)
	assert.Equal(t, "(i32)", def.Signature())

	assert.Nil(t, l.Resolve("env", "missing"))
	assert.Nil(t, l.Resolve("other", "incr"))
	assert.Equal(t, []string{"env"}, l.Namespaces())
	assert.Equal(t, 1, l.Len())
}

func TestLinkerDefineDuplicate(t *testing.T) {
	_, l := newLinker(t)

	first := func(context.Context, api.Module, []uint64) {}
	require.NoError(t, l.Define("env", "incr", first, i32, nil, nil))

	closed := false
	err := l.Define("env", "incr", noop, f32, nil, func() error {
		closed = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, werrors.ErrDuplicateImport)
	assert.False(t, closed, "rejected definition must not be closed")

	def := l.Resolve("env", "incr")
	require.NotNil(t, def)
	assert.Equal(t, i32, def.ParamTypes, "first registration must be intact")
	assert.Equal(t, 1, l.Len())

	// same name in another namespace is fine
	require.NoError(t, l.Define("math", "incr", noop, f32, nil, nil))
}

func TestLinkerDefineInvalid(t *testing.T) {
	_, l := newLinker(t)

	assert.Error(t, l.Define("", "f", noop, nil, nil, nil))
	assert.Error(t, l.Define("env", "", noop, nil, nil, nil))
	assert.Error(t, l.Define("env", "f", nil, nil, nil, nil))
	assert.Empty(t, l.Namespaces())
}

func TestLinkerDefineFunc(t *testing.T) {
	_, l := newLinker(t)

	require.NoError(t, l.DefineFunc("wasi:random/random@0.2.0#get-random-u64", noop, nil, []api.ValueType{api.ValueTypeI64}))

	def := l.ResolvePath("wasi:random/random@0.2.0#get-random-u64")
	require.NotNil(t, def)
	assert.Equal(t, "get-random-u64", def.Name)
	assert.Equal(t, "() -> i64", def.Signature())

	assert.Error(t, l.DefineFunc("invalid-path-no-hash", noop, nil, nil))
	assert.Nil(t, l.ResolvePath("invalid-path-no-hash"))
}

func TestLinkerUndefine(t *testing.T) {
	_, l := newLinker(t)

	closed := 0
	require.NoError(t, l.Define("env", "f", noop, nil, nil, func() error {
		closed++
		return nil
	}))

	require.NoError(t, l.Undefine("env", "f"))
	assert.Equal(t, 1, closed)
	assert.Nil(t, l.Resolve("env", "f"))
	assert.Empty(t, l.Namespaces())
	assert.Nil(t, l.Namespace("env"), "empty namespace must be removed")

	err := l.Undefine("env", "f")
	assert.ErrorIs(t, err, &werrors.Error{Kind: werrors.KindNotFound})
	assert.Error(t, l.Undefine("nowhere", "f"))

	// the pair can be defined again
	require.NoError(t, l.Define("env", "f", noop, nil, nil, nil))
}

func TestLinkerFuncs(t *testing.T) {
	_, l := newLinker(t)

	require.NoError(t, l.Define("env", "b", noop, nil, nil, nil))
	require.NoError(t, l.Define("env", "a", noop, nil, nil, nil))
	require.NoError(t, l.Define("libm", "sqrt", noop, nil, nil, nil))

	funcs := l.Funcs("env")
	require.Len(t, funcs, 2)
	assert.Equal(t, "a", funcs[0].Name)
	assert.Equal(t, "b", funcs[1].Name)
	assert.Nil(t, l.Funcs("nope"))
	assert.Equal(t, []string{"env", "libm"}, l.Namespaces())
	assert.Equal(t, 3, l.Len())
}

func TestLinkerInstantiate(t *testing.T) {
	ctx, l := newLinker(t)

	var got uint64
	require.NoError(t, l.Define("env", "incr", func(_ context.Context, _ api.Module, stack []uint64) {
		got = stack[0]
	}, i32, nil, nil))

	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder("env", "incr", i32, nil))
	require.NoError(t, err)

	mod, err := l.Instantiate(ctx, compiled, nil)
	require.NoError(t, err)

	_, err = mod.ExportedFunction("call").Call(ctx, 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), got)

	// host module is built once and the namespace is sealed
	assert.True(t, l.Namespace("env").Sealed())
	err = l.Define("env", "late", noop, nil, nil, nil)
	assert.ErrorIs(t, err, &werrors.Error{Phase: werrors.PhaseRegister, Kind: werrors.KindRegistration})
	err = l.Undefine("env", "incr")
	assert.ErrorIs(t, err, &werrors.Error{Phase: werrors.PhaseRegister, Kind: werrors.KindRegistration})
	assert.NotNil(t, l.Resolve("env", "incr"))

	_, err = l.Instantiate(ctx, compiled, wazero.NewModuleConfig().WithName("second"))
	require.NoError(t, err)
}

func TestLinkerInstantiateMissing(t *testing.T) {
	ctx, l := newLinker(t)

	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder("env", "incr", i32, nil))
	require.NoError(t, err)

	_, err = l.Instantiate(ctx, compiled, nil)
	require.Error(t, err)

	var missing *werrors.MissingImportsError
	require.True(t, errors.As(err, &missing))
	require.Len(t, missing.Imports, 1)
	assert.Equal(t, werrors.MissingImport{Namespace: "env", Function: "incr"}, missing.Imports[0])
}

func TestLinkerInstantiateTypeMismatch(t *testing.T) {
	ctx, l := newLinker(t)

	require.NoError(t, l.Define("env", "print", noop, i32, nil, nil))

	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder("env", "print", f32, nil))
	require.NoError(t, err)

	_, err = l.Instantiate(ctx, compiled, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, werrors.ErrTypeMismatch)
	assert.ErrorIs(t, err, &werrors.Error{Phase: werrors.PhaseInstantiate, Kind: werrors.KindTypeMismatch})
	assert.Contains(t, err.Error(), "(f32)")
	assert.Contains(t, err.Error(), "(i32)")

	assert.False(t, l.Namespace("env").Sealed(), "failed check must not build host modules")
}

func TestLinkerInstantiateWithoutCheck(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	l := New(rt, Options{})
	require.NoError(t, l.Define("env", "print", noop, i32, nil, nil))

	compiled, err := rt.CompileModule(ctx, wasmbuild.Forwarder("env", "print", f32, nil))
	require.NoError(t, err)

	// wazero rejects the mismatch itself
	_, err = l.Instantiate(ctx, compiled, nil)
	assert.ErrorIs(t, err, &werrors.Error{Kind: werrors.KindInstantiation})
}

func TestLinkerSkipsRuntimeModules(t *testing.T) {
	ctx, l := newLinker(t)

	_, err := l.Runtime().NewHostModuleBuilder("host").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(noop), i32, nil).
		Export("f").
		Instantiate(ctx)
	require.NoError(t, err)

	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder("host", "f", i32, nil))
	require.NoError(t, err)

	_, err = l.Instantiate(ctx, compiled, nil)
	require.NoError(t, err)
}

func TestLinkerUndefineRestoresRuntimeModuleSkip(t *testing.T) {
	ctx, l := newLinker(t)

	_, err := l.Runtime().NewHostModuleBuilder("host").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(noop), i32, nil).
		Export("f").
		Instantiate(ctx)
	require.NoError(t, err)

	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder("host", "f", i32, nil))
	require.NoError(t, err)
	require.NoError(t, l.CheckImports(compiled))

	// a linker definition shadows the runtime module while it exists
	require.NoError(t, l.Define("host", "g", noop, nil, nil, nil))
	assert.Error(t, l.CheckImports(compiled))

	require.NoError(t, l.Undefine("host", "g"))
	assert.Nil(t, l.Namespace("host"))
	require.NoError(t, l.CheckImports(compiled))

	_, err = l.Instantiate(ctx, compiled, nil)
	require.NoError(t, err)
}

func TestLinkerClose(t *testing.T) {
	ctx, l := newLinker(t)

	var closed []string
	closer := func(name string) func() error {
		return func() error {
			closed = append(closed, name)
			return nil
		}
	}

	require.NoError(t, l.Define("env", "a", noop, i32, nil, closer("a")))
	require.NoError(t, l.Define("env", "b", noop, nil, nil, closer("b")))

	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder("env", "a", i32, nil))
	require.NoError(t, err)
	_, err = l.Instantiate(ctx, compiled, nil)
	require.NoError(t, err)
	require.NotNil(t, l.Runtime().Module("env"))

	require.NoError(t, l.Close(ctx))
	assert.ElementsMatch(t, []string{"a", "b"}, closed)
	assert.Zero(t, l.Len())
	assert.Nil(t, l.Runtime().Module("env"))

	// closers run once
	require.NoError(t, l.Close(ctx))
	assert.Len(t, closed, 2)
}

func TestLinkerCloseJoinsErrors(t *testing.T) {
	ctx, l := newLinker(t)

	errA := errors.New("release a")
	require.NoError(t, l.Define("env", "a", noop, nil, nil, func() error { return errA }))
	require.NoError(t, l.Define("env", "b", noop, nil, nil, func() error { return nil }))

	assert.ErrorIs(t, l.Close(ctx), errA)
}
