package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-native/abi"
	werrors "github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/internal/wasmbuild"
	"github.com/wippyai/wasm-native/library"
	"github.com/wippyai/wasm-native/linker"
)

func newLinker(t *testing.T) (context.Context, *linker.Linker) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })
	return ctx, linker.NewWithDefaults(rt)
}

// callbacks returns a table with fn exported as name, skipping the test
// where trampolines are unavailable.
func callbacks(t *testing.T, name string, fn any) *library.Table {
	t.Helper()
	tbl := library.NewTable("callbacks")
	if err := tbl.SetFunc(name, fn); err != nil {
		require.ErrorIs(t, err, werrors.ErrUnsupported)
		t.Skip("callbacks unsupported on this platform")
	}
	return tbl
}

// fakeTable returns a table whose symbols have addresses but are never called.
func fakeTable(names ...string) *library.Table {
	tbl := library.NewTable("fake")
	for i, name := range names {
		tbl.Set(name, uintptr(0x1000*(i+1)))
	}
	return tbl
}

func mustBind(t *testing.T, l *linker.Linker, req Request, opts ...Option) *Binding {
	t.Helper()
	b, err := UnsafeBind(l, req, opts...)
	if err != nil && werrors.Is(err, werrors.ErrUnsupported) {
		t.Skip("native calls unsupported on this platform")
	}
	require.NoError(t, err)
	return b
}

// guest instantiates a module that forwards export "call" to ns.name.
func guest(t *testing.T, ctx context.Context, l *linker.Linker, ns, name string, sig abi.Signature) api.Module {
	t.Helper()
	params, results := sig.ValueTypes()
	compiled, err := l.Runtime().CompileModule(ctx, wasmbuild.Forwarder(ns, name, params, results))
	require.NoError(t, err)

	mod, err := l.Instantiate(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	require.NoError(t, err)
	return mod
}

func openLib(t *testing.T, path string) *library.Library {
	t.Helper()
	lib, err := library.Open(path)
	if err != nil {
		t.Skipf("%s not available: %v", path, err)
	}
	t.Cleanup(func() { _ = lib.Release() })
	return lib
}
