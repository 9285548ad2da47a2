package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/wippyai/wasm-native/errors"
)

func openLibC(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(LibCPath())
	if err != nil {
		t.Skipf("C library not available: %v", err)
	}
	return lib
}

func TestOpenAndResolve(t *testing.T) {
	lib := openLibC(t)
	defer lib.Release()

	sym, err := Resolve(lib, []byte("strlen"))
	require.NoError(t, err)
	assert.Equal(t, "strlen", sym.Name)
	assert.NotZero(t, sym.Addr)

	_, err = Resolve(lib, []byte("wasm_native_no_such_symbol"))
	assert.ErrorIs(t, err, werrors.ErrSymbolNotFound)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open("/nonexistent/libwasm_native_missing.so")
	require.Error(t, err)

	var e *werrors.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, []werrors.Kind{werrors.KindLibraryOpen, werrors.KindUnsupported}, e.Kind)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, &werrors.Error{Phase: werrors.PhaseLoad, Kind: werrors.KindInvalidInput})
}

func TestLibraryRefcount(t *testing.T) {
	lib := openLibC(t)
	assert.Equal(t, 1, lib.Refs())

	require.NoError(t, lib.Retain())
	assert.Equal(t, 2, lib.Refs())

	require.NoError(t, lib.Release())
	_, err := lib.Lookup("strlen")
	require.NoError(t, err, "one reference left")

	require.NoError(t, lib.Release())
	assert.Equal(t, 0, lib.Refs())

	_, err = lib.Lookup("strlen")
	assert.ErrorIs(t, err, werrors.ErrLibraryClosed)
	assert.ErrorIs(t, lib.Retain(), werrors.ErrLibraryClosed)
	assert.ErrorIs(t, lib.Release(), werrors.ErrLibraryClosed)

	_, err = Resolve(lib, []byte("strlen"))
	assert.ErrorIs(t, err, werrors.ErrLibraryClosed)
}
