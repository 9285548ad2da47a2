package library

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/errors"
)

//go:generate mockgen -source=handle.go -destination=mock_handle.go -package=library

// Handle is an open native library.
//
// Handles are reference counted: Retain adds a reference and fails once the
// last reference was released; Release drops one and closes the library when
// none remain.
type Handle interface {
	// Lookup returns the address of an exported symbol.
	Lookup(name string) (uintptr, error)
	Retain() error
	Release() error
	// Path identifies the library in logs and errors.
	Path() string
}

// Symbol is a resolved export. The address is untyped; whoever calls it
// asserts the signature.
type Symbol struct {
	Name string
	Addr uintptr
}

// Resolve looks up name in h. A missing export, an empty name or a name
// containing a NUL byte yields errors.KindSymbolNotFound. A released handle
// yields errors.KindLibraryClosed.
func Resolve(h Handle, name []byte) (Symbol, error) {
	sym := string(name)
	if len(name) == 0 || bytes.IndexByte(name, 0) >= 0 {
		return Symbol{}, errors.New(errors.PhaseResolve, errors.KindSymbolNotFound).
			Symbol(sym).
			Detail("invalid symbol name %q", sym).
			Build()
	}

	addr, err := h.Lookup(sym)
	if err != nil {
		if errors.Is(err, errors.ErrLibraryClosed) {
			return Symbol{}, err
		}
		e := errors.SymbolNotFound(sym, err)
		e.Detail = "symbol not exported by " + h.Path()
		return Symbol{}, e
	}
	if addr == 0 {
		return Symbol{}, errors.SymbolNotFound(sym, nil)
	}

	Logger().Debug("resolved symbol",
		zap.String("library", h.Path()),
		zap.String("symbol", sym),
		zap.Uintptr("addr", addr))
	return Symbol{Name: sym, Addr: addr}, nil
}
