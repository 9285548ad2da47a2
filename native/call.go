package native

import (
	"github.com/wippyai/wasm-native/abi"
	"github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/library"
)

// MaxArity is the largest supported parameter count.
const MaxArity = abi.MaxSlots

// invoker calls a native symbol with the arguments lowered into a frame and
// returns the integer and float return registers.
type invoker func(f *abi.Frame) (uintptr, float64)

// Call is a native symbol bound to a fixed call shape.
type Call struct {
	symbol library.Symbol
	sig    abi.Signature
	invoke invoker
}

// Compile selects the call shape for sig and binds it to sym. The shape is
// picked once; Invoke does no further dispatch.
func Compile(sym library.Symbol, sig abi.Signature) (*Call, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	if sig.Arity() > MaxArity {
		e := errors.ArityUnsupported(sig.Arity(), MaxArity)
		e.Symbol = sym.Name
		return nil, e
	}
	if sym.Addr == 0 {
		return nil, errors.SymbolNotFound(sym.Name, nil)
	}

	floatRet := sig.HasResult() && sig.Result.Class() == abi.ClassFloat
	fn, err := shape(sym.Addr, sig.Arity(), floatRet)
	if err != nil {
		return nil, err
	}

	return &Call{symbol: sym, sig: sig, invoke: fn}, nil
}

// Symbol returns the bound symbol.
func (c *Call) Symbol() library.Symbol {
	return c.symbol
}

// Signature returns the signature the call was compiled for.
func (c *Call) Signature() abi.Signature {
	return c.sig
}

// Invoke performs the native call. It blocks until the native function
// returns and cannot be cancelled. A fault inside native code is not
// recovered.
func (c *Call) Invoke(f *abi.Frame) (uintptr, float64) {
	return c.invoke(f)
}

// Call lowers stack, invokes the symbol and lifts the result. It is the
// whole per-call path of a binding.
func (c *Call) Call(stack []uint64, base uintptr) uint64 {
	var f abi.Frame
	c.sig.Lower(&f, stack, base)
	i, fl := c.invoke(&f)
	return c.sig.Lift(i, fl, base)
}
