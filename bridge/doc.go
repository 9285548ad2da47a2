// Package bridge binds native symbols to WebAssembly imports.
//
// UnsafeBind is the whole operation: it resolves a symbol, compiles a call
// shape for the runtime-described signature and registers a host function
// with the linker. Every call of that host function fetches the caller's
// memory base (only when the signature has pointers), lowers the guest
// values, calls the native function and lifts the result.
//
//	lib, _ := library.Open("libm.so.6")
//	defer lib.Release()
//
//	_, err := bridge.UnsafeBind(l, bridge.Request{
//	    Namespace: "env",
//	    Name:      "sqrt",
//	    Library:   lib,
//	    Params:    []abi.ParamType{abi.Float64},
//	    Result:    abi.Float64,
//	})
//
// Bindings add no goroutines and no locking to the call path. Native code
// runs on the goroutine that called into the guest and cannot be
// interrupted.
package bridge
