// Package wasmnative binds symbols from native shared libraries to
// WebAssembly imports.
//
// A guest module compiled to core WebAssembly declares imports such as
// (import "env" "incr" (func (param i32))). This library satisfies such an
// import with a function from an already opened shared object: the import's
// parameter kinds are described at runtime, a host function of matching arity
// is synthesized, and each call lowers the guest's values into native
// arguments, invokes the symbol and lifts the result back.
//
// # Architecture Overview
//
//	wasmnative/          Root package with the Memory interface
//	├── abi/             Value kinds, signatures, lowering and lifting
//	├── library/         Shared library handles and symbol resolution
//	├── native/          Fixed-arity call shapes and native invocation
//	├── linker/          (namespace, name) import registry and instantiation
//	├── bridge/          The bind operation
//	├── engine/          wazero integration and export calls
//	├── runtime/         High-level API tying the pieces together
//	├── config/          YAML import manifests
//	├── metrics/         Prometheus collectors
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	if _, err := rt.OpenLibrary("libm", "libm.so.6"); err != nil {
//	    log.Fatal(err)
//	}
//	_, err = rt.Bind(runtime.Import{
//	    Namespace: "env",
//	    Name:      "sqrt",
//	    Library:   "libm",
//	    Symbol:    "sqrt",
//	    Params:    []abi.ParamType{abi.Float64},
//	    Result:    abi.Float64,
//	})
//
//	mod, err := rt.LoadWASM(ctx, wasmBytes)
//	inst, err := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	result, err := inst.Call(ctx, "root", 2.0)
//
// # Pointers
//
// A Pointer parameter is a 32-bit offset into the calling instance's linear
// memory. It is translated to memory_base + offset on every call, with no
// bounds check. Native code receiving such a pointer reads and writes guest
// memory directly.
//
// # Safety
//
// Binding is unsafe by nature. The declared signature is trusted, the native
// function runs in-process, and a fault in native code terminates the whole
// process.
//
// # Thread Safety
//
// Linker setup is safe for concurrent use. A binding adds no synchronization
// to the native call; native code touching the same memory from several
// instances must synchronize itself.
package wasmnative
