// Package linker registers host functions under (namespace, name) import
// pairs and instantiates guest modules against them.
//
// # Main Types
//
//   - Linker: the import registry, owns host modules and definition closers
//   - Namespace: the functions of one import module name
//   - FuncDef: a host function with its core WebAssembly type
//
// # Thread Safety
//
// Linker is safe for concurrent use. A namespace is sealed when its host
// module is built; it then rejects Define and Undefine.
//
// # Import Resolution
//
//  1. Linker namespaces
//  2. Modules already instantiated in the runtime (for example WASI)
//  3. MissingImportsError listing every unresolved import
//
// # Example
//
//	l := linker.NewWithDefaults(rt)
//	err := l.Define("env", "incr", handler, []api.ValueType{api.ValueTypeI32}, nil, nil)
//	compiled, _ := rt.CompileModule(ctx, guest)
//	mod, err := l.Instantiate(ctx, compiled, wazero.NewModuleConfig())
//	defer l.Close(ctx)
package linker
