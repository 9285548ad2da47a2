// Package engine wraps wazero for guests whose imports are satisfied by
// a linker.Linker.
//
// # Architecture
//
// The engine package provides three main types:
//
//	WazeroEngine   - Creates and owns a wazero runtime
//	WazeroModule   - A compiled core module, can create instances
//	WazeroInstance - A running module with exports and memory
//
// # Instantiation Flow
//
//  1. WazeroEngine.LoadModule() compiles the module binary
//  2. Bindings are registered in a linker.Linker sharing the engine's runtime
//  3. WazeroModule.Instantiate() checks imports and instantiates via the linker
//  4. WazeroInstance.Call() invokes exports with Go values
//
// # Values
//
// Call converts arguments by the export's core types:
//
//	Core Type   Accepted Go values            Result type
//	───────────────────────────────────────────────────────
//	i32         bool, any integer in range    int32
//	i64         any integer                   int64
//	f32         float32, float64, integers    float32
//	f64         float64, float32, integers    float64
//
// ParseValue and ParseArgs do the same for textual arguments.
//
// # WASI
//
// With Config.EnableWASI, wasi_snapshot_preview1 is instantiated once per
// engine, the first time a module importing it is instantiated. The linker
// skips imports of modules it does not own, so WASI and native bindings can
// be mixed in one guest.
//
// # Memory
//
// WazeroMemory implements wasmnative.Memory over the instance's exported
// memory. Slices returned by Read alias guest memory and are invalidated by
// memory growth, as are addresses returned by Base.
package engine
