// Package runtime provides the high-level API: open native libraries, bind
// their symbols to guest imports and run guests.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	if _, err := rt.OpenLibrary("libm", library.LibMPath()); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := rt.Bind(runtime.Import{
//	    Namespace: "env",
//	    Name:      "sqrt",
//	    Library:   "libm",
//	    Params:    []abi.ParamType{abi.Float64},
//	    Result:    abi.Float64,
//	}); err != nil {
//	    log.Fatal(err)
//	}
//
//	mod, err := rt.LoadWASM(ctx, wasmBytes)
//	inst, err := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	result, err := inst.Call(ctx, "root", 2.0)
//	fmt.Println(result) // 1.4142135623730951
//
// # Manifests
//
// Libraries and imports can be described in YAML (see package config):
//
//	m, err := config.Load("imports.yaml")
//	rt, err := runtime.NewFromManifest(ctx, m)
//
// # Libraries
//
// OpenLibrary opens a shared object under a short name that imports refer
// to. AddLibrary registers any library.Handle, such as a library.Table of
// Go callbacks. Each binding holds its own reference, so a library stays
// loaded until both the runtime and every binding using it are gone.
//
// # Observability
//
// WithLogger, WithMetrics and WithTracer apply to every bind made through
// the runtime. Metrics are the wasmnative_* collectors of package metrics;
// the tracer receives one span per native call.
package runtime
