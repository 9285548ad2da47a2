// Package config loads import manifests.
//
// A manifest names the shared libraries to open and the guest imports to
// bind to their symbols:
//
//	engine:
//	  wasi: true
//	libraries:
//	  - name: libm
//	  - name: mylib
//	    path: ./libmylib.so
//	imports:
//	  - namespace: env
//	    name: sqrt
//	    library: libm
//	    params: [f64]
//	    result: f64
//	  - namespace: env
//	    name: incr
//	    library: mylib
//	    symbol: mylib_incr
//	    signature: "func(p: ptr)"
//
// Parse and Load reject unknown fields and validate the manifest. Schema
// returns its JSON schema.
package config
