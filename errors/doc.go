// Package errors provides structured error types for the wasm-native library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the import pair, native symbol and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindInvalidInput).
//		Import("env", "incr").
//		Symbol("incr").
//		Detail("empty namespace").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SymbolNotFound("strlen", cause)
//	err := errors.DuplicateImport("env", "incr")
//
// The Err* sentinels match an error of the same kind in any phase:
//
//	if errors.Is(err, errors.ErrDuplicateImport) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
