// Package native calls native functions with a signature known only at
// runtime.
//
// Compile picks one of a fixed set of statically typed call shapes, one per
// arity and return register class, and binds it to the symbol with purego.
// Arguments are routed by register class: integers and pointers fill the
// integer slots in order, floats fill the float slots in order. On SysV
// amd64 and AAPCS64 this reproduces the C calling convention for any mix of
// up to MaxArity scalar arguments.
//
// Variadic functions, struct arguments and struct returns are not supported.
package native
