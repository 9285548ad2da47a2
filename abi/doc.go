// Package abi describes the values that cross a native binding.
//
// A Signature lists the ParamType of every parameter and of the optional
// result. At call time Lower turns the guest's core WebAssembly values into
// native arguments, split into integer and float register slots, and Lift
// turns the native return register back into a core value.
//
// Conversions:
//
//	Int32    i32 -> sign-extended machine word
//	Int64    i64 -> machine word, bit copy
//	Float32  f32 -> low 32 bits of a float register, bit copy
//	Float64  f64 -> float register, bit copy
//	Pointer  i32 offset -> memory_base + offset
//
// Pointer offsets are not bounds checked. memory_base comes from MemoryBase
// and must be fetched for every call because memory growth can move it.
package abi
