package abi

import (
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-native/errors"
)

// ParamType is the kind of one parameter or of the result of a bound import.
type ParamType uint8

const (
	// Void is only meaningful as a result and means the import returns nothing.
	Void ParamType = iota
	Int32
	Int64
	Float32
	Float64
	// Pointer is an i32 offset into the caller's linear memory, passed to
	// native code as memory_base + offset.
	Pointer
)

// Class is the native register class a value travels in.
type Class uint8

const (
	ClassInt Class = iota
	ClassFloat
)

var paramNames = [...]string{
	Void:    "void",
	Int32:   "i32",
	Int64:   "i64",
	Float32: "f32",
	Float64: "f64",
	Pointer: "ptr",
}

func (p ParamType) String() string {
	if int(p) < len(paramNames) {
		return paramNames[p]
	}
	return "invalid"
}

// Valid reports whether p is one of the five value kinds.
func (p ParamType) Valid() bool {
	return p >= Int32 && p <= Pointer
}

// ValueType returns the core WebAssembly type of p.
func (p ParamType) ValueType() api.ValueType {
	switch p {
	case Int64:
		return api.ValueTypeI64
	case Float32:
		return api.ValueTypeF32
	case Float64:
		return api.ValueTypeF64
	default:
		return api.ValueTypeI32
	}
}

// Class returns the register class p is passed in.
func (p ParamType) Class() Class {
	if p == Float32 || p == Float64 {
		return ClassFloat
	}
	return ClassInt
}

// MarshalText implements encoding.TextMarshaler
func (p ParamType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *ParamType) UnmarshalText(text []byte) error {
	v, err := ParseParamType(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParseParamType parses a value kind name. Integer kinds accept the WIT
// spelling (s32, s64) and float kinds the C spelling (float, double).
func ParseParamType(s string) (ParamType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "i32", "int32", "s32":
		return Int32, nil
	case "i64", "int64", "s64":
		return Int64, nil
	case "f32", "float32", "float":
		return Float32, nil
	case "f64", "float64", "double":
		return Float64, nil
	case "ptr", "pointer":
		return Pointer, nil
	case "void", "":
		return Void, nil
	}
	return Void, errors.New(errors.PhaseParse, errors.KindInvalidInput).
		Value(s).
		Detail("unknown value kind %q", s).
		Build()
}
