package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-native/errors"
)

// EncodeValue converts a Go value to the stack representation of vt.
//
// Integers of any width are accepted for i32 and i64 if they fit; i32
// accepts both signed and unsigned 32-bit ranges. Floats are accepted for
// f32 and f64, and integers are converted to them. bool encodes as i32 0/1.
func EncodeValue(v any, vt api.ValueType) (uint64, error) {
	switch vt {
	case api.ValueTypeI32:
		if b, ok := v.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		n, ok := toInt(v)
		if !ok {
			return 0, typeError(v, vt)
		}
		if n < math.MinInt32 || n > math.MaxUint32 {
			return 0, rangeError(v, vt)
		}
		return uint64(uint32(n)), nil

	case api.ValueTypeI64:
		if u, ok := v.(uint64); ok {
			return u, nil
		}
		if u, ok := v.(uint); ok {
			return uint64(u), nil
		}
		n, ok := toInt(v)
		if !ok {
			return 0, typeError(v, vt)
		}
		return uint64(n), nil

	case api.ValueTypeF32:
		f, ok := toFloat(v)
		if !ok {
			return 0, typeError(v, vt)
		}
		if f32, exact := v.(float32); exact {
			return api.EncodeF32(f32), nil
		}
		return api.EncodeF32(float32(f)), nil

	case api.ValueTypeF64:
		f, ok := toFloat(v)
		if !ok {
			return 0, typeError(v, vt)
		}
		return api.EncodeF64(f), nil
	}
	return 0, errors.Unsupported(errors.PhaseMarshal, "value type "+api.ValueTypeName(vt))
}

// DecodeValue converts a stack value of type vt to int32, int64, float32
// or float64. Other types are returned as the raw uint64.
func DecodeValue(raw uint64, vt api.ValueType) any {
	switch vt {
	case api.ValueTypeI32:
		return api.DecodeI32(raw)
	case api.ValueTypeI64:
		return int64(raw)
	case api.ValueTypeF32:
		return api.DecodeF32(raw)
	case api.ValueTypeF64:
		return api.DecodeF64(raw)
	}
	return raw
}

// ParseValue parses a textual argument as a value of type vt.
// Integers accept the prefixes understood by strconv (0x, 0o, 0b).
func ParseValue(s string, vt api.ValueType) (any, error) {
	s = strings.TrimSpace(s)
	switch vt {
	case api.ValueTypeI32:
		if n, err := strconv.ParseInt(s, 0, 32); err == nil {
			return int32(n), nil
		}
		n, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, errors.ParseFailed("i32 "+strconv.Quote(s), err)
		}
		return uint32(n), nil
	case api.ValueTypeI64:
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return n, nil
		}
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, errors.ParseFailed("i64 "+strconv.Quote(s), err)
		}
		return n, nil
	case api.ValueTypeF32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, errors.ParseFailed("f32 "+strconv.Quote(s), err)
		}
		return float32(f), nil
	case api.ValueTypeF64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.ParseFailed("f64 "+strconv.Quote(s), err)
		}
		return f, nil
	}
	return nil, errors.Unsupported(errors.PhaseParse, "value type "+api.ValueTypeName(vt))
}

// ParseArgs parses one textual argument per parameter type.
func ParseArgs(args []string, params []api.ValueType) ([]any, error) {
	if len(args) != len(params) {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Value(len(args)).
			Detail("expected %d arguments, got %d", len(params), len(args)).
			Build()
	}
	out := make([]any, len(args))
	for i, a := range args {
		v, err := ParseValue(a, params[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

func typeError(v any, vt api.ValueType) error {
	return errors.New(errors.PhaseMarshal, errors.KindTypeMismatch).
		Value(v).
		Detail("cannot use %T as %s", v, api.ValueTypeName(vt)).
		Build()
}

func rangeError(v any, vt api.ValueType) error {
	return errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
		Value(v).
		Detail("%v out of range for %s", v, api.ValueTypeName(vt)).
		Build()
}
