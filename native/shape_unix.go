//go:build (darwin || freebsd || linux) && (amd64 || arm64)

package native

import (
	"github.com/ebitengine/purego"

	"github.com/wippyai/wasm-native/abi"
	"github.com/wippyai/wasm-native/errors"
)

// Each shape for arity k takes k integer slots followed by k float slots.
// The platform ABIs assign integer and float registers independently and
// pass the first six of each class in registers, so the native callee sees
// its arguments exactly where it expects them. Unused slots land in
// registers the callee never reads.

func register[F any](addr uintptr) F {
	var fn F
	purego.RegisterFunc(&fn, addr)
	return fn
}

func shape(addr uintptr, arity int, floatRet bool) (invoker, error) {
	if floatRet {
		return floatShape(addr, arity)
	}
	return intShape(addr, arity)
}

func intShape(addr uintptr, arity int) (invoker, error) {
	switch arity {
	case 0:
		fn := register[func() uintptr](addr)
		return func(*abi.Frame) (uintptr, float64) {
			return fn(), 0
		}, nil
	case 1:
		fn := register[func(uintptr, float64) uintptr](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return fn(f.Ints[0], f.Floats[0]), 0
		}, nil
	case 2:
		fn := register[func(uintptr, uintptr, float64, float64) uintptr](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return fn(f.Ints[0], f.Ints[1], f.Floats[0], f.Floats[1]), 0
		}, nil
	case 3:
		fn := register[func(uintptr, uintptr, uintptr, float64, float64, float64) uintptr](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Floats[0], f.Floats[1], f.Floats[2]), 0
		}, nil
	case 4:
		fn := register[func(uintptr, uintptr, uintptr, uintptr, float64, float64, float64, float64) uintptr](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Ints[3],
				f.Floats[0], f.Floats[1], f.Floats[2], f.Floats[3]), 0
		}, nil
	case 5:
		fn := register[func(uintptr, uintptr, uintptr, uintptr, uintptr,
			float64, float64, float64, float64, float64) uintptr](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Ints[3], f.Ints[4],
				f.Floats[0], f.Floats[1], f.Floats[2], f.Floats[3], f.Floats[4]), 0
		}, nil
	case 6:
		fn := register[func(uintptr, uintptr, uintptr, uintptr, uintptr, uintptr,
			float64, float64, float64, float64, float64, float64) uintptr](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Ints[3], f.Ints[4], f.Ints[5],
				f.Floats[0], f.Floats[1], f.Floats[2], f.Floats[3], f.Floats[4], f.Floats[5]), 0
		}, nil
	}
	return nil, errors.ArityUnsupported(arity, MaxArity)
}

func floatShape(addr uintptr, arity int) (invoker, error) {
	switch arity {
	case 0:
		fn := register[func() float64](addr)
		return func(*abi.Frame) (uintptr, float64) {
			return 0, fn()
		}, nil
	case 1:
		fn := register[func(uintptr, float64) float64](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return 0, fn(f.Ints[0], f.Floats[0])
		}, nil
	case 2:
		fn := register[func(uintptr, uintptr, float64, float64) float64](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return 0, fn(f.Ints[0], f.Ints[1], f.Floats[0], f.Floats[1])
		}, nil
	case 3:
		fn := register[func(uintptr, uintptr, uintptr, float64, float64, float64) float64](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return 0, fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Floats[0], f.Floats[1], f.Floats[2])
		}, nil
	case 4:
		fn := register[func(uintptr, uintptr, uintptr, uintptr, float64, float64, float64, float64) float64](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return 0, fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Ints[3],
				f.Floats[0], f.Floats[1], f.Floats[2], f.Floats[3])
		}, nil
	case 5:
		fn := register[func(uintptr, uintptr, uintptr, uintptr, uintptr,
			float64, float64, float64, float64, float64) float64](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return 0, fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Ints[3], f.Ints[4],
				f.Floats[0], f.Floats[1], f.Floats[2], f.Floats[3], f.Floats[4])
		}, nil
	case 6:
		fn := register[func(uintptr, uintptr, uintptr, uintptr, uintptr, uintptr,
			float64, float64, float64, float64, float64, float64) float64](addr)
		return func(f *abi.Frame) (uintptr, float64) {
			return 0, fn(f.Ints[0], f.Ints[1], f.Ints[2], f.Ints[3], f.Ints[4], f.Ints[5],
				f.Floats[0], f.Floats[1], f.Floats[2], f.Floats[3], f.Floats[4], f.Floats[5])
		}, nil
	}
	return nil, errors.ArityUnsupported(arity, MaxArity)
}
