package abi

import (
	"math"
	"unsafe"

	"github.com/tetratelabs/wazero/api"
)

// MaxSlots is the number of register slots per class in a Frame.
const MaxSlots = 6

// Frame holds the lowered native arguments of one call, split by register
// class. Ints[i] is the i-th integer-class argument, Floats[i] the i-th
// float-class argument, in signature order.
type Frame struct {
	Ints   [MaxSlots]uintptr
	Floats [MaxSlots]float64
	NInt   int
	NFloat int
}

// Reset clears the slot counters.
func (f *Frame) Reset() {
	f.NInt = 0
	f.NFloat = 0
}

// Lower converts the guest values on stack into native arguments in f.
// base is the address of byte 0 of the caller's linear memory and is only
// read for Pointer parameters. The signature must have at most MaxSlots
// parameters and stack at least Arity values.
func (s Signature) Lower(f *Frame, stack []uint64, base uintptr) {
	f.Reset()
	for i, p := range s.Params {
		raw := stack[i]
		switch p {
		case Int32:
			f.Ints[f.NInt] = uintptr(int64(int32(uint32(raw))))
			f.NInt++
		case Int64:
			f.Ints[f.NInt] = uintptr(raw)
			f.NInt++
		case Pointer:
			f.Ints[f.NInt] = PointerAddr(base, raw)
			f.NInt++
		case Float32:
			// f32 bits go in the low half of the slot unchanged
			f.Floats[f.NFloat] = math.Float64frombits(uint64(uint32(raw)))
			f.NFloat++
		case Float64:
			f.Floats[f.NFloat] = math.Float64frombits(raw)
			f.NFloat++
		}
	}
}

// Lift converts the native return registers back into a guest stack value.
// It returns 0 for Void signatures.
func (s Signature) Lift(intRet uintptr, floatRet float64, base uintptr) uint64 {
	switch s.Result {
	case Int32:
		return uint64(uint32(intRet))
	case Int64:
		return uint64(intRet)
	case Pointer:
		return uint64(uint32(intRet - base))
	case Float32:
		return uint64(uint32(math.Float64bits(floatRet)))
	case Float64:
		return math.Float64bits(floatRet)
	}
	return 0
}

// PointerAddr translates a guest pointer offset to a process address.
// No bounds check is made; any offset maps to base + offset.
func PointerAddr(base uintptr, raw uint64) uintptr {
	return base + uintptr(uint32(raw))
}

// MemoryBase returns the address of byte 0 of mem as currently mapped, or 0
// when there is no memory. The address moves when memory grows, so it must be
// fetched again for every call.
func MemoryBase(mem api.Memory) uintptr {
	if mem == nil {
		return 0
	}
	size := mem.Size()
	if size == 0 {
		return 0
	}
	buf, ok := mem.Read(0, size)
	if !ok || len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}
