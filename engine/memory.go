package engine

import (
	"github.com/tetratelabs/wazero/api"

	wasmnative "github.com/wippyai/wasm-native"
	"github.com/wippyai/wasm-native/abi"
	"github.com/wippyai/wasm-native/errors"
)

// WazeroMemory wraps wazero memory to implement wasmnative.Memory
type WazeroMemory struct {
	mem api.Memory
}

// NewMemory wraps mem. It returns nil when mem is nil.
func NewMemory(mem api.Memory) *WazeroMemory {
	if mem == nil {
		return nil
	}
	return &WazeroMemory{mem: mem}
}

// Read returns a view of guest memory. The slice aliases the memory and
// is invalidated when the memory grows.
func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds("read", offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return outOfBounds("write", offset, uint32(len(data)))
	}
	return nil
}

func (m *WazeroMemory) ReadU8(offset uint32) (uint8, error) {
	val, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 1)
	}
	return val, nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 4)
	}
	return val, nil
}

func (m *WazeroMemory) ReadU64(offset uint32) (uint64, error) {
	val, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 8)
	}
	return val, nil
}

func (m *WazeroMemory) ReadF32(offset uint32) (float32, error) {
	val, ok := m.mem.ReadFloat32Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 4)
	}
	return val, nil
}

func (m *WazeroMemory) ReadF64(offset uint32) (float64, error) {
	val, ok := m.mem.ReadFloat64Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 8)
	}
	return val, nil
}

func (m *WazeroMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return outOfBounds("write", offset, 1)
	}
	return nil
}

func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return outOfBounds("write", offset, 4)
	}
	return nil
}

func (m *WazeroMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return outOfBounds("write", offset, 8)
	}
	return nil
}

func (m *WazeroMemory) WriteF32(offset uint32, value float32) error {
	if !m.mem.WriteFloat32Le(offset, value) {
		return outOfBounds("write", offset, 4)
	}
	return nil
}

func (m *WazeroMemory) WriteF64(offset uint32, value float64) error {
	if !m.mem.WriteFloat64Le(offset, value) {
		return outOfBounds("write", offset, 8)
	}
	return nil
}

// ReadString reads a NUL-terminated string starting at offset.
func (m *WazeroMemory) ReadString(offset uint32) (string, error) {
	size := m.Size()
	if offset >= size {
		return "", outOfBounds("read", offset, 1)
	}
	data, _ := m.mem.Read(offset, size-offset)
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), nil
		}
	}
	return "", errors.InvalidData(errors.PhaseRuntime, "unterminated string")
}

// Base returns the host address of offset 0. It changes when the memory
// grows.
func (m *WazeroMemory) Base() uintptr {
	return abi.MemoryBase(m.mem)
}

// Grow adds delta pages and returns the previous size in pages.
func (m *WazeroMemory) Grow(delta uint32) (uint32, error) {
	prev, ok := m.mem.Grow(delta)
	if !ok {
		return 0, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Value(delta).
			Detail("grow by %d pages exceeds the memory limit", delta).
			Build()
	}
	return prev, nil
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

func outOfBounds(op string, offset, length uint32) error {
	return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
		Value(offset).
		Detail("%s out of bounds: offset=%d, length=%d", op, offset, length).
		Build()
}

// Compile-time check that WazeroMemory implements wasmnative.Memory and MemorySizer
var (
	_ wasmnative.Memory      = (*WazeroMemory)(nil)
	_ wasmnative.MemorySizer = (*WazeroMemory)(nil)
)
