package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-native/internal/wasmbuild"
)

func newMemory(t *testing.T, pages uint32) *WazeroMemory {
	t.Helper()
	ctx, eng, l := newEngine(t, nil)

	mod, err := eng.LoadModule(ctx, wasmbuild.Memory(pages))
	require.NoError(t, err)

	inst, err := mod.Instantiate(ctx, l, nil)
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close(context.Background()) })

	require.NotNil(t, inst.Memory())
	return inst.Memory()
}

func TestMemoryReadWrite(t *testing.T) {
	m := newMemory(t, 1)
	assert.Equal(t, uint32(65536), m.Size())

	require.NoError(t, m.Write(8, []byte{1, 2, 3}))
	data, err := m.Read(8, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	require.NoError(t, m.WriteU8(0, 0xAB))
	u8, err := m.ReadU8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	require.NoError(t, m.WriteU32(16, 41))
	u32, err := m.ReadU32(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(41), u32)

	require.NoError(t, m.WriteU64(24, 1<<40))
	u64, err := m.ReadU64(24)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), u64)

	require.NoError(t, m.WriteF32(32, 3.5))
	f, err := m.ReadF32(32)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f)

	require.NoError(t, m.WriteF64(40, -0.25))
	d, err := m.ReadF64(40)
	require.NoError(t, err)
	assert.Equal(t, -0.25, d)
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := newMemory(t, 1)
	end := m.Size()

	_, err := m.Read(end-1, 2)
	assert.Error(t, err)
	assert.Error(t, m.Write(end, []byte{0}))
	_, err = m.ReadU32(end - 3)
	assert.Error(t, err)
	assert.Error(t, m.WriteU64(end-7, 1))
	_, err = m.ReadF64(end)
	assert.Error(t, err)
	assert.Error(t, m.WriteU8(end, 1))
}

func TestMemoryReadString(t *testing.T) {
	m := newMemory(t, 1)

	require.NoError(t, m.Write(100, []byte("hello\x00world")))
	s, err := m.ReadString(100)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = m.ReadString(m.Size())
	assert.Error(t, err)

	last := m.Size() - 1
	require.NoError(t, m.WriteU8(last, 'x'))
	_, err = m.ReadString(last)
	assert.Error(t, err)
}

func TestMemoryGrowAndBase(t *testing.T) {
	m := newMemory(t, 1)
	require.NotZero(t, m.Base())

	require.NoError(t, m.WriteU32(0, 7))
	prev, err := m.Grow(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), prev)
	assert.Equal(t, uint32(2*65536), m.Size())
	assert.NotZero(t, m.Base())

	v, err := m.ReadU32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)

	_, err = m.Grow(1 << 20)
	assert.Error(t, err)
}

func TestNewMemoryNil(t *testing.T) {
	assert.Nil(t, NewMemory(nil))
}
