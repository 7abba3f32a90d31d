package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendBufferLifecycle(t *testing.T) {
	b := NewMemoryBackend()

	src := []float32{1, 2, 3}
	h, err := b.CreateVertexBuffer(&common.DecodedBuffer{
		Size:          3,
		ComponentType: common.ComponentTypeFloat,
		Count:         1,
		Target:        common.BufferTargetVertex,
		Data:          src,
	}, UsageStatic)
	require.NoError(t, err)
	assert.Equal(t, 1, b.LiveBuffers())
	assert.Equal(t, 12, b.Bytes())

	// the backend owns a copy
	src[0] = 42
	mb := h.(*MemoryBuffer)
	assert.Equal(t, common.SliceToBytes([]float32{1, 2, 3}), mb.Data)

	b.DeleteBuffer(h)
	assert.Equal(t, 0, b.LiveBuffers())

	// deleting twice or deleting foreign handles is harmless
	b.DeleteBuffer(h)
	b.DeleteBuffer("not a handle")
	assert.Equal(t, 0, b.LiveBuffers())
}

func TestMemoryBackendRejectsSignedIndices(t *testing.T) {
	b := NewMemoryBackend()
	_, err := b.CreateIndexBuffer(&common.DecodedBuffer{
		Size:          1,
		ComponentType: common.ComponentTypeShort,
		Count:         2,
		Data:          []int16{0, 1},
	})
	assert.Error(t, err)

	h, err := b.CreateIndexBuffer(&common.DecodedBuffer{
		Size:          1,
		ComponentType: common.ComponentTypeUnsignedByte,
		Count:         3,
		Data:          []uint8{0, 1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, common.BufferTargetIndex, h.(*MemoryBuffer).Target)
}

func TestMemoryBackendTextures(t *testing.T) {
	b := NewMemoryBackend()

	_, err := b.CreateTexture(&common.TextureStagingData{}, nil)
	assert.Error(t, err)

	h, err := b.CreateTexture(&common.TextureStagingData{Pixels: make([]byte, 16), Width: 2, Height: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, b.LiveTextures())
	assert.Equal(t, common.DefaultSamplerStagingData(), h.(*MemoryTexture).Sampler)

	b.DeleteTexture(h)
	assert.Equal(t, 0, b.LiveTextures())
}

func TestMemoryBackendRelease(t *testing.T) {
	b := NewMemoryBackend()
	_, err := b.CreateTexture(&common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, nil)
	require.NoError(t, err)

	b.Release()
	assert.Equal(t, 0, b.LiveTextures())

	_, err = b.CreateTexture(&common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, nil)
	assert.Error(t, err)
}

func TestNewBackendMemory(t *testing.T) {
	b, err := NewBackend(BackendTypeMemory)
	require.NoError(t, err)
	_, ok := b.(MemoryBackend)
	assert.True(t, ok)

	_, err = NewBackend(RendererBackendType(99))
	assert.Error(t, err)
}
