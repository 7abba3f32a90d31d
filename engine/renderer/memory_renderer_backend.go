package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// MemoryBuffer is the BufferHandle returned by the memory backend.
type MemoryBuffer struct {
	ID     int
	Target common.BufferTarget
	Usage  BufferUsage
	Data   []byte
}

// MemoryTexture is the TextureHandle returned by the memory backend.
type MemoryTexture struct {
	ID      int
	Image   common.TextureStagingData
	Sampler common.SamplerStagingData
}

type memoryRendererBackendImpl struct {
	mu       sync.Mutex
	nextID   int
	buffers  map[int]*MemoryBuffer
	textures map[int]*MemoryTexture
	released bool
}

// MemoryBackend is a Backend that keeps CPU copies of uploaded resources.
// It is used where no GPU is available and for inspecting what a load uploaded.
type MemoryBackend interface {
	Backend

	// LiveBuffers returns the number of buffers created and not yet deleted.
	LiveBuffers() int

	// LiveTextures returns the number of textures created and not yet deleted.
	LiveTextures() int

	// Bytes returns the total size of all live buffer and texture data.
	Bytes() int
}

var _ MemoryBackend = &memoryRendererBackendImpl{}

// NewMemoryBackend creates a CPU-only backend.
//
// Returns:
//   - MemoryBackend: the backend
func NewMemoryBackend() MemoryBackend {
	return newMemoryRendererBackend()
}

func newMemoryRendererBackend() *memoryRendererBackendImpl {
	return &memoryRendererBackendImpl{
		buffers:  make(map[int]*MemoryBuffer),
		textures: make(map[int]*MemoryTexture),
	}
}

func (m *memoryRendererBackendImpl) CreateVertexBuffer(buf *common.DecodedBuffer, usage BufferUsage) (BufferHandle, error) {
	return m.createBuffer(buf, common.BufferTargetVertex, usage)
}

func (m *memoryRendererBackendImpl) CreateIndexBuffer(buf *common.DecodedBuffer) (BufferHandle, error) {
	switch buf.Data.(type) {
	case []uint8, []uint16, []uint32:
	default:
		return nil, fmt.Errorf("index buffer cannot hold %s components", buf.ComponentType)
	}
	return m.createBuffer(buf, common.BufferTargetIndex, UsageStatic)
}

func (m *memoryRendererBackendImpl) createBuffer(buf *common.DecodedBuffer, target common.BufferTarget, usage BufferUsage) (*MemoryBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return nil, fmt.Errorf("backend released")
	}

	src := buf.Bytes()
	data := make([]byte, len(src))
	copy(data, src)

	m.nextID++
	mb := &MemoryBuffer{ID: m.nextID, Target: target, Usage: usage, Data: data}
	m.buffers[mb.ID] = mb
	return mb, nil
}

func (m *memoryRendererBackendImpl) CreateTexture(img *common.TextureStagingData, sampler *common.SamplerStagingData) (TextureHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return nil, fmt.Errorf("backend released")
	}
	if img == nil || img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("cannot create an empty texture")
	}

	pixels := make([]byte, len(img.Pixels))
	copy(pixels, img.Pixels)

	s := common.DefaultSamplerStagingData()
	if sampler != nil {
		s = *sampler
	}

	m.nextID++
	mt := &MemoryTexture{
		ID:      m.nextID,
		Image:   common.TextureStagingData{Pixels: pixels, Width: img.Width, Height: img.Height},
		Sampler: s,
	}
	m.textures[mt.ID] = mt
	return mt, nil
}

func (m *memoryRendererBackendImpl) DeleteBuffer(h BufferHandle) {
	mb, ok := h.(*MemoryBuffer)
	if !ok || mb == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, mb.ID)
}

func (m *memoryRendererBackendImpl) DeleteTexture(h TextureHandle) {
	mt, ok := h.(*MemoryTexture)
	if !ok || mt == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.textures, mt.ID)
}

func (m *memoryRendererBackendImpl) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers = make(map[int]*MemoryBuffer)
	m.textures = make(map[int]*MemoryTexture)
	m.released = true
}

func (m *memoryRendererBackendImpl) LiveBuffers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffers)
}

func (m *memoryRendererBackendImpl) LiveTextures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.textures)
}

func (m *memoryRendererBackendImpl) Bytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.buffers {
		total += len(b.Data)
	}
	for _, t := range m.textures {
		total += len(t.Image.Pixels)
	}
	return total
}
