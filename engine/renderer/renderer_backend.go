package renderer

import (
	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// RendererBackendType identifies the backend implementation used to hold scene resources.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeMemory selects a CPU-only backend that keeps copies of uploaded data.
	BackendTypeMemory
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// BufferHandle is an opaque reference to a backend buffer. Callers never inspect it.
type BufferHandle any

// TextureHandle is an opaque reference to a backend texture. Callers never inspect it.
type TextureHandle any

// BufferUsage hints how often a vertex buffer will be rewritten after creation.
type BufferUsage int

const (
	// UsageStatic marks data that is uploaded once.
	UsageStatic BufferUsage = iota

	// UsageDynamic marks data that may be rewritten or read back.
	UsageDynamic
)

// Backend is the resource-creation capability set consumed by the loader.
// All methods are called from a single goroutine; implementations need not be safe for
// concurrent resource creation but must tolerate Delete calls for handles they created.
type Backend interface {
	// CreateVertexBuffer uploads vertex attribute data and returns its handle.
	// The backend copies the data; buf may be discarded afterwards.
	//
	// Parameters:
	//   - buf: the decoded attribute data
	//   - usage: how the buffer will be used after upload
	//
	// Returns:
	//   - BufferHandle: the created buffer
	//   - error: error if creation fails
	CreateVertexBuffer(buf *common.DecodedBuffer, usage BufferUsage) (BufferHandle, error)

	// CreateIndexBuffer uploads primitive index data and returns its handle.
	//
	// Parameters:
	//   - buf: the decoded index data (unsigned 8, 16 or 32-bit)
	//
	// Returns:
	//   - BufferHandle: the created buffer
	//   - error: error if creation fails
	CreateIndexBuffer(buf *common.DecodedBuffer) (BufferHandle, error)

	// CreateTexture uploads RGBA8 pixels and returns a texture handle.
	//
	// Parameters:
	//   - img: the decoded image
	//   - sampler: the sampling parameters, or nil for the glTF default sampler
	//
	// Returns:
	//   - TextureHandle: the created texture
	//   - error: error if creation fails
	CreateTexture(img *common.TextureStagingData, sampler *common.SamplerStagingData) (TextureHandle, error)

	// DeleteBuffer releases a buffer created by this backend. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the buffer to release
	DeleteBuffer(h BufferHandle)

	// DeleteTexture releases a texture created by this backend. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the texture to release
	DeleteTexture(h TextureHandle)

	// Release frees every resource still held by the backend and the backend itself.
	Release()
}

// Presenter is implemented by backends bound to a window surface.
type Presenter interface {
	// ConfigureSurface sizes the swapchain. Call it again whenever the framebuffer resizes.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	//
	// Returns:
	//   - error: error if the backend has no surface or the surface offers no format
	ConfigureSurface(width, height int) error

	// PresentClear clears the next surface image to the given color and presents it.
	//
	// Parameters:
	//   - color: linear RGBA clear color
	//
	// Returns:
	//   - error: error if the surface is not configured or the frame cannot be submitted
	PresentClear(color [4]float64) error
}
