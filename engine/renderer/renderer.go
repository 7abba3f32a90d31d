package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// backendConfig collects the options applied through NewBackend.
type backendConfig struct {
	label                string
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
}

// NewBackend creates a rendering backend of the given type with the options applied.
//
// Parameters:
//   - backendType: the backend implementation to create
//   - options: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Backend: the created backend
//   - error: error if the GPU device cannot be acquired
func NewBackend(backendType RendererBackendType, options ...RendererBuilderOption) (Backend, error) {
	cfg := &backendConfig{
		label: "oxy-gltf",
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(cfg)
	}

	switch backendType {
	case BackendTypeWGPU:
		return newWGPURendererBackend(cfg)
	case BackendTypeMemory:
		return newMemoryRendererBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported renderer backend type %d", backendType)
	}
}
