package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a backend during construction via NewBackend.
type RendererBuilderOption func(*backendConfig)

// WithLabel sets the prefix used for GPU resource labels.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - RendererBuilderOption: a function that applies the label option
func WithLabel(label string) RendererBuilderOption {
	return func(c *backendConfig) {
		c.label = label
	}
}

// WithSurfaceDescriptor binds the WebGPU device to a window surface. Without it the
// backend runs headless.
//
// Parameters:
//   - descriptor: the surface descriptor of the target window
//
// Returns:
//   - RendererBuilderOption: a function that applies the surface option
func WithSurfaceDescriptor(descriptor *wgpu.SurfaceDescriptor) RendererBuilderOption {
	return func(c *backendConfig) {
		c.surfaceDescriptor = descriptor
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}
