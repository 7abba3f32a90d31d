package loader

import (
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/charmbracelet/log"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithBackend is an option builder that sets the rendering backend scenes are uploaded to.
//
// Parameters:
//   - b: the rendering backend
//
// Returns:
//   - LoaderBuilderOption: a function that applies the backend option to a loader
func WithBackend(b renderer.Backend) LoaderBuilderOption {
	return func(l *loader) {
		l.renderer = b
	}
}

// WithFetcher is an option builder that sets how documents, blobs and images are retrieved.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - LoaderBuilderOption: a function that applies the fetcher option to a loader
func WithFetcher(f Fetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.fetcher = f
	}
}

// WithLogger is an option builder that sets the logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *log.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithWorkers is an option builder that sets the number of workers fetching blobs and images.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = n
	}
}

// WithPrimitiveMode is an option builder that sets how multi-primitive meshes are loaded.
//
// Parameters:
//   - mode: PrimitiveModeFirst or PrimitiveModeSplit
//
// Returns:
//   - LoaderBuilderOption: a function that applies the mode to a loader
func WithPrimitiveMode(mode PrimitiveMode) LoaderBuilderOption {
	return func(l *loader) {
		l.primitiveMode = mode
	}
}

// WithEmissiveDefault is an option builder that sets the emissive factor of materials declaring none.
//
// Parameters:
//   - e: EmissiveWhite or EmissiveBlack
//
// Returns:
//   - LoaderBuilderOption: a function that applies the default to a loader
func WithEmissiveDefault(e EmissiveDefault) LoaderBuilderOption {
	return func(l *loader) {
		l.emissive = e
	}
}

// WithProfiling is an option builder that logs per-stage timing and allocation for every load.
//
// Parameters:
//   - enabled: whether loads are profiled
//
// Returns:
//   - LoaderBuilderOption: a function that applies the profiling option to a loader
func WithProfiling(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.profiling = enabled
	}
}

// WithScene is an option builder that pre-populates the scene cache.
//
// Parameters:
//   - key: the cache key for the scene
//   - scene: the scene to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithScene(key string, scene *model.Scene) LoaderBuilderOption {
	return func(l *loader) {
		l.sceneCache[key] = scene
	}
}
