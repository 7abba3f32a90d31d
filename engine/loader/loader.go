package loader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/charmbracelet/log"
)

// LoaderBackendType identifies the scene file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// PrimitiveMode controls what happens to the second and later primitives of a mesh.
type PrimitiveMode int

const (
	// PrimitiveModeFirst loads only the first primitive and logs a warning for the rest.
	PrimitiveModeFirst PrimitiveMode = iota

	// PrimitiveModeSplit loads every primitive; the extra ones become Mesh.SubMeshes.
	PrimitiveModeSplit
)

// ParsePrimitiveMode parses "first" or "split".
//
// Parameters:
//   - s: the mode name
//
// Returns:
//   - PrimitiveMode: the parsed mode
//   - error: error if s names no mode
func ParsePrimitiveMode(s string) (PrimitiveMode, error) {
	switch strings.ToLower(s) {
	case "", "first":
		return PrimitiveModeFirst, nil
	case "split":
		return PrimitiveModeSplit, nil
	default:
		return PrimitiveModeFirst, fmt.Errorf("unknown primitive mode %q", s)
	}
}

// EmissiveDefault is the emissive factor given to materials that declare none.
type EmissiveDefault int

const (
	// EmissiveWhite defaults the emissive factor to (1, 1, 1).
	EmissiveWhite EmissiveDefault = iota

	// EmissiveBlack defaults the emissive factor to (0, 0, 0), the glTF schema default.
	EmissiveBlack
)

// ParseEmissiveDefault parses "white" or "black".
//
// Parameters:
//   - s: the default's name
//
// Returns:
//   - EmissiveDefault: the parsed default
//   - error: error if s names no default
func ParseEmissiveDefault(s string) (EmissiveDefault, error) {
	switch strings.ToLower(s) {
	case "", "white":
		return EmissiveWhite, nil
	case "black":
		return EmissiveBlack, nil
	default:
		return EmissiveWhite, fmt.Errorf("unknown emissive default %q", s)
	}
}

func (e EmissiveDefault) factor() [3]float32 {
	if e == EmissiveBlack {
		return [3]float32{0, 0, 0}
	}
	return [3]float32{1, 1, 1}
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	renderer renderer.Backend
	fetcher  Fetcher
	logger   *log.Logger

	workers       int
	primitiveMode PrimitiveMode
	emissive      EmissiveDefault
	profiling     bool

	sceneCache map[string]*model.Scene

	pool    worker.DynamicWorkerPool
	backend loaderBackend

	closed    bool
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// Loader loads glTF scenes through a rendering backend and caches them by URI.
// It also owns the symmetric teardown of everything a load allocated.
type Loader interface {
	// Load imports the document at uri and caches the result.
	// If the scene is already cached, the cached scene is returned.
	//
	// Parameters:
	//   - ctx: cancels document, blob and image retrieval
	//   - uri: a file path, file:// URI or http(s) URL of a .gltf or .glb document
	//
	// Returns:
	//   - *model.Scene: the loaded scene
	//   - error: wraps ErrMalformedDocument, ErrLayout or ErrTransport
	Load(ctx context.Context, uri string) (*model.Scene, error)

	// LoadReader imports a document from a reader and caches it under name.
	// Relative references inside the document are resolved against name.
	//
	// Parameters:
	//   - ctx: cancels blob and image retrieval
	//   - name: the cache key and base location of the document
	//   - r: the reader providing glTF JSON or GLB data
	//
	// Returns:
	//   - *model.Scene: the loaded scene
	//   - error: error if reading or importing fails
	LoadReader(ctx context.Context, name string, r io.Reader) (*model.Scene, error)

	// Get retrieves a cached scene. Returns nil if not found.
	//
	// Parameters:
	//   - uri: the cache key to look up
	//
	// Returns:
	//   - *model.Scene: the cached scene or nil
	Get(uri string) *model.Scene

	// Scenes returns a snapshot of the scene cache.
	//
	// Returns:
	//   - map[string]*model.Scene: all cached scenes keyed by URI
	Scenes() map[string]*model.Scene

	// Dispose releases every buffer and texture handle reachable from the scene,
	// clears those references and evicts the scene from the cache. Calling it again,
	// or with nil, does nothing.
	//
	// Parameters:
	//   - scene: the scene to tear down
	Dispose(scene *model.Scene)

	// Renderer returns the backend scenes are uploaded to.
	//
	// Returns:
	//   - renderer.Backend: the rendering backend
	Renderer() renderer.Backend

	// Close waits for loads in progress and stops the worker pool. Later loads fail
	// with ErrClosed; cached scenes stay valid and can still be disposed.
	//
	// Returns:
	//   - error: always nil
	Close() error
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
// Without WithBackend the loader uploads into a memory backend; without WithFetcher it
// reads from the filesystem and HTTP.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		sceneCache: make(map[string]*model.Scene),
		workers:    runtime.NumCPU(),
	}

	for _, option := range options {
		option(l)
	}

	if l.logger == nil {
		l.logger = newDefaultLogger()
	}
	if l.renderer == nil {
		l.renderer = renderer.NewMemoryBackend()
	}
	if l.fetcher == nil {
		l.fetcher = NewFetcher()
	}
	if l.workers < 1 {
		l.workers = 1
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(newGLTFImporter(gltfImportOptions{
			fetcher:       l.fetcher,
			backend:       l.renderer,
			pool:          l.pool,
			logger:        l.logger,
			primitiveMode: l.primitiveMode,
			emissive:      l.emissive,
			profiling:     l.profiling,
		}))
	}

	return l
}

// newDefaultLogger creates the logger used when none is configured.
func newDefaultLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "oxy-gltf",
	})
	l.SetLevel(log.WarnLevel)
	return l
}

func (l *loader) Load(ctx context.Context, uri string) (*model.Scene, error) {
	l.mu.RLock()
	if cached, ok := l.sceneCache[uri]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	if err := l.begin(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", uri, err)
	}
	defer l.inflight.Done()

	backend, err := l.resolveBackend(uri)
	if err != nil {
		return nil, err
	}

	data, err := l.fetcher.FetchJSON(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", uri, transportError(uri, err))
	}

	scene, err := backend.Import(ctx, uri, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", uri, err)
	}

	return l.store(uri, scene), nil
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader) (*model.Scene, error) {
	l.mu.RLock()
	if cached, ok := l.sceneCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	if err := l.begin(); err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	defer l.inflight.Done()

	if l.backend == nil {
		return nil, fmt.Errorf("loader has no format backend")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, transportError(name, err))
	}

	scene, err := l.backend.Import(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	return l.store(name, scene), nil
}

// begin registers a load in progress unless the loader is closed.
func (l *loader) begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.inflight.Add(1)
	return nil
}

// store caches scene under key. If a concurrent load of the same key finished first,
// the new scene is disposed and the cached one returned.
func (l *loader) store(key string, scene *model.Scene) *model.Scene {
	l.mu.Lock()
	if existing, ok := l.sceneCache[key]; ok {
		l.mu.Unlock()
		l.release(scene)
		return existing
	}
	l.sceneCache[key] = scene
	l.mu.Unlock()
	return scene
}

func (l *loader) Get(uri string) *model.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sceneCache[uri]
}

func (l *loader) Scenes() map[string]*model.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*model.Scene, len(l.sceneCache))
	for k, v := range l.sceneCache {
		result[k] = v
	}
	return result
}

func (l *loader) Renderer() renderer.Backend {
	return l.renderer
}

func (l *loader) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		l.inflight.Wait()
		l.pool.Stop()
		l.logger.Debug("loader closed")
	})
	return nil
}

func (l *loader) Dispose(scene *model.Scene) {
	if scene == nil {
		return
	}

	l.mu.Lock()
	for key, cached := range l.sceneCache {
		if cached == scene {
			delete(l.sceneCache, key)
		}
	}
	l.mu.Unlock()

	buffers, textures := l.release(scene)
	if buffers > 0 || textures > 0 {
		l.logger.Debug("scene disposed", "uri", scene.URI, "id", scene.ID, "buffers", buffers, "textures", textures)
	}
}

// release deletes every live handle of scene and clears the references.
//
// Returns:
//   - int: buffers released
//   - int: textures released
func (l *loader) release(scene *model.Scene) (int, int) {
	buffers, textures := 0, 0

	for _, m := range scene.Meshes {
		buffers += l.releaseMesh(m)
	}

	for _, mat := range scene.Materials {
		if mat == nil {
			continue
		}
		for _, slot := range mat.TextureSlots() {
			if *slot == nil {
				continue
			}
			l.renderer.DeleteTexture((*slot).Handle)
			*slot = nil
			textures++
		}
	}

	return buffers, textures
}

// releaseMesh deletes the buffers of a mesh and its sub-meshes.
func (l *loader) releaseMesh(m *model.Mesh) int {
	if m == nil {
		return 0
	}

	released := 0
	for _, slot := range m.BufferSlots() {
		if *slot == nil {
			continue
		}
		l.renderer.DeleteBuffer((*slot).Handle)
		*slot = nil
		released++
	}
	for _, sub := range m.SubMeshes {
		released += l.releaseMesh(sub)
	}
	return released
}

// resolveBackend selects an appropriate loader backend based on the document extension.
// Extensionless URIs go to the configured backend, which sniffs the content.
func (l *loader) resolveBackend(uri string) (loaderBackend, error) {
	if l.backend == nil {
		return nil, fmt.Errorf("loader has no format backend")
	}

	p := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return l.backend, nil
	}
	for _, supported := range l.backend.Extensions() {
		if ext == supported {
			return l.backend, nil
		}
	}
	return nil, fmt.Errorf("unsupported scene format: %s", ext)
}
