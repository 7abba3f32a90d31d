package loader

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/charmbracelet/log"
)

// gltfImportOptions carries the collaborators and policies of an import.
type gltfImportOptions struct {
	fetcher       Fetcher
	backend       renderer.Backend
	pool          worker.DynamicWorkerPool
	logger        *log.Logger
	primitiveMode PrimitiveMode
	emissive      EmissiveDefault
	profiling     bool
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	opts gltfImportOptions
}

// gltfImporter orchestrates a full glTF/GLB import.
// It fetches buffers, runs every extractor and composes the resulting Scene.
type gltfImporter interface {
	// Import assembles a scene from a parsed document.
	//
	// Parameters:
	//   - ctx: cancels blob and image retrieval
	//   - uri: the document location used to resolve relative references
	//   - parser: a parser that has already parsed the document
	//
	// Returns:
	//   - *model.Scene: the assembled scene
	//   - error: error if any stage fails; no scene is returned in that case
	Import(ctx context.Context, uri string, parser gltfParser) (*model.Scene, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - opts: the collaborators and policies used for every import
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(opts gltfImportOptions) gltfImporter {
	return &gltfImporterImpl{opts: opts}
}

func (imp *gltfImporterImpl) Import(ctx context.Context, uri string, parser gltfParser) (*model.Scene, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, malformed("no document after parsing")
	}
	if len(doc.Accessors) == 0 {
		return nil, fmt.Errorf("%s: %w", uri, ErrMissingAccessors)
	}

	var prof *profiler.Profiler
	if imp.opts.profiling {
		prof = profiler.NewProfiler(imp.opts.logger)
	}

	if err := imp.fetchBuffers(ctx, uri, doc, parser.BinaryChunk()); err != nil {
		return nil, err
	}
	prof.Mark("buffers")

	backend := &countingBackend{Backend: imp.opts.backend}
	scene, err := imp.assemble(ctx, uri, doc, backend, prof)
	if err != nil {
		if backend.buffers > 0 || backend.textures > 0 {
			imp.opts.logger.Warn("load failed after allocating backend resources",
				"uri", uri, "buffers", backend.buffers, "textures", backend.textures)
		}
		return nil, err
	}

	prof.Finish(uri)
	imp.opts.logger.Debug("scene loaded", "uri", uri, "id", scene.ID,
		"meshes", len(scene.Meshes), "nodes", len(scene.Nodes), "materials", len(scene.Materials),
		"buffers", backend.buffers, "textures", backend.textures)

	return scene, nil
}

// assemble runs every extractor over a document whose buffers are loaded.
func (imp *gltfImporterImpl) assemble(ctx context.Context, uri string, doc *gltfDocument, backend renderer.Backend, prof *profiler.Profiler) (*model.Scene, error) {
	reader := newGLTFAccessorReader(doc)

	meshes, err := newGLTFMeshExtractor(doc, reader, backend, imp.opts.primitiveMode, imp.opts.logger).ExtractAllMeshes()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}
	prof.Mark("meshes")

	nodeExtractor := newGLTFNodeExtractor(doc)
	nodes, err := nodeExtractor.ExtractAllNodes()
	if err != nil {
		return nil, fmt.Errorf("node extraction failed: %w", err)
	}
	roots, sceneName, err := nodeExtractor.ExtractRoots(nodes)
	if err != nil {
		return nil, fmt.Errorf("node extraction failed: %w", err)
	}

	skins, err := newGLTFSkinExtractor(doc, reader).ExtractAllSkins()
	if err != nil {
		return nil, fmt.Errorf("skin extraction failed: %w", err)
	}
	prof.Mark("nodes")

	animations, err := newGLTFAnimationExtractor(doc, reader, imp.opts.logger).ExtractAllAnimations()
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}
	prof.Mark("animations")

	materials, err := newGLTFMaterialExtractor(doc, uri, imp.opts.fetcher, backend, imp.opts.pool, imp.opts.emissive, imp.opts.logger).
		ExtractAllMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}
	prof.Mark("materials")

	return model.NewScene(
		model.WithName(gltfSceneName(sceneName, uri)),
		model.WithURI(uri),
		model.WithDependencies(gltfDependencies(uri, doc)),
		model.WithMeshes(meshes),
		model.WithNodes(nodes),
		model.WithRootNodes(roots),
		model.WithSkins(skins),
		model.WithAnimations(animations),
		model.WithMaterials(materials),
	), nil
}

// gltfDependencies lists the resolved URIs of external buffers and images.
func gltfDependencies(uri string, doc *gltfDocument) []string {
	var deps []string
	seen := make(map[string]bool)
	add := func(ref string) {
		if ref == "" || gltfIsDataURI(ref) {
			return
		}
		target := resolveURI(uri, ref)
		if !seen[target] {
			seen[target] = true
			deps = append(deps, target)
		}
	}
	for _, buf := range doc.Buffers {
		add(buf.URI)
	}
	for _, img := range doc.Images {
		add(img.URI)
	}
	return deps
}

// fetchBuffers populates every buffer's Data. Embedded data URIs are decoded in place,
// a URI-less first buffer takes the GLB BIN chunk, and external buffers are fetched
// concurrently relative to uri. All buffers are loaded when it returns nil.
func (imp *gltfImporterImpl) fetchBuffers(ctx context.Context, uri string, doc *gltfDocument, bin []byte) error {
	var jobs []func(context.Context) error

	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "":
			if i != 0 || bin == nil {
				return malformed("buffer %d has no uri and no GLB binary chunk", i)
			}
			buf.Data = bin
		case gltfIsDataURI(buf.URI):
			data, _, err := gltfDecodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			target := resolveURI(uri, buf.URI)
			jobs = append(jobs, func(ctx context.Context) error {
				data, err := imp.opts.fetcher.FetchBytes(ctx, target)
				if err != nil {
					return fmt.Errorf("buffer %d: %w", i, transportError(target, err))
				}
				buf.Data = data
				return nil
			})
		}
	}

	if err := runTasks(ctx, imp.opts.pool, jobs); err != nil {
		return fmt.Errorf("failed to fetch buffers: %w", transportError(uri, err))
	}

	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		if len(buf.Data) < buf.ByteLength {
			return malformed("buffer %d holds %d bytes, byteLength is %d", i, len(buf.Data), buf.ByteLength)
		}
	}

	imp.opts.logger.Debug("buffers loaded", "uri", uri, "count", len(doc.Buffers), "fetched", len(jobs))
	return nil
}

// gltfSceneName picks the default scene's name, falling back to the document's base name.
func gltfSceneName(sceneName, uri string) string {
	if sceneName != "" {
		return sceneName
	}
	if uri == "" {
		return "unnamed_scene"
	}

	base := filepath.Base(uri)
	if isRemoteURI(uri) {
		base = path.Base(uri)
	}
	return common.Coalesce(strings.TrimSuffix(base, path.Ext(base)), base)
}

// countingBackend counts the resources created through it during one import.
type countingBackend struct {
	renderer.Backend
	buffers  int
	textures int
}

func (c *countingBackend) CreateVertexBuffer(buf *common.DecodedBuffer, usage renderer.BufferUsage) (renderer.BufferHandle, error) {
	h, err := c.Backend.CreateVertexBuffer(buf, usage)
	if err == nil {
		c.buffers++
	}
	return h, err
}

func (c *countingBackend) CreateIndexBuffer(buf *common.DecodedBuffer) (renderer.BufferHandle, error) {
	h, err := c.Backend.CreateIndexBuffer(buf)
	if err == nil {
		c.buffers++
	}
	return h, err
}

func (c *countingBackend) CreateTexture(img *common.TextureStagingData, sampler *common.SamplerStagingData) (renderer.TextureHandle, error) {
	h, err := c.Backend.CreateTexture(img, sampler)
	if err == nil {
		c.textures++
	}
	return h, err
}
