package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/charmbracelet/log"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	doc     *gltfDocument
	reader  gltfAccessorReader
	backend renderer.Backend
	mode    PrimitiveMode
	logger  *log.Logger
}

// gltfMeshExtractor decodes mesh primitives and uploads their buffers through the backend.
type gltfMeshExtractor interface {
	// ExtractMesh assembles a single mesh by index. The first primitive becomes the
	// mesh itself; the rest are skipped or become sub-meshes depending on the PrimitiveMode.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//
	// Returns:
	//   - *model.Mesh: the assembled mesh with backend buffer handles
	//   - error: error if decoding or buffer creation fails
	ExtractMesh(meshIndex int) (*model.Mesh, error)

	// ExtractAllMeshes assembles every mesh in document order.
	//
	// Returns:
	//   - []*model.Mesh: one mesh per document mesh
	//   - error: error if any mesh fails
	ExtractAllMeshes() ([]*model.Mesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor.
//
// Parameters:
//   - doc: the document with populated buffers
//   - reader: the accessor reader over doc
//   - backend: the backend receiving vertex and index buffers
//   - mode: how multi-primitive meshes are handled
//   - logger: receives the skipped-primitive warning
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(doc *gltfDocument, reader gltfAccessorReader, backend renderer.Backend, mode PrimitiveMode, logger *log.Logger) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{
		doc:     doc,
		reader:  reader,
		backend: backend,
		mode:    mode,
		logger:  logger,
	}
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]*model.Mesh, error) {
	meshes := make([]*model.Mesh, 0, len(e.doc.Meshes))
	for i := range e.doc.Meshes {
		m, err := e.ExtractMesh(i)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) (*model.Mesh, error) {
	if meshIndex < 0 || meshIndex >= len(e.doc.Meshes) {
		return nil, malformed("mesh index %d out of range [0,%d)", meshIndex, len(e.doc.Meshes))
	}

	mesh := &e.doc.Meshes[meshIndex]
	if len(mesh.Primitives) == 0 {
		return nil, malformed("mesh %d has no primitives", meshIndex)
	}

	out, err := e.extractPrimitive(mesh.Name, &mesh.Primitives[0])
	if err != nil {
		return nil, fmt.Errorf("mesh %d primitive 0: %w", meshIndex, err)
	}

	extra := len(mesh.Primitives) - 1
	if extra == 0 {
		return out, nil
	}

	switch e.mode {
	case PrimitiveModeSplit:
		for p := 1; p < len(mesh.Primitives); p++ {
			sub, err := e.extractPrimitive(fmt.Sprintf("%s_primitive_%d", mesh.Name, p), &mesh.Primitives[p])
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, p, err)
			}
			out.SubMeshes = append(out.SubMeshes, sub)
		}
	default:
		e.logger.Warn("only the first primitive of a mesh is loaded",
			"mesh", meshIndex, "name", mesh.Name, "skipped", extra)
	}

	return out, nil
}

// extractPrimitive decodes one primitive's attributes and indices and uploads them.
func (e *gltfMeshExtractorImpl) extractPrimitive(name string, prim *gltfPrimitive) (*model.Mesh, error) {
	m := &model.Mesh{
		Name:     name,
		Material: -1,
		Mode:     model.TopologyTriangles,
	}

	if prim.Mode != nil {
		if *prim.Mode < int(model.TopologyPoints) || *prim.Mode > int(model.TopologyTriangleFan) {
			return nil, malformed("unknown primitive mode %d", *prim.Mode)
		}
		m.Mode = model.PrimitiveTopology(*prim.Mode)
	}

	if prim.Material != nil {
		if *prim.Material < 0 || *prim.Material >= len(e.doc.Materials) {
			return nil, malformed("material index %d out of range [0,%d)", *prim.Material, len(e.doc.Materials))
		}
		m.Material = *prim.Material
	}

	attributes := []struct {
		semantic string
		slot     **model.GPUBuffer
	}{
		{gltfAttributePosition, &m.Positions},
		{gltfAttributeNormal, &m.Normals},
		{gltfAttributeTangent, &m.Tangents},
		{gltfAttributeTexCoord, &m.TexCoords},
		{gltfAttributeJoints, &m.Joints},
		{gltfAttributeWeights, &m.Weights},
	}

	for _, attr := range attributes {
		accessorIndex, ok := prim.Attributes[attr.semantic]
		if !ok {
			continue
		}

		buf, err := e.reader.Read(accessorIndex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr.semantic, err)
		}

		handle, err := e.backend.CreateVertexBuffer(buf, renderer.UsageStatic)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s vertex buffer: %w", attr.semantic, err)
		}
		*attr.slot = newGPUBuffer(handle, buf)
	}

	if prim.Indices != nil {
		buf, err := e.reader.ReadIndices(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}

		handle, err := e.backend.CreateIndexBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to create index buffer: %w", err)
		}
		m.Indices = newGPUBuffer(handle, buf)
		m.ElementCount = buf.Count
	} else if m.Positions != nil {
		m.ElementCount = m.Positions.Count
	}

	return m, nil
}

// newGPUBuffer records a backend handle together with the layout that was uploaded.
func newGPUBuffer(handle renderer.BufferHandle, buf *common.DecodedBuffer) *model.GPUBuffer {
	return &model.GPUBuffer{
		Handle:        handle,
		Size:          buf.Size,
		ComponentType: buf.ComponentType,
		Normalized:    buf.Normalized,
		Count:         buf.Count,
	}
}
