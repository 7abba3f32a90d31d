package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// gltfSkinExtractorImpl is the implementation of the gltfSkinExtractor interface.
type gltfSkinExtractorImpl struct {
	doc    *gltfDocument
	reader gltfAccessorReader
}

// gltfSkinExtractor builds joint and inverse-bind tables from glTF skins.
type gltfSkinExtractor interface {
	// ExtractSkin assembles a skin by index.
	//
	// Parameters:
	//   - skinIndex: the index of the skin
	//
	// Returns:
	//   - *model.Skin: a skin with exactly one inverse bind matrix per joint
	//   - error: error if joints are invalid or the matrices cannot be decoded
	ExtractSkin(skinIndex int) (*model.Skin, error)

	// ExtractAllSkins assembles every skin in document order.
	//
	// Returns:
	//   - []*model.Skin: the skins
	//   - error: error if any skin fails
	ExtractAllSkins() ([]*model.Skin, error)

	// SkinForMesh finds the skin bound to a mesh by the first node instancing it.
	//
	// Parameters:
	//   - meshIndex: the mesh index
	//
	// Returns:
	//   - int: the skin index, or -1 if the mesh is not skinned
	SkinForMesh(meshIndex int) int
}

var _ gltfSkinExtractor = &gltfSkinExtractorImpl{}

// newGLTFSkinExtractor creates a new skin extractor.
//
// Parameters:
//   - doc: the document with populated buffers
//   - reader: the accessor reader over doc
//
// Returns:
//   - gltfSkinExtractor: the skin extractor
func newGLTFSkinExtractor(doc *gltfDocument, reader gltfAccessorReader) gltfSkinExtractor {
	return &gltfSkinExtractorImpl{doc: doc, reader: reader}
}

func (e *gltfSkinExtractorImpl) ExtractAllSkins() ([]*model.Skin, error) {
	skins := make([]*model.Skin, len(e.doc.Skins))
	for i := range e.doc.Skins {
		skin, err := e.ExtractSkin(i)
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", i, err)
		}
		skins[i] = skin
	}
	return skins, nil
}

func (e *gltfSkinExtractorImpl) ExtractSkin(skinIndex int) (*model.Skin, error) {
	if skinIndex < 0 || skinIndex >= len(e.doc.Skins) {
		return nil, malformed("skin index %d out of range [0,%d)", skinIndex, len(e.doc.Skins))
	}
	src := &e.doc.Skins[skinIndex]

	if len(src.Joints) == 0 {
		return nil, malformed("skin declares no joints")
	}
	for i, j := range src.Joints {
		if !e.doc.validNode(j) {
			return nil, malformed("joint %d: node index %d out of range [0,%d)", i, j, len(e.doc.Nodes))
		}
	}

	skin := &model.Skin{
		Name:                  src.Name,
		Joints:                append([]int(nil), src.Joints...),
		InverseBindTransforms: make([]mgl32.Mat4, len(src.Joints)),
		Skeleton:              -1,
	}

	if src.Skeleton != nil {
		if !e.doc.validNode(*src.Skeleton) {
			return nil, malformed("skeleton node index %d out of range [0,%d)", *src.Skeleton, len(e.doc.Nodes))
		}
		skin.Skeleton = *src.Skeleton
	}

	// glTF: without an accessor every inverse bind matrix is identity
	if src.InverseBindMatrices == nil {
		for i := range skin.InverseBindTransforms {
			skin.InverseBindTransforms[i] = mgl32.Ident4()
		}
		return skin, nil
	}

	floats, err := e.reader.ReadFloats(*src.InverseBindMatrices, common.ElementShapeMat4)
	if err != nil {
		return nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
	}
	if len(floats)/16 < len(src.Joints) {
		return nil, malformed("%d inverse bind matrices for %d joints", len(floats)/16, len(src.Joints))
	}

	for i := range skin.InverseBindTransforms {
		copy(skin.InverseBindTransforms[i][:], floats[i*16:(i+1)*16])
	}

	return skin, nil
}

func (e *gltfSkinExtractorImpl) SkinForMesh(meshIndex int) int {
	for _, node := range e.doc.Nodes {
		if node.Mesh != nil && *node.Mesh == meshIndex && node.Skin != nil {
			return *node.Skin
		}
	}
	return -1
}
