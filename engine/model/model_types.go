package model

import (
	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// --- GPU Resource References ---

// GPUBuffer is a backend buffer handle plus the layout of the data uploaded into it.
type GPUBuffer struct {
	// Handle is the opaque backend resource.
	Handle renderer.BufferHandle

	// Size is the number of components per element.
	Size int

	// ComponentType is the encoding of each component.
	ComponentType common.ComponentType

	// Normalized indicates integer components are normalized on read.
	Normalized bool

	// Count is the number of elements.
	Count int
}

// Texture is a backend texture handle plus the glTF texture reference it came from.
type Texture struct {
	// Handle is the opaque backend resource.
	Handle renderer.TextureHandle

	// URI is the external image location, empty for embedded images.
	URI string

	// TexCoord is the TEXCOORD_n set used to sample this texture.
	TexCoord int

	// Sampler holds the sampling parameters, nil when the texture uses the default sampler.
	Sampler *common.SamplerStagingData
}

// --- Geometry ---

// PrimitiveTopology is the glTF primitive mode.
type PrimitiveTopology int

const (
	TopologyPoints PrimitiveTopology = iota
	TopologyLines
	TopologyLineLoop
	TopologyLineStrip
	TopologyTriangles
	TopologyTriangleStrip
	TopologyTriangleFan
)

// Mesh is one renderable primitive with its vertex and index buffers.
// A nil buffer means the attribute is absent or has been released.
type Mesh struct {
	// Name is the mesh name from the document.
	Name string

	// ElementCount is the index count when indexed, otherwise the vertex count.
	ElementCount int

	// Indices is the index buffer, nil for non-indexed drawing.
	Indices *GPUBuffer

	Positions *GPUBuffer
	Normals   *GPUBuffer
	Tangents  *GPUBuffer
	TexCoords *GPUBuffer
	Joints    *GPUBuffer
	Weights   *GPUBuffer

	// Material is the index into Scene.Materials, or -1 when unassigned.
	Material int

	// Mode is the primitive topology.
	Mode PrimitiveTopology

	// SubMeshes holds the remaining primitives when the loader splits multi-primitive meshes.
	SubMeshes []*Mesh
}

// BufferSlots returns pointers to every buffer field of the mesh, index buffer first.
// Sub-meshes are not included.
func (m *Mesh) BufferSlots() []**GPUBuffer {
	return []**GPUBuffer{
		&m.Indices,
		&m.Positions,
		&m.Normals,
		&m.Tangents,
		&m.TexCoords,
		&m.Joints,
		&m.Weights,
	}
}

// Indexed reports whether the mesh draws through an index buffer.
func (m *Mesh) Indexed() bool {
	return m.Indices != nil
}

// --- Hierarchy ---

// Node is one entry of the scene's flat node table.
// Relations to other nodes are expressed only as ids into Scene.Nodes.
type Node struct {
	// ID is the node's index in Scene.Nodes.
	ID int

	// Name is the node name from the document.
	Name string

	// Children are the ids of this node's children in document order.
	Children []int

	// Parent is the id of the parent node, -1 for roots.
	Parent int

	// LocalTransform is the bind-pose transform relative to the parent.
	LocalTransform mgl32.Mat4

	// AnimatedTransform starts as identity and is written by animation playback.
	AnimatedTransform mgl32.Mat4

	// Translation, Rotation and Scale are the decomposed bind pose.
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3

	// Mesh is the index into Scene.Meshes, nil when the node has no geometry.
	Mesh *int

	// Skin is the index into Scene.Skins, nil when the node is not skinned.
	Skin *int
}

// Skin binds a mesh to a set of joint nodes.
type Skin struct {
	// Name is the skin name from the document.
	Name string

	// Joints are node ids, one per joint.
	Joints []int

	// InverseBindTransforms holds one matrix per joint, in joint order.
	InverseBindTransforms []mgl32.Mat4

	// Skeleton is the skeleton root node id, -1 when unspecified.
	Skeleton int
}

// --- Materials ---

// AlphaMode is how the alpha channel of the base color is interpreted.
type AlphaMode string

const (
	AlphaModeOpaque AlphaMode = "OPAQUE"
	AlphaModeMask   AlphaMode = "MASK"
	AlphaModeBlend  AlphaMode = "BLEND"
)

// Material is a PBR metallic-roughness material.
type Material struct {
	// Name is the material name from the document.
	Name string

	BaseColorTexture         *Texture
	MetallicRoughnessTexture *Texture
	EmissiveTexture          *Texture
	NormalTexture            *Texture
	OcclusionTexture         *Texture

	// BaseColorFactor is the linear RGBA multiplier for the base color.
	BaseColorFactor [4]float32

	MetallicFactor  float32
	RoughnessFactor float32

	// EmissiveFactor is the linear RGB multiplier for the emissive color.
	EmissiveFactor [3]float32

	// NormalScale scales the sampled normal's X and Y.
	NormalScale float32

	// OcclusionStrength blends the occlusion texture in.
	OcclusionStrength float32

	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
}

// TextureSlots returns pointers to every texture field of the material.
func (m *Material) TextureSlots() []**Texture {
	return []**Texture{
		&m.BaseColorTexture,
		&m.MetallicRoughnessTexture,
		&m.EmissiveTexture,
		&m.NormalTexture,
		&m.OcclusionTexture,
	}
}
