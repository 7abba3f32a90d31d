// gltf_types.go contains the glTF 2.0 JSON schema as Go structs, plus index-checked lookups.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

// gltfDocument is the root of a glTF JSON document.
type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       *int             `json:"scene,omitempty"`
	Scenes      []gltfScene      `json:"scenes,omitempty"`
	Nodes       []gltfNode       `json:"nodes,omitempty"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
	Materials   []gltfMaterial   `json:"materials,omitempty"`
	Textures    []gltfTexture    `json:"textures,omitempty"`
	Images      []gltfImage      `json:"images,omitempty"`
	Samplers    []gltfSampler    `json:"samplers,omitempty"`
	Skins       []gltfSkin       `json:"skins,omitempty"`
	Animations  []gltfAnimation  `json:"animations,omitempty"`

	ExtensionsUsed     []string `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`
}

// gltfAsset contains metadata about the glTF asset.
type gltfAsset struct {
	// Version is the glTF version the asset targets, e.g. "2.0".
	Version string `json:"version"`

	// MinVersion is the minimum glTF version a loader must support.
	MinVersion string `json:"minVersion,omitempty"`

	Generator string `json:"generator,omitempty"`
	Copyright string `json:"copyright,omitempty"`
}

type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is a node in the node hierarchy. Matrix and TRS are mutually exclusive.
type gltfNode struct {
	Name     string `json:"name,omitempty"`
	Children []int  `json:"children,omitempty"`
	Mesh     *int   `json:"mesh,omitempty"`
	Skin     *int   `json:"skin,omitempty"`

	// Matrix is a column-major 4x4 local transform.
	Matrix *[16]float32 `json:"matrix,omitempty"`

	Translation *[3]float32 `json:"translation,omitempty"`

	// Rotation is a unit quaternion in (x, y, z, w) order.
	Rotation *[4]float32 `json:"rotation,omitempty"`

	Scale *[3]float32 `json:"scale,omitempty"`
}

// --- Mesh Data ---

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive is one draw of a mesh.
type gltfPrimitive struct {
	// Attributes maps semantic names (POSITION, NORMAL, ...) to accessor indices.
	Attributes map[string]int `json:"attributes"`

	Indices  *int `json:"indices,omitempty"`
	Material *int `json:"material,omitempty"`

	// Mode is the topology; TRIANGLES (4) when absent.
	Mode *int `json:"mode,omitempty"`
}

// Vertex attribute semantics consumed by the mesh extractor.
const (
	gltfAttributePosition = "POSITION"
	gltfAttributeNormal   = "NORMAL"
	gltfAttributeTangent  = "TANGENT"
	gltfAttributeTexCoord = "TEXCOORD_0"
	gltfAttributeJoints   = "JOINTS_0"
	gltfAttributeWeights  = "WEIGHTS_0"
)

const gltfPrimitiveModeTriangles = 4

// --- Buffer Data ---

// gltfAccessor describes a typed view into a buffer view.
type gltfAccessor struct {
	Name       string `json:"name,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`

	// ByteOffset is relative to the start of the buffer view.
	ByteOffset int `json:"byteOffset,omitempty"`

	// ComponentType is one of 5120, 5121, 5122, 5123, 5125, 5126.
	ComponentType int  `json:"componentType"`
	Normalized    bool `json:"normalized,omitempty"`
	Count         int  `json:"count"`

	// Type is the element shape: SCALAR, VEC2, VEC3, VEC4, MAT2, MAT3 or MAT4.
	Type string `json:"type"`

	Max []float32 `json:"max,omitempty"`
	Min []float32 `json:"min,omitempty"`

	Sparse *gltfAccessorSparse `json:"sparse,omitempty"`
}

// gltfAccessorSparse overrides Count elements of the base accessor.
type gltfAccessorSparse struct {
	Count   int                       `json:"count"`
	Indices gltfAccessorSparseIndices `json:"indices"`
	Values  gltfAccessorSparseValues  `json:"values"`
}

// gltfAccessorSparseIndices locates the tightly packed element indices to override.
type gltfAccessorSparseIndices struct {
	BufferView    int `json:"bufferView"`
	ByteOffset    int `json:"byteOffset,omitempty"`
	ComponentType int `json:"componentType"`
}

// gltfAccessorSparseValues locates the tightly packed replacement elements.
type gltfAccessorSparseValues struct {
	BufferView int `json:"bufferView"`
	ByteOffset int `json:"byteOffset,omitempty"`
}

// gltfBufferView is a byte range of a buffer, optionally interleaved.
type gltfBufferView struct {
	Name       string `json:"name,omitempty"`
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`

	// ByteStride is the distance between consecutive elements for interleaved data.
	ByteStride *int `json:"byteStride,omitempty"`

	// Target is 34962 for vertex data or 34963 for index data.
	Target *int `json:"target,omitempty"`
}

// gltfBuffer is a binary blob located by URI, embedded as a data URI, or carried in the GLB BIN chunk.
type gltfBuffer struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	// Data holds the fetched bytes; populated before any accessor is decoded.
	Data []byte `json:"-"`
}

// --- Materials and Textures ---

type gltfMaterial struct {
	Name                 string                    `json:"name,omitempty"`
	PbrMetallicRoughness *gltfPbrMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture        *gltfNormalTextureInfo    `json:"normalTexture,omitempty"`
	OcclusionTexture     *gltfOcclusionTextureInfo `json:"occlusionTexture,omitempty"`
	EmissiveTexture      *gltfTextureInfo          `json:"emissiveTexture,omitempty"`
	EmissiveFactor       *[3]float32               `json:"emissiveFactor,omitempty"`

	// AlphaMode is OPAQUE (default), MASK or BLEND.
	AlphaMode   string   `json:"alphaMode,omitempty"`
	AlphaCutoff *float32 `json:"alphaCutoff,omitempty"`
	DoubleSided bool     `json:"doubleSided,omitempty"`
}

type gltfPbrMetallicRoughness struct {
	BaseColorFactor          *[4]float32      `json:"baseColorFactor,omitempty"`
	BaseColorTexture         *gltfTextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor           *float32         `json:"metallicFactor,omitempty"`
	RoughnessFactor          *float32         `json:"roughnessFactor,omitempty"`
	MetallicRoughnessTexture *gltfTextureInfo `json:"metallicRoughnessTexture,omitempty"`
}

// gltfTextureInfo references a texture and the UV set it is sampled with.
type gltfTextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

type gltfNormalTextureInfo struct {
	gltfTextureInfo
	Scale *float32 `json:"scale,omitempty"`
}

type gltfOcclusionTextureInfo struct {
	gltfTextureInfo
	Strength *float32 `json:"strength,omitempty"`
}

type gltfTexture struct {
	Name    string `json:"name,omitempty"`
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`
}

// gltfImage is located by URI or, when embedded, by a buffer view plus MIME type.
type gltfImage struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

type gltfSampler struct {
	Name      string `json:"name,omitempty"`
	MagFilter *int   `json:"magFilter,omitempty"`
	MinFilter *int   `json:"minFilter,omitempty"`
	WrapS     *int   `json:"wrapS,omitempty"`
	WrapT     *int   `json:"wrapT,omitempty"`
}

// Sampler filter constants
const (
	gltfFilterNearest              = 9728
	gltfFilterLinear               = 9729
	gltfFilterNearestMipmapNearest = 9984
	gltfFilterLinearMipmapNearest  = 9985
	gltfFilterNearestMipmapLinear  = 9986
	gltfFilterLinearMipmapLinear   = 9987
)

// Sampler wrap constants
const (
	gltfWrapClampToEdge    = 33071
	gltfWrapMirroredRepeat = 33648
	gltfWrapRepeat         = 10497
)

// --- Skins and Animation ---

type gltfSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

type gltfAnimation struct {
	Name     string            `json:"name,omitempty"`
	Channels []gltfAnimChannel `json:"channels"`
	Samplers []gltfAnimSampler `json:"samplers"`
}

type gltfAnimChannel struct {
	Sampler int            `json:"sampler"`
	Target  gltfAnimTarget `json:"target"`
}

type gltfAnimTarget struct {
	Node *int `json:"node,omitempty"`

	// Path is translation, rotation, scale or weights.
	Path string `json:"path"`
}

type gltfAnimSampler struct {
	// Input is the accessor of keyframe times.
	Input int `json:"input"`

	// Output is the accessor of keyframe values.
	Output int `json:"output"`

	// Interpolation is LINEAR (default), STEP or CUBICSPLINE.
	Interpolation string `json:"interpolation,omitempty"`
}

// Animation path constants
const (
	gltfAnimPathTranslation = "translation"
	gltfAnimPathRotation    = "rotation"
	gltfAnimPathScale       = "scale"
	gltfAnimPathWeights     = "weights"
)

// --- GLB Binary Format ---

// gltfGLBHeader is the 12-byte header of a GLB container.
type gltfGLBHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// gltfGLBChunkHeader precedes every GLB chunk.
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0"
)

// --- Index-checked lookups ---

func (d *gltfDocument) accessor(i int) (*gltfAccessor, error) {
	if i < 0 || i >= len(d.Accessors) {
		return nil, malformed("accessor index %d out of range [0,%d)", i, len(d.Accessors))
	}
	return &d.Accessors[i], nil
}

func (d *gltfDocument) bufferView(i int) (*gltfBufferView, error) {
	if i < 0 || i >= len(d.BufferViews) {
		return nil, malformed("bufferView index %d out of range [0,%d)", i, len(d.BufferViews))
	}
	return &d.BufferViews[i], nil
}

func (d *gltfDocument) buffer(i int) (*gltfBuffer, error) {
	if i < 0 || i >= len(d.Buffers) {
		return nil, malformed("buffer index %d out of range [0,%d)", i, len(d.Buffers))
	}
	return &d.Buffers[i], nil
}

func (d *gltfDocument) texture(i int) (*gltfTexture, error) {
	if i < 0 || i >= len(d.Textures) {
		return nil, malformed("texture index %d out of range [0,%d)", i, len(d.Textures))
	}
	return &d.Textures[i], nil
}

func (d *gltfDocument) image(i int) (*gltfImage, error) {
	if i < 0 || i >= len(d.Images) {
		return nil, malformed("image index %d out of range [0,%d)", i, len(d.Images))
	}
	return &d.Images[i], nil
}

// validNode reports whether i is a node index.
func (d *gltfDocument) validNode(i int) bool {
	return i >= 0 && i < len(d.Nodes)
}

// bufferViewBytes returns the bytes covered by a buffer view without copying.
func (d *gltfDocument) bufferViewBytes(i int) ([]byte, error) {
	bv, err := d.bufferView(i)
	if err != nil {
		return nil, err
	}
	buf, err := d.buffer(bv.Buffer)
	if err != nil {
		return nil, err
	}
	if bv.ByteOffset < 0 || bv.ByteLength < 0 || bv.ByteOffset > len(buf.Data) || bv.ByteLength > len(buf.Data)-bv.ByteOffset {
		return nil, layoutError("bufferView %d [%d,+%d) exceeds buffer %d of %d bytes",
			i, bv.ByteOffset, bv.ByteLength, bv.Buffer, len(buf.Data))
	}
	return buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
}
