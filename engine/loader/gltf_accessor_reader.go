package loader

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-gltf/common"

	"golang.org/x/exp/constraints"
)

// component is the set of Go types accessor components decode into.
type component interface {
	constraints.Integer | constraints.Float
}

// hostLittleEndian reports whether blob bytes can be reinterpreted in place.
var hostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// componentCodec decodes one component type. Both decode paths of the reader are
// driven by this table; neither is duplicated per type.
type componentCodec struct {
	// size is the component width in bytes.
	size int

	// view reinterprets n tightly packed components in place. It reports false when
	// the host is big-endian or src is misaligned for the component type.
	view func(src []byte, n int) (any, bool)

	// strided reads count elements of comps components each, stride bytes apart.
	strided func(src []byte, count, comps, stride int) any

	// zeros allocates n zero components.
	zeros func(n int) any

	// scatter copies base and overwrites the elements named by indices with values.
	scatter func(base, values any, indices []uint32, comps int) (any, error)
}

// gltfMaxZeroComponents caps the allocation for accessors with no buffer view, whose
// count is not bounded by any blob.
const gltfMaxZeroComponents = 1 << 28

var componentCodecs = map[common.ComponentType]componentCodec{
	common.ComponentTypeByte:          newComponentCodec(func(b []byte) int8 { return int8(b[0]) }),
	common.ComponentTypeUnsignedByte:  newComponentCodec(func(b []byte) uint8 { return b[0] }),
	common.ComponentTypeShort:         newComponentCodec(func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) }),
	common.ComponentTypeUnsignedShort: newComponentCodec(binary.LittleEndian.Uint16),
	common.ComponentTypeUnsignedInt:   newComponentCodec(binary.LittleEndian.Uint32),
	common.ComponentTypeFloat:         newComponentCodec(func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }),
}

func newComponentCodec[T component](read func([]byte) T) componentCodec {
	var zero T
	size := int(unsafe.Sizeof(zero))

	return componentCodec{
		size: size,
		view: func(src []byte, n int) (any, bool) {
			v, ok := viewComponents[T](src, n)
			return v, ok
		},
		strided: func(src []byte, count, comps, stride int) any {
			return readStrided(src, count, comps, stride, size, read)
		},
		zeros: func(n int) any {
			return make([]T, n)
		},
		scatter: func(base, values any, indices []uint32, comps int) (any, error) {
			b, v := base.([]T), values.([]T)
			out := make([]T, len(b))
			copy(out, b)
			count := len(b) / comps
			for i, idx := range indices {
				if int(idx) >= count {
					return nil, fmt.Errorf("sparse index %d out of range [0,%d)", idx, count)
				}
				copy(out[int(idx)*comps:(int(idx)+1)*comps], v[i*comps:(i+1)*comps])
			}
			return out, nil
		},
	}
}

// viewComponents reinterprets the first n components of src without copying.
func viewComponents[T component](src []byte, n int) ([]T, bool) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if !hostLittleEndian || n <= 0 || n > len(src)/size {
		return nil, false
	}
	p := unsafe.Pointer(unsafe.SliceData(src))
	if uintptr(p)%uintptr(size) != 0 {
		return nil, false
	}
	return unsafe.Slice((*T)(p), n), true
}

// readStrided decodes element by element and component by component into a fresh slice.
func readStrided[T component](src []byte, count, comps, stride, size int, read func([]byte) T) []T {
	out := make([]T, count*comps)
	for e := 0; e < count; e++ {
		base := e * stride
		for c := 0; c < comps; c++ {
			off := base + c*size
			out[e*comps+c] = read(src[off : off+size])
		}
	}
	return out
}

// decodeContiguous decodes n tightly packed components, in place when the host allows it.
func decodeContiguous(codec componentCodec, src []byte, n, comps int) any {
	if v, ok := codec.view(src, n); ok {
		return v
	}
	return codec.strided(src, n/comps, comps, comps*codec.size)
}

// decodeStrided decodes count interleaved elements spaced stride bytes apart.
func decodeStrided(codec componentCodec, src []byte, count, comps, stride int) any {
	return codec.strided(src, count, comps, stride)
}

// gltfAccessorReaderImpl is the implementation of the gltfAccessorReader interface.
type gltfAccessorReaderImpl struct {
	doc *gltfDocument
}

// gltfAccessorReader decodes accessors into typed flat arrays.
// Every buffer referenced by the document must be populated before a read.
type gltfAccessorReader interface {
	// Read decodes an accessor in its native component type. The target hint is
	// taken from the buffer view, defaulting to vertex data.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - *common.DecodedBuffer: the decoded data, which may alias the source blob
	//   - error: ErrMalformedDocument or ErrLayout wrapped with context
	Read(accessorIndex int) (*common.DecodedBuffer, error)

	// ReadIndices decodes a SCALAR unsigned accessor and marks it as index data.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - *common.DecodedBuffer: the decoded indices
	//   - error: error if the accessor is not an unsigned scalar or fails to decode
	ReadIndices(accessorIndex int) (*common.DecodedBuffer, error)

	// ReadFloats decodes an accessor of the given shape and widens it to float32,
	// applying normalization where the accessor requests it.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - shape: the element shape the caller requires
	//
	// Returns:
	//   - []float32: count × components values
	//   - error: error if the shape does not match or decoding fails
	ReadFloats(accessorIndex int, shape common.ElementShape) ([]float32, error)
}

var _ gltfAccessorReader = &gltfAccessorReaderImpl{}

// newGLTFAccessorReader creates a reader over a document whose buffers are loaded.
//
// Parameters:
//   - doc: the document with populated buffer data
//
// Returns:
//   - gltfAccessorReader: the accessor reader
func newGLTFAccessorReader(doc *gltfDocument) gltfAccessorReader {
	return &gltfAccessorReaderImpl{doc: doc}
}

func (r *gltfAccessorReaderImpl) Read(accessorIndex int) (*common.DecodedBuffer, error) {
	acc, err := r.doc.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}

	ct := common.ComponentType(acc.ComponentType)
	codec, ok := componentCodecs[ct]
	if !ok {
		return nil, malformed("accessor %d: unsupported component type %d", accessorIndex, acc.ComponentType)
	}

	shape := common.ElementShape(acc.Type)
	comps := shape.ComponentCount()
	if comps == 0 {
		return nil, malformed("accessor %d: unsupported element type %q", accessorIndex, acc.Type)
	}
	if gltfColumnPadded(shape, codec.size) {
		return nil, malformed("accessor %d: column-padded %s of %s is not supported", accessorIndex, shape, ct)
	}
	if acc.Count < 0 || acc.ByteOffset < 0 {
		return nil, malformed("accessor %d: negative count or byteOffset", accessorIndex)
	}

	out := &common.DecodedBuffer{
		Size:          comps,
		ComponentType: ct,
		Normalized:    acc.Normalized,
		Count:         acc.Count,
		Target:        common.BufferTargetVertex,
	}

	elemSize := comps * codec.size

	if acc.BufferView == nil {
		// glTF: an accessor without a buffer view reads as zeros
		if acc.Count > gltfMaxZeroComponents/comps {
			return nil, malformed("accessor %d: count %d without a bufferView is too large", accessorIndex, acc.Count)
		}
		out.Data = codec.zeros(acc.Count * comps)
	} else {
		bv, err := r.doc.bufferView(*acc.BufferView)
		if err != nil {
			return nil, fmt.Errorf("accessor %d: %w", accessorIndex, err)
		}
		viewBytes, err := r.doc.bufferViewBytes(*acc.BufferView)
		if err != nil {
			return nil, fmt.Errorf("accessor %d: %w", accessorIndex, err)
		}
		if bv.Target != nil && *bv.Target == int(common.BufferTargetIndex) {
			out.Target = common.BufferTargetIndex
		}

		stride := elemSize
		if bv.ByteStride != nil && *bv.ByteStride > 0 {
			stride = *bv.ByteStride
		}
		if stride < elemSize {
			return nil, layoutError("accessor %d: byteStride %d is smaller than element size %d", accessorIndex, stride, elemSize)
		}

		// offset + (count-1)*stride + elemSize <= len, rearranged so nothing overflows
		if acc.Count > 0 {
			room := len(viewBytes) - elemSize
			if acc.ByteOffset > room || acc.Count-1 > (room-acc.ByteOffset)/stride {
				return nil, layoutError("accessor %d: %d elements of %d bytes at offset %d, stride %d exceed bufferView %d of %d bytes",
					accessorIndex, acc.Count, elemSize, acc.ByteOffset, stride, *acc.BufferView, len(viewBytes))
			}
		}

		src := viewBytes[min(acc.ByteOffset, len(viewBytes)):]
		if stride == elemSize {
			out.Data = decodeContiguous(codec, src, acc.Count*comps, comps)
		} else {
			out.Data = decodeStrided(codec, src, acc.Count, comps, stride)
		}
	}

	if acc.Sparse != nil {
		data, err := r.applySparse(accessorIndex, acc, codec, comps, out.Data)
		if err != nil {
			return nil, err
		}
		out.Data = data
	}

	return out, nil
}

func (r *gltfAccessorReaderImpl) ReadIndices(accessorIndex int) (*common.DecodedBuffer, error) {
	acc, err := r.doc.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != string(common.ElementShapeScalar) {
		return nil, malformed("index accessor %d: type %s is not SCALAR", accessorIndex, acc.Type)
	}
	switch common.ComponentType(acc.ComponentType) {
	case common.ComponentTypeUnsignedByte, common.ComponentTypeUnsignedShort, common.ComponentTypeUnsignedInt:
	default:
		return nil, malformed("index accessor %d: component type %s is not unsigned", accessorIndex, common.ComponentType(acc.ComponentType))
	}

	buf, err := r.Read(accessorIndex)
	if err != nil {
		return nil, err
	}
	buf.Target = common.BufferTargetIndex
	return buf, nil
}

func (r *gltfAccessorReaderImpl) ReadFloats(accessorIndex int, shape common.ElementShape) ([]float32, error) {
	acc, err := r.doc.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != string(shape) {
		return nil, malformed("accessor %d: type %s, want %s", accessorIndex, acc.Type, shape)
	}

	buf, err := r.Read(accessorIndex)
	if err != nil {
		return nil, err
	}
	return buf.Float32s(), nil
}

// applySparse overlays the sparse substitutions of acc onto base. base may alias the
// source blob, so the result is always a fresh copy.
func (r *gltfAccessorReaderImpl) applySparse(accessorIndex int, acc *gltfAccessor, codec componentCodec, comps int, base any) (any, error) {
	sp := acc.Sparse
	if sp.Count < 0 || sp.Count > acc.Count {
		return nil, malformed("accessor %d: sparse count %d out of range [0,%d]", accessorIndex, sp.Count, acc.Count)
	}
	if sp.Count == 0 {
		return base, nil
	}

	idxType := common.ComponentType(sp.Indices.ComponentType)
	switch idxType {
	case common.ComponentTypeUnsignedByte, common.ComponentTypeUnsignedShort, common.ComponentTypeUnsignedInt:
	default:
		return nil, malformed("accessor %d: sparse index component type %d is not unsigned", accessorIndex, sp.Indices.ComponentType)
	}
	idxCodec := componentCodecs[idxType]

	idxBytes, err := r.sparseSource(accessorIndex, sp.Indices.BufferView, sp.Indices.ByteOffset, sp.Count*idxCodec.size)
	if err != nil {
		return nil, err
	}
	rawIndices := &common.DecodedBuffer{
		Size:          1,
		ComponentType: idxType,
		Count:         sp.Count,
		Data:          decodeContiguous(idxCodec, idxBytes, sp.Count, 1),
	}
	indices, err := rawIndices.Uint32s()
	if err != nil {
		return nil, malformed("accessor %d: %v", accessorIndex, err)
	}

	valBytes, err := r.sparseSource(accessorIndex, sp.Values.BufferView, sp.Values.ByteOffset, sp.Count*comps*codec.size)
	if err != nil {
		return nil, err
	}
	values := decodeContiguous(codec, valBytes, sp.Count*comps, comps)

	merged, err := codec.scatter(base, values, indices, comps)
	if err != nil {
		return nil, malformed("accessor %d: %v", accessorIndex, err)
	}
	return merged, nil
}

// sparseSource returns length bytes at offset within a buffer view.
func (r *gltfAccessorReaderImpl) sparseSource(accessorIndex, bufferView, offset, length int) ([]byte, error) {
	viewBytes, err := r.doc.bufferViewBytes(bufferView)
	if err != nil {
		return nil, fmt.Errorf("accessor %d sparse: %w", accessorIndex, err)
	}
	if offset < 0 || offset > len(viewBytes) || length > len(viewBytes)-offset {
		return nil, layoutError("accessor %d sparse: span [%d,+%d) exceeds bufferView %d of %d bytes",
			accessorIndex, offset, length, bufferView, len(viewBytes))
	}
	return viewBytes[offset : offset+length], nil
}

// gltfColumnPadded reports whether matrix columns of this shape and component size
// carry the 4-byte alignment padding glTF requires.
func gltfColumnPadded(shape common.ElementShape, componentSize int) bool {
	switch shape {
	case common.ElementShapeMat2:
		return componentSize == 1
	case common.ElementShapeMat3:
		return componentSize < 4
	default:
		return false
	}
}
