package loader

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorReaderComponentTypes(t *testing.T) {
	tests := []struct {
		name string
		ct   common.ComponentType
		vals any
	}{
		{"byte", common.ComponentTypeByte, []int8{-128, -1, 0, 1, 127, 5}},
		{"unsigned byte", common.ComponentTypeUnsignedByte, []uint8{0, 1, 2, 128, 254, 255}},
		{"short", common.ComponentTypeShort, []int16{-32768, -2, 0, 3, 32767, 7}},
		{"unsigned short", common.ComponentTypeUnsignedShort, []uint16{0, 1, 500, 40000, 65535, 9}},
		{"unsigned int", common.ComponentTypeUnsignedInt, []uint32{0, 1, 70000, 1 << 31, 4294967295, 3}},
		{"float", common.ComponentTypeFloat, []float32{-1.5, 0, 0.25, 3, 1e6, -7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGLTFFixture(t)
			view := f.view(leBytes(t, tt.vals), 0)
			acc := f.accessor(view, 0, tt.ct, common.ElementShapeVec2, 3)

			buf, err := newGLTFAccessorReader(f.document()).Read(acc)
			require.NoError(t, err)
			assert.Equal(t, tt.vals, buf.Data)
			assert.Equal(t, 2, buf.Size)
			assert.Equal(t, 3, buf.Count)
			assert.Equal(t, tt.ct, buf.ComponentType)
			assert.Equal(t, common.BufferTargetVertex, buf.Target)
		})
	}
}

func TestAccessorReaderUnalignedSource(t *testing.T) {
	f := newGLTFFixture(t)
	raw := append([]byte{0xAA}, leBytes(t, []float32{1, 2, 3})...)
	view := f.view(raw, 0)
	acc := f.accessor(view, 1, common.ComponentTypeFloat, common.ElementShapeScalar, 3)

	buf, err := newGLTFAccessorReader(f.document()).Read(acc)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, buf.Data)
}

func TestAccessorReaderInterleaved(t *testing.T) {
	type vertex struct {
		Position [3]float32
		Normal   [3]float32
		UV       [2]float32
	}
	verts := []vertex{
		{[3]float32{0, 0, 0}, [3]float32{0, 0, 1}, [2]float32{0, 0}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, 1}, [2]float32{1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{0, 0, 1}, [2]float32{0, 1}},
		{[3]float32{1, 1, 0}, [3]float32{0, 0, 1}, [2]float32{1, 1}},
	}

	f := newGLTFFixture(t)
	view := f.view(leBytes(t, verts), 32)
	pos := f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShapeVec3, 4)
	nrm := f.accessor(view, 12, common.ComponentTypeFloat, common.ElementShapeVec3, 4)
	uv := f.accessor(view, 24, common.ComponentTypeFloat, common.ElementShapeVec2, 4)
	reader := newGLTFAccessorReader(f.document())

	posBuf, err := reader.Read(pos)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0}, posBuf.Data)

	nrmBuf, err := reader.Read(nrm)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1}, nrmBuf.Data)

	uvBuf, err := reader.Read(uv)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 1, 1}, uvBuf.Data)
}

func TestAccessorReaderLayoutErrors(t *testing.T) {
	t.Run("span exceeds view", func(t *testing.T) {
		f := newGLTFFixture(t)
		view := f.view(make([]byte, 24), 0)
		acc := f.accessor(view, 4, common.ComponentTypeFloat, common.ElementShapeVec3, 2)

		_, err := newGLTFAccessorReader(f.document()).Read(acc)
		assert.ErrorIs(t, err, ErrLayout)
	})

	t.Run("exact span with trailing stride fits", func(t *testing.T) {
		f := newGLTFFixture(t)
		// two VEC3 elements 16 bytes apart end at byte 28, short of a full final stride
		view := f.view(make([]byte, 28), 16)
		acc := f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShapeVec3, 2)

		buf, err := newGLTFAccessorReader(f.document()).Read(acc)
		require.NoError(t, err)
		assert.Len(t, buf.Data, 6)
	})

	t.Run("view exceeds buffer", func(t *testing.T) {
		f := newGLTFFixture(t)
		view := f.view(make([]byte, 12), 0)
		f.doc.BufferViews[view].ByteLength = 64
		acc := f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShapeVec3, 1)

		_, err := newGLTFAccessorReader(f.document()).Read(acc)
		assert.ErrorIs(t, err, ErrLayout)
	})

	t.Run("stride smaller than element", func(t *testing.T) {
		f := newGLTFFixture(t)
		view := f.view(make([]byte, 48), 8)
		acc := f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShapeVec3, 2)

		_, err := newGLTFAccessorReader(f.document()).Read(acc)
		assert.ErrorIs(t, err, ErrLayout)
	})
}

func TestAccessorReaderHostileCounts(t *testing.T) {
	tests := []struct {
		name    string
		build   func(f *gltfFixture) int
		wantErr error
	}{
		{"scalar count overflows span", func(f *gltfFixture) int {
			view := f.view(make([]byte, 12), 0)
			return f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShapeScalar, 1<<62)
		}, ErrLayout},
		{"strided count overflows span", func(f *gltfFixture) int {
			view := f.view(make([]byte, 48), 16)
			return f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShapeVec3, 1<<62)
		}, ErrLayout},
		{"offset near max int", func(f *gltfFixture) int {
			view := f.view(make([]byte, 12), 0)
			return f.accessor(view, math.MaxInt-4, common.ComponentTypeFloat, common.ElementShapeScalar, 1)
		}, ErrLayout},
		{"zero fill too large", func(f *gltfFixture) int {
			f.doc.Accessors = append(f.doc.Accessors, gltfAccessor{
				ComponentType: int(common.ComponentTypeFloat),
				Type:          string(common.ElementShapeVec3),
				Count:         1 << 62,
			})
			return len(f.doc.Accessors) - 1
		}, ErrMalformedDocument},
		{"sparse offset near max int", func(f *gltfFixture) int {
			base := f.view(leBytes(f.t, []float32{1, 2}), 0)
			idx := f.view(leBytes(f.t, []uint16{1}), 0)
			acc := f.accessor(base, 0, common.ComponentTypeFloat, common.ElementShapeScalar, 2)
			f.doc.Accessors[acc].Sparse = &gltfAccessorSparse{
				Count:   1,
				Indices: gltfAccessorSparseIndices{BufferView: idx, ByteOffset: math.MaxInt - 1, ComponentType: int(common.ComponentTypeUnsignedShort)},
				Values:  gltfAccessorSparseValues{BufferView: base},
			}
			return acc
		}, ErrLayout},
		{"view offset near max int", func(f *gltfFixture) int {
			view := f.view(make([]byte, 12), 0)
			f.doc.BufferViews[view].ByteOffset = math.MaxInt - 4
			return f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShapeScalar, 1)
		}, ErrLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGLTFFixture(t)
			acc := tt.build(f)

			var err error
			require.NotPanics(t, func() {
				_, err = newGLTFAccessorReader(f.document()).Read(acc)
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodePathsAgree(t *testing.T) {
	tests := []struct {
		name string
		ct   common.ComponentType
		vals any
	}{
		{"byte", common.ComponentTypeByte, []int8{-128, -1, 0, 1, 127, 5, 9, -9}},
		{"unsigned byte", common.ComponentTypeUnsignedByte, []uint8{0, 1, 2, 128, 254, 255, 7, 8}},
		{"short", common.ComponentTypeShort, []int16{-32768, -2, 0, 3, 32767, 7, 11, -11}},
		{"unsigned short", common.ComponentTypeUnsignedShort, []uint16{0, 1, 500, 40000, 65535, 9, 10, 12}},
		{"unsigned int", common.ComponentTypeUnsignedInt, []uint32{0, 1, 70000, 1 << 31, 4294967295, 3, 4, 5}},
		{"float", common.ComponentTypeFloat, []float32{-1.5, 0, 0.25, 3, 1e6, -7, float32(math.Inf(1)), math.SmallestNonzeroFloat32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := componentCodecs[tt.ct]
			raw := leBytes(t, tt.vals)
			const comps = 2
			count := len(raw) / (comps * codec.size)

			contiguous := decodeContiguous(codec, raw, count*comps, comps)
			strided := decodeStrided(codec, raw, count, comps, comps*codec.size)
			assert.Equal(t, tt.vals, contiguous)
			assert.Equal(t, contiguous, strided)

			// one byte of lead-in forces the copying path for wider types
			shifted := append([]byte{0}, raw...)[1:]
			assert.Equal(t, strided, decodeContiguous(codec, shifted, count*comps, comps))
		})
	}
}

func TestAccessorReaderMalformed(t *testing.T) {
	f := newGLTFFixture(t)
	view := f.view(make([]byte, 16), 0)
	badType := f.accessor(view, 0, common.ComponentType(5124), common.ElementShapeScalar, 4)
	badShape := f.accessor(view, 0, common.ComponentTypeFloat, common.ElementShape("VEC5"), 1)
	padded := f.accessor(view, 0, common.ComponentTypeUnsignedByte, common.ElementShapeMat3, 1)
	reader := newGLTFAccessorReader(f.document())

	for name, idx := range map[string]int{
		"component type": badType,
		"element shape":  badShape,
		"column padded":  padded,
		"out of range":   99,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := reader.Read(idx)
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestAccessorReaderZerosWithoutBufferView(t *testing.T) {
	f := newGLTFFixture(t)
	f.doc.Accessors = append(f.doc.Accessors, gltfAccessor{
		ComponentType: int(common.ComponentTypeFloat),
		Type:          string(common.ElementShapeVec3),
		Count:         2,
	})

	buf, err := newGLTFAccessorReader(f.document()).Read(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, buf.Data)
}

func TestAccessorReaderSparse(t *testing.T) {
	f := newGLTFFixture(t)
	base := []float32{1, 1, 2, 2, 3, 3, 4, 4}
	baseView := f.view(leBytes(t, base), 0)
	idxView := f.view(leBytes(t, []uint16{1, 3}), 0)
	valView := f.view(leBytes(t, []float32{9, 9, 8, 8}), 0)

	acc := f.accessor(baseView, 0, common.ComponentTypeFloat, common.ElementShapeVec2, 4)
	f.doc.Accessors[acc].Sparse = &gltfAccessorSparse{
		Count:   2,
		Indices: gltfAccessorSparseIndices{BufferView: idxView, ComponentType: int(common.ComponentTypeUnsignedShort)},
		Values:  gltfAccessorSparseValues{BufferView: valView},
	}
	doc := f.document()

	buf, err := newGLTFAccessorReader(doc).Read(acc)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 9, 9, 3, 3, 8, 8}, buf.Data)

	// the base view must be untouched
	plain := f.accessor(baseView, 0, common.ComponentTypeFloat, common.ElementShapeVec2, 4)
	doc = f.document()
	again, err := newGLTFAccessorReader(doc).Read(plain)
	require.NoError(t, err)
	assert.Equal(t, base, again.Data)
}

func TestAccessorReaderSparseIndexOutOfRange(t *testing.T) {
	f := newGLTFFixture(t)
	baseView := f.view(leBytes(t, []float32{1, 2}), 0)
	idxView := f.view(leBytes(t, []uint8{5}), 0)
	valView := f.view(leBytes(t, []float32{9}), 0)

	acc := f.accessor(baseView, 0, common.ComponentTypeFloat, common.ElementShapeScalar, 2)
	f.doc.Accessors[acc].Sparse = &gltfAccessorSparse{
		Count:   1,
		Indices: gltfAccessorSparseIndices{BufferView: idxView, ComponentType: int(common.ComponentTypeUnsignedByte)},
		Values:  gltfAccessorSparseValues{BufferView: valView},
	}

	_, err := newGLTFAccessorReader(f.document()).Read(acc)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestAccessorReaderReadFloatsNormalized(t *testing.T) {
	f := newGLTFFixture(t)
	view := f.view([]byte{0, 255, 51, 255}, 0)
	acc := f.accessor(view, 0, common.ComponentTypeUnsignedByte, common.ElementShapeVec4, 1)
	f.doc.Accessors[acc].Normalized = true
	reader := newGLTFAccessorReader(f.document())

	vals, err := reader.ReadFloats(acc, common.ElementShapeVec4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 1, 0.2, 1}, vals, 1e-6)

	_, err = reader.ReadFloats(acc, common.ElementShapeVec3)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestAccessorReaderReadIndices(t *testing.T) {
	f := newGLTFFixture(t)
	idx := f.indices(0, 1, 2)
	flt := f.floats(common.ElementShapeScalar, 0, 1, 2)
	vec := f.accessor(*f.doc.Accessors[idx].BufferView, 0, common.ComponentTypeUnsignedShort, common.ElementShapeVec3, 1)
	reader := newGLTFAccessorReader(f.document())

	buf, err := reader.ReadIndices(idx)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 1, 2}, buf.Data)
	assert.Equal(t, common.BufferTargetIndex, buf.Target)

	_, err = reader.ReadIndices(flt)
	assert.ErrorIs(t, err, ErrMalformedDocument)

	_, err = reader.ReadIndices(vec)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestAccessorReaderIndexTargetFromView(t *testing.T) {
	f := newGLTFFixture(t)
	view := f.view(leBytes(t, []uint32{3, 4, 5}), 0)
	target := int(common.BufferTargetIndex)
	f.doc.BufferViews[view].Target = &target
	acc := f.accessor(view, 0, common.ComponentTypeUnsignedInt, common.ElementShapeScalar, 3)

	buf, err := newGLTFAccessorReader(f.document()).Read(acc)
	require.NoError(t, err)
	assert.Equal(t, common.BufferTargetIndex, buf.Target)
}
