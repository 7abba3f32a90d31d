package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTypeByteSize(t *testing.T) {
	tests := []struct {
		ct   ComponentType
		size int
		name string
	}{
		{ComponentTypeByte, 1, "BYTE"},
		{ComponentTypeUnsignedByte, 1, "UNSIGNED_BYTE"},
		{ComponentTypeShort, 2, "SHORT"},
		{ComponentTypeUnsignedShort, 2, "UNSIGNED_SHORT"},
		{ComponentTypeUnsignedInt, 4, "UNSIGNED_INT"},
		{ComponentTypeFloat, 4, "FLOAT"},
		{ComponentType(5124), 0, "ComponentType(5124)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, tt.ct.ByteSize())
			assert.Equal(t, tt.size != 0, tt.ct.Valid())
			assert.Equal(t, tt.name, tt.ct.String())
		})
	}
}

func TestElementShapeComponentCount(t *testing.T) {
	assert.Equal(t, 1, ElementShapeScalar.ComponentCount())
	assert.Equal(t, 2, ElementShapeVec2.ComponentCount())
	assert.Equal(t, 3, ElementShapeVec3.ComponentCount())
	assert.Equal(t, 4, ElementShapeVec4.ComponentCount())
	assert.Equal(t, 4, ElementShapeMat2.ComponentCount())
	assert.Equal(t, 9, ElementShapeMat3.ComponentCount())
	assert.Equal(t, 16, ElementShapeMat4.ComponentCount())
	assert.Equal(t, 0, ElementShape("VEC5").ComponentCount())
}

func TestDecodedBufferFloat32sNormalized(t *testing.T) {
	tests := []struct {
		name string
		buf  DecodedBuffer
		want []float32
	}{
		{
			name: "unsigned byte",
			buf:  DecodedBuffer{ComponentType: ComponentTypeUnsignedByte, Normalized: true, Data: []uint8{0, 255}},
			want: []float32{0, 1},
		},
		{
			name: "signed byte clamps",
			buf:  DecodedBuffer{ComponentType: ComponentTypeByte, Normalized: true, Data: []int8{-128, 127}},
			want: []float32{-1, 1},
		},
		{
			name: "unsigned short",
			buf:  DecodedBuffer{ComponentType: ComponentTypeUnsignedShort, Normalized: true, Data: []uint16{65535}},
			want: []float32{1},
		},
		{
			name: "signed short clamps",
			buf:  DecodedBuffer{ComponentType: ComponentTypeShort, Normalized: true, Data: []int16{-32768, 0}},
			want: []float32{-1, 0},
		},
		{
			name: "not normalized",
			buf:  DecodedBuffer{ComponentType: ComponentTypeUnsignedByte, Data: []uint8{7}},
			want: []float32{7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, tt.buf.Float32s(), 1e-6)
		})
	}
}

func TestDecodedBufferFloat32sCopies(t *testing.T) {
	src := []float32{1, 2}
	b := DecodedBuffer{ComponentType: ComponentTypeFloat, Data: src}
	out := b.Float32s()
	out[0] = 9
	assert.Equal(t, float32(1), src[0])
	assert.Equal(t, 2, b.Len())
}

func TestDecodedBufferUint32s(t *testing.T) {
	b := DecodedBuffer{ComponentType: ComponentTypeUnsignedShort, Data: []uint16{1, 65535}}
	out, err := b.Uint32s()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 65535}, out)

	b = DecodedBuffer{ComponentType: ComponentTypeFloat, Data: []float32{1}}
	_, err = b.Uint32s()
	assert.Error(t, err)
}

func TestDecodedBufferBytes(t *testing.T) {
	b := DecodedBuffer{ComponentType: ComponentTypeUnsignedShort, Data: []uint16{0x0201, 0x0403}}
	assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
}

func TestPadTo4(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 3, 4}, PadTo4([]byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 0, 0}, PadTo4([]byte{1, 2}))
	assert.Equal(t, []uint16{1, 255}, WidenUint8([]uint8{1, 255}))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImageSniffsPNG(t *testing.T) {
	data := encodePNG(t, 4, 2)

	img, err := DecodeImage(data, "", 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), img.Width)
	assert.Equal(t, uint32(2), img.Height)
	require.Len(t, img.Pixels, 4*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, img.Pixels[:4])
}

func TestDecodeImageDownscales(t *testing.T) {
	data := encodePNG(t, 64, 32)

	img, err := DecodeImage(data, MimeTypePNG, 16)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), img.Width)
	assert.Equal(t, uint32(8), img.Height)
	assert.Len(t, img.Pixels, 16*8*4)
}

func TestDecodeImageRejects(t *testing.T) {
	_, err := DecodeImage(nil, "", 0)
	assert.Error(t, err)

	_, err = DecodeImage([]byte("plain text, not pixels"), "", 0)
	assert.Error(t, err)

	_, err = DecodeImage(encodePNG(t, 1, 1), "image/ktx2", 0)
	assert.Error(t, err)
}
