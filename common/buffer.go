package common

import (
	"fmt"
	"math"
)

// ComponentType is the numeric encoding of a single accessor component.
// Values match the glTF componentType enumeration.
type ComponentType int

const (
	ComponentTypeByte          ComponentType = 5120
	ComponentTypeUnsignedByte  ComponentType = 5121
	ComponentTypeShort         ComponentType = 5122
	ComponentTypeUnsignedShort ComponentType = 5123
	ComponentTypeUnsignedInt   ComponentType = 5125
	ComponentTypeFloat         ComponentType = 5126
)

// ByteSize returns the width of one component in bytes, or 0 for an unknown type.
func (c ComponentType) ByteSize() int {
	switch c {
	case ComponentTypeByte, ComponentTypeUnsignedByte:
		return 1
	case ComponentTypeShort, ComponentTypeUnsignedShort:
		return 2
	case ComponentTypeUnsignedInt, ComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// Valid reports whether c is one of the six supported encodings.
func (c ComponentType) Valid() bool {
	return c.ByteSize() != 0
}

func (c ComponentType) String() string {
	switch c {
	case ComponentTypeByte:
		return "BYTE"
	case ComponentTypeUnsignedByte:
		return "UNSIGNED_BYTE"
	case ComponentTypeShort:
		return "SHORT"
	case ComponentTypeUnsignedShort:
		return "UNSIGNED_SHORT"
	case ComponentTypeUnsignedInt:
		return "UNSIGNED_INT"
	case ComponentTypeFloat:
		return "FLOAT"
	default:
		return fmt.Sprintf("ComponentType(%d)", int(c))
	}
}

// ElementShape is the accessor element type (SCALAR, VEC3, MAT4, ...).
type ElementShape string

const (
	ElementShapeScalar ElementShape = "SCALAR"
	ElementShapeVec2   ElementShape = "VEC2"
	ElementShapeVec3   ElementShape = "VEC3"
	ElementShapeVec4   ElementShape = "VEC4"
	ElementShapeMat2   ElementShape = "MAT2"
	ElementShapeMat3   ElementShape = "MAT3"
	ElementShapeMat4   ElementShape = "MAT4"
)

// ComponentCount returns the number of components per element, or 0 for an unknown shape.
func (s ElementShape) ComponentCount() int {
	switch s {
	case ElementShapeScalar:
		return 1
	case ElementShapeVec2:
		return 2
	case ElementShapeVec3:
		return 3
	case ElementShapeVec4, ElementShapeMat2:
		return 4
	case ElementShapeMat3:
		return 9
	case ElementShapeMat4:
		return 16
	default:
		return 0
	}
}

// BufferTarget hints which kind of GPU buffer decoded data is destined for.
type BufferTarget int

const (
	// BufferTargetVertex marks per-vertex attribute data (ARRAY_BUFFER).
	BufferTargetVertex BufferTarget = 34962
	// BufferTargetIndex marks primitive index data (ELEMENT_ARRAY_BUFFER).
	BufferTargetIndex BufferTarget = 34963
)

func (t BufferTarget) String() string {
	switch t {
	case BufferTargetVertex:
		return "vertex"
	case BufferTargetIndex:
		return "index"
	default:
		return fmt.Sprintf("BufferTarget(%d)", int(t))
	}
}

// DecodedBuffer is a flat, typed numeric array produced from one accessor.
//
// Data holds exactly one of []int8, []uint8, []int16, []uint16, []uint32 or []float32,
// matching ComponentType, with Count*Size entries. A DecodedBuffer may alias the
// source blob; treat Data as read-only.
type DecodedBuffer struct {
	// Size is the number of components per element.
	Size int

	// ComponentType is the encoding of each component in Data.
	ComponentType ComponentType

	// Normalized indicates integer components map onto [0,1] or [-1,1].
	Normalized bool

	// Count is the number of elements.
	Count int

	// Target is the upload destination hint.
	Target BufferTarget

	// Data is the flat component array.
	Data any
}

// Len returns the number of components held in Data.
func (b *DecodedBuffer) Len() int {
	switch d := b.Data.(type) {
	case []int8:
		return len(d)
	case []uint8:
		return len(d)
	case []int16:
		return len(d)
	case []uint16:
		return len(d)
	case []uint32:
		return len(d)
	case []float32:
		return len(d)
	default:
		return 0
	}
}

// Bytes returns a little-endian byte view of Data suitable for a GPU upload.
// The returned slice shares memory with Data.
func (b *DecodedBuffer) Bytes() []byte {
	switch d := b.Data.(type) {
	case []int8:
		return SliceToBytes(d)
	case []uint8:
		return d
	case []int16:
		return SliceToBytes(d)
	case []uint16:
		return SliceToBytes(d)
	case []uint32:
		return SliceToBytes(d)
	case []float32:
		return SliceToBytes(d)
	default:
		return nil
	}
}

// Float32s returns a widened copy of Data. Normalized integer data is mapped to
// floating point using the glTF normalization rules.
func (b *DecodedBuffer) Float32s() []float32 {
	switch d := b.Data.(type) {
	case []float32:
		out := make([]float32, len(d))
		copy(out, d)
		return out
	case []int8:
		return widen(d, b.Normalized, func(v int8) float32 { return float32(math.Max(float64(v)/127, -1)) })
	case []uint8:
		return widen(d, b.Normalized, func(v uint8) float32 { return float32(v) / 255 })
	case []int16:
		return widen(d, b.Normalized, func(v int16) float32 { return float32(math.Max(float64(v)/32767, -1)) })
	case []uint16:
		return widen(d, b.Normalized, func(v uint16) float32 { return float32(v) / 65535 })
	case []uint32:
		return widen(d, false, func(v uint32) float32 { return float32(v) })
	default:
		return nil
	}
}

// Uint32s returns a widened copy of unsigned integer Data.
func (b *DecodedBuffer) Uint32s() ([]uint32, error) {
	switch d := b.Data.(type) {
	case []uint8:
		out := make([]uint32, len(d))
		for i, v := range d {
			out[i] = uint32(v)
		}
		return out, nil
	case []uint16:
		out := make([]uint32, len(d))
		for i, v := range d {
			out[i] = uint32(v)
		}
		return out, nil
	case []uint32:
		out := make([]uint32, len(d))
		copy(out, d)
		return out, nil
	default:
		return nil, fmt.Errorf("cannot widen %s components to uint32", b.ComponentType)
	}
}

func widen[T int8 | uint8 | int16 | uint16 | uint32](src []T, normalized bool, norm func(T) float32) []float32 {
	out := make([]float32, len(src))
	for i, v := range src {
		if normalized {
			out[i] = norm(v)
		} else {
			out[i] = float32(v)
		}
	}
	return out
}
