package common

import (
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(unsafe.Sizeof(zero))*len(data))
}

// PadTo4 returns data extended with zero bytes to the next multiple of four.
// WebGPU requires buffer sizes and queue writes to be 4-byte aligned.
// The input is returned unchanged when it is already aligned.
//
// Parameters:
//   - data: the bytes to pad
//
// Returns:
//   - []byte: data, or a padded copy of it
func PadTo4(data []byte) []byte {
	rem := len(data) % 4
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data)+4-rem)
	copy(padded, data)
	return padded
}

// WidenUint8 converts 8-bit indices to 16-bit, the narrowest index format WebGPU accepts.
//
// Parameters:
//   - src: the 8-bit indices
//
// Returns:
//   - []uint16: the widened indices
func WidenUint8(src []uint8) []uint16 {
	out := make([]uint16, len(src))
	for i, v := range src {
		out[i] = uint16(v)
	}
	return out
}
