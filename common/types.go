// package common contains plain data types shared by the loader, the model and the rendering backends.
// They are not interface-wrapped structs, just plain structs that express commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the pixel data in RGBA format, 4 bytes per pixel, rows tightly packed.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// DefaultSamplerStagingData returns the glTF default sampler: linear filtering with repeat wrapping.
func DefaultSamplerStagingData() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// Image MIME types accepted by DecodeImage.
const (
	MimeTypePNG  = "image/png"
	MimeTypeJPEG = "image/jpeg"
	MimeTypeWebP = "image/webp"
	MimeTypeBMP  = "image/bmp"
)

// DecodeImage decodes encoded image bytes into RGBA8 staging data.
// When mimeType is empty the format is sniffed from the leading bytes. Images larger than
// maxSize on either axis are downscaled preserving aspect ratio; maxSize <= 0 disables scaling.
//
// Parameters:
//   - data: the encoded image bytes (PNG, JPEG, WebP or BMP)
//   - mimeType: the declared MIME type, or "" to sniff
//   - maxSize: the maximum width or height in pixels, or 0 for no limit
//
// Returns:
//   - *TextureStagingData: the decoded RGBA pixels
//   - error: error if the data is not a supported image or fails to decode
func DecodeImage(data []byte, mimeType string, maxSize int) (*TextureStagingData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}

	if mimeType == "" {
		if !filetype.IsImage(data) {
			return nil, fmt.Errorf("data is not a recognized image")
		}
		kind, err := filetype.Match(data)
		if err != nil {
			return nil, fmt.Errorf("failed to sniff image type: %w", err)
		}
		mimeType = kind.MIME.Value
	}

	switch mimeType {
	case MimeTypePNG, MimeTypeJPEG, MimeTypeWebP, MimeTypeBMP:
	default:
		return nil, fmt.Errorf("unsupported image type %q", mimeType)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", mimeType, err)
	}

	src := img.Bounds()
	width, height := src.Dx(), src.Dy()
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		if width >= height {
			height = max(1, height*maxSize/width)
			width = maxSize
		} else {
			width = max(1, width*maxSize/height)
			height = maxSize
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == src.Dx() && height == src.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, src, draw.Src, nil)
	}

	return &TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(width),
		Height: uint32(height),
	}, nil
}
