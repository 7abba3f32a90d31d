package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// gltfSupportedVersion is the newest glTF version this parser understands.
var gltfSupportedVersion = semver.MustParse("2.0.0")

// gltfSupportedExtensions lists the extensionsRequired entries the loader can honour.
// KHR_mesh_quantization only widens the allowed attribute component types, which the
// accessor reader already decodes generically.
var gltfSupportedExtensions = map[string]bool{
	"KHR_mesh_quantization": true,
}

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser turns the bytes of a .gltf or .glb file into a gltfDocument.
// It does not fetch external buffers; that is the importer's job.
type gltfParser interface {
	// Parse parses a glTF JSON document or GLB container. The format is detected
	// from the GLB magic number.
	//
	// Parameters:
	//   - data: the complete file contents
	//
	// Returns:
	//   - error: an ErrMalformedDocument-wrapped error if parsing fails
	Parse(data []byte) error

	// ParseReader reads r to the end and parses the result like Parse.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//
	// Returns:
	//   - error: error if reading or parsing fails
	ParseReader(r io.Reader) error

	// Document returns the parsed document, or nil before a successful Parse.
	Document() *gltfDocument

	// BinaryChunk returns the GLB BIN chunk, or nil for JSON documents.
	BinaryChunk() []byte
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) BinaryChunk() []byte {
	return p.glbBinaryChunk
}

func (p *gltfParserImpl) Parse(data []byte) error {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	return p.Parse(data)
}

// parseGLTF parses a glTF JSON document.
func (p *gltfParserImpl) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return malformed("invalid JSON: %v", err)
	}

	if err := gltfCheckAsset(&doc); err != nil {
		return err
	}

	p.document = &doc
	return nil
}

// parseGLB parses a GLB container: a 12-byte header, a JSON chunk, and an optional BIN chunk.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return malformed("GLB file too small (%d bytes)", len(data))
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return malformed("failed to read GLB header: %v", err)
	}
	if header.Magic != gltfGLBMagic {
		return malformed("invalid GLB magic 0x%08X", header.Magic)
	}
	if header.Version != gltfGLBVersion {
		return malformed("unsupported GLB container version %d", header.Version)
	}
	if int(header.Length) > len(data) {
		return malformed("GLB header declares %d bytes but file has %d", header.Length, len(data))
	}

	var jsonData []byte
	var binData []byte

	for first := true; ; first = false {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return malformed("failed to read GLB chunk header: %v", err)
		}
		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return malformed("GLB chunk of %d bytes exceeds remaining %d bytes", chunkHeader.ChunkLength, r.Len())
		}

		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return malformed("failed to read GLB chunk: %v", err)
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			if !first {
				return malformed("GLB JSON chunk must come first")
			}
			jsonData = chunkData
		case gltfGLBChunkBIN:
			if binData == nil {
				binData = chunkData
			}
		}
		// unknown chunk types are skipped
	}

	if jsonData == nil {
		return malformed("GLB file missing JSON chunk")
	}

	p.glbBinaryChunk = binData
	return p.parseGLTF(jsonData)
}

// gltfCheckAsset validates the asset version and required extensions.
func gltfCheckAsset(doc *gltfDocument) error {
	if doc.Asset.Version == "" {
		return malformed("asset.version is missing")
	}

	v, err := semver.NewVersion(doc.Asset.Version)
	if err != nil {
		return malformed("invalid asset.version %q: %v", doc.Asset.Version, err)
	}
	if v.Major() != gltfSupportedVersion.Major() {
		return malformed("unsupported glTF version %s: must be 2.x", doc.Asset.Version)
	}

	if doc.Asset.MinVersion != "" {
		mv, err := semver.NewVersion(doc.Asset.MinVersion)
		if err != nil {
			return malformed("invalid asset.minVersion %q: %v", doc.Asset.MinVersion, err)
		}
		if mv.GreaterThan(gltfSupportedVersion) {
			return malformed("asset requires glTF %s, newest supported is %s", doc.Asset.MinVersion, gltfSupportedVersion)
		}
	}

	for _, ext := range doc.ExtensionsRequired {
		if !gltfSupportedExtensions[ext] {
			return malformed("required extension %q is not supported", ext)
		}
	}

	return nil
}

// gltfDecodeDataURI decodes a data URI of the form data:<mime>[;base64],<payload>.
// Non-base64 payloads are percent-decoded.
//
// Parameters:
//   - uri: the full data URI
//
// Returns:
//   - []byte: the decoded payload
//   - string: the MIME type, possibly empty
//   - error: an ErrMalformedDocument-wrapped error if the URI is invalid
func gltfDecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", malformed("not a data URI")
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", malformed("data URI has no payload separator")
	}

	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", malformed("invalid base64 in data URI: %v", err)
		}
		return data, mimeType, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", malformed("invalid percent-encoding in data URI: %v", err)
	}
	return []byte(s), mimeType, nil
}

// gltfIsDataURI reports whether uri carries its payload inline.
func gltfIsDataURI(uri string) bool {
	return strings.HasPrefix(uri, "data:")
}
