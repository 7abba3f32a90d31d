package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// gltfFixture builds small glTF documents in memory. All views live in one blob.
type gltfFixture struct {
	t    *testing.T
	doc  gltfDocument
	blob []byte
}

func newGLTFFixture(t *testing.T) *gltfFixture {
	t.Helper()
	return &gltfFixture{
		t:   t,
		doc: gltfDocument{Asset: gltfAsset{Version: "2.0"}},
	}
}

// view appends data at a 4-byte aligned offset and adds a buffer view covering it.
func (f *gltfFixture) view(data []byte, stride int) int {
	for len(f.blob)%4 != 0 {
		f.blob = append(f.blob, 0)
	}
	bv := gltfBufferView{Buffer: 0, ByteOffset: len(f.blob), ByteLength: len(data)}
	if stride > 0 {
		bv.ByteStride = &stride
	}
	f.blob = append(f.blob, data...)
	f.doc.BufferViews = append(f.doc.BufferViews, bv)
	return len(f.doc.BufferViews) - 1
}

func (f *gltfFixture) accessor(view, offset int, ct common.ComponentType, shape common.ElementShape, count int) int {
	v := view
	f.doc.Accessors = append(f.doc.Accessors, gltfAccessor{
		BufferView:    &v,
		ByteOffset:    offset,
		ComponentType: int(ct),
		Type:          string(shape),
		Count:         count,
	})
	return len(f.doc.Accessors) - 1
}

// floats adds a tightly packed FLOAT accessor holding vals.
func (f *gltfFixture) floats(shape common.ElementShape, vals ...float32) int {
	view := f.view(leBytes(f.t, vals), 0)
	return f.accessor(view, 0, common.ComponentTypeFloat, shape, len(vals)/shape.ComponentCount())
}

// indices adds an UNSIGNED_SHORT index accessor.
func (f *gltfFixture) indices(vals ...uint16) int {
	view := f.view(leBytes(f.t, vals), 0)
	return f.accessor(view, 0, common.ComponentTypeUnsignedShort, common.ElementShapeScalar, len(vals))
}

// triangleMesh adds a mesh with one three-vertex primitive and returns its index.
func (f *gltfFixture) triangleMesh(name string) int {
	pos := f.floats(common.ElementShapeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
	f.doc.Meshes = append(f.doc.Meshes, gltfMesh{
		Name:       name,
		Primitives: []gltfPrimitive{{Attributes: map[string]int{gltfAttributePosition: pos}}},
	})
	return len(f.doc.Meshes) - 1
}

func (f *gltfFixture) node(n gltfNode) int {
	f.doc.Nodes = append(f.doc.Nodes, n)
	return len(f.doc.Nodes) - 1
}

// document returns the document with the blob attached as buffer 0, the way the
// importer leaves it after fetching.
func (f *gltfFixture) document() *gltfDocument {
	doc := f.doc
	doc.Buffers = []gltfBuffer{{ByteLength: len(f.blob), Data: f.blob}}
	return &doc
}

// json encodes the document with the blob embedded as a base64 data URI.
func (f *gltfFixture) json() []byte {
	return f.jsonWithBuffer(gltfBuffer{
		ByteLength: len(f.blob),
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(f.blob),
	})
}

// jsonWithBufferURI encodes the document referencing the blob by an external URI.
func (f *gltfFixture) jsonWithBufferURI(uri string) []byte {
	return f.jsonWithBuffer(gltfBuffer{ByteLength: len(f.blob), URI: uri})
}

func (f *gltfFixture) jsonWithBuffer(buf gltfBuffer) []byte {
	doc := f.doc
	doc.Buffers = []gltfBuffer{buf}
	data, err := json.Marshal(doc)
	require.NoError(f.t, err)
	return data
}

// glb encodes the document as a GLB container with the blob as its BIN chunk.
func (f *gltfFixture) glb() []byte {
	doc := f.doc
	doc.Buffers = []gltfBuffer{{ByteLength: len(f.blob)}}
	jsonData, err := json.Marshal(doc)
	require.NoError(f.t, err)
	return buildGLB(f.t, jsonData, f.blob)
}

func buildGLB(t *testing.T, jsonData, bin []byte) []byte {
	t.Helper()
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}
	bin = common.PadTo4(bin)

	total := 12 + 8 + len(jsonData)
	if bin != nil {
		total += 8 + len(bin)
	}

	var buf bytes.Buffer
	write := func(v any) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }
	write(gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	write(gltfGLBChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: gltfGLBChunkJSON})
	buf.Write(jsonData)
	if bin != nil {
		write(gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
		buf.Write(bin)
	}
	return buf.Bytes()
}

func leBytes(t *testing.T, v any) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// mapFetcher serves files from memory and records what it was asked for.
type mapFetcher struct {
	mu      sync.Mutex
	files   map[string][]byte
	fetched []string
	decoded [][]byte
}

var _ Fetcher = &mapFetcher{}

func newMapFetcher(files map[string][]byte) *mapFetcher {
	return &mapFetcher{files: files}
}

func (f *mapFetcher) FetchJSON(ctx context.Context, uri string) ([]byte, error) {
	return f.FetchBytes(ctx, uri)
}

func (f *mapFetcher) FetchBytes(ctx context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, uri)
	data, ok := f.files[uri]
	if !ok {
		return nil, transportError(uri, fmt.Errorf("open %s: %w", uri, fs.ErrNotExist))
	}
	return data, nil
}

func (f *mapFetcher) FetchImage(ctx context.Context, uri string) (*common.TextureStagingData, error) {
	data, err := f.FetchBytes(ctx, uri)
	if err != nil {
		return nil, err
	}
	img, err := common.DecodeImage(data, "", 0)
	if err != nil {
		return nil, transportError(uri, err)
	}
	return img, nil
}

func (f *mapFetcher) DecodeImage(ctx context.Context, data []byte, mimeType string) (*common.TextureStagingData, error) {
	f.mu.Lock()
	f.decoded = append(f.decoded, append([]byte(nil), data...))
	f.mu.Unlock()

	img, err := common.DecodeImage(data, mimeType, 0)
	if err != nil {
		return nil, transportError("embedded image", err)
	}
	return img, nil
}

func (f *mapFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// newTestLoader builds a loader over an in-memory fetcher and a memory backend.
func newTestLoader(t *testing.T, files map[string][]byte, options ...LoaderBuilderOption) (Loader, renderer.MemoryBackend, *mapFetcher) {
	t.Helper()
	backend := renderer.NewMemoryBackend()
	fetcher := newMapFetcher(files)
	opts := append([]LoaderBuilderOption{
		WithBackend(backend),
		WithFetcher(fetcher),
		WithLogger(log.New(io.Discard)),
		WithWorkers(2),
	}, options...)
	return NewLoader(BackendTypeGLTF, opts...), backend, fetcher
}
