package loader

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
// It parses the document and delegates assembly to the gltfImporter.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - importer: the importer that assembles parsed documents
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(importer gltfImporter) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer: importer,
	}
}

func (b *gltfLoaderBackendImpl) Import(ctx context.Context, uri string, data []byte) (*model.Scene, error) {
	parser := newGLTFParser()
	if err := parser.Parse(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", uri, err)
	}
	return b.importer.Import(ctx, uri, parser)
}

func (b *gltfLoaderBackendImpl) Extensions() []string {
	return []string{".gltf", ".glb"}
}
