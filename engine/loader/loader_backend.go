package loader

import (
	"context"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
)

// loaderBackend turns the bytes of one document format into a Scene.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Import builds a scene from a complete document.
	//
	// Parameters:
	//   - ctx: cancels blob and image retrieval
	//   - uri: the document location, used to resolve relative references and as the scene URI
	//   - data: the raw document bytes
	//
	// Returns:
	//   - *model.Scene: the assembled scene
	//   - error: error if the document cannot be imported
	Import(ctx context.Context, uri string, data []byte) (*model.Scene, error)

	// Extensions lists the lower-case file extensions this backend reads.
	//
	// Returns:
	//   - []string: extensions including the leading dot
	Extensions() []string
}
