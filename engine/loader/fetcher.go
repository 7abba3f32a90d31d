package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// fetcher is the implementation of the Fetcher interface.
type fetcher struct {
	client         *http.Client
	maxTextureSize int
}

// Fetcher retrieves documents, binary blobs and images for the loader.
// Every failure it returns wraps ErrTransport.
type Fetcher interface {
	// FetchJSON retrieves the document at uri. GLB containers are returned as-is.
	//
	// Parameters:
	//   - ctx: cancels the retrieval
	//   - uri: a file path, file:// URI or http(s) URL
	//
	// Returns:
	//   - []byte: the raw document bytes
	//   - error: ErrTransport-wrapped error if retrieval fails
	FetchJSON(ctx context.Context, uri string) ([]byte, error)

	// FetchBytes retrieves a binary blob.
	//
	// Parameters:
	//   - ctx: cancels the retrieval
	//   - uri: a file path, file:// URI or http(s) URL
	//
	// Returns:
	//   - []byte: the blob
	//   - error: ErrTransport-wrapped error if retrieval fails
	FetchBytes(ctx context.Context, uri string) ([]byte, error)

	// FetchImage retrieves and decodes an image.
	//
	// Parameters:
	//   - ctx: cancels the retrieval
	//   - uri: a file path, file:// URI or http(s) URL
	//
	// Returns:
	//   - *common.TextureStagingData: RGBA8 pixels ready for upload
	//   - error: ErrTransport-wrapped error if retrieval or decoding fails
	FetchImage(ctx context.Context, uri string) (*common.TextureStagingData, error)

	// DecodeImage decodes image bytes that were embedded in the document.
	//
	// Parameters:
	//   - ctx: cancels the decode
	//   - data: the encoded image
	//   - mimeType: the declared MIME type, or empty to sniff it
	//
	// Returns:
	//   - *common.TextureStagingData: RGBA8 pixels ready for upload
	//   - error: ErrTransport-wrapped error if decoding fails
	DecodeImage(ctx context.Context, data []byte, mimeType string) (*common.TextureStagingData, error)
}

var _ Fetcher = &fetcher{}

// FetcherOption is a functional option for configuring the Fetcher returned by NewFetcher.
type FetcherOption func(*fetcher)

// WithHTTPClient sets the client used for http and https URIs.
//
// Parameters:
//   - c: the HTTP client
//
// Returns:
//   - FetcherOption: a function that applies the client to a fetcher
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *fetcher) {
		f.client = c
	}
}

// WithMaxTextureSize downscales decoded images so neither side exceeds size pixels.
// Zero disables downscaling.
//
// Parameters:
//   - size: the largest allowed width or height
//
// Returns:
//   - FetcherOption: a function that applies the limit to a fetcher
func WithMaxTextureSize(size int) FetcherOption {
	return func(f *fetcher) {
		f.maxTextureSize = size
	}
}

// NewFetcher creates a Fetcher that reads http and https URIs over the network and
// everything else from the local filesystem.
//
// Parameters:
//   - options: a variadic list of FetcherOption functions
//
// Returns:
//   - Fetcher: the configured fetcher
func NewFetcher(options ...FetcherOption) Fetcher {
	f := &fetcher{
		client: http.DefaultClient,
	}
	for _, option := range options {
		option(f)
	}
	return f
}

func (f *fetcher) FetchJSON(ctx context.Context, uri string) ([]byte, error) {
	return f.FetchBytes(ctx, uri)
}

func (f *fetcher) FetchBytes(ctx context.Context, uri string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if isRemoteURI(uri) {
		data, err = f.fetchHTTP(ctx, uri)
	} else {
		data, err = fetchFile(ctx, uri)
	}
	if err != nil {
		return nil, transportError(uri, err)
	}
	return data, nil
}

func (f *fetcher) FetchImage(ctx context.Context, uri string) (*common.TextureStagingData, error) {
	data, err := f.FetchBytes(ctx, uri)
	if err != nil {
		return nil, err
	}
	img, err := common.DecodeImage(data, "", f.maxTextureSize)
	if err != nil {
		return nil, transportError(uri, err)
	}
	return img, nil
}

func (f *fetcher) DecodeImage(ctx context.Context, data []byte, mimeType string) (*common.TextureStagingData, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError("embedded image", err)
	}
	img, err := common.DecodeImage(data, mimeType, f.maxTextureSize)
	if err != nil {
		return nil, transportError("embedded image", err)
	}
	return img, nil
}

func (f *fetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func fetchFile(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filePath(uri))
}

// isRemoteURI reports whether uri is fetched over HTTP.
func isRemoteURI(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// filePath converts a file:// URI to a local path. Other strings are returned unchanged.
func filePath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// resolveURI resolves ref against the location of the document at base. Absolute
// references and data URIs are returned unchanged.
//
// Parameters:
//   - base: the document URI or path
//   - ref: the reference found inside the document
//
// Returns:
//   - string: the URI to fetch
func resolveURI(base, ref string) string {
	if gltfIsDataURI(ref) || isRemoteURI(ref) || strings.HasPrefix(ref, "file://") {
		return ref
	}

	if isRemoteURI(base) {
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	}

	// relative references in documents are URI-encoded
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	if filepath.IsAbs(ref) || path.IsAbs(ref) || base == "" {
		return ref
	}
	return filepath.Join(filepath.Dir(filePath(base)), filepath.FromSlash(ref))
}
