package loader

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURI(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"sibling file", "models/scene.gltf", "scene.bin", filepath.Join("models", "scene.bin")},
		{"nested and escaped", "models/scene.gltf", "tex/a%20b.png", filepath.Join("models", "tex", "a b.png")},
		{"parent dir", "models/sub/scene.gltf", "../shared.bin", filepath.Join("models", "shared.bin")},
		{"file uri base", "file:///data/scene.gltf", "scene.bin", filepath.Join(string(filepath.Separator)+"data", "scene.bin")},
		{"absolute ref", "models/scene.gltf", "/abs/scene.bin", "/abs/scene.bin"},
		{"http base", "https://cdn.example.com/a/scene.gltf", "b/scene.bin", "https://cdn.example.com/a/b/scene.bin"},
		{"http ref", "models/scene.gltf", "http://example.com/x.bin", "http://example.com/x.bin"},
		{"data ref", "models/scene.gltf", "data:;base64,AA==", "data:;base64,AA=="},
		{"empty base", "", "scene.bin", "scene.bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveURI(tt.base, tt.ref))
		})
	}
}

func TestFetcherFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	f := NewFetcher()

	data, err := f.FetchBytes(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	data, err = f.FetchBytes(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, err = f.FetchBytes(context.Background(), filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchBytes(ctx, path)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcherHTTP(t *testing.T) {
	png := encodePNG(t, 8, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	mux := http.NewServeMux()
	mux.HandleFunc("/scene.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	})
	mux.HandleFunc("/tex.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(WithHTTPClient(srv.Client()), WithMaxTextureSize(4))

	data, err := f.FetchBytes(context.Background(), srv.URL+"/scene.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = f.FetchBytes(context.Background(), srv.URL+"/missing.bin")
	assert.ErrorIs(t, err, ErrTransport)

	img, err := f.FetchImage(context.Background(), srv.URL+"/tex.png")
	require.NoError(t, err)
	assert.Equal(t, uint32(4), img.Width)
	assert.Equal(t, uint32(2), img.Height)
}

func TestFetcherDecodeImage(t *testing.T) {
	f := NewFetcher()
	png := encodePNG(t, 3, 5, color.NRGBA{A: 255})

	img, err := f.DecodeImage(context.Background(), png, "image/png")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), img.Width)
	assert.Equal(t, uint32(5), img.Height)
	assert.Len(t, img.Pixels, 3*5*4)

	_, err = f.DecodeImage(context.Background(), []byte("not an image"), "")
	assert.ErrorIs(t, err, ErrTransport)
}
