package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFull(t *testing.T) {
	src := `
[loader]
workers = 4
primitive_mode = "split"
emissive_default = "black"
profiling = true
max_texture_size = 2048

[log]
level = "debug"

[viewer]
width = 800
height = 600
title = "preview"
background = [0.0, 0.5, 1.0, 1.0]
`
	cfg, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Loader.Workers)
	assert.Equal(t, "split", cfg.Loader.PrimitiveMode)
	assert.Equal(t, "black", cfg.Loader.EmissiveDefault)
	assert.True(t, cfg.Loader.Profiling)
	assert.Equal(t, 2048, cfg.Loader.MaxTextureSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ViewerConfig{Width: 800, Height: 600, Title: "preview", Background: [4]float64{0, 0.5, 1, 1}}, cfg.Viewer)
	assert.Len(t, cfg.LoaderOptions(), 5)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("[log]\nlevel = \"info\"\n"))
	require.NoError(t, err)

	want := Default()
	want.Log.Level = "info"
	assert.Equal(t, want, cfg)
	assert.Len(t, cfg.LoaderOptions(), 4)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "[loader]\nthreads = 2\n"},
		{"unknown section", "[render]\nvsync = true\n"},
		{"bad primitive mode", "[loader]\nprimitive_mode = \"all\"\n"},
		{"bad emissive", "[loader]\nemissive_default = \"grey\"\n"},
		{"negative workers", "[loader]\nworkers = -1\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"zero viewer", "[viewer]\nwidth = 0\n"},
		{"background out of range", "[viewer]\nbackground = [0.0, 2.0, 0.0, 1.0]\n"},
		{"wrong type", "[loader]\nworkers = \"many\"\n"},
		{"syntax", "[loader\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxyscene.toml")
	require.NoError(t, os.WriteFile(path, []byte("[viewer]\ntitle = \"x\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x", cfg.Viewer.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "error"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	assert.Equal(t, log.ErrorLevel, logger.GetLevel())

	logger.Warn("hidden")
	logger.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoaderOptionsApply(t *testing.T) {
	cfg := Default()
	cfg.Loader.Workers = 2

	l := loader.NewLoader(loader.BackendTypeGLTF, append(cfg.LoaderOptions(), loader.WithLogger(log.New(&bytes.Buffer{})))...)
	assert.NotNil(t, l.Renderer())
}
