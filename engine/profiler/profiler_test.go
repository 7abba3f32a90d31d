package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerStages(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	p := NewProfiler(logger)
	time.Sleep(2 * time.Millisecond)
	p.Mark("parse")
	_ = make([]byte, 1<<20)
	p.Mark("meshes")

	stages := p.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "parse", stages[0].Name)
	assert.Equal(t, "meshes", stages[1].Name)
	assert.GreaterOrEqual(t, stages[0].Duration, 2*time.Millisecond)

	total := p.Finish("scene.gltf")
	assert.GreaterOrEqual(t, total, stages[0].Duration+stages[1].Duration)

	out := buf.String()
	assert.Contains(t, out, "load profile")
	assert.Contains(t, out, "stage=parse")
	assert.Contains(t, out, "uri=scene.gltf")
}

func TestProfilerNil(t *testing.T) {
	var p *Profiler
	assert.NotPanics(t, func() {
		p.Mark("parse")
		assert.Nil(t, p.Stages())
		assert.Equal(t, time.Duration(0), p.Finish("scene.gltf"))
	})
}
