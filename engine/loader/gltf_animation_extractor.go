package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/charmbracelet/log"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	doc    *gltfDocument
	reader gltfAccessorReader
	logger *log.Logger
}

// gltfAnimationExtractor groups glTF animation channels into per-node keyframe tracks.
type gltfAnimationExtractor interface {
	// ExtractAnimation assembles a single animation by index. Channels without a target
	// node and morph-target weight channels are skipped.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - *model.Animation: the clip, named animation_<index> when the document leaves it unnamed
	//   - error: error if a sampler or accessor is invalid
	ExtractAnimation(animIndex int) (*model.Animation, error)

	// ExtractAllAnimations assembles every animation in document order. Duplicate names
	// get a _<index> suffix so every clip stays addressable.
	//
	// Returns:
	//   - []*model.Animation: the clips
	//   - error: error if any animation fails
	ExtractAllAnimations() ([]*model.Animation, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor.
//
// Parameters:
//   - doc: the document with populated buffers
//   - reader: the accessor reader over doc
//   - logger: receives notices about skipped channels
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(doc *gltfDocument, reader gltfAccessorReader, logger *log.Logger) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{doc: doc, reader: reader, logger: logger}
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]*model.Animation, error) {
	anims := make([]*model.Animation, 0, len(e.doc.Animations))
	seen := make(map[string]bool, len(e.doc.Animations))

	for i := range e.doc.Animations {
		anim, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, err
		}
		if seen[anim.Name] {
			base := anim.Name
			for n := i; seen[anim.Name]; n++ {
				anim.Name = fmt.Sprintf("%s_%d", base, n)
			}
		}
		seen[anim.Name] = true
		anims = append(anims, anim)
	}

	return anims, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (*model.Animation, error) {
	if animIndex < 0 || animIndex >= len(e.doc.Animations) {
		return nil, malformed("animation index %d out of range [0,%d)", animIndex, len(e.doc.Animations))
	}
	src := &e.doc.Animations[animIndex]

	name := src.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}
	anim := model.NewAnimation(name)

	for i := range src.Channels {
		ch := &src.Channels[i]

		if ch.Target.Node == nil {
			continue
		}
		if ch.Target.Path == gltfAnimPathWeights {
			e.logger.Debug("skipping morph target weights channel", "animation", name, "channel", i)
			continue
		}

		nodeID := *ch.Target.Node
		if !e.doc.validNode(nodeID) {
			return nil, malformed("animation %q channel %d: node index %d out of range [0,%d)", name, i, nodeID, len(e.doc.Nodes))
		}
		if ch.Sampler < 0 || ch.Sampler >= len(src.Samplers) {
			return nil, malformed("animation %q channel %d: sampler index %d out of range [0,%d)", name, i, ch.Sampler, len(src.Samplers))
		}

		if err := e.extractChannel(anim, nodeID, ch.Target.Path, &src.Samplers[ch.Sampler]); err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
		}
	}

	return anim, nil
}

// extractChannel decodes one sampler and appends its keyframes to the node's track for path.
func (e *gltfAnimationExtractorImpl) extractChannel(anim *model.Animation, nodeID int, path string, sampler *gltfAnimSampler) error {
	var (
		n     int
		shape common.ElementShape
	)
	switch path {
	case gltfAnimPathRotation:
		n, shape = 4, common.ElementShapeVec4
	case gltfAnimPathTranslation, gltfAnimPathScale:
		n, shape = 3, common.ElementShapeVec3
	default:
		return malformed("unknown target path %q", path)
	}

	interp := model.InterpolationLinear
	if sampler.Interpolation != "" {
		interp = model.Interpolation(sampler.Interpolation)
	}

	// cubic-spline samples are (in-tangent, value, out-tangent) triples
	stride, offset := n, 0
	switch interp {
	case model.InterpolationLinear, model.InterpolationStep:
	case model.InterpolationCubicSpline:
		stride, offset = 3*n, n
	default:
		return malformed("unknown interpolation %q", sampler.Interpolation)
	}

	times, err := e.reader.ReadFloats(sampler.Input, common.ElementShapeScalar)
	if err != nil {
		return fmt.Errorf("failed to read keyframe times: %w", err)
	}
	values, err := e.reader.ReadFloats(sampler.Output, shape)
	if err != nil {
		return fmt.Errorf("failed to read keyframe values: %w", err)
	}
	if len(values) < len(times)*stride {
		return malformed("%d output values for %d %s keyframes, want %d", len(values), len(times), interp, len(times)*stride)
	}

	channel := anim.Upsert(nodeID)
	switch path {
	case gltfAnimPathTranslation:
		channel.Translation.Interpolation = interp
	case gltfAnimPathRotation:
		channel.Rotation.Interpolation = interp
	case gltfAnimPathScale:
		channel.Scale.Interpolation = interp
	}

	for k, t := range times {
		base := k*stride + offset
		switch path {
		case gltfAnimPathTranslation:
			channel.Translation.Append(t, [3]float32(values[base:base+3]))
		case gltfAnimPathRotation:
			channel.Rotation.Append(t, [4]float32(values[base:base+4]))
		case gltfAnimPathScale:
			channel.Scale.Append(t, [3]float32(values[base:base+3]))
		}
		if t > anim.Duration {
			anim.Duration = t
		}
	}

	return nil
}
