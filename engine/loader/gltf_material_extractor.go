package loader

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// gltfTextureRef names a material texture slot and the reference that fills it.
type gltfTextureRef struct {
	name string
	info *gltfTextureInfo
	slot **model.Texture
}

// gltfTextureJob is one texture reference of one material slot, from resolution to upload.
type gltfTextureJob struct {
	material int
	slotName string
	slot     **model.Texture
	info     gltfTextureInfo

	// exactly one of uri or data is set once resolved
	uri      string
	data     []byte
	mimeType string

	sampler *common.SamplerStagingData
	image   *common.TextureStagingData
}

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	doc      *gltfDocument
	baseURI  string
	fetcher  Fetcher
	backend  renderer.Backend
	pool     worker.DynamicWorkerPool
	emissive EmissiveDefault
	logger   *log.Logger
}

// gltfMaterialExtractor resolves PBR materials and loads their textures.
type gltfMaterialExtractor interface {
	// ExtractAllMaterials assembles every material in document order. Texture images
	// are fetched and decoded concurrently on the worker pool; once all of them have
	// completed, textures are created through the backend on the calling goroutine.
	//
	// Parameters:
	//   - ctx: cancels outstanding image fetches
	//
	// Returns:
	//   - []*model.Material: the materials with texture handles
	//   - error: error if a reference is invalid, an image fails or texture creation fails
	ExtractAllMaterials(ctx context.Context) ([]*model.Material, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor.
//
// Parameters:
//   - doc: the document with populated buffers
//   - baseURI: the document location external images are resolved against
//   - fetcher: retrieves and decodes images
//   - backend: receives the decoded textures
//   - pool: runs the image jobs
//   - emissive: the emissive factor used when a material declares none
//   - logger: receives notices about textures without an image
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(doc *gltfDocument, baseURI string, fetcher Fetcher, backend renderer.Backend, pool worker.DynamicWorkerPool, emissive EmissiveDefault, logger *log.Logger) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{
		doc:      doc,
		baseURI:  baseURI,
		fetcher:  fetcher,
		backend:  backend,
		pool:     pool,
		emissive: emissive,
		logger:   logger,
	}
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials(ctx context.Context) ([]*model.Material, error) {
	materials := make([]*model.Material, len(e.doc.Materials))
	var jobs []*gltfTextureJob

	for i := range e.doc.Materials {
		mat, matJobs, err := e.extractMaterial(i)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		materials[i] = mat
		jobs = append(jobs, matJobs...)
	}

	tasks := make([]func(context.Context) error, len(jobs))
	for i, job := range jobs {
		tasks[i] = func(ctx context.Context) error {
			return e.loadImage(ctx, job)
		}
	}
	if err := runTasks(ctx, e.pool, tasks); err != nil {
		return nil, err
	}

	for _, job := range jobs {
		handle, err := e.backend.CreateTexture(job.image, job.sampler)
		if err != nil {
			return nil, fmt.Errorf("material %d: failed to create %s texture: %w", job.material, job.slotName, err)
		}
		*job.slot = &model.Texture{
			Handle:   handle,
			URI:      job.uri,
			TexCoord: job.info.TexCoord,
			Sampler:  job.sampler,
		}
	}

	return materials, nil
}

// extractMaterial reads a material's factors and resolves its texture references.
// Textures are not loaded here; the returned jobs fill the material's slots later.
func (e *gltfMaterialExtractorImpl) extractMaterial(materialIndex int) (*model.Material, []*gltfTextureJob, error) {
	src := &e.doc.Materials[materialIndex]

	mat := &model.Material{
		Name:              src.Name,
		BaseColorFactor:   [4]float32{1, 1, 1, 1},
		MetallicFactor:    1.0,
		RoughnessFactor:   1.0,
		EmissiveFactor:    e.emissive.factor(),
		NormalScale:       1.0,
		OcclusionStrength: 1.0,
		AlphaMode:         model.AlphaModeOpaque,
		AlphaCutoff:       0.5,
		DoubleSided:       src.DoubleSided,
	}

	var refs []gltfTextureRef

	if pbr := src.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			mat.BaseColorFactor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			mat.MetallicFactor = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			mat.RoughnessFactor = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			refs = append(refs, gltfTextureRef{"baseColor", pbr.BaseColorTexture, &mat.BaseColorTexture})
		}
		if pbr.MetallicRoughnessTexture != nil {
			refs = append(refs, gltfTextureRef{"metallicRoughness", pbr.MetallicRoughnessTexture, &mat.MetallicRoughnessTexture})
		}
	}

	if src.EmissiveFactor != nil {
		mat.EmissiveFactor = *src.EmissiveFactor
	}
	if src.EmissiveTexture != nil {
		refs = append(refs, gltfTextureRef{"emissive", src.EmissiveTexture, &mat.EmissiveTexture})
	}
	if src.NormalTexture != nil {
		if src.NormalTexture.Scale != nil {
			mat.NormalScale = *src.NormalTexture.Scale
		}
		refs = append(refs, gltfTextureRef{"normal", &src.NormalTexture.gltfTextureInfo, &mat.NormalTexture})
	}
	if src.OcclusionTexture != nil {
		if src.OcclusionTexture.Strength != nil {
			mat.OcclusionStrength = *src.OcclusionTexture.Strength
		}
		refs = append(refs, gltfTextureRef{"occlusion", &src.OcclusionTexture.gltfTextureInfo, &mat.OcclusionTexture})
	}

	switch model.AlphaMode(src.AlphaMode) {
	case "":
	case model.AlphaModeOpaque, model.AlphaModeMask, model.AlphaModeBlend:
		mat.AlphaMode = model.AlphaMode(src.AlphaMode)
	default:
		return nil, nil, malformed("unknown alphaMode %q", src.AlphaMode)
	}
	if src.AlphaCutoff != nil {
		mat.AlphaCutoff = *src.AlphaCutoff
	}

	var jobs []*gltfTextureJob
	for _, ref := range refs {
		job, err := e.resolveTexture(ref.info)
		if err != nil {
			return nil, nil, fmt.Errorf("%s texture: %w", ref.name, err)
		}
		if job == nil {
			continue
		}
		job.material = materialIndex
		job.slotName = ref.name
		job.slot = ref.slot
		jobs = append(jobs, job)
	}

	return mat, jobs, nil
}

// resolveTexture follows texture → image → bytes or URI. It returns nil when the
// texture has no image this loader can read.
func (e *gltfMaterialExtractorImpl) resolveTexture(info *gltfTextureInfo) (*gltfTextureJob, error) {
	tex, err := e.doc.texture(info.Index)
	if err != nil {
		return nil, err
	}

	job := &gltfTextureJob{info: *info}

	if tex.Sampler != nil {
		if *tex.Sampler < 0 || *tex.Sampler >= len(e.doc.Samplers) {
			return nil, malformed("sampler index %d out of range [0,%d)", *tex.Sampler, len(e.doc.Samplers))
		}
		job.sampler = gltfSamplerToStagingData(&e.doc.Samplers[*tex.Sampler])
	}

	if tex.Source == nil {
		e.logger.Warn("texture has no image source", "texture", info.Index)
		return nil, nil
	}
	img, err := e.doc.image(*tex.Source)
	if err != nil {
		return nil, err
	}

	switch {
	case img.BufferView != nil:
		data, err := e.doc.bufferViewBytes(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", *tex.Source, err)
		}
		job.data, job.mimeType = data, img.MimeType
	case gltfIsDataURI(img.URI):
		data, mimeType, err := gltfDecodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", *tex.Source, err)
		}
		job.data, job.mimeType = data, common.Coalesce(img.MimeType, mimeType)
	case img.URI != "":
		job.uri = resolveURI(e.baseURI, img.URI)
	default:
		return nil, malformed("image %d has neither uri nor bufferView", *tex.Source)
	}

	return job, nil
}

// loadImage fetches or decodes the job's image. It runs on the worker pool.
func (e *gltfMaterialExtractorImpl) loadImage(ctx context.Context, job *gltfTextureJob) error {
	var (
		img *common.TextureStagingData
		err error
	)
	if job.uri != "" {
		img, err = e.fetcher.FetchImage(ctx, job.uri)
	} else {
		img, err = e.fetcher.DecodeImage(ctx, job.data, job.mimeType)
	}
	if err != nil {
		return fmt.Errorf("material %d %s texture: %w", job.material, job.slotName, err)
	}
	job.image = img
	return nil
}

// gltfSamplerToStagingData converts a glTF sampler to SamplerStagingData.
// Unspecified fields keep the DefaultSamplerStagingData values.
//
// Parameters:
//   - s: the glTF sampler
//
// Returns:
//   - *common.SamplerStagingData: the converted sampler
func gltfSamplerToStagingData(s *gltfSampler) *common.SamplerStagingData {
	result := common.DefaultSamplerStagingData()

	if s.MagFilter != nil {
		switch *s.MagFilter {
		case gltfFilterNearest:
			result.MagFilter = wgpu.FilterModeNearest
		case gltfFilterLinear:
			result.MagFilter = wgpu.FilterModeLinear
		}
	}

	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			result.MinFilter = wgpu.FilterModeNearest
		case gltfFilterLinear, gltfFilterLinearMipmapNearest, gltfFilterLinearMipmapLinear:
			result.MinFilter = wgpu.FilterModeLinear
		}
		switch *s.MinFilter {
		case gltfFilterNearestMipmapNearest, gltfFilterLinearMipmapNearest, gltfFilterNearest, gltfFilterLinear:
			result.MipmapFilter = wgpu.MipmapFilterModeNearest
		case gltfFilterNearestMipmapLinear, gltfFilterLinearMipmapLinear:
			result.MipmapFilter = wgpu.MipmapFilterModeLinear
		}
	}

	if s.WrapS != nil {
		result.AddressModeU = gltfWrapToAddressMode(*s.WrapS)
	}
	if s.WrapT != nil {
		result.AddressModeV = gltfWrapToAddressMode(*s.WrapT)
	}

	return &result
}

// gltfWrapToAddressMode converts a glTF wrap constant to a wgpu AddressMode.
// Unknown values fall back to repeat, the glTF default.
func gltfWrapToAddressMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
