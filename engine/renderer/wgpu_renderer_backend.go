package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture is the TextureHandle returned by the WebGPU backend.
type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	label  string
	device *wgpu.Device
	queue  *wgpu.Queue

	instance   *wgpu.Instance
	adapter    *wgpu.Adapter
	surface    *wgpu.Surface
	configured bool

	// live resources, so Release can free whatever the caller never deleted
	buffers  map[*wgpu.Buffer]struct{}
	textures map[*wgpuTexture]struct{}
	counter  int
}

// wgpuRendererBackend is a Backend that owns a WebGPU device and queue.
type wgpuRendererBackend interface {
	Backend

	// Device returns the underlying WebGPU device.
	Device() *wgpu.Device

	// Queue returns the device queue used for uploads.
	Queue() *wgpu.Queue

	// Surface returns the window surface, nil when headless.
	Surface() *wgpu.Surface
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}
var _ Presenter = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(cfg *backendConfig) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		label:    cfg.label,
		instance: wgpu.CreateInstance(nil),
		buffers:  make(map[*wgpu.Buffer]struct{}),
		textures: make(map[*wgpuTexture]struct{}),
	}
	if cfg.surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(cfg.surfaceDescriptor)
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: cfg.label + " Device",
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Surface() *wgpu.Surface {
	return b.surface
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return fmt.Errorf("backend %q has no surface", b.label)
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("surface offers no format for adapter")
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      capabilities.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.configured = true
	return nil
}

func (b *wgpuRendererBackendImpl) PresentClear(color [4]float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.configured {
		return fmt.Errorf("surface is not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create surface view: %w", err)
	}
	defer view.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: color[0], G: color[1], B: color[2], A: color[3]},
		}},
	})
	err = pass.End()
	pass.Release()
	if err != nil {
		return fmt.Errorf("failed to end clear pass: %w", err)
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish clear pass: %w", err)
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackendImpl) CreateVertexBuffer(buf *common.DecodedBuffer, usage BufferUsage) (BufferHandle, error) {
	flags := wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	if usage == UsageDynamic {
		flags |= wgpu.BufferUsageCopySrc
	}
	return b.createBuffer("Vertex Buffer", buf.Bytes(), flags)
}

func (b *wgpuRendererBackendImpl) CreateIndexBuffer(buf *common.DecodedBuffer) (BufferHandle, error) {
	data := buf.Bytes()
	switch d := buf.Data.(type) {
	case []uint8:
		// WebGPU has no 8-bit index format.
		data = common.SliceToBytes(common.WidenUint8(d))
	case []uint16, []uint32:
	default:
		return nil, fmt.Errorf("index buffer cannot hold %s components", buf.ComponentType)
	}
	return b.createBuffer("Index Buffer", data, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst)
}

func (b *wgpuRendererBackendImpl) createBuffer(kind string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data = common.PadTo4(data)
	if len(data) == 0 {
		data = make([]byte, 4)
	}

	b.counter++
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            fmt.Sprintf("%s %s %d", b.label, kind, b.counter),
		Size:             uint64(len(data)),
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	b.buffers[buf] = struct{}{}

	return buf, nil
}

func (b *wgpuRendererBackendImpl) CreateTexture(img *common.TextureStagingData, sampler *common.SamplerStagingData) (TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if img == nil || img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("cannot create an empty texture")
	}
	if uint64(len(img.Pixels)) < uint64(img.Width)*uint64(img.Height)*4 {
		return nil, fmt.Errorf("texture pixel data too short: %d bytes for %dx%d", len(img.Pixels), img.Width, img.Height)
	}

	b.counter++
	label := fmt.Sprintf("%s Texture %d", b.label, b.counter)

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              img.Width,
			Height:             img.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		img.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  img.Width * 4,
			RowsPerImage: img.Height,
		},
		&wgpu.Extent3D{
			Width:              img.Width,
			Height:             img.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	s := common.DefaultSamplerStagingData()
	if sampler != nil {
		s = *sampler
	}
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(s.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	h := &wgpuTexture{texture: tex, view: view, sampler: samp}
	b.textures[h] = struct{}{}
	return h, nil
}

func (b *wgpuRendererBackendImpl) DeleteBuffer(h BufferHandle) {
	buf, ok := h.(*wgpu.Buffer)
	if !ok || buf == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, live := b.buffers[buf]; !live {
		return
	}
	delete(b.buffers, buf)
	buf.Release()
}

func (b *wgpuRendererBackendImpl) DeleteTexture(h TextureHandle) {
	tex, ok := h.(*wgpuTexture)
	if !ok || tex == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, live := b.textures[tex]; !live {
		return
	}
	delete(b.textures, tex)
	tex.release()
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for buf := range b.buffers {
		buf.Release()
	}
	b.buffers = make(map[*wgpu.Buffer]struct{})
	for tex := range b.textures {
		tex.release()
	}
	b.textures = make(map[*wgpuTexture]struct{})

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	b.configured = false
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// release frees the sampler, view and texture in reverse creation order.
func (t *wgpuTexture) release() {
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
