// Package renderer owns the GPU stack end to end: instance, surface, device,
// frame pool, pipeline and frame driver, wired to the shipped Vulkan backend.
// The engine talks to the Renderer type only.
package renderer

import (
	"fmt"

	"github.com/spaghettifunk/avenir/engine/config"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/math"
	"github.com/spaghettifunk/avenir/engine/platform"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
	"github.com/spaghettifunk/avenir/engine/renderer/metadata"
	"github.com/spaghettifunk/avenir/engine/renderer/shader"
	"github.com/spaghettifunk/avenir/engine/renderer/vulkan"
)

// Renderer drives one window's worth of rendering. It negotiates the device
// and swapchain once at startup, keeps the pipeline in step with the surface
// across resizes and shader reloads, and pushes every frame packet through
// the frame driver.
type Renderer struct {
	platform *platform.Platform
	config   *config.Configuration

	instance *vulkan.Instance
	surface  *vulkan.Surface
	adapter  hal.Adapter
	family   hal.QueueFamily
	device   hal.Device

	pool     *hal.FramePool
	layout   hal.FrameLayout
	compiler *shader.Compiler
	builder  *hal.PipelineBuilder
	pipeline *hal.Pipeline
	geometry hal.GeometryBuffers
	driver   *hal.FrameDriver
	watcher  *shader.Watcher

	prefs         hal.NegotiationPrefs
	pendingExtent *hal.Extent
}

// New returns a renderer bound to the platform window and configuration.
// Nothing touches the GPU until Initialize.
func New(p *platform.Platform, cfg *config.Configuration) *Renderer {
	return &Renderer{
		platform: p,
		config:   cfg,
	}
}

// Initialize brings the whole stack up: instance, surface, device, negotiated
// swapchain, frame pool, pipeline, a fallback geometry and the frame driver.
// Any failure unwinds whatever was already created and is fatal.
func (r *Renderer) Initialize() error {
	instance, err := vulkan.CreateInstance(vulkan.InstanceConfig{
		AppName:    r.config.Application.Name,
		Extensions: r.platform.RequiredVulkanExtensions(),
		Debug:      r.config.Renderer.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	r.instance = instance

	surface, err := vulkan.CreateSurface(instance, r.platform.Window)
	if err != nil {
		r.Shutdown()
		return fmt.Errorf("failed to create surface: %w", err)
	}
	r.surface = surface

	adapter, err := hal.PickAdapter(instance)
	if err != nil {
		r.Shutdown()
		return err
	}
	r.adapter = adapter

	family, err := hal.PickQueueFamily(adapter, surface)
	if err != nil {
		r.Shutdown()
		return err
	}
	r.family = family

	device, err := adapter.OpenDevice(family)
	if err != nil {
		r.Shutdown()
		return err
	}
	r.device = device

	r.prefs = negotiationPrefs(&r.config.Renderer)
	swapchain, err := hal.Negotiate(adapter, surface, r.platform.ClientSize(), r.prefs)
	if err != nil {
		r.Shutdown()
		return err
	}

	pool, err := hal.NewFramePool(device, adapter, surface, hal.FramePoolConfig{
		Swapchain:      swapchain,
		FramesInFlight: r.config.Renderer.FramesInFlight,
		QueueFamily:    family,
	})
	if err != nil {
		r.Shutdown()
		return err
	}
	r.pool = pool
	r.layout = hal.NewFrameLayout(adapter.Limits().MinUniformBufferOffsetAlignment)

	r.compiler = shader.NewCompiler()
	r.builder = r.makeBuilder(shader.Load(r.config.Shaders.Dir))
	pipeline, err := r.buildPipeline(r.builder)
	if err != nil {
		r.Shutdown()
		return err
	}
	r.pipeline = pipeline

	// The fallback mesh keeps the driver drawable until the application
	// uploads a real one.
	if err := r.SetGeometry(fallbackGeometry()); err != nil {
		r.Shutdown()
		return err
	}

	driver, err := hal.NewFrameDriver(device, pool, pipeline, r.layout, r.geometry, r.config.Renderer.FramesInFlight)
	if err != nil {
		r.Shutdown()
		return err
	}
	r.driver = driver
	driver.SetClearColour(hal.ClearColour(r.config.Renderer.ClearColour))

	if r.config.Shaders.Watch {
		if r.config.Shaders.Dir == "" {
			core.LogWarn("shader watching requires a shader directory, skipping")
		} else if watcher, err := shader.NewWatcher(r.config.Shaders.Dir); err != nil {
			core.LogWarn("shader watching unavailable: %s", err)
		} else {
			r.watcher = watcher
		}
	}

	core.LogInfo("renderer up on %s: %dx%d, %d frames in flight",
		adapter.Name(), pool.Extent().Width, pool.Extent().Height, pool.FramesInFlight())
	return nil
}

// SetGeometry uploads the mesh into fresh vertex and index buffers and points
// the driver at them. The previous buffers are destroyed once the device is
// idle, so frames in flight never lose the mesh under their feet.
func (r *Renderer) SetGeometry(geometry *metadata.Geometry) error {
	vertexData := hal.VertexBytes(geometry.Vertices)
	indexData := hal.IndexBytes(geometry.Indices)
	if len(vertexData) == 0 || len(indexData) == 0 {
		err := fmt.Errorf("geometry %q has no vertices or indices", geometry.Name)
		core.LogError(err.Error())
		return err
	}

	vertex, err := r.device.CreateBuffer(uint64(len(vertexData)), hal.BufferUsageVertex)
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer: %w", err)
	}
	if err := vertex.Upload(0, vertexData); err != nil {
		vertex.Destroy()
		return fmt.Errorf("vertex upload: %w", err)
	}

	index, err := r.device.CreateBuffer(uint64(len(indexData)), hal.BufferUsageIndex)
	if err != nil {
		vertex.Destroy()
		return fmt.Errorf("failed to create index buffer: %w", err)
	}
	if err := index.Upload(0, indexData); err != nil {
		index.Destroy()
		vertex.Destroy()
		return fmt.Errorf("index upload: %w", err)
	}

	if r.driver != nil {
		if err := r.device.WaitIdle(); err != nil {
			index.Destroy()
			vertex.Destroy()
			return fmt.Errorf("failed to wait for device idle before geometry swap: %w", err)
		}
	}

	previous := r.geometry
	r.geometry = hal.GeometryBuffers{
		Vertex:     vertex,
		Index:      index,
		IndexCount: uint32(len(geometry.Indices)),
	}
	if r.driver != nil {
		r.driver.SetGeometry(r.geometry)
	}
	if previous.Vertex != nil {
		previous.Index.Destroy()
		previous.Vertex.Destroy()
	}

	core.LogInfo("geometry %q uploaded: %d vertices, %d indices",
		geometry.Name, len(geometry.Vertices), len(geometry.Indices))
	return nil
}

// DrawFrame pushes one packet through the frame driver. A resize recorded
// since the last frame rebuilds the swapchain and pipeline first; a stale
// swapchain reported mid-frame triggers the same rebuild and drops the frame.
// Everything else propagates to the caller as fatal.
func (r *Renderer) DrawFrame(packet *metadata.RenderPacket) error {
	if r.pendingExtent != nil {
		extent := *r.pendingExtent
		if extent.Width == 0 || extent.Height == 0 {
			// Minimized. Nothing to present to until the next resize.
			return nil
		}
		if err := r.rebuild(extent); err != nil {
			return err
		}
		r.pendingExtent = nil
	}

	frame, err := frameInput(packet)
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	err = r.driver.Draw(frame)
	if err == nil {
		return nil
	}
	if hal.IsRecoverable(err) {
		core.LogDebug("swapchain stale: %s", err)
		return r.rebuild(r.platform.ClientSize())
	}
	return err
}

// Resized records the new client area. The rebuild happens at the top of the
// next DrawFrame so it always runs between frames.
func (r *Renderer) Resized(width, height uint32) {
	r.pendingExtent = &hal.Extent{Width: width, Height: height}
}

// Aspect returns the swapchain aspect ratio for projection set-up.
func (r *Renderer) Aspect() float32 {
	extent := r.pool.Extent()
	if extent.Height == 0 {
		return 1
	}
	return float32(extent.Width) / float32(extent.Height)
}

// ReloadShaders recompiles the shader sources from disk and swaps in a
// freshly built pipeline. On failure the running pipeline stays in place, so
// a broken shader on disk never takes the frame loop down.
func (r *Renderer) ReloadShaders() error {
	builder := r.makeBuilder(shader.Load(r.config.Shaders.Dir))
	pipeline, err := r.buildPipeline(builder)
	if err != nil {
		core.LogError("shader reload failed, keeping the current pipeline: %s", err)
		return err
	}

	if err := r.device.WaitIdle(); err != nil {
		pipeline.Destroy(r.device)
		return fmt.Errorf("failed to wait for device idle before pipeline swap: %w", err)
	}
	r.pipeline.Destroy(r.device)
	r.builder = builder
	r.pipeline = pipeline
	if err := r.driver.Rebind(r.pool, r.pipeline); err != nil {
		return err
	}
	core.LogInfo("shaders reloaded")
	return nil
}

// Shutdown tears the stack down in strict reverse construction order. It
// tolerates a partially initialized renderer.
func (r *Renderer) Shutdown() {
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
	if r.device != nil {
		if err := r.device.WaitIdle(); err != nil {
			core.LogWarn("device wait idle failed during renderer shutdown: %s", err.Error())
		}
	}
	if r.driver != nil {
		r.driver.Destroy()
		r.driver = nil
	}
	if r.pipeline != nil {
		r.pipeline.Destroy(r.device)
		r.pipeline = nil
	}
	if r.geometry.Vertex != nil {
		r.geometry.Index.Destroy()
		r.geometry.Vertex.Destroy()
		r.geometry = hal.GeometryBuffers{}
	}
	if r.pool != nil {
		r.pool.Destroy()
		r.pool = nil
	}
	if r.device != nil {
		r.device.Destroy()
		r.device = nil
	}
	if r.surface != nil {
		r.surface.Destroy(r.instance)
		r.surface = nil
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
	core.LogInfo("renderer shut down")
}

// rebuild renegotiates the swapchain against the window extent, rebuilds the
// pipeline for the new extent and rebinds the driver. The frame counter and
// the frame data buffer survive.
func (r *Renderer) rebuild(window hal.Extent) error {
	if err := r.pool.Rebuild(window, r.prefs); err != nil {
		return err
	}
	pipeline, err := r.buildPipeline(r.builder)
	if err != nil {
		return err
	}
	r.pipeline.Destroy(r.device)
	r.pipeline = pipeline
	return r.driver.Rebind(r.pool, r.pipeline)
}

// makeBuilder assembles the scene pipeline description: two vertex bindings,
// per-vertex mesh data and per-instance model matrix columns, plus the fixed
// states. Baked states and render pass are stamped on at build time so the
// same builder serves every rebuild.
func (r *Renderer) makeBuilder(sources []hal.ShaderSource) *hal.PipelineBuilder {
	builder := hal.NewPipelineBuilder(r.device, r.compiler)
	for _, src := range sources {
		builder.AddShader(src)
	}

	builder.
		AddVertexBuffer(hal.VertexBufferDesc{Binding: 0, Stride: hal.Vertex3DStride}).
		AddVertexBuffer(hal.VertexBufferDesc{Binding: 1, Stride: uint32(hal.InstanceSize), PerInstance: true}).
		AddVertexAttribute(hal.VertexAttribute{Location: 0, Binding: 0, Format: hal.VertexFormatFloat32x3, Offset: 0}).
		AddVertexAttribute(hal.VertexAttribute{Location: 1, Binding: 0, Format: hal.VertexFormatFloat32x3, Offset: 12}).
		AddVertexAttribute(hal.VertexAttribute{Location: 2, Binding: 0, Format: hal.VertexFormatFloat32x3, Offset: 24}).
		// Instance model matrix, one vec4 column per location.
		AddVertexAttribute(hal.VertexAttribute{Location: 3, Binding: 1, Format: hal.VertexFormatFloat32x4, Offset: 0}).
		AddVertexAttribute(hal.VertexAttribute{Location: 4, Binding: 1, Format: hal.VertexFormatFloat32x4, Offset: 16}).
		AddVertexAttribute(hal.VertexAttribute{Location: 5, Binding: 1, Format: hal.VertexFormatFloat32x4, Offset: 32}).
		AddVertexAttribute(hal.VertexAttribute{Location: 6, Binding: 1, Format: hal.VertexFormatFloat32x4, Offset: 48})

	polygonMode := hal.PolygonModeFill
	if r.config.Renderer.Wireframe {
		polygonMode = hal.PolygonModeLine
	}
	builder.
		WithInputAssembly(hal.InputAssemblyState{Topology: hal.TopologyTriangleList}).
		WithRasterizer(hal.RasterizerState{
			CullMode:    hal.CullModeBack,
			FrontFace:   hal.FrontFaceCounterClockwise,
			PolygonMode: polygonMode,
			LineWidth:   1,
		}).
		// The colour pass has no depth attachment, so depth testing stays off.
		WithDepthStencil(hal.DepthStencilState{}).
		WithBlend(hal.NewAlphaBlendState())
	return builder
}

// buildPipeline stamps the current extent and render pass onto the builder
// and compiles the pipeline.
func (r *Renderer) buildPipeline(builder *hal.PipelineBuilder) (*hal.Pipeline, error) {
	return builder.
		WithBakedStates(hal.NewBakedStates(r.pool.Extent())).
		WithRenderPass(r.pool.RenderPass()).
		Build()
}

// frameInput flattens a render packet into the driver's frame input. Light
// capacity is checked here so a bad packet fails before any GPU work.
func frameInput(packet *metadata.RenderPacket) (hal.FrameInput, error) {
	if len(packet.Lights) > hal.MaxLights {
		return hal.FrameInput{}, &hal.TooManyLightsError{Requested: len(packet.Lights), Max: hal.MaxLights}
	}
	frame := hal.FrameInput{
		Uniform: hal.UniformArgs{
			Projection:    packet.Projection,
			View:          packet.View,
			AmbientColour: packet.AmbientColour,
			LightCount:    uint32(len(packet.Lights)),
		},
		Instances: packet.Models,
	}
	copy(frame.Uniform.Lights[:], packet.Lights)
	return frame, nil
}

// negotiationPrefs maps the configuration's preference strings onto hal
// modes, keeping the configured order. Unknown entries are skipped with a
// warning; an empty result falls back to fifo and opaque, which every
// surface supports.
func negotiationPrefs(cfg *config.RendererConfiguration) hal.NegotiationPrefs {
	prefs := hal.NegotiationPrefs{}
	for _, name := range cfg.PresentModes {
		mode, ok := hal.PresentModeFromString(name)
		if !ok {
			core.LogWarn("unknown present mode %q in configuration, skipping", name)
			continue
		}
		prefs.PresentModes = append(prefs.PresentModes, mode)
	}
	if len(prefs.PresentModes) == 0 {
		prefs.PresentModes = []hal.PresentMode{hal.PresentModeFifo}
	}
	for _, name := range cfg.CompositeAlphas {
		alpha, ok := hal.CompositeAlphaFromString(name)
		if !ok {
			core.LogWarn("unknown composite alpha %q in configuration, skipping", name)
			continue
		}
		prefs.CompositeAlphas = append(prefs.CompositeAlphas, alpha)
	}
	if len(prefs.CompositeAlphas) == 0 {
		prefs.CompositeAlphas = []hal.CompositeAlpha{hal.CompositeAlphaOpaque}
	}
	return prefs
}

// fallbackGeometry is a single triangle drawn until the application uploads a
// real mesh.
func fallbackGeometry() *metadata.Geometry {
	vertices := []math.Vertex3D{
		{Position: math.Vec3{X: -0.5, Y: -0.5}, Normal: math.Vec3{Z: 1}, Colour: math.Vec3{X: 1}},
		{Position: math.Vec3{X: 0.5, Y: -0.5}, Normal: math.Vec3{Z: 1}, Colour: math.Vec3{Y: 1}},
		{Position: math.Vec3{Y: 0.5}, Normal: math.Vec3{Z: 1}, Colour: math.Vec3{Z: 1}},
	}
	return metadata.NewGeometry("", vertices, []uint32{0, 1, 2})
}
