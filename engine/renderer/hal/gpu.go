// Package hal is the GPU-API-agnostic core of the renderer: surface and
// device negotiation, the swapchain-scoped frame resource pool, incremental
// pipeline construction, per-frame buffer layout arithmetic and the frame
// driver that sequences acquire, upload, record, submit and present. A
// concrete backend implements the small capability interfaces below; the
// vulkan package is the one shipped.
package hal

// Instance is the root object of a backend.
type Instance interface {
	EnumerateAdapters() []Adapter
	Destroy()
}

// Adapter is a physical device candidate.
type Adapter interface {
	Name() string
	QueueFamilies() []QueueFamily
	// SurfaceSupport reports whether the family can present to the surface.
	SurfaceSupport(family QueueFamily, surface Surface) bool
	Limits() DeviceLimits
	// OpenDevice creates the logical device with one queue of the family.
	OpenDevice(family QueueFamily) (Device, error)
}

// QueueFamily describes one queue family of an adapter.
type QueueFamily interface {
	Index() uint32
	SupportsGraphics() bool
	MaxQueues() int
}

// Surface is a presentable window surface.
type Surface interface {
	Capabilities(adapter Adapter) SurfaceCaps
	Formats(adapter Adapter) []Format
	PresentModes(adapter Adapter) []PresentMode
	CompositeAlphaModes(adapter Adapter) []CompositeAlpha
	Destroy(instance Instance)
}

// Device creates and destroys every GPU resource the renderer uses. All
// construction is explicit; nothing is created behind the caller's back.
type Device interface {
	CreateSwapchain(surface Surface, config SwapchainConfig, oldSwapchain Swapchain) (Swapchain, error)
	CreateRenderPass(format Format) (RenderPass, error)
	CreateImageView(image Image, format Format) (ImageView, error)
	CreateFramebuffer(renderPass RenderPass, attachments []ImageView, extent Extent) (Framebuffer, error)
	CreateCommandPool(family QueueFamily) (CommandPool, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
	CreateBuffer(size uint64, usage BufferUsage) (Buffer, error)
	CreateShaderModule(spirv []uint32) (ShaderModule, error)
	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	CreateDescriptorPool(maxSets uint32, bindings []DescriptorBinding) (DescriptorPool, error)
	AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error)
	// UpdateDescriptorSet points the set's uniform binding at a buffer sub-range.
	UpdateDescriptorSet(set DescriptorSet, buffer Buffer, offset, size uint64)
	CreatePipelineLayout(setLayouts []DescriptorSetLayout) (PipelineLayout, error)
	CreateGraphicsPipeline(desc GraphicsPipelineDesc) (PipelineHandle, error)

	WaitForFence(fence Fence, timeoutNs uint64) error
	ResetFence(fence Fence) error

	Queue() Queue
	WaitIdle() error

	DestroyRenderPass(renderPass RenderPass)
	DestroyImageView(view ImageView)
	DestroyFramebuffer(framebuffer Framebuffer)
	DestroySemaphore(semaphore Semaphore)
	DestroyFence(fence Fence)
	DestroyShaderModule(module ShaderModule)
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	DestroyDescriptorPool(pool DescriptorPool)
	DestroyPipelineLayout(layout PipelineLayout)
	DestroyPipeline(pipeline PipelineHandle)
	Destroy()
}

// Queue accepts work for the single graphics queue.
type Queue interface {
	Submit(info SubmitInfo) error
	// Present queues the image for presentation once wait signals.
	Present(swapchain Swapchain, imageIndex uint32, wait Semaphore) error
	WaitIdle() error
}

// Swapchain owns the presentable images.
type Swapchain interface {
	Images() []Image
	// Acquire blocks until an image is available, signalling the semaphore
	// when the image can be rendered to. Returns ErrSwapchainOutOfDate when
	// the surface changed underneath the swapchain.
	Acquire(timeoutNs uint64, signal Semaphore) (uint32, error)
	Destroy()
}

// CommandPool allocates primary command buffers.
type CommandPool interface {
	Allocate(count int) ([]CommandBuffer, error)
	Free(buffers []CommandBuffer)
	Destroy()
}

// CommandBuffer records one frame's worth of GPU commands.
type CommandBuffer interface {
	Begin() error
	BeginRenderPass(renderPass RenderPass, framebuffer Framebuffer, extent Extent, clear ClearColour)
	BindPipeline(pipeline PipelineHandle)
	BindDescriptorSet(layout PipelineLayout, set DescriptorSet)
	BindVertexBuffer(binding uint32, buffer Buffer, offset uint64)
	BindIndexBuffer(buffer Buffer, offset uint64)
	DrawIndexedIndirect(buffer Buffer, offset uint64, drawCount, stride uint32)
	EndRenderPass()
	End() error
}

// Buffer is a host-visible GPU buffer.
type Buffer interface {
	// Upload copies data into the buffer at offset through a mapped range.
	Upload(offset uint64, data []byte) error
	Size() uint64
	Destroy()
}

// ShaderCompiler turns shader sources into SPIR-V words. It is an external
// collaborator of the pipeline builder.
type ShaderCompiler interface {
	Compile(src ShaderSource) ([]uint32, error)
}

// Opaque resource handles. Backends return their own concrete types; the
// pool and driver only move them between Create and Destroy calls.
type (
	Image               interface{}
	ImageView           interface{}
	Framebuffer         interface{}
	RenderPass          interface{}
	Fence               interface{}
	Semaphore           interface{}
	ShaderModule        interface{}
	DescriptorSetLayout interface{}
	DescriptorPool      interface{}
	DescriptorSet       interface{}
	PipelineLayout      interface{}
	PipelineHandle      interface{}
)
