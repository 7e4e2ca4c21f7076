package hal

import (
	"fmt"

	"github.com/spaghettifunk/avenir/engine/core"
)

// FramePoolConfig describes everything NewFramePool needs beyond the device:
// the negotiated swapchain configuration, the depth of the frame ring and the
// queue family the command pool allocates against.
type FramePoolConfig struct {
	Swapchain      SwapchainConfig
	FramesInFlight int
	QueueFamily    QueueFamily
}

// FrameSlot is the synchronization bundle owned by one position of the frame
// ring. The fence guards reuse of the slot, ImageAvailable is signaled by the
// presentation engine on acquire and RenderComplete links submit to present.
type FrameSlot struct {
	Index          int
	Fence          Fence
	ImageAvailable Semaphore
	RenderComplete Semaphore
}

// FramePool owns the swapchain and every resource whose lifetime is tied to
// it: image views, framebuffers, command buffers and the per-slot fences and
// semaphores. Slot resources survive a Rebuild; image-indexed resources are
// recreated from the new swapchain.
type FramePool struct {
	device  Device
	adapter Adapter
	surface Surface

	config FramePoolConfig

	swapchain      Swapchain
	renderPass     RenderPass
	views          []ImageView
	framebuffers   []Framebuffer
	commandPool    CommandPool
	commandBuffers []CommandBuffer

	fences         []Fence
	imageAvailable []Semaphore
	renderComplete []Semaphore
	imagesInFlight []Fence
}

// NewFramePool creates the swapchain described by cfg together with the full
// set of frame resources. On any failure the partially created pool is torn
// down before the error is returned.
func NewFramePool(device Device, adapter Adapter, surface Surface, cfg FramePoolConfig) (*FramePool, error) {
	if cfg.FramesInFlight <= 0 {
		err := fmt.Errorf("frames in flight must be positive, got %d", cfg.FramesInFlight)
		core.LogError(err.Error())
		return nil, err
	}

	p := &FramePool{
		device:  device,
		adapter: adapter,
		surface: surface,
		config:  cfg,
	}

	swapchain, err := device.CreateSwapchain(surface, cfg.Swapchain, nil)
	if err != nil {
		core.LogError(err.Error())
		return nil, fmt.Errorf("failed to create swapchain: %w", err)
	}
	p.swapchain = swapchain

	renderPass, err := device.CreateRenderPass(cfg.Swapchain.Format)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("failed to create render pass: %w", err)
	}
	p.renderPass = renderPass

	commandPool, err := device.CreateCommandPool(cfg.QueueFamily)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("failed to create command pool: %w", err)
	}
	p.commandPool = commandPool

	if err := p.createImageResources(); err != nil {
		p.Destroy()
		return nil, err
	}

	for i := 0; i < cfg.FramesInFlight; i++ {
		// Fences start signaled so the first pass through each slot
		// does not wait on work that was never submitted.
		fence, err := device.CreateFence(true)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("failed to create frame fence %d: %w", i, err)
		}
		p.fences = append(p.fences, fence)

		acquire, err := device.CreateSemaphore()
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("failed to create acquire semaphore %d: %w", i, err)
		}
		p.imageAvailable = append(p.imageAvailable, acquire)

		present, err := device.CreateSemaphore()
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("failed to create present semaphore %d: %w", i, err)
		}
		p.renderComplete = append(p.renderComplete, present)
	}

	core.LogInfo("frame pool created: %dx%d, %d images, %d frames in flight",
		cfg.Swapchain.Extent.Width, cfg.Swapchain.Extent.Height,
		len(p.views), cfg.FramesInFlight)

	return p, nil
}

// createImageResources builds the image-indexed resources from the current
// swapchain: one view, one framebuffer and one command buffer per image.
func (p *FramePool) createImageResources() error {
	images := p.swapchain.Images()
	extent := p.config.Swapchain.Extent

	for i, image := range images {
		view, err := p.device.CreateImageView(image, p.config.Swapchain.Format)
		if err != nil {
			return fmt.Errorf("failed to create image view %d: %w", i, err)
		}
		p.views = append(p.views, view)

		framebuffer, err := p.device.CreateFramebuffer(p.renderPass, []ImageView{view}, extent)
		if err != nil {
			return fmt.Errorf("failed to create framebuffer %d: %w", i, err)
		}
		p.framebuffers = append(p.framebuffers, framebuffer)
	}

	buffers, err := p.commandPool.Allocate(len(images))
	if err != nil {
		return fmt.Errorf("failed to allocate command buffers: %w", err)
	}
	p.commandBuffers = buffers

	p.imagesInFlight = make([]Fence, len(images))
	return nil
}

// destroyImageResources tears down the image-indexed resources in reverse
// creation order. The swapchain itself is left alone.
func (p *FramePool) destroyImageResources() {
	if p.commandBuffers != nil {
		p.commandPool.Free(p.commandBuffers)
		p.commandBuffers = nil
	}
	for _, framebuffer := range p.framebuffers {
		p.device.DestroyFramebuffer(framebuffer)
	}
	p.framebuffers = nil
	for _, view := range p.views {
		p.device.DestroyImageView(view)
	}
	p.views = nil
	p.imagesInFlight = nil
}

// Rebuild renegotiates the swapchain against the surface and recreates every
// image-indexed resource. The old swapchain is passed to the new creation so
// the backend can recycle it. Per-slot fences and semaphores are untouched.
func (p *FramePool) Rebuild(window Extent, prefs NegotiationPrefs) error {
	if err := p.device.WaitIdle(); err != nil {
		core.LogError(err.Error())
		return fmt.Errorf("failed to wait for device idle before rebuild: %w", err)
	}

	cfg, err := Negotiate(p.adapter, p.surface, window, prefs)
	if err != nil {
		core.LogError(err.Error())
		return fmt.Errorf("swapchain renegotiation failed: %w", err)
	}

	p.destroyImageResources()

	swapchain, err := p.device.CreateSwapchain(p.surface, cfg, p.swapchain)
	if err != nil {
		core.LogError(err.Error())
		return fmt.Errorf("failed to recreate swapchain: %w", err)
	}
	p.swapchain.Destroy()
	p.swapchain = swapchain

	if cfg.Format != p.config.Swapchain.Format {
		p.device.DestroyRenderPass(p.renderPass)
		renderPass, err := p.device.CreateRenderPass(cfg.Format)
		if err != nil {
			p.renderPass = nil
			return fmt.Errorf("failed to recreate render pass: %w", err)
		}
		p.renderPass = renderPass
	}

	p.config.Swapchain = cfg

	if err := p.createImageResources(); err != nil {
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("frame pool rebuilt: %dx%d, %d images", cfg.Extent.Width, cfg.Extent.Height, len(p.views))
	return nil
}

// Slot maps a monotonically increasing frame counter onto the frame ring.
func (p *FramePool) Slot(frameCounter uint64) FrameSlot {
	idx := int(frameCounter % uint64(p.config.FramesInFlight))
	return FrameSlot{
		Index:          idx,
		Fence:          p.fences[idx],
		ImageAvailable: p.imageAvailable[idx],
		RenderComplete: p.renderComplete[idx],
	}
}

// ImageInFlight returns the fence of the frame that last used the given
// swapchain image, or nil when the image has never been rendered to.
func (p *FramePool) ImageInFlight(image uint32) Fence {
	return p.imagesInFlight[image]
}

// SetImageInFlight records which frame fence now owns the given image.
func (p *FramePool) SetImageInFlight(image uint32, fence Fence) {
	p.imagesInFlight[image] = fence
}

func (p *FramePool) Swapchain() Swapchain {
	return p.swapchain
}

func (p *FramePool) RenderPass() RenderPass {
	return p.renderPass
}

func (p *FramePool) Framebuffer(image uint32) Framebuffer {
	return p.framebuffers[image]
}

func (p *FramePool) CommandBuffer(image uint32) CommandBuffer {
	return p.commandBuffers[image]
}

func (p *FramePool) Extent() Extent {
	return p.config.Swapchain.Extent
}

func (p *FramePool) Format() Format {
	return p.config.Swapchain.Format
}

func (p *FramePool) FramesInFlight() int {
	return p.config.FramesInFlight
}

func (p *FramePool) ImageCount() int {
	return len(p.commandBuffers)
}

// Destroy waits for the device to go idle and releases every resource in
// reverse creation order. It tolerates a partially constructed pool.
func (p *FramePool) Destroy() {
	if p == nil || p.device == nil {
		return
	}
	if err := p.device.WaitIdle(); err != nil {
		core.LogWarn("device wait idle failed during frame pool teardown: %s", err.Error())
	}

	for _, s := range p.renderComplete {
		p.device.DestroySemaphore(s)
	}
	p.renderComplete = nil
	for _, s := range p.imageAvailable {
		p.device.DestroySemaphore(s)
	}
	p.imageAvailable = nil
	for _, f := range p.fences {
		p.device.DestroyFence(f)
	}
	p.fences = nil

	p.destroyImageResources()

	if p.commandPool != nil {
		p.commandPool.Destroy()
		p.commandPool = nil
	}
	if p.renderPass != nil {
		p.device.DestroyRenderPass(p.renderPass)
		p.renderPass = nil
	}
	if p.swapchain != nil {
		p.swapchain.Destroy()
		p.swapchain = nil
	}
}
