package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

// Swapchain owns the presentable images for one surface.
type Swapchain struct {
	device *Device
	handle vk.Swapchain
	images []vk.Image
	format hal.Format
}

// CreateSwapchain realises a negotiated configuration. When oldSwapchain is
// non-nil its images are handed over by the driver; the caller still destroys
// the old swapchain afterwards.
func (d *Device) CreateSwapchain(surface hal.Surface, config hal.SwapchainConfig, oldSwapchain hal.Swapchain) (hal.Swapchain, error) {
	vkSurface := surface.(*Surface)

	// The transform is not negotiated; pass through whatever the surface
	// currently reports.
	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, vkSurface.handle, &caps); res != vk.Success {
		err := vkError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
		core.LogError(err.Error())
		return nil, err
	}
	caps.Deref()

	old := vk.NullSwapchain
	if oldSwapchain != nil {
		old = oldSwapchain.(*Swapchain).handle
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          vkSurface.handle,
		MinImageCount:    config.ImageCount,
		ImageFormat:      vkFormat(config.Format),
		ImageColorSpace:  vk.ColorSpaceSrgbNonlinear,
		ImageExtent:      vk.Extent2D{Width: config.Extent.Width, Height: config.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vkImageUsage(config.Usage),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vkCompositeAlpha(config.CompositeAlpha),
		PresentMode:      vkPresentMode(config.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(d.handle, &createInfo, d.allocator, &handle); res != vk.Success {
		err := vkError("vkCreateSwapchainKHR", res)
		core.LogError(err.Error())
		return nil, err
	}

	var imageCount uint32
	if res := vk.GetSwapchainImages(d.handle, handle, &imageCount, nil); res != vk.Success {
		vk.DestroySwapchain(d.handle, handle, d.allocator)
		err := vkError("vkGetSwapchainImagesKHR", res)
		core.LogError(err.Error())
		return nil, err
	}
	images := make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(d.handle, handle, &imageCount, images); res != vk.Success {
		vk.DestroySwapchain(d.handle, handle, d.allocator)
		err := vkError("vkGetSwapchainImagesKHR", res)
		core.LogError(err.Error())
		return nil, err
	}

	core.LogDebug("swapchain created with %d images at %dx%d (%s)",
		imageCount, config.Extent.Width, config.Extent.Height, config.Format)

	return &Swapchain{
		device: d,
		handle: handle,
		images: images,
		format: config.Format,
	}, nil
}

func (s *Swapchain) Images() []hal.Image {
	images := make([]hal.Image, len(s.images))
	for i, image := range s.images {
		images[i] = image
	}
	return images
}

// Acquire blocks until the presentation engine releases an image. A
// suboptimal result still delivers a usable image and is not reported here;
// presentation surfaces it once the frame completes.
func (s *Swapchain) Acquire(timeoutNs uint64, signal hal.Semaphore) (uint32, error) {
	var imageIndex uint32
	switch res := vk.AcquireNextImage(s.device.handle, s.handle, timeoutNs, signal.(vk.Semaphore), vk.NullFence, &imageIndex); res {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	case vk.ErrorOutOfDate:
		return 0, hal.ErrSwapchainOutOfDate
	default:
		err := vkError("vkAcquireNextImageKHR", res)
		core.LogError(err.Error())
		return 0, err
	}
}

func (s *Swapchain) Destroy() {
	if s.handle == vk.NullSwapchain {
		return
	}
	vk.DestroySwapchain(s.device.handle, s.handle, s.device.allocator)
	s.handle = vk.NullSwapchain
	s.images = nil
}
