package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

// CreateImageView wraps a swapchain image as a 2D colour view.
func (d *Device) CreateImageView(image hal.Image, format hal.Format) (hal.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.(vk.Image),
		ViewType: vk.ImageViewType2d,
		Format:   vkFormat(format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(d.handle, &createInfo, d.allocator, &view); res != vk.Success {
		err := vkError("vkCreateImageView", res)
		core.LogError(err.Error())
		return nil, err
	}
	return view, nil
}

func (d *Device) CreateFramebuffer(renderPass hal.RenderPass, attachments []hal.ImageView, extent hal.Extent) (hal.Framebuffer, error) {
	views := make([]vk.ImageView, len(attachments))
	for i, attachment := range attachments {
		views[i] = attachment.(vk.ImageView)
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass.(vk.RenderPass),
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if res := vk.CreateFramebuffer(d.handle, &createInfo, d.allocator, &handle); res != vk.Success {
		err := vkError("vkCreateFramebuffer", res)
		core.LogError(err.Error())
		return nil, err
	}
	return handle, nil
}

func (d *Device) DestroyImageView(view hal.ImageView) {
	if view == nil {
		return
	}
	vk.DestroyImageView(d.handle, view.(vk.ImageView), d.allocator)
}

func (d *Device) DestroyFramebuffer(framebuffer hal.Framebuffer) {
	if framebuffer == nil {
		return
	}
	vk.DestroyFramebuffer(d.handle, framebuffer.(vk.Framebuffer), d.allocator)
}
