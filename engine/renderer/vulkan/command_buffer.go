package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

// CommandPool allocates resettable primary command buffers on the graphics
// queue family.
type CommandPool struct {
	device *Device
	handle vk.CommandPool
}

func (d *Device) CreateCommandPool(family hal.QueueFamily) (hal.CommandPool, error) {
	createInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family.Index(),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var handle vk.CommandPool
	if res := vk.CreateCommandPool(d.handle, &createInfo, d.allocator, &handle); res != vk.Success {
		err := vkError("vkCreateCommandPool", res)
		core.LogError(err.Error())
		return nil, err
	}
	return &CommandPool{device: d, handle: handle}, nil
}

func (p *CommandPool) Allocate(count int) ([]hal.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	handles := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(p.device.handle, &allocateInfo, handles); res != vk.Success {
		err := vkError("vkAllocateCommandBuffers", res)
		core.LogError(err.Error())
		return nil, err
	}

	buffers := make([]hal.CommandBuffer, count)
	for i, handle := range handles {
		buffers[i] = &CommandBuffer{handle: handle}
	}
	return buffers, nil
}

func (p *CommandPool) Free(buffers []hal.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, len(buffers))
	for i, buffer := range buffers {
		handles[i] = buffer.(*CommandBuffer).handle
	}
	vk.FreeCommandBuffers(p.device.handle, p.handle, uint32(len(handles)), handles)
}

func (p *CommandPool) Destroy() {
	if p.handle == nil {
		return
	}
	vk.DestroyCommandPool(p.device.handle, p.handle, p.device.allocator)
	p.handle = nil
}

// CommandBuffer records one frame's worth of commands. The pool is created
// with the reset flag, so Begin implicitly resets the previous recording.
type CommandBuffer struct {
	handle vk.CommandBuffer
}

func (c *CommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if res := vk.BeginCommandBuffer(c.handle, &beginInfo); res != vk.Success {
		err := vkError("vkBeginCommandBuffer", res)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (c *CommandBuffer) BeginRenderPass(renderPass hal.RenderPass, framebuffer hal.Framebuffer, extent hal.Extent, clear hal.ClearColour) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(clear[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass.(vk.RenderPass),
		Framebuffer: framebuffer.(vk.Framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.handle, &beginInfo, vk.SubpassContentsInline)
}

func (c *CommandBuffer) BindPipeline(pipeline hal.PipelineHandle) {
	vk.CmdBindPipeline(c.handle, vk.PipelineBindPointGraphics, pipeline.(vk.Pipeline))
}

func (c *CommandBuffer) BindDescriptorSet(layout hal.PipelineLayout, set hal.DescriptorSet) {
	vk.CmdBindDescriptorSets(c.handle, vk.PipelineBindPointGraphics, layout.(vk.PipelineLayout),
		0, 1, []vk.DescriptorSet{set.(vk.DescriptorSet)}, 0, nil)
}

func (c *CommandBuffer) BindVertexBuffer(binding uint32, buffer hal.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(c.handle, binding, 1,
		[]vk.Buffer{buffer.(*Buffer).handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (c *CommandBuffer) BindIndexBuffer(buffer hal.Buffer, offset uint64) {
	vk.CmdBindIndexBuffer(c.handle, buffer.(*Buffer).handle, vk.DeviceSize(offset), vk.IndexTypeUint32)
}

func (c *CommandBuffer) DrawIndexedIndirect(buffer hal.Buffer, offset uint64, drawCount, stride uint32) {
	vk.CmdDrawIndexedIndirect(c.handle, buffer.(*Buffer).handle, vk.DeviceSize(offset), drawCount, stride)
}

func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.handle)
}

func (c *CommandBuffer) End() error {
	if res := vk.EndCommandBuffer(c.handle); res != vk.Success {
		err := vkError("vkEndCommandBuffer", res)
		core.LogError(err.Error())
		return err
	}
	return nil
}
