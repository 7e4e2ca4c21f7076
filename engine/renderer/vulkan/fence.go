package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

func (d *Device) CreateSemaphore() (hal.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(d.handle, &createInfo, d.allocator, &semaphore); res != vk.Success {
		err := vkError("vkCreateSemaphore", res)
		core.LogError(err.Error())
		return nil, err
	}
	return semaphore, nil
}

func (d *Device) CreateFence(signaled bool) (hal.Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if res := vk.CreateFence(d.handle, &createInfo, d.allocator, &fence); res != vk.Success {
		err := vkError("vkCreateFence", res)
		core.LogError(err.Error())
		return nil, err
	}
	return fence, nil
}

func (d *Device) WaitForFence(fence hal.Fence, timeoutNs uint64) error {
	switch res := vk.WaitForFences(d.handle, 1, []vk.Fence{fence.(vk.Fence)}, vk.True, timeoutNs); res {
	case vk.Success:
		return nil
	case vk.Timeout:
		return hal.ErrFenceTimeout
	default:
		err := vkError("vkWaitForFences", res)
		core.LogError(err.Error())
		return err
	}
}

func (d *Device) ResetFence(fence hal.Fence) error {
	if res := vk.ResetFences(d.handle, 1, []vk.Fence{fence.(vk.Fence)}); res != vk.Success {
		err := vkError("vkResetFences", res)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (d *Device) DestroySemaphore(semaphore hal.Semaphore) {
	if semaphore == nil {
		return
	}
	vk.DestroySemaphore(d.handle, semaphore.(vk.Semaphore), d.allocator)
}

func (d *Device) DestroyFence(fence hal.Fence) {
	if fence == nil {
		return
	}
	vk.DestroyFence(d.handle, fence.(vk.Fence), d.allocator)
}
