package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

var (
	_ hal.Instance      = (*Instance)(nil)
	_ hal.Adapter       = (*Adapter)(nil)
	_ hal.QueueFamily   = QueueFamily{}
	_ hal.Surface       = (*Surface)(nil)
	_ hal.Device        = (*Device)(nil)
	_ hal.Queue         = (*Queue)(nil)
	_ hal.Swapchain     = (*Swapchain)(nil)
	_ hal.CommandPool   = (*CommandPool)(nil)
	_ hal.CommandBuffer = (*CommandBuffer)(nil)
	_ hal.Buffer        = (*Buffer)(nil)
)

// Adapter wraps one physical device together with the properties the
// negotiation layer reads.
type Adapter struct {
	physical  vk.PhysicalDevice
	allocator *vk.AllocationCallbacks
	name      string
	limits    hal.DeviceLimits
	families  []hal.QueueFamily
}

func newAdapter(physical vk.PhysicalDevice, allocator *vk.AllocationCallbacks) *Adapter {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(physical, &properties)
	properties.Deref()
	properties.Limits.Deref()

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &familyCount, nil)
	familyProperties := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &familyCount, familyProperties)

	families := make([]hal.QueueFamily, familyCount)
	for i := range familyProperties {
		familyProperties[i].Deref()
		families[i] = QueueFamily{
			index: uint32(i),
			flags: familyProperties[i].QueueFlags,
			count: familyProperties[i].QueueCount,
		}
	}

	end := firstZero(properties.DeviceName[:])
	return &Adapter{
		physical:  physical,
		allocator: allocator,
		name:      vk.ToString(properties.DeviceName[:end+1]),
		limits: hal.DeviceLimits{
			MinUniformBufferOffsetAlignment: uint64(properties.Limits.MinUniformBufferOffsetAlignment),
		},
		families: families,
	}
}

func (a *Adapter) Name() string {
	return a.name
}

func (a *Adapter) QueueFamilies() []hal.QueueFamily {
	return a.families
}

func (a *Adapter) SurfaceSupport(family hal.QueueFamily, surface hal.Surface) bool {
	var supported vk.Bool32
	res := vk.GetPhysicalDeviceSurfaceSupport(a.physical, family.Index(), surface.(*Surface).handle, &supported)
	return res == vk.Success && supported == vk.True
}

func (a *Adapter) Limits() hal.DeviceLimits {
	return a.limits
}

// OpenDevice creates the logical device with a single queue of the family.
func (a *Adapter) OpenDevice(family hal.QueueFamily) (hal.Device, error) {
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family.Index(),
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	extensions := []string{vk.KhrSwapchainExtensionName}
	// Devices that expose VK_KHR_portability_subset must have it enabled (MoltenVK).
	if a.hasExtension("VK_KHR_portability_subset") {
		extensions = append(extensions, "VK_KHR_portability_subset")
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueInfo},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}

	var handle vk.Device
	if res := vk.CreateDevice(a.physical, &createInfo, a.allocator, &handle); res != vk.Success {
		err := vkError("vkCreateDevice", res)
		core.LogError(err.Error())
		return nil, err
	}

	var queue vk.Queue
	vk.GetDeviceQueue(handle, family.Index(), 0, &queue)

	device := &Device{
		handle:    handle,
		physical:  a.physical,
		allocator: a.allocator,
		family:    family.Index(),
	}
	device.queue = &Queue{device: device, handle: queue}

	core.LogInfo("opened device on %s, queue family %d", a.name, family.Index())
	return device, nil
}

func (a *Adapter) hasExtension(name string) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(a.physical, "", &count, nil); res != vk.Success {
		return false
	}
	properties := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(a.physical, "", &count, properties); res != vk.Success {
		return false
	}

	for i := range properties {
		properties[i].Deref()
		end := firstZero(properties[i].ExtensionName[:])
		if vk.ToString(properties[i].ExtensionName[:end+1]) == name {
			return true
		}
	}
	return false
}

// QueueFamily is one queue family of an adapter.
type QueueFamily struct {
	index uint32
	flags vk.QueueFlags
	count uint32
}

func (f QueueFamily) Index() uint32 { return f.index }
func (f QueueFamily) MaxQueues() int { return int(f.count) }

func (f QueueFamily) SupportsGraphics() bool {
	return f.flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
}

// Device wraps the logical device and the one graphics queue opened on it.
type Device struct {
	handle    vk.Device
	physical  vk.PhysicalDevice
	allocator *vk.AllocationCallbacks
	queue     *Queue
	family    uint32
}

func (d *Device) Queue() hal.Queue {
	return d.queue
}

func (d *Device) WaitIdle() error {
	if res := vk.DeviceWaitIdle(d.handle); res != vk.Success {
		err := vkError("vkDeviceWaitIdle", res)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (d *Device) Destroy() {
	if d.handle == nil {
		return
	}
	vk.DestroyDevice(d.handle, d.allocator)
	d.handle = nil
	d.queue = nil
}

// Queue accepts submissions and presentation requests.
type Queue struct {
	device *Device
	handle vk.Queue
}

func (q *Queue) Submit(info hal.SubmitInfo) error {
	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{info.WaitSemaphore.(vk.Semaphore)},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vkPipelineStage(info.WaitStage)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{info.CommandBuffer.(*CommandBuffer).handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{info.SignalSemaphore.(vk.Semaphore)},
	}

	fence := vk.NullFence
	if info.Fence != nil {
		fence = info.Fence.(vk.Fence)
	}

	if res := vk.QueueSubmit(q.handle, 1, []vk.SubmitInfo{submit}, fence); res != vk.Success {
		err := vkError("vkQueueSubmit", res)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (q *Queue) Present(swapchain hal.Swapchain, imageIndex uint32, wait hal.Semaphore) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(vk.Semaphore)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain.(*Swapchain).handle},
		PImageIndices:      []uint32{imageIndex},
	}

	switch res := vk.QueuePresent(q.handle, &presentInfo); res {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate:
		return hal.ErrSwapchainOutOfDate
	case vk.Suboptimal:
		return hal.ErrSwapchainSuboptimal
	default:
		err := vkError("vkQueuePresentKHR", res)
		core.LogError(err.Error())
		return err
	}
}

func (q *Queue) WaitIdle() error {
	if res := vk.QueueWaitIdle(q.handle); res != vk.Success {
		err := vkError("vkQueueWaitIdle", res)
		core.LogError(err.Error())
		return err
	}
	return nil
}
