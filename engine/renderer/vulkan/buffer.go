package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

// Buffer is a host-visible, host-coherent buffer kept persistently mapped for
// its whole lifetime. Uploads are plain memcpys into the mapped range; the
// coherent property makes them visible to the device without explicit
// flushes.
type Buffer struct {
	device *Device
	handle vk.Buffer
	memory vk.DeviceMemory
	mapped unsafe.Pointer
	size   uint64
}

func (d *Device) CreateBuffer(size uint64, usage hal.BufferUsage) (hal.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(d.handle, &createInfo, d.allocator, &handle); res != vk.Success {
		err := vkError("vkCreateBuffer", res)
		core.LogError(err.Error())
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.handle, handle, &requirements)
	requirements.Deref()

	memType, ok := d.findMemoryType(requirements.MemoryTypeBits,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if !ok {
		vk.DestroyBuffer(d.handle, handle, d.allocator)
		err := fmt.Errorf("no host visible coherent memory type for a buffer of %d bytes", size)
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memType,
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.handle, &allocateInfo, d.allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(d.handle, handle, d.allocator)
		err := vkError("vkAllocateMemory", res)
		core.LogError(err.Error())
		return nil, err
	}

	if res := vk.BindBufferMemory(d.handle, handle, memory, 0); res != vk.Success {
		vk.FreeMemory(d.handle, memory, d.allocator)
		vk.DestroyBuffer(d.handle, handle, d.allocator)
		err := vkError("vkBindBufferMemory", res)
		core.LogError(err.Error())
		return nil, err
	}

	var mapped unsafe.Pointer
	if res := vk.MapMemory(d.handle, memory, 0, vk.DeviceSize(requirements.Size), 0, &mapped); res != vk.Success {
		vk.FreeMemory(d.handle, memory, d.allocator)
		vk.DestroyBuffer(d.handle, handle, d.allocator)
		err := vkError("vkMapMemory", res)
		core.LogError(err.Error())
		return nil, err
	}

	return &Buffer{
		device: d,
		handle: handle,
		memory: memory,
		mapped: mapped,
		size:   size,
	}, nil
}

// findMemoryType picks the first memory type allowed by typeBits that carries
// all the requested properties.
func (d *Device) findMemoryType(typeBits uint32, props vk.MemoryPropertyFlagBits) (uint32, bool) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physical, &memProps)
	memProps.Deref()

	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		memProps.MemoryTypes[i].Deref()
		flags := memProps.MemoryTypes[i].PropertyFlags
		if flags&vk.MemoryPropertyFlags(props) == vk.MemoryPropertyFlags(props) {
			return i, true
		}
	}
	return 0, false
}

func (b *Buffer) Upload(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.size {
		err := fmt.Errorf("upload of %d bytes at offset %d overruns buffer of %d bytes", len(data), offset, b.size)
		core.LogError(err.Error())
		return err
	}
	if len(data) == 0 {
		return nil
	}
	vk.Memcopy(unsafe.Pointer(uintptr(b.mapped)+uintptr(offset)), data)
	return nil
}

func (b *Buffer) Size() uint64 {
	return b.size
}

func (b *Buffer) Destroy() {
	if b.handle == nil {
		return
	}
	vk.UnmapMemory(b.device.handle, b.memory)
	vk.DestroyBuffer(b.device.handle, b.handle, b.device.allocator)
	vk.FreeMemory(b.device.handle, b.memory, b.device.allocator)
	b.handle = nil
	b.memory = nil
	b.mapped = nil
}
