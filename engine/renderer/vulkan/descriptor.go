package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

func (d *Device) CreateDescriptorSetLayout(bindings []hal.DescriptorBinding) (hal.DescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, binding := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         binding.Binding,
			DescriptorType:  vkDescriptorType(binding.Type),
			DescriptorCount: binding.Count,
			StageFlags:      vkShaderStages(binding.Stages),
		}
	}

	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(d.handle, &createInfo, d.allocator, &layout); res != vk.Success {
		err := vkError("vkCreateDescriptorSetLayout", res)
		core.LogError(err.Error())
		return nil, err
	}
	return layout, nil
}

// CreateDescriptorPool sizes the pool so every set can hold its full
// complement of the given bindings.
func (d *Device) CreateDescriptorPool(maxSets uint32, bindings []hal.DescriptorBinding) (hal.DescriptorPool, error) {
	sizes := make([]vk.DescriptorPoolSize, len(bindings))
	for i, binding := range bindings {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            vkDescriptorType(binding.Type),
			DescriptorCount: binding.Count * maxSets,
		}
	}

	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(d.handle, &createInfo, d.allocator, &pool); res != vk.Success {
		err := vkError("vkCreateDescriptorPool", res)
		core.LogError(err.Error())
		return nil, err
	}
	return pool, nil
}

func (d *Device) AllocateDescriptorSet(pool hal.DescriptorPool, layout hal.DescriptorSetLayout) (hal.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool.(vk.DescriptorPool),
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.(vk.DescriptorSetLayout)},
	}

	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(d.handle, &allocateInfo, &set); res != vk.Success {
		err := vkError("vkAllocateDescriptorSets", res)
		core.LogError(err.Error())
		return nil, err
	}
	return set, nil
}

// UpdateDescriptorSet points the set's uniform binding at a sub-range of the
// frame buffer. Sets are written once per slot and never touched while a
// frame is in flight.
func (d *Device) UpdateDescriptorSet(set hal.DescriptorSet, buffer hal.Buffer, offset, size uint64) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: buffer.(*Buffer).handle,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(size),
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.(vk.DescriptorSet),
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}
	vk.UpdateDescriptorSets(d.handle, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

func (d *Device) DestroyDescriptorSetLayout(layout hal.DescriptorSetLayout) {
	if layout == nil {
		return
	}
	vk.DestroyDescriptorSetLayout(d.handle, layout.(vk.DescriptorSetLayout), d.allocator)
}

func (d *Device) DestroyDescriptorPool(pool hal.DescriptorPool) {
	if pool == nil {
		return
	}
	vk.DestroyDescriptorPool(d.handle, pool.(vk.DescriptorPool), d.allocator)
}
