package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

func (d *Device) CreateShaderModule(spirv []uint32) (hal.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(spirv)) * 4,
		PCode:    spirv,
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(d.handle, &createInfo, d.allocator, &module); res != vk.Success {
		err := vkError("vkCreateShaderModule", res)
		core.LogError(err.Error())
		return nil, err
	}
	return module, nil
}

func (d *Device) CreatePipelineLayout(setLayouts []hal.DescriptorSetLayout) (hal.PipelineLayout, error) {
	layouts := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, layout := range setLayouts {
		layouts[i] = layout.(vk.DescriptorSetLayout)
	}

	createInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(layouts)),
		PSetLayouts:    layouts,
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.handle, &createInfo, d.allocator, &layout); res != vk.Success {
		err := vkError("vkCreatePipelineLayout", res)
		core.LogError(err.Error())
		return nil, err
	}
	return layout, nil
}

// CreateGraphicsPipeline compiles the fully fixed description into an
// immutable pipeline. Nothing is dynamic: viewport and scissor are baked, so
// a resize rebuilds the pipeline.
func (d *Device) CreateGraphicsPipeline(desc hal.GraphicsPipelineDesc) (hal.PipelineHandle, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(desc.ShaderStages))
	for i, stage := range desc.ShaderStages {
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vkStageBit(stage.Kind),
			Module: stage.Module.(vk.ShaderModule),
			PName:  safeString(stage.EntryPoint),
		}
	}

	bindings := make([]vk.VertexInputBindingDescription, len(desc.VertexBuffers))
	for i, buffer := range desc.VertexBuffers {
		rate := vk.VertexInputRateVertex
		if buffer.PerInstance {
			rate = vk.VertexInputRateInstance
		}
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   buffer.Binding,
			Stride:    buffer.Stride,
			InputRate: rate,
		}
	}

	attributes := make([]vk.VertexInputAttributeDescription, len(desc.VertexAttribs))
	for i, attrib := range desc.VertexAttribs {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: attrib.Location,
			Binding:  attrib.Binding,
			Format:   vkVertexFormat(attrib.Format),
			Offset:   attrib.Offset,
		}
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vkTopology(desc.InputAssembly.Topology),
		PrimitiveRestartEnable: vk.False,
	}

	viewport := vk.Viewport{
		X:        desc.Baked.Viewport.X,
		Y:        desc.Baked.Viewport.Y,
		Width:    desc.Baked.Viewport.Width,
		Height:   desc.Baked.Viewport.Height,
		MinDepth: desc.Baked.Viewport.MinDepth,
		MaxDepth: desc.Baked.Viewport.MaxDepth,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: desc.Baked.Scissor.OffsetX, Y: desc.Baked.Scissor.OffsetY},
		Extent: vk.Extent2D{Width: desc.Baked.Scissor.Extent.Width, Height: desc.Baked.Scissor.Extent.Height},
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vkPolygonMode(desc.Rasterizer.PolygonMode),
		LineWidth:               desc.Rasterizer.LineWidth,
		CullMode:                vkCullMode(desc.Rasterizer.CullMode),
		FrontFace:               vkFrontFace(desc.Rasterizer.FrontFace),
		DepthBiasEnable:         vk.False,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vkBool(desc.DepthStencil.DepthTest),
		DepthWriteEnable:  vkBool(desc.DepthStencil.DepthWrite),
		DepthCompareOp:    vkCompareOp(desc.DepthStencil.CompareOp),
		StencilTestEnable: vk.False,
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vkBool(desc.Blend.Enabled),
		SrcColorBlendFactor: vkBlendFactor(desc.Blend.SrcColour),
		DstColorBlendFactor: vkBlendFactor(desc.Blend.DstColour),
		ColorBlendOp:        vkBlendOp(desc.Blend.ColourOp),
		SrcAlphaBlendFactor: vkBlendFactor(desc.Blend.SrcAlpha),
		DstAlphaBlendFactor: vkBlendFactor(desc.Blend.DstAlpha),
		AlphaBlendOp:        vkBlendOp(desc.Blend.AlphaOp),
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	blendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &blendState,
		Layout:              desc.Layout.(vk.PipelineLayout),
		RenderPass:          desc.RenderPass.(vk.RenderPass),
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(d.handle, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{createInfo}, d.allocator, pipelines)
	if res != vk.Success {
		err := vkError("vkCreateGraphicsPipelines", res)
		core.LogError(err.Error())
		return nil, err
	}

	core.LogDebug("graphics pipeline created")
	return pipelines[0], nil
}

func (d *Device) DestroyShaderModule(module hal.ShaderModule) {
	if module == nil {
		return
	}
	vk.DestroyShaderModule(d.handle, module.(vk.ShaderModule), d.allocator)
}

func (d *Device) DestroyPipelineLayout(layout hal.PipelineLayout) {
	if layout == nil {
		return
	}
	vk.DestroyPipelineLayout(d.handle, layout.(vk.PipelineLayout), d.allocator)
}

func (d *Device) DestroyPipeline(pipeline hal.PipelineHandle) {
	if pipeline == nil {
		return
	}
	vk.DestroyPipeline(d.handle, pipeline.(vk.Pipeline), d.allocator)
}
