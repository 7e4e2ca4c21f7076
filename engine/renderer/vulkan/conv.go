package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func vkFormat(f hal.Format) vk.Format {
	switch f {
	case hal.FormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case hal.FormatRGBA8Srgb:
		return vk.FormatR8g8b8a8Srgb
	case hal.FormatBGRA8Unorm:
		return vk.FormatB8g8r8a8Unorm
	case hal.FormatBGRA8Srgb:
		return vk.FormatB8g8r8a8Srgb
	default:
		return vk.FormatUndefined
	}
}

// halFormat maps back the formats the negotiation layer understands. Surface
// formats outside this set are skipped rather than mistranslated.
func halFormat(f vk.Format) (hal.Format, bool) {
	switch f {
	case vk.FormatR8g8b8a8Unorm:
		return hal.FormatRGBA8Unorm, true
	case vk.FormatR8g8b8a8Srgb:
		return hal.FormatRGBA8Srgb, true
	case vk.FormatB8g8r8a8Unorm:
		return hal.FormatBGRA8Unorm, true
	case vk.FormatB8g8r8a8Srgb:
		return hal.FormatBGRA8Srgb, true
	default:
		return hal.FormatUndefined, false
	}
}

func vkPresentMode(m hal.PresentMode) vk.PresentMode {
	switch m {
	case hal.PresentModeImmediate:
		return vk.PresentModeImmediate
	case hal.PresentModeMailbox:
		return vk.PresentModeMailbox
	case hal.PresentModeFifoRelaxed:
		return vk.PresentModeFifoRelaxed
	default:
		return vk.PresentModeFifo
	}
}

func halPresentMode(m vk.PresentMode) (hal.PresentMode, bool) {
	switch m {
	case vk.PresentModeImmediate:
		return hal.PresentModeImmediate, true
	case vk.PresentModeMailbox:
		return hal.PresentModeMailbox, true
	case vk.PresentModeFifo:
		return hal.PresentModeFifo, true
	case vk.PresentModeFifoRelaxed:
		return hal.PresentModeFifoRelaxed, true
	default:
		return hal.PresentModeFifo, false
	}
}

func vkCompositeAlpha(a hal.CompositeAlpha) vk.CompositeAlphaFlagBits {
	switch a {
	case hal.CompositeAlphaPreMultiplied:
		return vk.CompositeAlphaPreMultipliedBit
	case hal.CompositeAlphaPostMultiplied:
		return vk.CompositeAlphaPostMultipliedBit
	case hal.CompositeAlphaInherit:
		return vk.CompositeAlphaInheritBit
	default:
		return vk.CompositeAlphaOpaqueBit
	}
}

// halCompositeAlphas expands the support bitmask in a stable order.
func halCompositeAlphas(flags vk.CompositeAlphaFlags) []hal.CompositeAlpha {
	modes := make([]hal.CompositeAlpha, 0, 4)
	if flags&vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit) != 0 {
		modes = append(modes, hal.CompositeAlphaOpaque)
	}
	if flags&vk.CompositeAlphaFlags(vk.CompositeAlphaPreMultipliedBit) != 0 {
		modes = append(modes, hal.CompositeAlphaPreMultiplied)
	}
	if flags&vk.CompositeAlphaFlags(vk.CompositeAlphaPostMultipliedBit) != 0 {
		modes = append(modes, hal.CompositeAlphaPostMultiplied)
	}
	if flags&vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit) != 0 {
		modes = append(modes, hal.CompositeAlphaInherit)
	}
	return modes
}

func vkImageUsage(u hal.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	if u&hal.UsageColourAttachment != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	if u&hal.UsageTransferSrc != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if u&hal.UsageTransferDst != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	return flags
}

func halImageUsage(flags vk.ImageUsageFlags) hal.ImageUsage {
	var u hal.ImageUsage
	if flags&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) != 0 {
		u |= hal.UsageColourAttachment
	}
	if flags&vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) != 0 {
		u |= hal.UsageTransferSrc
	}
	if flags&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) != 0 {
		u |= hal.UsageTransferDst
	}
	return u
}

func vkBufferUsage(u hal.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlags
	if u&hal.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if u&hal.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if u&hal.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if u&hal.BufferUsageIndirect != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndirectBufferBit)
	}
	return flags
}

func vkStageBit(k hal.StageKind) vk.ShaderStageFlagBits {
	if k == hal.StageFragment {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

func vkShaderStages(s hal.ShaderStageFlags) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	if s&hal.ShaderStageVertexBit != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if s&hal.ShaderStageFragmentBit != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	return flags
}

func vkVertexFormat(f hal.VertexFormat) vk.Format {
	switch f {
	case hal.VertexFormatFloat32x2:
		return vk.FormatR32g32Sfloat
	case hal.VertexFormatFloat32x4:
		return vk.FormatR32g32b32a32Sfloat
	default:
		return vk.FormatR32g32b32Sfloat
	}
}

func vkTopology(t hal.PrimitiveTopology) vk.PrimitiveTopology {
	if t == hal.TopologyLineList {
		return vk.PrimitiveTopologyLineList
	}
	return vk.PrimitiveTopologyTriangleList
}

func vkCullMode(m hal.CullMode) vk.CullModeFlags {
	switch m {
	case hal.CullModeNone:
		return vk.CullModeFlags(vk.CullModeNone)
	case hal.CullModeFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	default:
		return vk.CullModeFlags(vk.CullModeBackBit)
	}
}

func vkFrontFace(f hal.FrontFace) vk.FrontFace {
	if f == hal.FrontFaceClockwise {
		return vk.FrontFaceClockwise
	}
	return vk.FrontFaceCounterClockwise
}

func vkPolygonMode(m hal.PolygonMode) vk.PolygonMode {
	if m == hal.PolygonModeLine {
		return vk.PolygonModeLine
	}
	return vk.PolygonModeFill
}

func vkCompareOp(op hal.CompareOp) vk.CompareOp {
	switch op {
	case hal.CompareOpNever:
		return vk.CompareOpNever
	case hal.CompareOpLessOrEqual:
		return vk.CompareOpLessOrEqual
	case hal.CompareOpAlways:
		return vk.CompareOpAlways
	default:
		return vk.CompareOpLess
	}
}

func vkBlendFactor(f hal.BlendFactor) vk.BlendFactor {
	switch f {
	case hal.BlendFactorZero:
		return vk.BlendFactorZero
	case hal.BlendFactorOne:
		return vk.BlendFactorOne
	case hal.BlendFactorSrcAlpha:
		return vk.BlendFactorSrcAlpha
	default:
		return vk.BlendFactorOneMinusSrcAlpha
	}
}

func vkBlendOp(hal.BlendOp) vk.BlendOp {
	return vk.BlendOpAdd
}

func vkDescriptorType(hal.DescriptorType) vk.DescriptorType {
	return vk.DescriptorTypeUniformBuffer
}

func vkPipelineStage(hal.PipelineStage) vk.PipelineStageFlags {
	return vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
}
