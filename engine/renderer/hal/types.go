package hal

// Format identifies a colour format for surface and swapchain images.
type Format int

const (
	FormatUndefined Format = iota
	FormatRGBA8Unorm
	FormatRGBA8Srgb
	FormatBGRA8Unorm
	FormatBGRA8Srgb
)

func (f Format) IsSrgb() bool {
	return f == FormatRGBA8Srgb || f == FormatBGRA8Srgb
}

func (f Format) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "rgba8_unorm"
	case FormatRGBA8Srgb:
		return "rgba8_srgb"
	case FormatBGRA8Unorm:
		return "bgra8_unorm"
	case FormatBGRA8Srgb:
		return "bgra8_srgb"
	default:
		return "undefined"
	}
}

// PresentMode controls how presentation requests are queued against vertical
// blanking.
type PresentMode int

const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFifo
	PresentModeFifoRelaxed
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo_relaxed"
	default:
		return "unknown"
	}
}

// PresentModeFromString maps a configuration string to a present mode.
func PresentModeFromString(s string) (PresentMode, bool) {
	switch s {
	case "immediate":
		return PresentModeImmediate, true
	case "mailbox":
		return PresentModeMailbox, true
	case "fifo":
		return PresentModeFifo, true
	case "fifo_relaxed":
		return PresentModeFifoRelaxed, true
	default:
		return PresentModeFifo, false
	}
}

// CompositeAlpha controls how the surface alpha channel is composited with
// other windows.
type CompositeAlpha int

const (
	CompositeAlphaOpaque CompositeAlpha = iota
	CompositeAlphaPreMultiplied
	CompositeAlphaPostMultiplied
	CompositeAlphaInherit
)

func (c CompositeAlpha) String() string {
	switch c {
	case CompositeAlphaOpaque:
		return "opaque"
	case CompositeAlphaPreMultiplied:
		return "premultiplied"
	case CompositeAlphaPostMultiplied:
		return "postmultiplied"
	case CompositeAlphaInherit:
		return "inherit"
	default:
		return "unknown"
	}
}

// CompositeAlphaFromString maps a configuration string to a composite alpha mode.
func CompositeAlphaFromString(s string) (CompositeAlpha, bool) {
	switch s {
	case "opaque":
		return CompositeAlphaOpaque, true
	case "premultiplied":
		return CompositeAlphaPreMultiplied, true
	case "postmultiplied":
		return CompositeAlphaPostMultiplied, true
	case "inherit":
		return CompositeAlphaInherit, true
	default:
		return CompositeAlphaOpaque, false
	}
}

// Extent is a 2D size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// ImageUsage is a bitmask of allowed image usages.
type ImageUsage uint32

const (
	UsageColourAttachment ImageUsage = 1 << iota
	UsageTransferSrc
	UsageTransferDst
)

// BufferUsage is a bitmask of allowed buffer usages.
type BufferUsage uint32

const (
	BufferUsageUniform BufferUsage = 1 << iota
	BufferUsageVertex
	BufferUsageIndex
	BufferUsageIndirect
)

// ClearColour is an RGBA clear value for the colour attachment.
type ClearColour [4]float32

// SurfaceCaps describes what the surface supports for swapchain creation.
// A MaxImageCount of zero means the surface imposes no upper bound. A nil
// CurrentExtent means the windowing system lets the swapchain pick within
// [MinExtent, MaxExtent].
type SurfaceCaps struct {
	MinImageCount uint32
	MaxImageCount uint32
	CurrentExtent *Extent
	MinExtent     Extent
	MaxExtent     Extent
	Usage         ImageUsage
}

// DeviceLimits carries the device limits the frame layout depends on.
type DeviceLimits struct {
	MinUniformBufferOffsetAlignment uint64
}

// SwapchainConfig is the fully negotiated swapchain description.
type SwapchainConfig struct {
	Format         Format
	PresentMode    PresentMode
	CompositeAlpha CompositeAlpha
	Extent         Extent
	ImageCount     uint32
	Usage          ImageUsage
}

// NegotiationPrefs carries the caller's ordered preferences. The first entry
// the surface supports wins.
type NegotiationPrefs struct {
	PresentModes    []PresentMode
	CompositeAlphas []CompositeAlpha
}

// StageKind identifies a programmable pipeline stage.
type StageKind int

const (
	StageVertex StageKind = iota
	StageFragment
)

func (s StageKind) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ShaderStageFlags is a bitmask of pipeline stages a descriptor is visible to.
type ShaderStageFlags uint32

const (
	ShaderStageVertexBit ShaderStageFlags = 1 << iota
	ShaderStageFragmentBit
)

// ShaderSource is an uncompiled shader handed to the compiler collaborator.
type ShaderSource struct {
	// Name identifies the source in diagnostics, typically the file name.
	Name       string
	Kind       StageKind
	Source     string
	EntryPoint string
}

// ShaderStageDesc pairs a compiled module with its entry point.
type ShaderStageDesc struct {
	Kind       StageKind
	Module     ShaderModule
	EntryPoint string
}

// VertexFormat identifies the data type of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// VertexAttribute describes one input location of the vertex stage.
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   VertexFormat
	Offset   uint32
}

// VertexBufferDesc describes one vertex buffer binding.
type VertexBufferDesc struct {
	Binding uint32
	Stride  uint32
	// PerInstance advances the binding per instance instead of per vertex.
	PerInstance bool
}

// DescriptorType identifies what a descriptor binds.
type DescriptorType int

const (
	DescriptorTypeUniformBuffer DescriptorType = iota
)

// DescriptorBinding describes one binding of a descriptor set layout.
type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStageFlags
}

// PrimitiveTopology selects how vertices assemble into primitives.
type PrimitiveTopology int

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyLineList
)

// InputAssemblyState fixes the primitive topology.
type InputAssemblyState struct {
	Topology PrimitiveTopology
}

type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

type FrontFace int

const (
	FrontFaceCounterClockwise FrontFace = iota
	FrontFaceClockwise
)

type PolygonMode int

const (
	PolygonModeFill PolygonMode = iota
	PolygonModeLine
)

// RasterizerState fixes the rasterization behaviour.
type RasterizerState struct {
	CullMode    CullMode
	FrontFace   FrontFace
	PolygonMode PolygonMode
	LineWidth   float32
}

type CompareOp int

const (
	CompareOpNever CompareOp = iota
	CompareOpLess
	CompareOpLessOrEqual
	CompareOpAlways
)

// DepthStencilState fixes depth testing behaviour.
type DepthStencilState struct {
	DepthTest  bool
	DepthWrite bool
	CompareOp  CompareOp
}

type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
)

type BlendOp int

const (
	BlendOpAdd BlendOp = iota
)

// BlendState fixes colour blending for the single colour attachment.
type BlendState struct {
	Enabled   bool
	SrcColour BlendFactor
	DstColour BlendFactor
	ColourOp  BlendOp
	SrcAlpha  BlendFactor
	DstAlpha  BlendFactor
	AlphaOp   BlendOp
}

// NewAlphaBlendState returns the standard premultiplied-style alpha blend.
func NewAlphaBlendState() BlendState {
	return BlendState{
		Enabled:   true,
		SrcColour: BlendFactorSrcAlpha,
		DstColour: BlendFactorOneMinusSrcAlpha,
		ColourOp:  BlendOpAdd,
		SrcAlpha:  BlendFactorOne,
		DstAlpha:  BlendFactorOneMinusSrcAlpha,
		AlphaOp:   BlendOpAdd,
	}
}

// Viewport is a baked viewport transform.
type Viewport struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

// Rect2D is a baked scissor rectangle.
type Rect2D struct {
	OffsetX int32
	OffsetY int32
	Extent  Extent
}

// BakedStates fixes viewport and scissor at pipeline build time. Pipelines
// are extent-bound; a resize requires a rebuild.
type BakedStates struct {
	Viewport Viewport
	Scissor  Rect2D
}

// NewBakedStates covers the full extent with depth range [0, 1].
func NewBakedStates(extent Extent) BakedStates {
	return BakedStates{
		Viewport: Viewport{
			X:        0,
			Y:        0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor: Rect2D{OffsetX: 0, OffsetY: 0, Extent: extent},
	}
}

// GraphicsPipelineDesc is the complete fixed description the device compiles
// into an immutable pipeline.
type GraphicsPipelineDesc struct {
	ShaderStages  []ShaderStageDesc
	VertexBuffers []VertexBufferDesc
	VertexAttribs []VertexAttribute
	InputAssembly InputAssemblyState
	Rasterizer    RasterizerState
	DepthStencil  DepthStencilState
	Blend         BlendState
	Baked         BakedStates
	Layout        PipelineLayout
	RenderPass    RenderPass
}

// PipelineStage identifies a synchronization stage for submit waits.
type PipelineStage int

const (
	StageColourAttachmentOutput PipelineStage = iota
)

// SubmitInfo describes one queue submission.
type SubmitInfo struct {
	CommandBuffer   CommandBuffer
	WaitSemaphore   Semaphore
	WaitStage       PipelineStage
	SignalSemaphore Semaphore
	Fence           Fence
}

// FenceWaitForever is the unbounded fence timeout.
const FenceWaitForever = ^uint64(0)
