package hal

import (
	"fmt"

	"github.com/spaghettifunk/avenir/engine/core"
)

// Pipeline bundles an immutable graphics pipeline with the layouts it was
// built against. Destroy releases all three in reverse creation order.
type Pipeline struct {
	Handle    PipelineHandle
	Layout    PipelineLayout
	SetLayout DescriptorSetLayout
}

// PipelineBuilder accumulates a pipeline description piece by piece and
// builds it in one shot. Accumulator calls may arrive in any order; only
// Build inspects them. Shader sources are compiled during Build through the
// collaborator and the resulting modules never outlive the call.
type PipelineBuilder struct {
	device   Device
	compiler ShaderCompiler

	sources       []ShaderSource
	vertexAttribs []VertexAttribute
	vertexBuffers []VertexBufferDesc
	bindings      []DescriptorBinding
	inputAssembly *InputAssemblyState
	rasterizer    *RasterizerState
	depthStencil  *DepthStencilState
	blend         *BlendState
	baked         *BakedStates
	renderPass    RenderPass
}

// NewPipelineBuilder returns an empty builder bound to a device and a shader
// compiler.
func NewPipelineBuilder(device Device, compiler ShaderCompiler) *PipelineBuilder {
	return &PipelineBuilder{
		device:   device,
		compiler: compiler,
	}
}

// AddShader queues a shader source for compilation at build time.
func (b *PipelineBuilder) AddShader(src ShaderSource) *PipelineBuilder {
	b.sources = append(b.sources, src)
	return b
}

// AddVertexAttribute appends one vertex input location.
func (b *PipelineBuilder) AddVertexAttribute(attr VertexAttribute) *PipelineBuilder {
	b.vertexAttribs = append(b.vertexAttribs, attr)
	return b
}

// AddVertexBuffer appends one vertex buffer binding description.
func (b *PipelineBuilder) AddVertexBuffer(desc VertexBufferDesc) *PipelineBuilder {
	b.vertexBuffers = append(b.vertexBuffers, desc)
	return b
}

// AddDescriptorBinding appends one descriptor set layout binding. When none
// are added, Build falls back to a single uniform buffer visible to both
// stages at binding zero.
func (b *PipelineBuilder) AddDescriptorBinding(binding DescriptorBinding) *PipelineBuilder {
	b.bindings = append(b.bindings, binding)
	return b
}

func (b *PipelineBuilder) WithInputAssembly(state InputAssemblyState) *PipelineBuilder {
	b.inputAssembly = &state
	return b
}

func (b *PipelineBuilder) WithRasterizer(state RasterizerState) *PipelineBuilder {
	b.rasterizer = &state
	return b
}

func (b *PipelineBuilder) WithDepthStencil(state DepthStencilState) *PipelineBuilder {
	b.depthStencil = &state
	return b
}

func (b *PipelineBuilder) WithBlend(state BlendState) *PipelineBuilder {
	b.blend = &state
	return b
}

func (b *PipelineBuilder) WithBakedStates(states BakedStates) *PipelineBuilder {
	b.baked = &states
	return b
}

func (b *PipelineBuilder) WithRenderPass(renderPass RenderPass) *PipelineBuilder {
	b.renderPass = renderPass
	return b
}

// validate checks that every required piece was supplied. A fragment shader
// is deliberately not required; a vertex-only pipeline is valid.
func (b *PipelineBuilder) validate() error {
	hasVertex := false
	for _, src := range b.sources {
		if src.Kind == StageVertex {
			hasVertex = true
		}
	}
	if !hasVertex {
		return &MissingPipelineStateError{Field: "vertex shader"}
	}
	if b.inputAssembly == nil {
		return &MissingPipelineStateError{Field: "input assembly"}
	}
	if b.rasterizer == nil {
		return &MissingPipelineStateError{Field: "rasterizer"}
	}
	if b.depthStencil == nil {
		return &MissingPipelineStateError{Field: "depth stencil"}
	}
	if b.blend == nil {
		return &MissingPipelineStateError{Field: "blend"}
	}
	if b.baked == nil {
		return &MissingPipelineStateError{Field: "baked states"}
	}
	if b.renderPass == nil {
		return &MissingPipelineStateError{Field: "render pass"}
	}
	return nil
}

// Build validates the accumulated description, compiles the shaders and
// creates the pipeline with its layouts. The shader modules are destroyed
// before Build returns on every path. The builder itself is reusable: a
// rebuild after a resize runs Build again on the same description with new
// baked states.
func (b *PipelineBuilder) Build() (*Pipeline, error) {
	if err := b.validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	// Shader modules are transient: they only exist to feed pipeline
	// creation and are released on every exit path below.
	var modules []ShaderModule
	defer func() {
		for _, m := range modules {
			b.device.DestroyShaderModule(m)
		}
	}()

	stages := make([]ShaderStageDesc, 0, len(b.sources))
	for _, src := range b.sources {
		words, err := b.compiler.Compile(src)
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		module, err := b.device.CreateShaderModule(words)
		if err != nil {
			return nil, fmt.Errorf("failed to create shader module for %q: %w", src.Name, err)
		}
		modules = append(modules, module)
		stages = append(stages, ShaderStageDesc{
			Kind:       src.Kind,
			Module:     module,
			EntryPoint: src.EntryPoint,
		})
	}

	bindings := b.bindings
	if len(bindings) == 0 {
		bindings = []DescriptorBinding{{
			Binding: 0,
			Type:    DescriptorTypeUniformBuffer,
			Count:   1,
			Stages:  ShaderStageVertexBit | ShaderStageFragmentBit,
		}}
	}

	setLayout, err := b.device.CreateDescriptorSetLayout(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to create descriptor set layout: %w", err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout([]DescriptorSetLayout{setLayout})
	if err != nil {
		b.device.DestroyDescriptorSetLayout(setLayout)
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	handle, err := b.device.CreateGraphicsPipeline(GraphicsPipelineDesc{
		ShaderStages:  stages,
		VertexBuffers: b.vertexBuffers,
		VertexAttribs: b.vertexAttribs,
		InputAssembly: *b.inputAssembly,
		Rasterizer:    *b.rasterizer,
		DepthStencil:  *b.depthStencil,
		Blend:         *b.blend,
		Baked:         *b.baked,
		Layout:        pipelineLayout,
		RenderPass:    b.renderPass,
	})
	if err != nil {
		b.device.DestroyPipelineLayout(pipelineLayout)
		b.device.DestroyDescriptorSetLayout(setLayout)
		return nil, fmt.Errorf("failed to create graphics pipeline: %w", err)
	}

	return &Pipeline{
		Handle:    handle,
		Layout:    pipelineLayout,
		SetLayout: setLayout,
	}, nil
}

// Destroy releases the pipeline and its layouts in reverse creation order.
func (p *Pipeline) Destroy(device Device) {
	if p == nil {
		return
	}
	if p.Handle != nil {
		device.DestroyPipeline(p.Handle)
		p.Handle = nil
	}
	if p.Layout != nil {
		device.DestroyPipelineLayout(p.Layout)
		p.Layout = nil
	}
	if p.SetLayout != nil {
		device.DestroyDescriptorSetLayout(p.SetLayout)
		p.SetLayout = nil
	}
}
