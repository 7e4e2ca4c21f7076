package hal

import (
	"fmt"

	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/math"
)

// GeometryBuffers is the uploaded mesh data the driver draws every frame.
// The buffers are owned by the caller; the driver only binds them.
type GeometryBuffers struct {
	Vertex     Buffer
	Index      Buffer
	IndexCount uint32
}

// FrameInput is everything that changes from one frame to the next: the
// global uniform arguments and one model matrix per drawn instance.
type FrameInput struct {
	Uniform   UniformArgs
	Instances []math.Mat4
}

// FrameDriver runs the per-frame sequence over a frame pool: acquire, fence
// wait, upload, record, submit, present. One slot of the ring owns each frame
// in flight; the slot index is the frame counter modulo the ring depth, so
// the CPU can never run more than the ring depth ahead of the GPU.
type FrameDriver struct {
	device   Device
	pool     *FramePool
	pipeline *Pipeline
	layout   FrameLayout
	geometry GeometryBuffers
	frames   int

	frameBuffer    Buffer
	descriptorPool DescriptorPool
	sets           []DescriptorSet

	clear        ClearColour
	frameCounter uint64
}

// NewFrameDriver allocates the shared per-frame data buffer and one
// descriptor set per ring slot, each bound to exactly that slot's uniform
// sub-region of the buffer.
func NewFrameDriver(device Device, pool *FramePool, pipeline *Pipeline, layout FrameLayout, geometry GeometryBuffers, framesInFlight int) (*FrameDriver, error) {
	if framesInFlight != pool.FramesInFlight() {
		err := fmt.Errorf("frame driver wants %d frames in flight but the pool has %d", framesInFlight, pool.FramesInFlight())
		core.LogError(err.Error())
		return nil, err
	}

	d := &FrameDriver{
		device:   device,
		pool:     pool,
		pipeline: pipeline,
		layout:   layout,
		geometry: geometry,
		frames:   framesInFlight,
	}

	buffer, err := device.CreateBuffer(layout.TotalSize(framesInFlight),
		BufferUsageUniform|BufferUsageVertex|BufferUsageIndirect)
	if err != nil {
		core.LogError(err.Error())
		return nil, fmt.Errorf("failed to create frame data buffer: %w", err)
	}
	d.frameBuffer = buffer

	if err := d.createDescriptorSets(); err != nil {
		d.Destroy()
		return nil, err
	}

	core.LogDebug("frame driver ready: %d slots, %d bytes per slot, %d bytes total",
		framesInFlight, layout.Stride, layout.TotalSize(framesInFlight))

	return d, nil
}

// createDescriptorSets builds the descriptor pool and the per-slot sets
// against the current pipeline's set layout.
func (d *FrameDriver) createDescriptorSets() error {
	binding := DescriptorBinding{
		Binding: 0,
		Type:    DescriptorTypeUniformBuffer,
		Count:   1,
		Stages:  ShaderStageVertexBit | ShaderStageFragmentBit,
	}
	descriptorPool, err := d.device.CreateDescriptorPool(uint32(d.frames), []DescriptorBinding{binding})
	if err != nil {
		return fmt.Errorf("failed to create descriptor pool: %w", err)
	}
	d.descriptorPool = descriptorPool

	d.sets = make([]DescriptorSet, d.frames)
	for i := 0; i < d.frames; i++ {
		set, err := d.device.AllocateDescriptorSet(descriptorPool, d.pipeline.SetLayout)
		if err != nil {
			return fmt.Errorf("failed to allocate descriptor set %d: %w", i, err)
		}
		// Each set sees only its own slot's uniform window, so a slot
		// rewrite can never be observed by a frame still in flight.
		d.device.UpdateDescriptorSet(set, d.frameBuffer, d.layout.UniformOffset(i), UniformSize)
		d.sets[i] = set
	}
	return nil
}

// SetClearColour sets the colour the render pass clears to each frame.
func (d *FrameDriver) SetClearColour(clear ClearColour) {
	d.clear = clear
}

// SetGeometry swaps the mesh the driver draws from the next frame on. The
// caller guarantees the previous buffers are no longer in flight before
// destroying them.
func (d *FrameDriver) SetGeometry(geometry GeometryBuffers) {
	d.geometry = geometry
}

// FrameCounter returns the number of frames submitted so far. It is
// monotonic and survives pool rebuilds.
func (d *FrameDriver) FrameCounter() uint64 {
	return d.frameCounter
}

// Draw runs one frame through the pipeline. Capacity violations fail before
// anything is acquired or submitted. Step failures come back wrapped in a
// FrameError naming the step; IsRecoverable tells the caller whether a
// swapchain rebuild can fix it. The frame counter advances once work is
// submitted; a present failure does not roll it back.
func (d *FrameDriver) Draw(frame FrameInput) error {
	if len(frame.Instances) > MaxObjects {
		err := &TooManyObjectsError{Requested: len(frame.Instances), Max: MaxObjects}
		core.LogError(err.Error())
		return err
	}
	if frame.Uniform.LightCount > MaxLights {
		err := &TooManyLightsError{Requested: int(frame.Uniform.LightCount), Max: MaxLights}
		core.LogError(err.Error())
		return err
	}

	slot := d.pool.Slot(d.frameCounter)

	image, err := d.pool.Swapchain().Acquire(FenceWaitForever, slot.ImageAvailable)
	if err != nil {
		return &FrameError{Step: StepAcquire, Err: err}
	}

	if err := d.waitForSlot(slot, image); err != nil {
		return &FrameError{Step: StepFenceWait, Err: err}
	}

	if err := d.upload(frame, slot.Index); err != nil {
		return &FrameError{Step: StepUpload, Err: err}
	}

	if err := d.record(image, slot.Index); err != nil {
		return &FrameError{Step: StepRecord, Err: err}
	}

	if err := d.device.Queue().Submit(SubmitInfo{
		CommandBuffer:   d.pool.CommandBuffer(image),
		WaitSemaphore:   slot.ImageAvailable,
		WaitStage:       StageColourAttachmentOutput,
		SignalSemaphore: slot.RenderComplete,
		Fence:           slot.Fence,
	}); err != nil {
		return &FrameError{Step: StepSubmit, Err: err}
	}
	d.frameCounter++

	if err := d.device.Queue().Present(d.pool.Swapchain(), image, slot.RenderComplete); err != nil {
		return &FrameError{Step: StepPresent, Err: err}
	}

	return nil
}

// waitForSlot blocks until the slot's previous submission finished, then
// resolves the second hazard: a different slot may have submitted against
// the acquired image more recently. Waiting that fence too before claiming
// the image keeps command buffer re-recording safe.
func (d *FrameDriver) waitForSlot(slot FrameSlot, image uint32) error {
	if err := d.device.WaitForFence(slot.Fence, FenceWaitForever); err != nil {
		return fmt.Errorf("slot %d fence wait: %w", slot.Index, err)
	}
	if inFlight := d.pool.ImageInFlight(image); inFlight != nil && inFlight != slot.Fence {
		if err := d.device.WaitForFence(inFlight, FenceWaitForever); err != nil {
			return fmt.Errorf("image %d fence wait: %w", image, err)
		}
	}
	d.pool.SetImageInFlight(image, slot.Fence)
	if err := d.device.ResetFence(slot.Fence); err != nil {
		return fmt.Errorf("slot %d fence reset: %w", slot.Index, err)
	}
	return nil
}

// upload writes the frame's uniform arguments, instance matrices and the
// indirect draw command into the slot's region of the frame buffer.
func (d *FrameDriver) upload(frame FrameInput, slot int) error {
	if err := d.frameBuffer.Upload(d.layout.UniformOffset(slot), uniformBytes(&frame.Uniform)); err != nil {
		return fmt.Errorf("uniform upload: %w", err)
	}
	if len(frame.Instances) > 0 {
		if err := d.frameBuffer.Upload(d.layout.InstancesOffset(slot), instanceBytes(frame.Instances)); err != nil {
			return fmt.Errorf("instance upload: %w", err)
		}
	}
	cmd := DrawIndexedCommand{
		IndexCount:    d.geometry.IndexCount,
		InstanceCount: uint32(len(frame.Instances)),
	}
	if err := d.frameBuffer.Upload(d.layout.IndirectOffset(slot), indirectBytes(&cmd)); err != nil {
		return fmt.Errorf("indirect upload: %w", err)
	}
	return nil
}

// record re-records the acquired image's command buffer: one render pass,
// one indirect indexed draw covering every instance.
func (d *FrameDriver) record(image uint32, slot int) error {
	cb := d.pool.CommandBuffer(image)
	if err := cb.Begin(); err != nil {
		return fmt.Errorf("command buffer begin: %w", err)
	}
	cb.BeginRenderPass(d.pool.RenderPass(), d.pool.Framebuffer(image), d.pool.Extent(), d.clear)
	cb.BindPipeline(d.pipeline.Handle)
	cb.BindDescriptorSet(d.pipeline.Layout, d.sets[slot])
	cb.BindVertexBuffer(0, d.geometry.Vertex, 0)
	cb.BindVertexBuffer(1, d.frameBuffer, d.layout.InstancesOffset(slot))
	cb.BindIndexBuffer(d.geometry.Index, 0)
	cb.DrawIndexedIndirect(d.frameBuffer, d.layout.IndirectOffset(slot), 1, uint32(IndirectSize))
	cb.EndRenderPass()
	if err := cb.End(); err != nil {
		return fmt.Errorf("command buffer end: %w", err)
	}
	return nil
}

// Rebind points the driver at a rebuilt pool or pipeline. The frame data
// buffer and its layout are unchanged, but the descriptor sets are
// reallocated against the new pipeline's set layout. The frame counter keeps
// counting across the rebind.
func (d *FrameDriver) Rebind(pool *FramePool, pipeline *Pipeline) error {
	if pool.FramesInFlight() != d.frames {
		err := fmt.Errorf("rebind changed frames in flight from %d to %d", d.frames, pool.FramesInFlight())
		core.LogError(err.Error())
		return err
	}
	d.pool = pool
	d.pipeline = pipeline

	if d.descriptorPool != nil {
		d.device.DestroyDescriptorPool(d.descriptorPool)
		d.descriptorPool = nil
		d.sets = nil
	}
	if err := d.createDescriptorSets(); err != nil {
		core.LogError(err.Error())
		return err
	}
	return nil
}

// Destroy releases the descriptor pool and the frame data buffer. The frame
// pool, pipeline and geometry buffers belong to the caller.
func (d *FrameDriver) Destroy() {
	if d == nil {
		return
	}
	if d.descriptorPool != nil {
		d.device.DestroyDescriptorPool(d.descriptorPool)
		d.descriptorPool = nil
		d.sets = nil
	}
	if d.frameBuffer != nil {
		d.frameBuffer.Destroy()
		d.frameBuffer = nil
	}
}
