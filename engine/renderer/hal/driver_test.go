package hal

import (
	"errors"
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/avenir/engine/math"
)

type driverHarness struct {
	*poolHarness
	layout   FrameLayout
	pipeline *Pipeline
	geometry GeometryBuffers
	driver   *FrameDriver
}

func newDriverHarness(t *testing.T, frames int, images uint32) *driverHarness {
	t.Helper()
	h := newPoolHarness(t, frames, images)
	layout := NewFrameLayout(256)

	pipeline, err := newTestBuilder(h.device, &fakeCompiler{}).
		WithRenderPass(h.pool.RenderPass()).
		Build()
	require.NoError(t, err)

	vertex, err := h.device.CreateBuffer(24*uint64(Vertex3DStride), BufferUsageVertex)
	require.NoError(t, err)
	index, err := h.device.CreateBuffer(36*4, BufferUsageIndex)
	require.NoError(t, err)
	geometry := GeometryBuffers{Vertex: vertex, Index: index, IndexCount: 36}

	driver, err := NewFrameDriver(h.device, h.pool, pipeline, layout, geometry, frames)
	require.NoError(t, err)

	h.log.clear()
	return &driverHarness{
		poolHarness: h,
		layout:      layout,
		pipeline:    pipeline,
		geometry:    geometry,
		driver:      driver,
	}
}

func (h *driverHarness) frameInput(instances int) FrameInput {
	input := FrameInput{Instances: make([]math.Mat4, instances)}
	for i := range input.Instances {
		input.Instances[i] = math.NewMat4Identity()
	}
	input.Uniform.Projection = math.NewMat4Identity()
	input.Uniform.View = math.NewMat4Identity()
	input.Uniform.LightCount = 1
	input.Uniform.Lights[0] = NewLight(math.NewVec3(0, 4, 0), math.NewVec3(1, 1, 1), 2)
	return input
}

func TestNewFrameDriver(t *testing.T) {
	h := newPoolHarness(t, 2, 3)
	layout := NewFrameLayout(256)
	pipeline, err := newTestBuilder(h.device, &fakeCompiler{}).
		WithRenderPass(h.pool.RenderPass()).
		Build()
	require.NoError(t, err)

	driver, err := NewFrameDriver(h.device, h.pool, pipeline, layout, GeometryBuffers{}, 2)
	require.NoError(t, err)

	frameBuf := driver.frameBuffer.(*fakeBuffer)
	assert.Equal(t, layout.TotalSize(2), frameBuf.size)
	assert.Equal(t, BufferUsageUniform|BufferUsageVertex|BufferUsageIndirect, frameBuf.usage)

	// Each slot's descriptor set windows exactly its own uniform region.
	require.Len(t, driver.sets, 2)
	for i := 0; i < 2; i++ {
		want := fmt.Sprintf("off=%d size=%d", layout.UniformOffset(i), UniformSize)
		assert.True(t, h.log.anyContains(want), "missing uniform window %s in log %v", want, h.log.entries)
	}
}

func TestNewFrameDriverRejectsMismatchedRing(t *testing.T) {
	h := newPoolHarness(t, 2, 3)
	pipeline, err := newTestBuilder(h.device, &fakeCompiler{}).Build()
	require.NoError(t, err)

	_, err = NewFrameDriver(h.device, h.pool, pipeline, NewFrameLayout(256), GeometryBuffers{}, 3)
	require.Error(t, err)
}

func TestFrameDriverDrawSequence(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	require.NoError(t, h.driver.Draw(h.frameInput(2)))
	assert.Equal(t, uint64(1), h.driver.FrameCounter())

	slot := h.pool.Slot(0)
	frameBuf := bufID(h.driver.frameBuffer)
	cb := h.pool.CommandBuffer(0).(*fakeCommandBuffer).id

	requireOrder(t, h.log,
		fmt.Sprintf("acquire image=0 signal=s%d", semID(slot.ImageAvailable)),
		fmt.Sprintf("wait_fence f%d", fenceID(slot.Fence)),
		fmt.Sprintf("reset_fence f%d", fenceID(slot.Fence)),
		fmt.Sprintf("upload b%d off=0 len=%d", frameBuf, UniformSize),
		fmt.Sprintf("upload b%d off=%d len=%d", frameBuf, h.layout.InstancesOffset(0), 2*InstanceSize),
		fmt.Sprintf("upload b%d off=%d len=%d", frameBuf, h.layout.IndirectOffset(0), IndirectSize),
		fmt.Sprintf("begin c%d", cb),
		fmt.Sprintf("begin_render_pass c%d fb=fb%d 800x600", cb, h.pool.Framebuffer(0).(*fakeFramebuffer).id),
		fmt.Sprintf("bind_pipeline c%d p%d", cb, h.pipeline.Handle.(*fakePipelineHandle).id),
		fmt.Sprintf("bind_descriptor_set c%d d%d", cb, h.driver.sets[0].(*fakeDescriptorSet).id),
		fmt.Sprintf("bind_vertex_buffer c%d binding=0 buf=b%d off=0", cb, bufID(h.geometry.Vertex)),
		fmt.Sprintf("bind_vertex_buffer c%d binding=1 buf=b%d off=%d", cb, frameBuf, h.layout.InstancesOffset(0)),
		fmt.Sprintf("bind_index_buffer c%d buf=b%d off=0", cb, bufID(h.geometry.Index)),
		fmt.Sprintf("draw_indexed_indirect c%d buf=b%d off=%d count=1 stride=%d", cb, frameBuf, h.layout.IndirectOffset(0), IndirectSize),
		fmt.Sprintf("end_render_pass c%d", cb),
		fmt.Sprintf("end c%d", cb),
		fmt.Sprintf("submit cb=c%d wait=s%d signal=s%d fence=f%d", cb,
			semID(slot.ImageAvailable), semID(slot.RenderComplete), fenceID(slot.Fence)),
		fmt.Sprintf("present image=0 wait=s%d", semID(slot.RenderComplete)),
	)

	assert.Equal(t, slot.Fence, h.pool.ImageInFlight(0))
}

func TestFrameDriverUploadsFrameData(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	input := h.frameInput(5)
	require.NoError(t, h.driver.Draw(input))

	frameBuf := h.driver.frameBuffer.(*fakeBuffer)

	uniform := frameBuf.writes[h.layout.UniformOffset(0)]
	require.Len(t, uniform, int(UniformSize))
	written := (*UniformArgs)(unsafe.Pointer(&uniform[0]))
	assert.Equal(t, input.Uniform.LightCount, written.LightCount)
	assert.Equal(t, input.Uniform.Lights[0], written.Lights[0])

	indirect := frameBuf.writes[h.layout.IndirectOffset(0)]
	require.Len(t, indirect, int(IndirectSize))
	cmd := (*DrawIndexedCommand)(unsafe.Pointer(&indirect[0]))
	assert.Equal(t, uint32(36), cmd.IndexCount)
	assert.Equal(t, uint32(5), cmd.InstanceCount)
	assert.Zero(t, cmd.FirstIndex)
	assert.Zero(t, cmd.FirstInstance)
}

func TestFrameDriverSkipsEmptyInstanceUpload(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	require.NoError(t, h.driver.Draw(h.frameInput(0)))

	frameBuf := h.driver.frameBuffer.(*fakeBuffer)
	_, wrote := frameBuf.writes[h.layout.InstancesOffset(0)]
	assert.False(t, wrote, "no instances means no instance upload")
	cmd := (*DrawIndexedCommand)(unsafe.Pointer(&frameBuf.writes[h.layout.IndirectOffset(0)][0]))
	assert.Zero(t, cmd.InstanceCount)
}

func TestFrameDriverSlotRotation(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	for frame := 0; frame < 3; frame++ {
		h.log.clear()
		require.NoError(t, h.driver.Draw(h.frameInput(1)))

		slot := h.pool.Slot(uint64(frame))
		assert.Equal(t, frame%2, slot.Index)
		requireOrder(t, h.log,
			fmt.Sprintf("wait_fence f%d", fenceID(slot.Fence)),
			fmt.Sprintf("upload b%d off=%d len=%d", bufID(h.driver.frameBuffer), h.layout.UniformOffset(slot.Index), UniformSize),
			fmt.Sprintf("submit cb=c%d wait=s%d signal=s%d fence=f%d",
				h.pool.CommandBuffer(uint32(frame%3)).(*fakeCommandBuffer).id,
				semID(slot.ImageAvailable), semID(slot.RenderComplete), fenceID(slot.Fence)),
		)
	}
	assert.Equal(t, uint64(3), h.driver.FrameCounter())
}

func TestFrameDriverWaitsForImageOwner(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	// The presentation engine hands out the same image twice in a row, so
	// the second frame must also wait for the first frame's fence before
	// re-recording that image's command buffer.
	h.device.acquireScript = []acquireResult{{image: 0}, {image: 0}}

	require.NoError(t, h.driver.Draw(h.frameInput(1)))
	first := h.pool.Slot(0)
	second := h.pool.Slot(1)

	h.log.clear()
	require.NoError(t, h.driver.Draw(h.frameInput(1)))

	requireOrder(t, h.log,
		fmt.Sprintf("wait_fence f%d", fenceID(second.Fence)),
		fmt.Sprintf("wait_fence f%d", fenceID(first.Fence)),
		fmt.Sprintf("reset_fence f%d", fenceID(second.Fence)),
	)
	assert.Equal(t, second.Fence, h.pool.ImageInFlight(0))
}

func TestFrameDriverRejectsTooManyObjects(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	input := FrameInput{Instances: make([]math.Mat4, MaxObjects+1)}
	err := h.driver.Draw(input)

	var tooMany *TooManyObjectsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, MaxObjects+1, tooMany.Requested)
	assert.Equal(t, MaxObjects, tooMany.Max)
	assert.Empty(t, h.log.entries, "capacity failures must not touch the device")
	assert.Zero(t, h.driver.FrameCounter())
}

func TestFrameDriverRejectsTooManyLights(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	input := FrameInput{Uniform: UniformArgs{LightCount: MaxLights + 1}}
	err := h.driver.Draw(input)

	var tooMany *TooManyLightsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, MaxLights+1, tooMany.Requested)
	assert.Empty(t, h.log.entries)
}

func TestFrameDriverAcquireOutOfDate(t *testing.T) {
	h := newDriverHarness(t, 2, 3)
	h.device.acquireScript = []acquireResult{{err: ErrSwapchainOutOfDate}}

	err := h.driver.Draw(h.frameInput(1))

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, StepAcquire, frameErr.Step)
	assert.ErrorIs(t, err, ErrSwapchainOutOfDate)
	assert.True(t, IsRecoverable(err))
	assert.Zero(t, h.driver.FrameCounter())
	assert.False(t, h.log.anyContains("submit"), "nothing may be submitted after a failed acquire")
}

func TestFrameDriverPresentSuboptimal(t *testing.T) {
	h := newDriverHarness(t, 2, 3)
	h.device.presentScript = []error{ErrSwapchainSuboptimal}

	err := h.driver.Draw(h.frameInput(1))

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, StepPresent, frameErr.Step)
	assert.True(t, IsRecoverable(err))
	// The work was submitted, so the frame still counts.
	assert.Equal(t, uint64(1), h.driver.FrameCounter())
	assert.True(t, h.log.anyContains("submit"))
}

func TestFrameDriverSubmitFailure(t *testing.T) {
	h := newDriverHarness(t, 2, 3)
	h.device.submitScript = []error{errors.New("device lost")}

	err := h.driver.Draw(h.frameInput(1))

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, StepSubmit, frameErr.Step)
	assert.False(t, IsRecoverable(err))
	assert.Zero(t, h.driver.FrameCounter())
}

func TestFrameDriverUploadFailure(t *testing.T) {
	h := newDriverHarness(t, 2, 3)
	h.device.uploadErr = errors.New("map failed")

	err := h.driver.Draw(h.frameInput(1))

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, StepUpload, frameErr.Step)
	assert.False(t, IsRecoverable(err))
}

func TestFrameDriverRebindAfterRebuild(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	require.NoError(t, h.driver.Draw(h.frameInput(1)))
	require.NoError(t, h.driver.Draw(h.frameInput(1)))
	require.Equal(t, uint64(2), h.driver.FrameCounter())

	h.surface.caps.CurrentExtent = &Extent{Width: 1280, Height: 720}
	require.NoError(t, h.pool.Rebuild(Extent{Width: 1280, Height: 720}, testPrefs()))

	pipeline, err := newTestBuilder(h.device, &fakeCompiler{}).
		WithRenderPass(h.pool.RenderPass()).
		WithBakedStates(NewBakedStates(h.pool.Extent())).
		Build()
	require.NoError(t, err)

	require.NoError(t, h.driver.Rebind(h.pool, pipeline))
	assert.Equal(t, 2, h.device.created["descriptor_pool"])
	assert.Equal(t, 1, h.device.destroyed["descriptor_pool"])
	assert.Equal(t, uint64(2), h.driver.FrameCounter(), "rebind must not reset the frame counter")

	h.log.clear()
	require.NoError(t, h.driver.Draw(h.frameInput(1)))
	assert.True(t, h.log.anyContains("1280x720"), "drawing must target the rebuilt framebuffers")
	assert.Equal(t, uint64(3), h.driver.FrameCounter())
}

func TestFrameDriverRebindRejectsDifferentRingDepth(t *testing.T) {
	h := newDriverHarness(t, 2, 3)
	other := newPoolHarness(t, 3, 3)

	err := h.driver.Rebind(other.pool, h.pipeline)
	require.Error(t, err)
}

func TestFrameDriverDestroy(t *testing.T) {
	h := newDriverHarness(t, 2, 3)

	buffersBefore := h.device.destroyed["buffer"]
	h.driver.Destroy()
	h.driver.Destroy()

	assert.Equal(t, buffersBefore+1, h.device.destroyed["buffer"], "only the frame data buffer is owned by the driver")
	assert.Equal(t, 1, h.device.destroyed["descriptor_pool"])
}
