package hal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolHarness struct {
	log     *oplog
	device  *fakeDevice
	adapter *fakeAdapter
	surface *fakeSurface
	pool    *FramePool
}

func newPoolHarness(t *testing.T, frames int, images uint32) *poolHarness {
	t.Helper()
	log := &oplog{}
	device := newFakeDevice(log)
	surface := newTestSurface()
	adapter := &fakeAdapter{
		name:     "discrete",
		families: []QueueFamily{fakeQueueFamily{index: 0, graphics: true, queues: 1}},
		device:   device,
	}
	pool, err := NewFramePool(device, adapter, surface, FramePoolConfig{
		Swapchain: SwapchainConfig{
			Format:         FormatBGRA8Srgb,
			PresentMode:    PresentModeMailbox,
			CompositeAlpha: CompositeAlphaOpaque,
			Extent:         Extent{Width: 800, Height: 600},
			ImageCount:     images,
			Usage:          UsageColourAttachment,
		},
		FramesInFlight: frames,
		QueueFamily:    fakeQueueFamily{index: 0, graphics: true, queues: 1},
	})
	require.NoError(t, err)
	return &poolHarness{log: log, device: device, adapter: adapter, surface: surface, pool: pool}
}

func testPrefs() NegotiationPrefs {
	return NegotiationPrefs{
		PresentModes:    []PresentMode{PresentModeMailbox, PresentModeFifo},
		CompositeAlphas: []CompositeAlpha{CompositeAlphaOpaque, CompositeAlphaInherit},
	}
}

func TestNewFramePool(t *testing.T) {
	h := newPoolHarness(t, 2, 3)

	assert.Equal(t, 3, h.pool.ImageCount())
	assert.Equal(t, 2, h.pool.FramesInFlight())
	assert.Equal(t, Extent{Width: 800, Height: 600}, h.pool.Extent())
	assert.Equal(t, FormatBGRA8Srgb, h.pool.Format())

	assert.Equal(t, 1, h.device.created["swapchain"])
	assert.Equal(t, 1, h.device.created["render_pass"])
	assert.Equal(t, 1, h.device.created["command_pool"])
	assert.Equal(t, 3, h.device.created["image_view"])
	assert.Equal(t, 3, h.device.created["framebuffer"])
	assert.Equal(t, 2, h.device.created["fence"])
	assert.Equal(t, 4, h.device.created["semaphore"])

	for i := 0; i < 2; i++ {
		slot := h.pool.Slot(uint64(i))
		assert.True(t, slot.Fence.(*fakeFence).signaled, "slot %d fence must start signaled", i)
	}
	for i := uint32(0); i < 3; i++ {
		assert.Nil(t, h.pool.ImageInFlight(i))
		assert.NotNil(t, h.pool.CommandBuffer(i))
		assert.NotNil(t, h.pool.Framebuffer(i))
	}
}

func TestNewFramePoolRejectsZeroFrames(t *testing.T) {
	device := newFakeDevice(&oplog{})
	_, err := NewFramePool(device, nil, nil, FramePoolConfig{FramesInFlight: 0})
	require.Error(t, err)
	assert.Zero(t, device.created["swapchain"])
}

func TestNewFramePoolFailureCleansUp(t *testing.T) {
	log := &oplog{}
	device := newFakeDevice(log)
	device.failKind = "framebuffer"
	surface := newTestSurface()
	adapter := &fakeAdapter{
		name:     "discrete",
		families: []QueueFamily{fakeQueueFamily{index: 0, graphics: true, queues: 1}},
		device:   device,
	}

	_, err := NewFramePool(device, adapter, surface, FramePoolConfig{
		Swapchain:      SwapchainConfig{Format: FormatBGRA8Srgb, Extent: Extent{Width: 800, Height: 600}, ImageCount: 3, Usage: UsageColourAttachment},
		FramesInFlight: 2,
		QueueFamily:    fakeQueueFamily{index: 0, graphics: true, queues: 1},
	})
	require.Error(t, err)
	device.requireBalanced(t, "swapchain", "render_pass", "command_pool", "image_view",
		"framebuffer", "fence", "semaphore", "command_buffer")
}

func TestFramePoolSlotMapping(t *testing.T) {
	h := newPoolHarness(t, 3, 3)

	for counter := uint64(0); counter < 9; counter++ {
		slot := h.pool.Slot(counter)
		assert.Equal(t, int(counter%3), slot.Index, "counter %d", counter)
	}

	// The same slot hands out the same resources on every lap.
	first := h.pool.Slot(1)
	again := h.pool.Slot(4)
	assert.Same(t, first.Fence.(*fakeFence), again.Fence.(*fakeFence))
	assert.Same(t, first.ImageAvailable.(*fakeSemaphore), again.ImageAvailable.(*fakeSemaphore))
	assert.Same(t, first.RenderComplete.(*fakeSemaphore), again.RenderComplete.(*fakeSemaphore))
}

func TestFramePoolImagesInFlight(t *testing.T) {
	h := newPoolHarness(t, 2, 3)

	require.Nil(t, h.pool.ImageInFlight(1))
	fence := h.pool.Slot(0).Fence
	h.pool.SetImageInFlight(1, fence)
	assert.Equal(t, fence, h.pool.ImageInFlight(1))
}

func TestFramePoolRebuild(t *testing.T) {
	h := newPoolHarness(t, 2, 3)

	oldSwapchainID := h.pool.Swapchain().(*fakeSwapchain).id
	oldFence := h.pool.Slot(0).Fence
	oldAcquire := h.pool.Slot(0).ImageAvailable
	h.pool.SetImageInFlight(0, oldFence)

	h.surface.caps.CurrentExtent = &Extent{Width: 1280, Height: 720}
	require.NoError(t, h.pool.Rebuild(Extent{Width: 1280, Height: 720}, testPrefs()))

	assert.Equal(t, Extent{Width: 1280, Height: 720}, h.pool.Extent())
	assert.True(t, h.log.anyContains(fmt.Sprintf("old=sc%d", oldSwapchainID)),
		"new swapchain should be created from the old one, log: %v", h.log.entries)
	assert.Equal(t, 2, h.device.created["swapchain"])
	assert.Equal(t, 1, h.device.destroyed["swapchain"])

	// Slot resources survive; image bookkeeping starts over.
	assert.Same(t, oldFence.(*fakeFence), h.pool.Slot(0).Fence.(*fakeFence))
	assert.Same(t, oldAcquire.(*fakeSemaphore), h.pool.Slot(0).ImageAvailable.(*fakeSemaphore))
	assert.Equal(t, 2, h.device.created["fence"])
	assert.Equal(t, 4, h.device.created["semaphore"])
	assert.Nil(t, h.pool.ImageInFlight(0))

	assert.Equal(t, 6, h.device.created["image_view"])
	assert.Equal(t, 3, h.device.destroyed["image_view"])
}

func TestFramePoolRebuildKeepsRenderPassForSameFormat(t *testing.T) {
	h := newPoolHarness(t, 2, 3)

	require.NoError(t, h.pool.Rebuild(Extent{Width: 800, Height: 600}, testPrefs()))
	assert.Equal(t, 1, h.device.created["render_pass"])
}

func TestFramePoolRebuildRecreatesRenderPassOnFormatChange(t *testing.T) {
	h := newPoolHarness(t, 2, 3)

	h.surface.formats = []Format{FormatRGBA8Unorm}
	require.NoError(t, h.pool.Rebuild(Extent{Width: 800, Height: 600}, testPrefs()))

	assert.Equal(t, FormatRGBA8Unorm, h.pool.Format())
	assert.Equal(t, 2, h.device.created["render_pass"])
	assert.Equal(t, 1, h.device.destroyed["render_pass"])
}

func TestFramePoolRebuildNegotiationFailure(t *testing.T) {
	h := newPoolHarness(t, 2, 3)

	h.surface.formats = []Format{}
	err := h.pool.Rebuild(Extent{Width: 800, Height: 600}, testPrefs())
	assert.ErrorIs(t, err, ErrNoFormats)
}

func TestFramePoolDestroy(t *testing.T) {
	h := newPoolHarness(t, 2, 3)

	h.pool.Destroy()
	require.GreaterOrEqual(t, h.log.indexOf("wait_idle"), 0, "teardown must wait for the device")
	h.device.requireBalanced(t, "swapchain", "render_pass", "command_pool", "image_view",
		"framebuffer", "fence", "semaphore", "command_buffer")

	// A second destroy is a no-op.
	h.pool.Destroy()
	assert.Equal(t, 1, h.device.destroyed["swapchain"])
	assert.Equal(t, 4, h.device.destroyed["semaphore"])
}
