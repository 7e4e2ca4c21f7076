package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSurfaceFormat(t *testing.T) {
	t.Run("nil list falls back to default", func(t *testing.T) {
		f, err := SelectSurfaceFormat(nil)
		require.NoError(t, err)
		assert.Equal(t, FormatRGBA8Srgb, f)
	})

	t.Run("empty list fails", func(t *testing.T) {
		_, err := SelectSurfaceFormat([]Format{})
		assert.ErrorIs(t, err, ErrNoFormats)
	})

	t.Run("first srgb format wins", func(t *testing.T) {
		f, err := SelectSurfaceFormat([]Format{FormatBGRA8Unorm, FormatBGRA8Srgb, FormatRGBA8Srgb})
		require.NoError(t, err)
		assert.Equal(t, FormatBGRA8Srgb, f)
	})

	t.Run("no srgb falls back to first", func(t *testing.T) {
		f, err := SelectSurfaceFormat([]Format{FormatBGRA8Unorm, FormatRGBA8Unorm})
		require.NoError(t, err)
		assert.Equal(t, FormatBGRA8Unorm, f)
	})
}

func TestSelectPresentMode(t *testing.T) {
	available := []PresentMode{PresentModeFifo, PresentModeMailbox}

	mode, err := SelectPresentMode(available, []PresentMode{PresentModeMailbox, PresentModeFifo})
	require.NoError(t, err)
	assert.Equal(t, PresentModeMailbox, mode)

	// Preference order decides, not surface order.
	mode, err = SelectPresentMode(available, []PresentMode{PresentModeImmediate, PresentModeFifo})
	require.NoError(t, err)
	assert.Equal(t, PresentModeFifo, mode)

	_, err = SelectPresentMode(available, []PresentMode{PresentModeImmediate})
	assert.ErrorIs(t, err, ErrNoPresentMode)
}

func TestSelectCompositeAlpha(t *testing.T) {
	available := []CompositeAlpha{CompositeAlphaInherit, CompositeAlphaOpaque}

	alpha, err := SelectCompositeAlpha(available, []CompositeAlpha{CompositeAlphaOpaque, CompositeAlphaInherit})
	require.NoError(t, err)
	assert.Equal(t, CompositeAlphaOpaque, alpha)

	_, err = SelectCompositeAlpha(available, []CompositeAlpha{CompositeAlphaPreMultiplied})
	assert.ErrorIs(t, err, ErrNoCompositeAlpha)
}

func TestSelectExtent(t *testing.T) {
	t.Run("pinned current extent wins", func(t *testing.T) {
		caps := SurfaceCaps{
			CurrentExtent: &Extent{Width: 1024, Height: 768},
			MinExtent:     Extent{Width: 1, Height: 1},
			MaxExtent:     Extent{Width: 4096, Height: 4096},
		}
		got := SelectExtent(caps, Extent{Width: 640, Height: 480})
		assert.Equal(t, Extent{Width: 1024, Height: 768}, got)
	})

	t.Run("window clamped per axis", func(t *testing.T) {
		caps := SurfaceCaps{
			MinExtent: Extent{Width: 100, Height: 100},
			MaxExtent: Extent{Width: 4096, Height: 2160},
		}
		assert.Equal(t, Extent{Width: 800, Height: 600}, SelectExtent(caps, Extent{Width: 800, Height: 600}))
		assert.Equal(t, Extent{Width: 100, Height: 2160}, SelectExtent(caps, Extent{Width: 10, Height: 5000}))
	})
}

func TestSelectImageCount(t *testing.T) {
	tests := []struct {
		name string
		min  uint32
		max  uint32
		mode PresentMode
		want uint32
	}{
		{"mailbox aims for three", 2, 4, PresentModeMailbox, 3},
		{"fifo aims for two", 2, 4, PresentModeFifo, 2},
		{"clamped to minimum when range is tight", 2, 2, PresentModeMailbox, 2},
		{"unbounded maximum", 2, 0, PresentModeMailbox, 3},
		{"minimum raises the count", 5, 9, PresentModeFifo, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := SurfaceCaps{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.want, SelectImageCount(caps, tt.mode))
		})
	}
}

func TestValidateColourUsage(t *testing.T) {
	usage, err := ValidateColourUsage(SurfaceCaps{Usage: UsageColourAttachment | UsageTransferDst})
	require.NoError(t, err)
	assert.Equal(t, UsageColourAttachment, usage)

	_, err = ValidateColourUsage(SurfaceCaps{Usage: UsageTransferSrc})
	assert.ErrorIs(t, err, ErrSurfaceNotColorCapable)
}

func TestPickAdapter(t *testing.T) {
	log := &oplog{}
	device := newFakeDevice(log)
	computeOnly := &fakeAdapter{
		name:     "compute-only",
		families: []QueueFamily{fakeQueueFamily{index: 0, graphics: false, queues: 1}},
		device:   device,
	}
	graphics := &fakeAdapter{
		name:     "discrete",
		families: []QueueFamily{fakeQueueFamily{index: 0, graphics: true, queues: 4}},
		device:   device,
	}

	adapter, err := PickAdapter(&fakeInstance{adapters: []Adapter{computeOnly, graphics}})
	require.NoError(t, err)
	assert.Equal(t, "discrete", adapter.Name())

	_, err = PickAdapter(&fakeInstance{})
	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestPickQueueFamily(t *testing.T) {
	log := &oplog{}
	device := newFakeDevice(log)
	surface := newTestSurface()
	adapter := &fakeAdapter{
		name: "discrete",
		families: []QueueFamily{
			fakeQueueFamily{index: 0, graphics: false, queues: 1},
			fakeQueueFamily{index: 1, graphics: true, queues: 0},
			fakeQueueFamily{index: 2, graphics: true, queues: 1},
			fakeQueueFamily{index: 3, graphics: true, queues: 2},
		},
		noPresent: map[uint32]bool{2: true},
		device:    device,
	}

	family, err := PickQueueFamily(adapter, surface)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), family.Index())

	adapter.noPresent[3] = true
	_, err = PickQueueFamily(adapter, surface)
	assert.ErrorIs(t, err, ErrNoQueueFamily)
}

func TestNegotiate(t *testing.T) {
	log := &oplog{}
	device := newFakeDevice(log)
	surface := newTestSurface()
	adapter := &fakeAdapter{
		name:     "discrete",
		families: []QueueFamily{fakeQueueFamily{index: 0, graphics: true, queues: 1}},
		device:   device,
	}
	prefs := NegotiationPrefs{
		PresentModes:    []PresentMode{PresentModeMailbox, PresentModeFifo},
		CompositeAlphas: []CompositeAlpha{CompositeAlphaOpaque, CompositeAlphaInherit},
	}

	config, err := Negotiate(adapter, surface, Extent{Width: 1920, Height: 1080}, prefs)
	require.NoError(t, err)

	assert.Equal(t, FormatBGRA8Srgb, config.Format)
	assert.Equal(t, PresentModeMailbox, config.PresentMode)
	assert.Equal(t, CompositeAlphaOpaque, config.CompositeAlpha)
	// The surface pins its extent, so the window size is ignored.
	assert.Equal(t, Extent{Width: 800, Height: 600}, config.Extent)
	assert.Equal(t, uint32(3), config.ImageCount)
	assert.Equal(t, UsageColourAttachment, config.Usage)

	again, err := Negotiate(adapter, surface, Extent{Width: 1920, Height: 1080}, prefs)
	require.NoError(t, err)
	assert.Equal(t, config, again)
}

func TestNegotiateRejectsNonColourSurface(t *testing.T) {
	log := &oplog{}
	device := newFakeDevice(log)
	surface := newTestSurface()
	surface.caps.Usage = UsageTransferSrc
	adapter := &fakeAdapter{
		name:     "discrete",
		families: []QueueFamily{fakeQueueFamily{index: 0, graphics: true, queues: 1}},
		device:   device,
	}

	_, err := Negotiate(adapter, surface, Extent{Width: 800, Height: 600}, NegotiationPrefs{
		PresentModes:    []PresentMode{PresentModeFifo},
		CompositeAlphas: []CompositeAlpha{CompositeAlphaOpaque},
	})
	assert.ErrorIs(t, err, ErrSurfaceNotColorCapable)
}
