package hal

import (
	"fmt"

	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/math"
)

// PickAdapter returns the first adapter exposing a graphics-capable queue
// family.
func PickAdapter(instance Instance) (Adapter, error) {
	for _, adapter := range instance.EnumerateAdapters() {
		for _, family := range adapter.QueueFamilies() {
			if family.SupportsGraphics() {
				core.LogInfo("selected adapter '%s'", adapter.Name())
				return adapter, nil
			}
		}
	}
	return nil, ErrNoAdapter
}

// PickQueueFamily returns the first family of the adapter that can both
// render and present to the surface.
func PickQueueFamily(adapter Adapter, surface Surface) (QueueFamily, error) {
	for _, family := range adapter.QueueFamilies() {
		if !family.SupportsGraphics() {
			continue
		}
		if family.MaxQueues() == 0 {
			continue
		}
		if !adapter.SurfaceSupport(family, surface) {
			continue
		}
		core.LogDebug("selected queue family %d", family.Index())
		return family, nil
	}
	return nil, ErrNoQueueFamily
}

// SelectSurfaceFormat prefers the first sRGB format, falling back to the
// first reported format. A nil list means the surface imposes no preference
// and the default RGBA sRGB is used; an empty list is a failure.
func SelectSurfaceFormat(formats []Format) (Format, error) {
	if formats == nil {
		return FormatRGBA8Srgb, nil
	}
	if len(formats) == 0 {
		return FormatUndefined, ErrNoFormats
	}
	for _, f := range formats {
		if f.IsSrgb() {
			return f, nil
		}
	}
	return formats[0], nil
}

// SelectPresentMode returns the first preferred mode the surface supports.
// Caller order wins, making the selection deterministic.
func SelectPresentMode(available, preferred []PresentMode) (PresentMode, error) {
	for _, want := range preferred {
		for _, have := range available {
			if want == have {
				return want, nil
			}
		}
	}
	return PresentModeFifo, ErrNoPresentMode
}

// SelectCompositeAlpha returns the first preferred composite alpha mode the
// surface supports.
func SelectCompositeAlpha(available, preferred []CompositeAlpha) (CompositeAlpha, error) {
	for _, want := range preferred {
		for _, have := range available {
			if want == have {
				return want, nil
			}
		}
	}
	return CompositeAlphaOpaque, ErrNoCompositeAlpha
}

// SelectExtent resolves the swapchain extent. A surface that pins its
// current extent wins outright; otherwise the window client area is clamped
// into the surface's supported range per axis.
func SelectExtent(caps SurfaceCaps, window Extent) Extent {
	if caps.CurrentExtent != nil {
		return *caps.CurrentExtent
	}
	return Extent{
		Width:  math.Clamp(window.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: math.Clamp(window.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// SelectImageCount picks the swapchain image count for the present mode.
// Mailbox wants a spare image to bounce off, so it aims for three; everything
// else aims for two. The result stays inside the surface's supported range,
// where a zero maximum means unbounded.
func SelectImageCount(caps SurfaceCaps, mode PresentMode) uint32 {
	base := uint32(2)
	if mode == PresentModeMailbox {
		base = 3
	}
	count := max(caps.MinImageCount, base)
	if caps.MaxImageCount > 0 {
		count = min(caps.MaxImageCount-1, count)
		if count < caps.MinImageCount {
			count = caps.MinImageCount
		}
	}
	return count
}

// ValidateColourUsage confirms the surface can be a colour attachment and
// returns the usage flags to create the swapchain with.
func ValidateColourUsage(caps SurfaceCaps) (ImageUsage, error) {
	if caps.Usage&UsageColourAttachment == 0 {
		return 0, ErrSurfaceNotColorCapable
	}
	return UsageColourAttachment, nil
}

// Negotiate runs every selection policy against the surface and returns the
// complete swapchain configuration. Deterministic: the same surface state and
// preferences always produce the same configuration.
func Negotiate(adapter Adapter, surface Surface, window Extent, prefs NegotiationPrefs) (SwapchainConfig, error) {
	caps := surface.Capabilities(adapter)

	format, err := SelectSurfaceFormat(surface.Formats(adapter))
	if err != nil {
		return SwapchainConfig{}, fmt.Errorf("surface format negotiation: %w", err)
	}

	mode, err := SelectPresentMode(surface.PresentModes(adapter), prefs.PresentModes)
	if err != nil {
		return SwapchainConfig{}, fmt.Errorf("present mode negotiation: %w", err)
	}

	alpha, err := SelectCompositeAlpha(surface.CompositeAlphaModes(adapter), prefs.CompositeAlphas)
	if err != nil {
		return SwapchainConfig{}, fmt.Errorf("composite alpha negotiation: %w", err)
	}

	usage, err := ValidateColourUsage(caps)
	if err != nil {
		return SwapchainConfig{}, err
	}

	config := SwapchainConfig{
		Format:         format,
		PresentMode:    mode,
		CompositeAlpha: alpha,
		Extent:         SelectExtent(caps, window),
		ImageCount:     SelectImageCount(caps, mode),
		Usage:          usage,
	}
	core.LogDebug("negotiated swapchain: format=%s mode=%s alpha=%s extent=%dx%d images=%d",
		config.Format, config.PresentMode, config.CompositeAlpha,
		config.Extent.Width, config.Extent.Height, config.ImageCount)
	return config, nil
}
