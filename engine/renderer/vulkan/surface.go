package vulkan

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

// Surface wraps the window surface the swapchain presents to.
type Surface struct {
	handle vk.Surface
}

// CreateSurface creates the presentable surface for a GLFW window.
func CreateSurface(instance *Instance, window *glfw.Window) (*Surface, error) {
	ptr, err := window.CreateWindowSurface(instance.handle, nil)
	if err != nil {
		core.LogError("failed to create window surface: %s", err)
		return nil, err
	}
	return &Surface{handle: vk.SurfaceFromPointer(ptr)}, nil
}

func (s *Surface) Capabilities(adapter hal.Adapter) hal.SurfaceCaps {
	physical := adapter.(*Adapter).physical

	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physical, s.handle, &caps); res != vk.Success {
		err := vkError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
		core.LogError(err.Error())
		return hal.SurfaceCaps{}
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	out := hal.SurfaceCaps{
		MinImageCount: caps.MinImageCount,
		MaxImageCount: caps.MaxImageCount,
		MinExtent:     hal.Extent{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxExtent:     hal.Extent{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		Usage:         halImageUsage(caps.SupportedUsageFlags),
	}
	// A current extent of 0xFFFFFFFF means the windowing system leaves the
	// extent choice to the swapchain.
	if caps.CurrentExtent.Width != ^uint32(0) {
		out.CurrentExtent = &hal.Extent{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height}
	}
	return out
}

func (s *Surface) Formats(adapter hal.Adapter) []hal.Format {
	physical := adapter.(*Adapter).physical

	var count uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physical, s.handle, &count, nil); res != vk.Success || count == 0 {
		return nil
	}
	surfaceFormats := make([]vk.SurfaceFormat, count)
	if res := vk.GetPhysicalDeviceSurfaceFormats(physical, s.handle, &count, surfaceFormats); res != vk.Success {
		return nil
	}

	formats := make([]hal.Format, 0, count)
	for i := range surfaceFormats {
		surfaceFormats[i].Deref()
		if format, ok := halFormat(surfaceFormats[i].Format); ok {
			formats = append(formats, format)
		}
	}
	return formats
}

func (s *Surface) PresentModes(adapter hal.Adapter) []hal.PresentMode {
	physical := adapter.(*Adapter).physical

	var count uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physical, s.handle, &count, nil); res != vk.Success || count == 0 {
		return nil
	}
	presentModes := make([]vk.PresentMode, count)
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physical, s.handle, &count, presentModes); res != vk.Success {
		return nil
	}

	modes := make([]hal.PresentMode, 0, count)
	for _, mode := range presentModes {
		if m, ok := halPresentMode(mode); ok {
			modes = append(modes, m)
		}
	}
	return modes
}

func (s *Surface) CompositeAlphaModes(adapter hal.Adapter) []hal.CompositeAlpha {
	physical := adapter.(*Adapter).physical

	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physical, s.handle, &caps); res != vk.Success {
		return nil
	}
	caps.Deref()
	return halCompositeAlphas(caps.SupportedCompositeAlpha)
}

func (s *Surface) Destroy(instance hal.Instance) {
	if s.handle == vk.NullSurface {
		return
	}
	inst := instance.(*Instance)
	vk.DestroySurface(inst.handle, s.handle, inst.allocator)
	s.handle = vk.NullSurface
}
