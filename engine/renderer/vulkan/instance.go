// Package vulkan implements the renderer hardware interfaces on the Vulkan
// API, loaded through GLFW. Every hal handle returned by this package wraps
// the corresponding Vulkan object; callers never touch vk types directly.
package vulkan

import (
	"errors"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// Instance owns the Vulkan instance and, in debug builds, the report callback.
type Instance struct {
	handle    vk.Instance
	allocator *vk.AllocationCallbacks
	debugger  vk.DebugReportCallback
}

// InstanceConfig names the application and lists the instance extensions the
// windowing system needs on top of VK_KHR_surface.
type InstanceConfig struct {
	AppName    string
	Extensions []string
	Debug      bool
}

// CreateInstance loads the Vulkan loader through GLFW and creates the
// instance. GLFW must be initialised first or the loader cannot be found.
func CreateInstance(config InstanceConfig) (*Instance, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := errors.New("vulkan loader is not available")
		core.LogError(err.Error())
		return nil, err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vulkan: %s", err)
		return nil, err
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString(config.AppName),
		PEngineName:        safeString("Avenir Engine"),
	}

	extensions := append([]string{"VK_KHR_surface"}, config.Extensions...)
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	var layers []string
	if config.Debug {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		layers = validationLayers()
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR, required by MoltenVK.
		createInfo.Flags |= 1
	}

	instance := &Instance{}
	if res := vk.CreateInstance(&createInfo, instance.allocator, &instance.handle); res != vk.Success {
		err := vkError("vkCreateInstance", res)
		core.LogError(err.Error())
		return nil, err
	}
	if err := vk.InitInstance(instance.handle); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.LogInfo("vulkan instance created")

	if config.Debug {
		if err := instance.createDebugger(); err != nil {
			core.LogWarn("vulkan debugger unavailable: %s", err)
		}
	}
	return instance, nil
}

// validationLayers returns the Khronos validation layer if it is installed.
func validationLayers() []string {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return nil
	}

	for i := range available {
		available[i].Deref()
		end := firstZero(available[i].LayerName[:])
		if vk.ToString(available[i].LayerName[:end+1]) == validationLayerName {
			return []string{validationLayerName}
		}
	}
	core.LogWarn("%s is not installed, validation disabled", validationLayerName)
	return nil
}

func (i *Instance) createDebugger() error {
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReportFunc,
	}

	var callback vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(i.handle, &createInfo, i.allocator, &callback); res != vk.Success {
		return vkError("vkCreateDebugReportCallbackEXT", res)
	}
	i.debugger = callback
	return nil
}

func debugReportFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64,
	location uint64, messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] %s", layerPrefix, message)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] %s", layerPrefix, message)
	default:
		core.LogInfo("[%s] %s", layerPrefix, message)
	}
	return vk.Bool32(vk.False)
}

// EnumerateAdapters lists the physical devices visible to the instance.
func (i *Instance) EnumerateAdapters() []hal.Adapter {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(i.handle, &count, nil); res != vk.Success || count == 0 {
		return nil
	}
	physicals := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(i.handle, &count, physicals); res != vk.Success {
		return nil
	}

	adapters := make([]hal.Adapter, len(physicals))
	for idx, physical := range physicals {
		adapters[idx] = newAdapter(physical, i.allocator)
	}
	return adapters
}

func (i *Instance) Destroy() {
	if i.debugger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.handle, i.debugger, i.allocator)
		i.debugger = vk.NullDebugReportCallback
	}
	if i.handle != nil {
		vk.DestroyInstance(i.handle, i.allocator)
		i.handle = nil
	}
}
