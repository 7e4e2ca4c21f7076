// Package platform owns the GLFW window and turns its callbacks into core
// events and input state. The window never dictates frame pacing; the
// renderer's present mode does.
package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window
}

func New() (*Platform, error) {
	return &Platform{
		Window: nil,
	}, nil
}

// Startup initializes GLFW and creates the window without a client API, as
// Vulkan requires. The window is created hidden and shown once positioned.
func (p *Platform) Startup(applicationName string, x, y, width, height int) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(width, height, applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(keyCallback)
	p.Window.SetMouseButtonCallback(mouseButtonCallback)
	p.Window.SetCursorPosCallback(cursorPosCallback)
	p.Window.SetScrollCallback(scrollCallback)
	p.Window.SetFramebufferSizeCallback(framebufferSizeCallback)
	p.Window.SetCloseCallback(closeCallback)
	p.Window.SetPos(x, y)
	p.Window.Show()

	core.LogInfo("window '%s' created at %dx%d", applicationName, width, height)
	return nil
}

// PumpMessages delivers pending window events. Callbacks run on this thread,
// so events they fire are handled immediately.
func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// ShouldClose reports whether the window was asked to close.
func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}

// RequiredVulkanExtensions lists the instance extensions the windowing
// system needs for surface creation.
func (p *Platform) RequiredVulkanExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// ClientSize returns the framebuffer size in pixels. On high-DPI displays
// this differs from the window size and is what the swapchain must match.
func (p *Platform) ClientSize() hal.Extent {
	width, height := p.Window.GetFramebufferSize()
	return hal.Extent{Width: uint32(width), Height: uint32(height)}
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code := translateKey(key)
	if code == core.KEYS_MAX_KEYS {
		return
	}
	core.InputProcessKey(code, action != glfw.Release)
}

func mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	core.InputProcessButton(b, action == glfw.Press)
}

func cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	if xpos < 0 {
		xpos = 0
	}
	if ypos < 0 {
		ypos = 0
	}
	core.InputProcessMouseMove(uint16(xpos), uint16(ypos))
}

func scrollCallback(w *glfw.Window, xoff, yoff float64) {
	// Flatten to an OS-independent -1..1.
	var delta int8
	if yoff > 0 {
		delta = 1
	} else if yoff < 0 {
		delta = -1
	}
	core.InputProcessMouseWheel(delta)
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	context := core.EventContext{}
	context.Data.U16[0] = uint16(width)
	context.Data.U16[1] = uint16(height)
	core.EventFire(core.EVENT_CODE_RESIZED, nil, context)
}

func closeCallback(w *glfw.Window) {
	core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
}

// translateKey maps a GLFW key onto the engine key code. GLFW letter keys
// line up with the engine's codes; everything else is mapped explicitly.
// Unmapped keys come back as KEYS_MAX_KEYS and are dropped by the caller.
func translateKey(key glfw.Key) core.KeyCode {
	switch key {
	case glfw.KeyEscape:
		return core.KEY_ESCAPE
	case glfw.KeyEnter:
		return core.KEY_ENTER
	case glfw.KeyTab:
		return core.KEY_TAB
	case glfw.KeyBackspace:
		return core.KEY_BACKSPACE
	case glfw.KeySpace:
		return core.KEY_SPACE
	case glfw.KeyInsert:
		return core.KEY_INSERT
	case glfw.KeyDelete:
		return core.KEY_DELETE
	case glfw.KeyRight:
		return core.KEY_RIGHT
	case glfw.KeyLeft:
		return core.KEY_LEFT
	case glfw.KeyDown:
		return core.KEY_DOWN
	case glfw.KeyUp:
		return core.KEY_UP
	case glfw.KeyPageUp:
		return core.KEY_PRIOR
	case glfw.KeyPageDown:
		return core.KEY_NEXT
	case glfw.KeyHome:
		return core.KEY_HOME
	case glfw.KeyEnd:
		return core.KEY_END
	case glfw.KeyLeftShift:
		return core.KEY_LSHIFT
	case glfw.KeyRightShift:
		return core.KEY_RSHIFT
	case glfw.KeyLeftControl:
		return core.KEY_LCONTROL
	case glfw.KeyRightControl:
		return core.KEY_RCONTROL
	case glfw.KeyLeftAlt:
		return core.KEY_LMENU
	case glfw.KeyRightAlt:
		return core.KEY_RMENU
	}
	if key >= glfw.KeyF1 && key <= glfw.KeyF24 {
		return core.KEY_F1 + core.KeyCode(key-glfw.KeyF1)
	}
	if key >= glfw.KeyA && key <= glfw.KeyZ {
		return core.KeyCode(key)
	}
	return core.KEYS_MAX_KEYS
}
