// Package engine ties the window, the renderer and the game together into a
// single frame loop. It owns startup and shutdown ordering; the game only
// supplies callbacks through the Game contract.
package engine

import (
	"errors"

	"github.com/spaghettifunk/avenir/engine/config"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/platform"
	"github.com/spaghettifunk/avenir/engine/renderer"
)

// ConfigPath is where the engine looks for its configuration file. A missing
// file is not an error, defaults apply.
const ConfigPath = "avenir.toml"

type Engine struct {
	config       *config.Configuration
	gameInstance *Game
	platform     *platform.Platform
	renderer     *renderer.Renderer
	clock        *core.Clock
	isRunning    bool
	isSuspended  bool
	width        uint32
	height       uint32
	lastTime     float64
}

func New(g *Game) (*Engine, error) {
	if g == nil {
		return nil, errors.New("engine requires a game instance")
	}
	p, err := platform.New()
	if err != nil {
		return nil, err
	}
	return &Engine{
		gameInstance: g,
		platform:     p,
		clock:        core.NewClock(),
		isRunning:    true,
		isSuspended:  false,
	}, nil
}

// Initialize brings the engine up in dependency order: configuration, input
// and events, the window, the renderer, and finally the game's own hook.
func (e *Engine) Initialize() error {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return err
	}
	e.config = cfg
	e.width = uint32(cfg.Application.StartWidth)
	e.height = uint32(cfg.Application.StartHeight)

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventInitialize() {
		return errors.New("failed to initialize the event system")
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onQuit)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	core.EventRegister(core.EVENT_CODE_SHADERS_CHANGED, e, e.onShadersChanged)

	if err := e.platform.Startup(cfg.Application.Name,
		cfg.Application.StartPosX,
		cfg.Application.StartPosY,
		cfg.Application.StartWidth,
		cfg.Application.StartHeight); err != nil {
		return err
	}

	e.renderer = renderer.New(e.platform, cfg)
	if err := e.renderer.Initialize(); err != nil {
		return err
	}

	e.gameInstance.Config = cfg
	e.gameInstance.Renderer = e.renderer

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}
	return e.gameInstance.FnOnResize(e.width, e.height)
}

// Run drives the frame loop until a quit is requested or a callback fails.
func (e *Engine) Run() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	var frames uint64

	for e.isRunning {
		e.platform.PumpMessages()
		core.EventPump()

		if e.platform.ShouldClose() {
			e.isRunning = false
			break
		}
		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			e.isRunning = false
			break
		}

		packet, err := e.gameInstance.FnRender(delta)
		if err != nil {
			core.LogError("game render failed, shutting down: %s", err)
			e.isRunning = false
			break
		}

		if err := e.renderer.DrawFrame(packet); err != nil {
			core.LogError("draw failed, shutting down: %s", err)
			e.isRunning = false
			break
		}

		e.clock.Update()
		core.MetricsUpdate(e.clock.Elapsed() - currentTime)
		frames++
		if frames%120 == 0 {
			fps, ms := core.MetricsFrame()
			core.LogDebug("%.0f fps, %.2f ms", fps, ms)
		}

		// NOTE: Input update/state copying should always be handled after
		// any input has been recorded, so it stays the last thing to run
		// before this frame ends.
		core.InputUpdate(delta)

		e.lastTime = currentTime
	}

	e.isRunning = false
	return nil
}

// Shutdown tears the engine down in reverse order of Initialize. Safe to call
// after a partial Initialize.
func (e *Engine) Shutdown() error {
	core.LogInfo("shutting down")
	e.isRunning = false

	if e.renderer != nil {
		e.renderer.Shutdown()
		e.renderer = nil
	}
	if e.platform != nil {
		e.platform.Shutdown()
		e.platform = nil
	}
	// Events never came up if Initialize failed before reaching them.
	if err := core.EventShutdown(); err != nil && !errors.Is(err, core.ErrEventsNotInitialized) {
		return err
	}
	return core.InputShutdown()
}

// GetFramebufferSize returns the width and height (in this order) of the
// client area the engine last saw.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onQuit(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	core.LogInfo("quit requested, shutting down")
	e.isRunning = false
	return true
}

func (e *Engine) onKey(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	key := core.KeyCode(data.Data.U16[0])
	if key == core.KEY_ESCAPE {
		// Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	width := uint32(data.Data.U16[0])
	height := uint32(data.Data.U16[1])

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("window resize: %d, %d", width, height)

	// Handle minimization.
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	e.renderer.Resized(width, height)
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	return false
}

func (e *Engine) onShadersChanged(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	core.LogInfo("shader change detected: %s", data.Data.C[0])
	if err := e.renderer.ReloadShaders(); err != nil {
		core.LogError("shader reload failed: %s", err)
	}
	return true
}
