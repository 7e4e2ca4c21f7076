package engine

import (
	"github.com/spaghettifunk/avenir/engine/config"
	"github.com/spaghettifunk/avenir/engine/renderer"
	"github.com/spaghettifunk/avenir/engine/renderer/metadata"
)

// Initialize runs once after the engine has brought up the window and the
// renderer, before the first frame.
type Initialize func() error

// Update advances the game simulation by deltaTime seconds.
type Update func(deltaTime float64) error

// Render builds the packet the renderer draws this frame.
type Render func(deltaTime float64) (*metadata.RenderPacket, error)

// OnResize reacts to a new client area, already in pixels.
type OnResize func(width uint32, height uint32) error

// Game is the contract an application implements to run on the engine. The
// engine owns the window, the renderer and the frame loop; the game supplies
// state and the per-frame callbacks.
type Game struct {
	// Config and Renderer are populated by the engine during Initialize,
	// before FnInitialize runs.
	Config   *config.Configuration
	Renderer *renderer.Renderer

	// State carries whatever the game wants to keep between callbacks.
	State interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
}
