package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/avenir/engine/core"
)

// Configuration defines the global engine configuration, loaded from an
// avenir.toml file next to the binary. Missing file or fields fall back to
// the defaults below.
type Configuration struct {
	Application ApplicationConfiguration
	Renderer    RendererConfiguration
	Shaders     ShaderConfiguration
}

// ApplicationConfiguration is used to configure the window.
type ApplicationConfiguration struct {
	Name        string
	StartPosX   int
	StartPosY   int
	StartWidth  int
	StartHeight int
}

// RendererConfiguration is used to configure the renderer.
type RendererConfiguration struct {
	// Preference order for swapchain present modes. The first mode the
	// surface supports wins. Valid entries: "immediate", "mailbox",
	// "fifo", "fifo_relaxed".
	PresentModes []string
	// Preference order for composite alpha. Valid entries: "opaque",
	// "premultiplied", "postmultiplied", "inherit".
	CompositeAlphas []string
	// Depth of the frame pipelining ring.
	FramesInFlight int
	ClearColour    [4]float32
	Wireframe      bool
	Debug          bool
}

// ShaderConfiguration points the renderer at its WGSL sources.
type ShaderConfiguration struct {
	// Directory holding the .wgsl files. Empty means use the built-in sources.
	Dir string
	// Rebuild the pipeline when sources in Dir change on disk.
	Watch bool
}

func defaults() *Configuration {
	return &Configuration{
		Application: ApplicationConfiguration{
			Name:        "Avenir",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1920,
			StartHeight: 1080,
		},
		Renderer: RendererConfiguration{
			PresentModes:    []string{"mailbox", "fifo"},
			CompositeAlphas: []string{"opaque", "inherit"},
			FramesInFlight:  3,
			ClearColour:     [4]float32{0.1, 0.2, 0.3, 1.0},
			Wireframe:       false,
			Debug:           true,
		},
		Shaders: ShaderConfiguration{
			Dir:   "",
			Watch: false,
		},
	}
}

// Load reads the configuration at path. A missing file is not an error; the
// defaults are returned. A malformed file is.
func Load(path string) (*Configuration, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			core.LogDebug("no configuration at %s, using defaults", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		core.LogError(err.Error())
		return nil, fmt.Errorf("failed to parse configuration %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) validate() error {
	if c.Application.StartWidth <= 0 || c.Application.StartHeight <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Application.StartWidth, c.Application.StartHeight)
	}
	if c.Renderer.FramesInFlight < 1 {
		return fmt.Errorf("frames_in_flight must be at least 1, got %d", c.Renderer.FramesInFlight)
	}
	if len(c.Renderer.PresentModes) == 0 {
		return errors.New("at least one present mode preference is required")
	}
	if len(c.Renderer.CompositeAlphas) == 0 {
		return errors.New("at least one composite alpha preference is required")
	}
	return nil
}
