package shader

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

//go:embed shaders/scene.vert.wgsl
var sceneVertexWGSL string

//go:embed shaders/scene.frag.wgsl
var sceneFragmentWGSL string

const (
	sceneVertexName   = "scene.vert.wgsl"
	sceneFragmentName = "scene.frag.wgsl"
)

// SceneSources returns the built-in scene shader pair.
func SceneSources() []hal.ShaderSource {
	return []hal.ShaderSource{
		{Name: sceneVertexName, Kind: hal.StageVertex, Source: sceneVertexWGSL, EntryPoint: "vs_main"},
		{Name: sceneFragmentName, Kind: hal.StageFragment, Source: sceneFragmentWGSL, EntryPoint: "fs_main"},
	}
}

// Load returns the scene shader pair, preferring files found in dir over the
// embedded sources. An empty dir, or a stage with no file on disk, keeps the
// built-in source for that stage.
func Load(dir string) []hal.ShaderSource {
	sources := SceneSources()
	if dir == "" {
		return sources
	}
	for i := range sources {
		path := filepath.Join(dir, sources[i].Name)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				core.LogWarn("failed to read shader %s: %s", path, err.Error())
			}
			continue
		}
		sources[i].Source = string(data)
	}
	return sources
}
