// Package testbed is the demo application: a field of spinning cubes lit by
// three orbiting point lights, watched by a slowly circling camera.
package testbed

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/spaghettifunk/avenir/engine"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/engine/math"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
	"github.com/spaghettifunk/avenir/engine/renderer/metadata"
	"github.com/spaghettifunk/avenir/engine/scene"
)

const (
	gridSide    = 10
	gridSpacing = float32(2.5)
	cubeSize    = float32(1.0)

	lightCount  = 3
	lightRadius = float32(14.0)
	lightHeight = float32(6.0)

	cameraRadius    = float32(22.0)
	minCameraHeight = float32(2.0)
	maxCameraHeight = float32(30.0)
	minOrbitSpeed   = float32(0.0)
	maxOrbitSpeed   = float32(1.5)
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	world   *scene.Scene
	elapsed float64

	orbitSpeed   float32
	cameraHeight float32
	shape        int

	width  uint32
	height uint32
}

func NewTestGame() (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				world:        scene.NewScene(),
				orbitSpeed:   0.25,
				cameraHeight: 10.0,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize

	return tg, nil
}

func (g *TestGame) Initialize() error {
	state := g.State.(*gameState)
	world := state.world

	geometry := makeShape(state.shape)
	if err := g.Renderer.SetGeometry(geometry); err != nil {
		return err
	}
	world.Geometry = geometry

	// A gridSide by gridSide field of cubes centred on the origin.
	half := float32(gridSide-1) * gridSpacing * 0.5
	for row := 0; row < gridSide; row++ {
		for col := 0; col < gridSide; col++ {
			position := math.NewVec3(
				float32(col)*gridSpacing-half,
				0,
				float32(row)*gridSpacing-half,
			)
			if _, err := world.AddObject(math.TransformFromPosition(position)); err != nil {
				return err
			}
		}
	}

	colours := []math.Vec3{
		math.NewVec3(1.0, 0.3, 0.3),
		math.NewVec3(0.3, 1.0, 0.3),
		math.NewVec3(0.3, 0.5, 1.0),
	}
	for i := 0; i < lightCount; i++ {
		if err := world.AddLight(hal.NewLight(math.NewVec3Zero(), colours[i], 1.0)); err != nil {
			return err
		}
	}

	world.Camera.LookAt(math.NewVec3(0, state.cameraHeight, cameraRadius), math.NewVec3Zero())

	core.LogInfo("testbed ready: %d objects, %d lights", len(world.Objects), len(world.Lights))
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	world := state.world
	state.elapsed += deltaTime
	t := float32(state.elapsed)

	g.pollKeys(state)

	// Every object spins in place about the vertical axis.
	spin := math.NewQuatFromAxisAngle(math.NewVec3Up(), float32(0.5*deltaTime), false)
	for _, object := range world.Objects {
		object.Transform.Rotate(spin)
	}

	// The lights orbit the field a third of a turn apart, breathing between
	// a dim and a full intensity.
	for i := range world.Lights {
		phase := t*0.9 + float32(i)*(math.K_PI_2/lightCount)
		world.Lights[i].Position = math.NewVec3(
			lightRadius*math32.Cos(phase),
			lightHeight+2.0*math32.Sin(t*1.7+float32(i)),
			lightRadius*math32.Sin(phase),
		)
		world.Lights[i].Intensity = math.Lerp(float32(0.55), 1.0, 0.5+0.5*math32.Sin(t*2.3+float32(i)))
	}

	// The camera circles the field, always looking at the origin.
	eye := math.NewVec3(
		cameraRadius*math32.Sin(t*state.orbitSpeed),
		state.cameraHeight,
		cameraRadius*math32.Cos(t*state.orbitSpeed),
	)
	world.Camera.LookAt(eye, math.NewVec3Zero())

	return nil
}

func (g *TestGame) Render(deltaTime float64) (*metadata.RenderPacket, error) {
	state := g.State.(*gameState)
	return state.world.Packet(deltaTime, g.Renderer.Aspect()), nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) pollKeys(state *gameState) {
	// Held keys steer the orbit.
	if core.InputIsKeyDown(core.KEY_UP) {
		state.cameraHeight = math.Clamp(state.cameraHeight+0.2, minCameraHeight, maxCameraHeight)
	}
	if core.InputIsKeyDown(core.KEY_DOWN) {
		state.cameraHeight = math.Clamp(state.cameraHeight-0.2, minCameraHeight, maxCameraHeight)
	}
	if core.InputIsKeyDown(core.KEY_LEFT) {
		state.orbitSpeed = math.Clamp(state.orbitSpeed-0.01, minOrbitSpeed, maxOrbitSpeed)
	}
	if core.InputIsKeyDown(core.KEY_RIGHT) {
		state.orbitSpeed = math.Clamp(state.orbitSpeed+0.01, minOrbitSpeed, maxOrbitSpeed)
	}

	// G swaps the shared mesh for the next shape.
	if core.InputIsKeyUp(core.KEY_G) && core.InputWasKeyDown(core.KEY_G) {
		state.shape = (state.shape + 1) % 3
		geometry := makeShape(state.shape)
		if err := g.Renderer.SetGeometry(geometry); err != nil {
			core.LogError("shape swap failed: %s", err)
		} else {
			state.world.Geometry = geometry
		}
	}

	// R forces a shader reload without touching the files on disk.
	if core.InputIsKeyUp(core.KEY_R) && core.InputWasKeyDown(core.KEY_R) {
		context := core.EventContext{}
		context.Data.C[0] = "keyboard"
		core.EventFire(core.EVENT_CODE_SHADERS_CHANGED, g, context)
	}

	// P prints where the camera is and how the frame budget looks.
	if core.InputIsKeyUp(core.KEY_P) && core.InputWasKeyDown(core.KEY_P) {
		position := state.world.Camera.Position
		fps, ms := core.MetricsFrame()
		core.LogInfo(fmt.Sprintf("camera [%.2f, %.2f, %.2f], %.1f fps (%.2f ms)",
			position.X, position.Y, position.Z, fps, ms))
	}
}

func makeShape(shape int) *metadata.Geometry {
	switch shape {
	case 1:
		return scene.NewSphereGeometry("sphere", cubeSize*0.75, 16, 24)
	case 2:
		return scene.NewConeGeometry("cone", cubeSize*0.6, cubeSize*1.4, 20)
	default:
		return scene.NewCubeGeometry("cube", cubeSize)
	}
}
