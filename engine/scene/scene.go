package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/avenir/engine/math"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
	"github.com/spaghettifunk/avenir/engine/renderer/metadata"
)

/**
 * @brief An object in the world: one drawn instance of the scene geometry.
 */
type Object struct {
	/** @brief The object identifier. */
	ID uuid.UUID
	/** @brief The transform of the object in the world. */
	Transform *math.Transform
}

/**
 * @brief A renderable world: one camera, one shared geometry and the objects
 * and lights placed in it. Capacity limits match what the renderer's
 * per-frame buffer can hold; Add calls past them fail hard instead of
 * silently dropping entries.
 */
type Scene struct {
	Camera        *Camera
	Geometry      *metadata.Geometry
	Objects       []*Object
	Lights        []hal.Light
	AmbientColour math.Vec4
}

func NewScene() *Scene {
	return &Scene{
		Camera:        NewCamera(),
		AmbientColour: math.NewVec4(0.25, 0.25, 0.25, 1.0),
	}
}

/**
 * @brief Adds an object with the given transform. Fails with a
 * hal.TooManyObjectsError when the instance capacity is exhausted.
 */
func (s *Scene) AddObject(transform *math.Transform) (*Object, error) {
	if len(s.Objects) >= hal.MaxObjects {
		return nil, &hal.TooManyObjectsError{Requested: len(s.Objects) + 1, Max: hal.MaxObjects}
	}
	if transform == nil {
		transform = math.TransformCreate()
	}
	object := &Object{
		ID:        uuid.New(),
		Transform: transform,
	}
	s.Objects = append(s.Objects, object)
	return object, nil
}

/**
 * @brief Adds a point light. Fails with a hal.TooManyLightsError when the
 * uniform block's light capacity is exhausted.
 */
func (s *Scene) AddLight(light hal.Light) error {
	if len(s.Lights) >= hal.MaxLights {
		return &hal.TooManyLightsError{Requested: len(s.Lights) + 1, Max: hal.MaxLights}
	}
	s.Lights = append(s.Lights, light)
	return nil
}

/**
 * @brief Assembles the render packet for one frame: camera matrices at the
 * given aspect ratio, the current lights and one world matrix per object.
 */
func (s *Scene) Packet(deltaTime float64, aspect float32) *metadata.RenderPacket {
	models := make([]math.Mat4, len(s.Objects))
	for i, object := range s.Objects {
		models[i] = object.Transform.GetWorld()
	}
	return &metadata.RenderPacket{
		DeltaTime:     deltaTime,
		View:          s.Camera.View(),
		Projection:    s.Camera.Projection(aspect),
		AmbientColour: s.AmbientColour,
		Models:        models,
		Lights:        s.Lights,
	}
}
