package metadata

import (
	"github.com/spaghettifunk/avenir/engine/math"
	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

/**
 * @brief A packet for and generated by the scene, containing everything the
 * renderer needs to draw one frame: the camera matrices, the lighting state
 * and one model matrix per drawn instance.
 */
type RenderPacket struct {
	/** @brief The time in seconds since the last frame. */
	DeltaTime float64
	/** @brief The view matrix of the active camera. */
	View math.Mat4
	/** @brief The projection matrix at the current aspect ratio. */
	Projection math.Mat4
	/** @brief The ambient light colour, alpha unused. */
	AmbientColour math.Vec4
	/** @brief One model matrix per drawn instance. */
	Models []math.Mat4
	/** @brief The point lights affecting the frame. */
	Lights []hal.Light
}
