// Package scene holds what the renderer draws: a camera, a shared geometry
// and the objects and lights instancing it.
package scene

import (
	"github.com/chewxy/math32"

	"github.com/spaghettifunk/avenir/engine/math"
)

/** @brief Default perspective parameters for a new camera. */
const (
	DefaultFOV      float32 = math.K_THIRD_PI
	DefaultNearClip float32 = 1.0
	DefaultFarClip  float32 = 400.0

	defaultSpeed       float32 = 10.0
	defaultSensitivity float32 = 0.001

	// 89 degrees. Keeps the pitch away from the poles.
	pitchLimit float32 = 1.55334306
)

/**
 * @brief A fly camera driven by euler angles. The view matrix is rebuilt
 * lazily on the first View call after a change.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	/**
	 * @brief The rotation of this camera using Euler angles (pitch, yaw, roll).
	 * NOTE: Do not set this directly, use SetEulerRotation() instead
	 * so the view matrix is recalculated when needed.
	 */
	EulerRotation math.Vec3
	/** @brief Movement speed in world units per second. */
	Speed float32
	/** @brief Rotation applied per unit of pointer motion. */
	Sensitivity float32
	/** @brief The vertical field of view in radians. */
	FOV float32
	/** @brief The near clipping plane distance. */
	NearClip float32
	/** @brief The far clipping plane distance. */
	FarClip float32

	viewDirty bool
	view      math.Mat4
}

func NewCamera() *Camera {
	c := &Camera{
		Speed:       defaultSpeed,
		Sensitivity: defaultSensitivity,
		FOV:         DefaultFOV,
		NearClip:    DefaultNearClip,
		FarClip:     DefaultFarClip,
	}
	c.Reset()
	return c
}

func (c *Camera) Reset() {
	c.Position = math.NewVec3Zero()
	c.EulerRotation = math.NewVec3Zero()
	c.view = math.NewMat4Identity()
	c.viewDirty = false
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.viewDirty = true
}

func (c *Camera) SetEulerRotation(rotation math.Vec3) {
	c.EulerRotation = rotation
	c.viewDirty = true
}

/**
 * @brief Returns the view matrix, rebuilding it first if the position or
 * rotation changed since the last call.
 */
func (c *Camera) View() math.Mat4 {
	if c.viewDirty {
		rotation := math.NewMat4EulerXYZ(c.EulerRotation.X, c.EulerRotation.Y, c.EulerRotation.Z)
		translation := math.NewMat4Translation(c.Position)
		c.view = rotation.Mul(translation).Inverse()
		c.viewDirty = false
	}
	return c.view
}

/**
 * @brief Returns the perspective projection matrix for the given aspect
 * ratio.
 */
func (c *Camera) Projection(aspect float32) math.Mat4 {
	return math.NewMat4Perspective(c.FOV, aspect, c.NearClip, c.FarClip)
}

/**
 * @brief Points the camera at target from eye. The euler angles are derived
 * from the view direction, so later Yaw/Pitch calls continue from here.
 */
func (c *Camera) LookAt(eye, target math.Vec3) {
	direction := target.Sub(eye)
	if direction.LengthSquared() < math.K_FLOAT_EPSILON {
		direction = math.NewVec3Forward()
	}
	direction = direction.Normalized()

	c.Position = eye
	c.EulerRotation.X = math32.Asin(direction.Y)
	c.EulerRotation.Y = math32.Atan2(-direction.X, -direction.Z)
	c.EulerRotation.Z = 0
	c.viewDirty = true
}

func (c *Camera) Forward() math.Vec3 {
	return c.View().Forward()
}

func (c *Camera) Backward() math.Vec3 {
	return c.View().Backward()
}

func (c *Camera) Left() math.Vec3 {
	return c.View().Left()
}

func (c *Camera) Right() math.Vec3 {
	return c.View().Right()
}

func (c *Camera) MoveForward(amount float32) {
	c.Position = c.Position.Add(c.Forward().MulScalar(amount))
	c.viewDirty = true
}

func (c *Camera) MoveBackward(amount float32) {
	c.Position = c.Position.Add(c.Backward().MulScalar(amount))
	c.viewDirty = true
}

func (c *Camera) MoveLeft(amount float32) {
	c.Position = c.Position.Add(c.Left().MulScalar(amount))
	c.viewDirty = true
}

func (c *Camera) MoveRight(amount float32) {
	c.Position = c.Position.Add(c.Right().MulScalar(amount))
	c.viewDirty = true
}

func (c *Camera) MoveUp(amount float32) {
	c.Position = c.Position.Add(math.NewVec3Up().MulScalar(amount))
	c.viewDirty = true
}

func (c *Camera) MoveDown(amount float32) {
	c.Position = c.Position.Sub(math.NewVec3Up().MulScalar(amount))
	c.viewDirty = true
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation.Y += amount
	c.viewDirty = true
}

/**
 * @brief Adjusts the pitch by amount, clamped to avoid gimbal lock.
 */
func (c *Camera) Pitch(amount float32) {
	c.EulerRotation.X = math.Clamp(c.EulerRotation.X+amount, -pitchLimit, pitchLimit)
	c.viewDirty = true
}
