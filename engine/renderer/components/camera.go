package components

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

/** @brief Pitch limit, 89 degrees. */
const maxPitch = float32(1.55334306)

/**
 * @brief Perspective camera. Position and rotation should go through the
 * setters so the view matrix is rebuilt when needed.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position mgl32.Vec3
	/**
	 * @brief The rotation of this camera using Euler angles (pitch, yaw, roll).
	 * NOTE: Do not set this directly, use SetEulerRotation() instead.
	 */
	EulerRotation mgl32.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty    bool
	ViewMatrix mgl32.Mat4

	/** @brief Vertical field of view in radians. */
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = mgl32.Vec3{}
	c.Position = mgl32.Vec3{}
	c.IsDirty = false
	c.ViewMatrix = mgl32.Ident4()
	c.FOV = mgl32.DegToRad(60)
	c.Aspect = 16.0 / 9.0
	c.Near = 0.1
	c.Far = 500
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetEulerRotation(rotation mgl32.Vec3) {
	c.EulerRotation = rotation
	c.IsDirty = true
}

func (c *Camera) rotation() mgl32.Mat4 {
	// yaw, then pitch, then roll
	return mgl32.HomogRotate3DY(c.EulerRotation.Y()).
		Mul4(mgl32.HomogRotate3DX(c.EulerRotation.X())).
		Mul4(mgl32.HomogRotate3DZ(c.EulerRotation.Z()))
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		world := mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z()).Mul4(c.rotation())
		c.ViewMatrix = world.Inv()
		c.IsDirty = false
	}
	return c.ViewMatrix
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// LookAt points the camera at target by deriving pitch and yaw.
func (c *Camera) LookAt(target mgl32.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Len() == 0 {
		return
	}
	dir = dir.Normalize()
	pitch := mgl32.Clamp(math32.Asin(dir.Y()), -maxPitch, maxPitch)
	yaw := math32.Atan2(-dir.X(), -dir.Z())
	c.SetEulerRotation(mgl32.Vec3{pitch, yaw, 0})
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) move(direction mgl32.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.Mul(amount))
	c.IsDirty = true
}

func (c *Camera) MoveForward(amount float32) {
	c.move(c.Forward(), amount)
}

func (c *Camera) MoveBackward(amount float32) {
	c.move(c.Backward(), amount)
}

func (c *Camera) MoveLeft(amount float32) {
	c.move(c.Left(), amount)
}

func (c *Camera) MoveRight(amount float32) {
	c.move(c.Right(), amount)
}

func (c *Camera) MoveUp(amount float32) {
	c.move(mgl32.Vec3{0, 1, 0}, amount)
}

func (c *Camera) MoveDown(amount float32) {
	c.move(mgl32.Vec3{0, -1, 0}, amount)
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation[1] += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation[0] += amount
	// Clamp to avoid Gimbal lock.
	c.EulerRotation[0] = mgl32.Clamp(c.EulerRotation[0], -maxPitch, maxPitch)
	c.IsDirty = true
}
