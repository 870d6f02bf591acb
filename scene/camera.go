package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective or orthographic look-at camera. Every setter
// bumps Rev, which invalidates the renderer's transparency ordering.
type Camera struct {
	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov, aspect, near, far float32

	ortho                    bool
	left, right, bottom, top float32

	rev uint64
}

// NewCamera returns a perspective camera at (0, 0, 5) looking at the origin.
// fov is in radians.
func NewCamera(fov, aspect, near, far float32) *Camera {
	return &Camera{
		position: mgl32.Vec3{0, 0, 5},
		up:       mgl32.Vec3{0, 1, 0},
		fov:      fov,
		aspect:   aspect,
		near:     near,
		far:      far,
	}
}

// NewOrthoCamera returns an orthographic camera with the given view volume.
func NewOrthoCamera(left, right, bottom, top, near, far float32) *Camera {
	return &Camera{
		position: mgl32.Vec3{0, 0, 5},
		up:       mgl32.Vec3{0, 1, 0},
		ortho:    true,
		left:     left,
		right:    right,
		bottom:   bottom,
		top:      top,
		near:     near,
		far:      far,
	}
}

func (c *Camera) Position() mgl32.Vec3 { return c.position }
func (c *Camera) Target() mgl32.Vec3   { return c.target }
func (c *Camera) Rev() uint64          { return c.rev }

func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.position = p
	c.rev++
}

// LookAt points the camera at target with the given up vector.
func (c *Camera) LookAt(target, up mgl32.Vec3) {
	c.target = target
	c.up = up
	c.rev++
}

// SetAspect updates the perspective aspect ratio from a framebuffer size.
func (c *Camera) SetAspect(width, height float32) {
	if height > 0 {
		c.aspect = width / height
		c.rev++
	}
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.target, c.up)
}

func (c *Camera) Projection() mgl32.Mat4 {
	if c.ortho {
		return mgl32.Ortho(c.left, c.right, c.bottom, c.top, c.near, c.far)
	}
	return mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// OrbitCamera orbits a target at a fixed distance.
type OrbitCamera struct {
	*Camera
	Center   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32
}

func NewOrbitCamera(center mgl32.Vec3, distance, fov, aspect float32) *OrbitCamera {
	c := &OrbitCamera{
		Camera:   NewCamera(fov, aspect, 0.1, 1000),
		Center:   center,
		Distance: distance,
		Pitch:    0.3,
	}
	c.UpdatePosition()
	return c
}

func (c *OrbitCamera) UpdatePosition() {
	// Clamp pitch
	if c.Pitch > 1.5 {
		c.Pitch = 1.5
	}
	if c.Pitch < -1.5 {
		c.Pitch = -1.5
	}

	cosPitch := float32(math.Cos(float64(c.Pitch)))
	sinPitch := float32(math.Sin(float64(c.Pitch)))
	cosYaw := float32(math.Cos(float64(c.Yaw)))
	sinYaw := float32(math.Sin(float64(c.Yaw)))

	offset := mgl32.Vec3{
		c.Distance * cosPitch * sinYaw,
		c.Distance * sinPitch,
		c.Distance * cosPitch * cosYaw,
	}
	c.SetPosition(c.Center.Add(offset))
	c.LookAt(c.Center, mgl32.Vec3{0, 1, 0})
}

func (c *OrbitCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	c.UpdatePosition()
}

func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance += delta
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
	c.UpdatePosition()
}
