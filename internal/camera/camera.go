// Package camera implements the viewer's orbit camera with keyboard flight,
// and unprojects screen points into world rays for picking.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the camera's static parameters.
type Config struct {
	FOV         float64    // vertical field of view, degrees
	Near        float64    // near clip plane
	Far         float64    // far clip plane
	Position    mgl64.Vec3 // start position
	Target      mgl64.Vec3 // orbit center
	MinDistance float64
	MaxDistance float64
	MoveSpeed   float64 // world units per second
	LookSpeed   float64 // radians per second
	MoveBoost   float64 // move multiplier while Shift is held
	LookBoost   float64 // look multiplier while Shift is held
	DragSpeed   float64 // orbit multiplier for pointer drags
	ZoomStep    float64 // distance scale per 100 wheel units
}

// DefaultConfig returns the startup view looking at the grid center.
func DefaultConfig() Config {
	return Config{
		FOV:         60,
		Near:        0.1,
		Far:         1000,
		Position:    mgl64.Vec3{0, 80, 180},
		MinDistance: 40,
		MaxDistance: 600,
		MoveSpeed:   90,
		LookSpeed:   1.5,
		MoveBoost:   5,
		LookBoost:   2,
		DragSpeed:   1,
		ZoomStep:    1.05,
	}
}

// Keyboard codes, as browsers report KeyboardEvent.code.
const (
	KeyW          = "KeyW"
	KeyS          = "KeyS"
	KeyA          = "KeyA"
	KeyD          = "KeyD"
	KeyQ          = "KeyQ"
	KeyE          = "KeyE"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyShiftLeft  = "ShiftLeft"
	KeyShiftRight = "ShiftRight"
)

type motion int

const (
	moveForward motion = iota
	moveBack
	moveLeft
	moveRight
	moveUp
	moveDown
	lookLeft
	lookRight
	boost
	motionCount
)

var keyMotions = map[string]motion{
	KeyW:          moveForward,
	KeyS:          moveBack,
	KeyA:          moveLeft,
	KeyD:          moveRight,
	KeyArrowUp:    moveUp,
	KeyArrowDown:  moveDown,
	KeyArrowLeft:  lookLeft,
	KeyArrowRight: lookRight,
	KeyQ:          lookLeft,
	KeyE:          lookRight,
	KeyShiftLeft:  boost,
	KeyShiftRight: boost,
}

// polar angle stays this far from the poles so the view matrix keeps a
// usable up vector.
const polarEpsilon = 1e-3

var worldUp = mgl64.Vec3{0, 1, 0}

// Camera is an orbit camera around a target. Position is kept in spherical
// coordinates relative to the target: radius, azimuth around +Y measured
// from +Z, and polar angle measured from +Y.
type Camera struct {
	cfg Config

	target  mgl64.Vec3
	radius  float64
	azimuth float64
	polar   float64

	width, height int
	held          [motionCount]bool
}

// New places a camera at cfg.Position looking at cfg.Target.
func New(cfg Config) *Camera {
	c := &Camera{cfg: cfg, target: cfg.Target, width: 1, height: 1}
	offset := cfg.Position.Sub(cfg.Target)
	c.radius = offset.Len()
	if c.radius == 0 {
		c.radius = cfg.MinDistance
		offset = mgl64.Vec3{0, 0, c.radius}
	}
	c.azimuth = math.Atan2(offset.X(), offset.Z())
	c.polar = math.Acos(mgl64.Clamp(offset.Y()/c.radius, -1, 1))
	c.clamp()
	return c
}

// Position returns the camera's world position.
func (c *Camera) Position() mgl64.Vec3 {
	sinP := math.Sin(c.polar)
	return c.target.Add(mgl64.Vec3{
		c.radius * sinP * math.Sin(c.azimuth),
		c.radius * math.Cos(c.polar),
		c.radius * sinP * math.Cos(c.azimuth),
	})
}

// Target returns the orbit center.
func (c *Camera) Target() mgl64.Vec3 { return c.target }

// Distance returns the distance from the camera to its target.
func (c *Camera) Distance() float64 { return c.radius }

// Aspect returns the viewport's width over height.
func (c *Camera) Aspect() float64 {
	return float64(c.width) / float64(c.height)
}

// Resize updates the viewport. Non-positive sizes are ignored.
func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
}

// SetKey records a key press or release. It reports whether the key drives
// the camera.
func (c *Camera) SetKey(code string, down bool) bool {
	m, ok := keyMotions[code]
	if !ok {
		return false
	}
	c.held[m] = down
	return true
}

// ReleaseKeys clears every held key.
func (c *Camera) ReleaseKeys() {
	c.held = [motionCount]bool{}
}

// Moving reports whether any flight key is held.
func (c *Camera) Moving() bool {
	for m := moveForward; m < boost; m++ {
		if c.held[m] {
			return true
		}
	}
	return false
}

// Update advances keyboard flight by dt seconds. Moves translate camera and
// target together on the ground plane or vertically; looks orbit around the
// target. It reports whether the camera changed.
func (c *Camera) Update(dt float64) bool {
	if dt <= 0 || !c.Moving() {
		return false
	}
	speed, look := c.cfg.MoveSpeed*dt, c.cfg.LookSpeed*dt
	if c.held[boost] {
		speed *= c.cfg.MoveBoost
		look *= c.cfg.LookBoost
	}

	forward := c.target.Sub(c.Position())
	forward[1] = 0
	if forward.Len() < 1e-9 {
		forward = mgl64.Vec3{0, 0, -1}
	}
	forward = forward.Normalize()
	right := forward.Cross(worldUp).Normalize()

	var delta mgl64.Vec3
	if c.held[moveForward] {
		delta = delta.Add(forward.Mul(speed))
	}
	if c.held[moveBack] {
		delta = delta.Sub(forward.Mul(speed))
	}
	if c.held[moveRight] {
		delta = delta.Add(right.Mul(speed))
	}
	if c.held[moveLeft] {
		delta = delta.Sub(right.Mul(speed))
	}
	if c.held[moveUp] {
		delta[1] += speed
	}
	if c.held[moveDown] {
		delta[1] -= speed
	}
	c.target = c.target.Add(delta)

	if c.held[lookLeft] {
		c.azimuth -= look
	}
	if c.held[lookRight] {
		c.azimuth += look
	}
	return true
}

// Orbit rotates around the target by a pointer drag of (dx, dy) pixels.
// A drag across the full viewport height turns a full circle.
func (c *Camera) Orbit(dx, dy float64) {
	perPixel := 2 * math.Pi / float64(c.height) * c.cfg.DragSpeed
	c.azimuth -= dx * perPixel
	c.polar -= dy * perPixel
	c.clamp()
}

// Zoom changes distance by a wheel delta; positive moves away.
func (c *Camera) Zoom(delta float64) {
	step := c.cfg.ZoomStep
	if step <= 1 {
		step = 1.05
	}
	c.radius *= math.Pow(step, delta/100)
	c.clamp()
}

func (c *Camera) clamp() {
	if c.cfg.MinDistance > 0 && c.radius < c.cfg.MinDistance {
		c.radius = c.cfg.MinDistance
	}
	if c.cfg.MaxDistance > 0 && c.radius > c.cfg.MaxDistance {
		c.radius = c.cfg.MaxDistance
	}
	c.polar = mgl64.Clamp(c.polar, polarEpsilon, math.Pi-polarEpsilon)
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position(), c.target, worldUp)
}

// Projection returns the perspective matrix for the current viewport.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.cfg.FOV), c.Aspect(), c.cfg.Near, c.cfg.Far)
}

// NDC converts viewport pixel coordinates to normalized device coordinates.
func (c *Camera) NDC(px, py float64) (x, y float64) {
	return px/float64(c.width)*2 - 1, -(py/float64(c.height))*2 + 1
}

// Ray unprojects a point in normalized device coordinates into a world ray
// starting at the camera.
func (c *Camera) Ray(ndcX, ndcY float64) (origin, dir mgl64.Vec3) {
	inv := c.Projection().Mul4(c.View()).Inv()
	near := unproject(inv, ndcX, ndcY, -1)
	far := unproject(inv, ndcX, ndcY, 1)
	return c.Position(), far.Sub(near).Normalize()
}

func unproject(inv mgl64.Mat4, x, y, z float64) mgl64.Vec3 {
	v := inv.Mul4x1(mgl64.Vec4{x, y, z, 1})
	return v.Vec3().Mul(1 / v.W())
}

// State is the camera as sent to clients.
type State struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	FOV      float64    `json:"fov"`
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
}

// State returns the transport form of the camera.
func (c *Camera) State() State {
	return State{
		Position: c.Position(),
		Target:   c.target,
		FOV:      c.cfg.FOV,
		Near:     c.cfg.Near,
		Far:      c.cfg.Far,
	}
}
