package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	waveAmplitude = 4.0
	wavePhaseX    = 0.5
	wavePhaseZ    = 0.3
	pulseDepth    = 0.3
	pulseRate     = 1.5
	cycleRate     = 0.7
)

// FrameState is the transient display state of one marker for one frame.
type FrameState struct {
	ID       MarkerID
	Position mgl64.Vec3
	Color    colorful.Color
	Emissive float64
	Opacity  float64
}

// Sphere converts the frame state into a renderer primitive.
func (f FrameState) Sphere(radius float64) Sphere {
	return Sphere{Center: f.Position, Radius: radius, Color: f.Color, Emissive: f.Emissive, Opacity: f.Opacity}
}

// Animate derives a marker's display state at time t, where t is elapsed
// seconds already scaled by wave speed. The height follows a wave whose
// phase comes from the grid indices, glow pulses around p.Glow, and the
// color cycles through the gradient independently of the metric mapping.
func Animate(t float64, m Marker, p ViewParameters) FrameState {
	gx, gy := float64(m.GridX), float64(m.GridY)

	pos := m.Base
	pos[1] += math.Sin(t+gx*wavePhaseX+gy*wavePhaseZ) * waveAmplitude

	cycle := 0.5 + 0.5*math.Sin(t*cycleRate+gy)

	return FrameState{
		ID:       m.ID,
		Position: pos,
		Color:    p.Gradient(cycle),
		Emissive: p.Glow * (1 + pulseDepth*math.Sin(t*pulseRate+gx+gy)),
		Opacity:  p.Alpha,
	}
}
