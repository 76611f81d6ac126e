// Package scene maps option records onto a 3D marker field and keeps that
// field in step with live view parameters.
//
// The pipeline has two paths. A structural change (new data, a different
// metric, a side shown or hidden) re-derives axes and range and rebuilds
// every marker. A cosmetic change (glow, alpha, gradient colors) restyles
// the existing markers in place. Animation is computed per frame from each
// marker's base state and never written back into it.
//
// Rendering, the control panel and tooltip presentation are collaborators
// behind the Renderer and Presenter interfaces.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// MarkerID is a renderer handle for one marker primitive.
type MarkerID uint64

// Sphere describes a marker primitive as the renderer draws it.
type Sphere struct {
	Center   mgl64.Vec3
	Radius   float64
	Color    colorful.Color
	Emissive float64
	Opacity  float64
}

// Ray is a world-space pick ray. Dir need not be normalized.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// Renderer is the 3D engine capability the pipeline draws through.
type Renderer interface {
	CreateMarker(s Sphere) MarkerID
	UpdateMarker(id MarkerID, s Sphere)
	DestroyMarker(id MarkerID)
	// Clear removes every marker the renderer holds.
	Clear()
	// Intersect returns the nearest of ids hit by ray.
	Intersect(ray Ray, ids []MarkerID) (MarkerID, bool)
}

// Presenter displays tooltips and the instructions overlay.
type Presenter interface {
	ShowTooltip(x, y float64, info HoverInfo)
	HideTooltip()
	ShowOverlay(title, body string)
	HideOverlay()
}
