// Package render provides scene.Renderer implementations: a retained
// in-memory marker store that the server streams to browser clients, and a
// static SVG heatmap of a marker field.
package render

import (
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/seenimoa/optionocean/internal/scene"
)

// Retained keeps every live marker primitive in memory. Writes come from
// the engine loop; Snapshot may be called from other goroutines.
type Retained struct {
	mu      sync.RWMutex
	next    scene.MarkerID
	spheres map[scene.MarkerID]scene.Sphere
}

// NewRetained creates an empty store.
func NewRetained() *Retained {
	return &Retained{spheres: make(map[scene.MarkerID]scene.Sphere)}
}

// CreateMarker stores s under a fresh ID.
func (r *Retained) CreateMarker(s scene.Sphere) scene.MarkerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.spheres[r.next] = s
	return r.next
}

// UpdateMarker replaces the primitive for id. Unknown IDs are ignored.
func (r *Retained) UpdateMarker(id scene.MarkerID, s scene.Sphere) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spheres[id]; ok {
		r.spheres[id] = s
	}
}

// DestroyMarker releases id.
func (r *Retained) DestroyMarker(id scene.MarkerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spheres, id)
}

// Clear releases every marker.
func (r *Retained) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spheres = make(map[scene.MarkerID]scene.Sphere)
}

// Intersect returns the nearest sphere among ids that ray hits in front of
// its origin.
func (r *Retained) Intersect(ray scene.Ray, ids []scene.MarkerID) (scene.MarkerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ray.Dir.Len() == 0 {
		return 0, false
	}
	dir := ray.Dir.Normalize()

	var (
		best    scene.MarkerID
		bestT   = math.Inf(1)
		hitSome bool
	)
	for _, id := range ids {
		s, ok := r.spheres[id]
		if !ok {
			continue
		}
		t, ok := hitSphere(ray.Origin, dir, s)
		if ok && t < bestT {
			best, bestT, hitSome = id, t, true
		}
	}
	return best, hitSome
}

// Len is the number of live markers.
func (r *Retained) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spheres)
}

// Item is one marker as sent to clients.
type Item struct {
	ID       scene.MarkerID `json:"id"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Z        float64        `json:"z"`
	Radius   float64        `json:"r"`
	Color    string         `json:"color"`
	Emissive float64        `json:"emissive"`
	Opacity  float64        `json:"opacity"`
}

// NewItem flattens a sphere for transport.
func NewItem(id scene.MarkerID, s scene.Sphere) Item {
	return Item{
		ID:       id,
		X:        s.Center.X(),
		Y:        s.Center.Y(),
		Z:        s.Center.Z(),
		Radius:   s.Radius,
		Color:    s.Color.Clamped().Hex(),
		Emissive: s.Emissive,
		Opacity:  s.Opacity,
	}
}

// Snapshot returns every live marker ordered by ID.
func (r *Retained) Snapshot() []Item {
	r.mu.RLock()
	items := make([]Item, 0, len(r.spheres))
	for id, s := range r.spheres {
		items = append(items, NewItem(id, s))
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// hitSphere returns the distance along unit dir to the first intersection
// with s that is not behind origin.
func hitSphere(origin, dir mgl64.Vec3, s scene.Sphere) (float64, bool) {
	oc := origin.Sub(s.Center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
