package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/seenimoa/optionocean/internal/scene"
)

func sphereAt(x, y, z float64) scene.Sphere {
	return scene.Sphere{
		Center:  mgl64.Vec3{x, y, z},
		Radius:  2.5,
		Color:   scene.MustHex("#00ffff"),
		Opacity: 0.7,
	}
}

func TestRetainedLifecycle(t *testing.T) {
	r := NewRetained()
	a := r.CreateMarker(sphereAt(0, 0, 0))
	b := r.CreateMarker(sphereAt(10, 0, 0))
	if a == b {
		t.Fatal("ids must be unique")
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}

	r.UpdateMarker(a, sphereAt(0, 5, 0))
	if items := r.Snapshot(); items[0].ID != a || items[0].Y != 5 {
		t.Errorf("update not applied: %+v", items[0])
	}
	r.UpdateMarker(999, sphereAt(1, 1, 1))
	if r.Len() != 2 {
		t.Error("update of unknown id created a marker")
	}

	r.DestroyMarker(a)
	if items := r.Snapshot(); len(items) != 1 || items[0].ID != b {
		t.Errorf("after destroy = %+v, want only %d", items, b)
	}
	c := r.CreateMarker(sphereAt(0, 0, 0))
	if c == a {
		t.Error("ids must not be reused")
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len after Clear = %d", r.Len())
	}
}

func TestRetainedIntersect(t *testing.T) {
	r := NewRetained()
	near := r.CreateMarker(sphereAt(0, 0, 10))
	far := r.CreateMarker(sphereAt(0, 0, 30))
	side := r.CreateMarker(sphereAt(20, 0, 10))
	all := []scene.MarkerID{near, far, side}

	tests := []struct {
		name   string
		ray    scene.Ray
		ids    []scene.MarkerID
		want   scene.MarkerID
		wantOK bool
	}{
		{"nearest wins", scene.Ray{Dir: mgl64.Vec3{0, 0, 1}}, all, near, true},
		{"unnormalized dir", scene.Ray{Dir: mgl64.Vec3{0, 0, 42}}, all, near, true},
		{"restricted ids", scene.Ray{Dir: mgl64.Vec3{0, 0, 1}}, []scene.MarkerID{far}, far, true},
		{"behind origin", scene.Ray{Origin: mgl64.Vec3{0, 0, 50}, Dir: mgl64.Vec3{0, 0, 1}}, all, 0, false},
		{"miss", scene.Ray{Dir: mgl64.Vec3{0, 1, 0}}, all, 0, false},
		{"inside sphere", scene.Ray{Origin: mgl64.Vec3{20, 0, 10}, Dir: mgl64.Vec3{1, 0, 0}}, all, side, true},
		{"zero dir", scene.Ray{}, all, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Intersect(tt.ray, tt.ids)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Intersect = (%d,%v), want (%d,%v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSnapshotOrdered(t *testing.T) {
	r := NewRetained()
	for i := 0; i < 5; i++ {
		r.CreateMarker(sphereAt(float64(i), 0, 0))
	}
	items := r.Snapshot()
	if len(items) != 5 {
		t.Fatalf("items = %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].ID >= items[i].ID {
			t.Errorf("snapshot not ordered at %d", i)
		}
	}
	if items[0].Color != "#00ffff" || items[0].Radius != 2.5 {
		t.Errorf("item = %+v", items[0])
	}
}
