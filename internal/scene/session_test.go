package scene

import (
	"math"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/seenimoa/optionocean/pkg/models"
)

func newTestSession(r Renderer) *Session {
	return NewSession(r, DefaultLayout(), DefaultViewParameters(), quietLogger())
}

func TestSingleRowScenario(t *testing.T) {
	r := newFakeRenderer()
	s := newTestSession(r)
	s.Load(table(pair("2024-01-19", 100, 1.5, 2.0)))

	markers := s.Markers()
	if len(markers) != 1 {
		t.Fatalf("markers: got %d, want 1", len(markers))
	}
	m := markers[0]
	if m.GridX != 0 || m.GridY != 0 {
		t.Errorf("grid = (%d,%d), want (0,0)", m.GridX, m.GridY)
	}
	if m.Normalized != 0.5 {
		t.Errorf("normalized = %f, want 0.5", m.Normalized)
	}
	if m.Base.Y() != 30 {
		t.Errorf("y = %f, want 30", m.Base.Y())
	}
	if len(r.live) != 1 {
		t.Errorf("live handles = %d, want 1", len(r.live))
	}

	if kind := s.Apply(ParamMetric, func(p *ViewParameters) { p.Metric = "Ask.1" }); kind != ChangeStructural {
		t.Errorf("metric change kind = %s", kind)
	}
	markers = s.Markers()
	if len(markers) != 1 || markers[0].GridX != 0 || markers[0].GridY != 0 {
		t.Fatalf("after Ask.1: %+v", markers)
	}
	info, ok := s.Lookup(0, 0)
	if !ok || !info.HasValue || info.Value != 2.0 {
		t.Errorf("Lookup after Ask.1 = %+v, want put ask 2.0", info)
	}
	// calls contribute 1.5 through the fallback, so the put sits at the top
	if markers[0].Base.Y() != 120 {
		t.Errorf("y = %f, want 120", markers[0].Base.Y())
	}
	if len(r.live) != 1 {
		t.Errorf("live handles after rebuild = %d, want 1", len(r.live))
	}
}

func gridTable() models.QuoteTable {
	var rows [][]models.OptionRecord
	asks := []float64{0.5, 1.2, 3.4, 2.2, 7.9, 0.1}
	i := 0
	for _, exp := range []string{"2024-01-19", "2024-02-16", "2024-03-15"} {
		for _, strike := range []float64{95, 100} {
			rows = append(rows, pair(exp, strike, asks[i], asks[len(asks)-1-i]))
			i++
		}
	}
	return table(rows...)
}

func TestNormalizedWithinUnitInterval(t *testing.T) {
	for _, metric := range models.MetricNames {
		t.Run(metric, func(t *testing.T) {
			s := newTestSession(newFakeRenderer())
			s.Apply(ParamMetric, func(p *ViewParameters) { p.Metric = metric })
			s.Load(gridTable())
			for _, m := range s.Markers() {
				if m.Normalized < 0 || m.Normalized > 1 {
					t.Errorf("marker %+v out of range", m)
				}
			}
		})
	}
}

func TestRestyleIdempotent(t *testing.T) {
	r := newFakeRenderer()
	s := newTestSession(r)
	s.Load(gridTable())

	s.Apply(ParamColor1, func(p *ViewParameters) { p.Color1 = MustHex("#ff0000") })
	once := s.Markers()
	spheresOnce := make(map[MarkerID]Sphere, len(r.live))
	for id, sp := range r.live {
		spheresOnce[id] = sp
	}

	s.Restyle()
	if twice := s.Markers(); !reflect.DeepEqual(once, twice) {
		t.Errorf("restyle not idempotent:\n%+v\n%+v", once, twice)
	}
	if !reflect.DeepEqual(spheresOnce, r.live) {
		t.Error("renderer state changed on second restyle")
	}
}

func TestCosmeticChangeKeepsHandles(t *testing.T) {
	r := newFakeRenderer()
	s := newTestSession(r)
	s.Load(gridTable())
	before := s.Markers()
	created := r.created

	if kind := s.Apply(ParamGlow, func(p *ViewParameters) { p.Glow = 2.5 }); kind != ChangeCosmetic {
		t.Fatalf("glow kind = %s", kind)
	}
	if r.created != created {
		t.Errorf("cosmetic change created %d markers", r.created-created)
	}
	after := s.Markers()
	for i := range before {
		if before[i].ID != after[i].ID || before[i].Base != after[i].Base {
			t.Errorf("marker %d moved: %+v -> %+v", i, before[i], after[i])
		}
		if got := r.live[after[i].ID].Emissive; got != 2.5 {
			t.Errorf("emissive = %f, want 2.5", got)
		}
	}

	if kind := s.Apply(ParamWaveSpeed, func(p *ViewParameters) { p.WaveSpeed = 2 }); kind != ChangeNone {
		t.Errorf("wave speed kind = %s", kind)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	s := newTestSession(newFakeRenderer())
	s.Load(gridTable())
	strip := func(ms []Marker) []Marker {
		for i := range ms {
			ms[i].ID = 0
		}
		return ms
	}
	want := strip(s.Markers())

	s.Apply(ParamShowPuts, func(p *ViewParameters) { p.ShowPuts = false })
	s.Apply(ParamShowPuts, func(p *ViewParameters) { p.ShowPuts = true })
	if got := strip(s.Markers()); !reflect.DeepEqual(got, want) {
		t.Errorf("toggle round trip changed markers:\n%+v\n%+v", got, want)
	}
}

func TestHidingAddressedSideEmptiesField(t *testing.T) {
	r := newFakeRenderer()
	s := newTestSession(r)
	s.Load(gridTable())

	s.Apply(ParamShowCalls, func(p *ViewParameters) { p.ShowCalls = false })
	if n := len(s.Markers()); n != 0 {
		t.Errorf("markers with calls hidden = %d, want 0", n)
	}
	if s.Range().Valid {
		t.Errorf("range = %+v, want invalid", s.Range())
	}
	if len(r.live) != 0 {
		t.Errorf("live handles = %d, want 0", len(r.live))
	}
	if s.Axes().Width() != 3 || s.Axes().Height() != 2 {
		t.Errorf("axes shrank: %+v", s.Axes())
	}
}

func TestRebuildDoesNotLeak(t *testing.T) {
	r := newFakeRenderer()
	s := newTestSession(r)
	for i := 0; i < 20; i++ {
		s.Load(gridTable())
		s.Apply(ParamMetric, func(p *ViewParameters) { p.Metric = models.MetricNames[i%len(models.MetricNames)] })
	}
	if len(r.live) != len(s.Markers()) {
		t.Errorf("live handles = %d, markers = %d", len(r.live), len(s.Markers()))
	}

	s.Close()
	if len(r.live) != 0 || r.cleared != 1 {
		t.Errorf("after close: live=%d cleared=%d", len(r.live), r.cleared)
	}
}

func TestEmptyTable(t *testing.T) {
	s := newTestSession(newFakeRenderer())
	s.Load(models.QuoteTable{})
	if len(s.Markers()) != 0 {
		t.Error("expected no markers")
	}
	if _, ok := s.Lookup(0, 0); ok {
		t.Error("lookup on empty grid should miss")
	}
	if frames := s.Frame(1); len(frames) != 0 {
		t.Errorf("frames = %d", len(frames))
	}
}

func TestFrameLeavesBaseState(t *testing.T) {
	r := newFakeRenderer()
	s := newTestSession(r)
	s.Load(gridTable())
	before := s.Markers()

	var frames []FrameState
	for _, elapsed := range []float64{0.1, 1.7, 42} {
		frames = s.Frame(elapsed)
	}
	if after := s.Markers(); !reflect.DeepEqual(before, after) {
		t.Error("Frame mutated base markers")
	}
	for i, f := range frames {
		if f.ID != before[i].ID {
			t.Errorf("frame %d id = %d, want %d", i, f.ID, before[i].ID)
		}
		if r.live[f.ID].Center != f.Position {
			t.Errorf("renderer not updated for %d", f.ID)
		}
	}
}

func TestPickResolvesMarker(t *testing.T) {
	s := newTestSession(newFakeRenderer())
	s.Load(gridTable())

	target := s.Markers()[3]
	origin := target.Base.Add(mgl64.Vec3{0, 50, 0})
	info, ok := s.Pick(Ray{Origin: origin, Dir: mgl64.Vec3{0, -1, 0}})
	if !ok {
		t.Fatal("pick missed")
	}
	if info.GridX != target.GridX || info.GridY != target.GridY {
		t.Errorf("picked (%d,%d), want (%d,%d)", info.GridX, info.GridY, target.GridX, target.GridY)
	}
	if info.Expiration != s.Axes().Expirations[target.GridX] || info.Strike != s.Axes().Strikes[target.GridY] {
		t.Errorf("info = %+v", info)
	}
	if info.Metric != "Ask" || !info.HasValue {
		t.Errorf("info = %+v", info)
	}

	if _, ok := s.Pick(Ray{Origin: mgl64.Vec3{0, 1000, 0}, Dir: mgl64.Vec3{0, 1, 0}}); ok {
		t.Error("ray pointing away should miss")
	}
}

func TestLookupRawValue(t *testing.T) {
	s := newTestSession(newFakeRenderer())
	recs := pair("2024-01-19", 100, math.NaN(), 2.0)
	s.Load(table(recs))

	// NaN call ask: no marker, but the cell still resolves for display
	if len(s.Markers()) != 0 {
		t.Errorf("markers = %d, want 0", len(s.Markers()))
	}
	info, ok := s.Lookup(0, 0)
	if !ok || !info.HasValue || !math.IsNaN(info.Value) {
		t.Errorf("info = %+v", info)
	}

	if _, ok := s.Lookup(1, 0); ok {
		t.Error("out of range lookup should miss")
	}
}

func TestHoverInfoLines(t *testing.T) {
	info := HoverInfo{Expiration: "2024-01-19", Strike: 102.5, Metric: "IV", Value: 0.25, HasValue: true}
	want := []string{"Expiration: 2024-01-19", "Strike: 102.5", "IV: 0.25"}
	if got := info.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %q, want %q", got, want)
	}
	info.HasValue = false
	if got := info.Lines()[2]; got != "IV: " {
		t.Errorf("unresolved line = %q", got)
	}
}
