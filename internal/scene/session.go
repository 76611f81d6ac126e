package scene

import (
	"log/slog"

	"github.com/seenimoa/optionocean/pkg/models"
)

// Session holds the pipeline state: records, view parameters, derived axes
// and range, and the installed marker set. It is not safe for concurrent
// use; callers run it from a single loop.
type Session struct {
	renderer Renderer
	layout   Layout
	log      *slog.Logger

	params ViewParameters
	table  models.QuoteTable

	axes    AxisSet
	rng     Range
	index   Index
	markers []Marker
	byID    map[MarkerID]int
}

// NewSession creates an empty session drawing through r.
func NewSession(r Renderer, l Layout, p ViewParameters, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		renderer: r,
		layout:   l,
		log:      log,
		params:   p,
		byID:     map[MarkerID]int{},
	}
}

// Load replaces the record set and rebuilds the scene.
func (s *Session) Load(t models.QuoteTable) {
	s.table = t
	s.log.Info("quote table loaded",
		"source", t.Source,
		"rows", t.Stats.Rows,
		"records", len(t.Records),
		"skipped", t.Stats.Skipped+t.Stats.BadStrike)
	s.Rebuild()
}

// Apply mutates the view parameters with fn and runs the pipeline path
// tagged on param. It returns the kind that ran.
func (s *Session) Apply(param Param, fn func(*ViewParameters)) ChangeKind {
	fn(&s.params)
	kind := param.Kind()
	switch kind {
	case ChangeStructural:
		s.Rebuild()
	case ChangeCosmetic:
		s.Restyle()
	}
	s.log.Debug("view parameter changed", "param", string(param), "kind", kind.String())
	return kind
}

// Rebuild re-derives axes and range and replaces every marker. The new set
// is computed in full before the old renderer handles are released and the
// new ones installed.
func (s *Session) Rebuild() {
	records := s.table.Records
	axes := DeriveAxes(records)
	rng := DeriveRange(records, s.params.Metric, s.params)
	index := BuildIndex(records)
	next := Project(records, axes, index, rng, s.params, s.layout)

	for _, m := range s.markers {
		s.renderer.DestroyMarker(m.ID)
	}
	byID := make(map[MarkerID]int, len(next))
	for i := range next {
		next[i].ID = s.renderer.CreateMarker(baseSphere(next[i], s.params, s.layout))
		byID[next[i].ID] = i
	}

	s.axes, s.rng, s.index = axes, rng, index
	s.markers, s.byID = next, byID

	s.log.Debug("scene rebuilt",
		"metric", s.params.Metric,
		"markers", len(next),
		"expirations", axes.Width(),
		"strikes", axes.Height(),
		"range_valid", rng.Valid)
}

// Restyle re-applies gradient colors, glow and alpha to the installed
// markers without moving them. Calling it twice is the same as once.
func (s *Session) Restyle() {
	for i := range s.markers {
		s.markers[i] = Restyle(s.markers[i], s.params)
		s.renderer.UpdateMarker(s.markers[i].ID, baseSphere(s.markers[i], s.params, s.layout))
	}
}

// Frame computes every marker's display state at elapsed seconds and
// pushes it to the renderer. Base state is not modified.
func (s *Session) Frame(elapsed float64) []FrameState {
	t := elapsed * s.params.WaveSpeed
	frames := make([]FrameState, len(s.markers))
	for i, m := range s.markers {
		frames[i] = Animate(t, m, s.params)
		s.renderer.UpdateMarker(m.ID, frames[i].Sphere(s.layout.Radius))
	}
	return frames
}

// Pick resolves a world ray to the hovered marker's display tuple.
func (s *Session) Pick(ray Ray) (HoverInfo, bool) {
	if len(s.markers) == 0 {
		return HoverInfo{}, false
	}
	ids := make([]MarkerID, len(s.markers))
	for i, m := range s.markers {
		ids[i] = m.ID
	}
	id, ok := s.renderer.Intersect(ray, ids)
	if !ok {
		return HoverInfo{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return HoverInfo{}, false
	}
	return s.Lookup(s.markers[i].GridX, s.markers[i].GridY)
}

// Lookup maps grid indices back to their cell and re-resolves the active
// metric. ok is false when the indices are outside the axes.
func (s *Session) Lookup(gridX, gridY int) (HoverInfo, bool) {
	if gridX < 0 || gridX >= s.axes.Width() || gridY < 0 || gridY >= s.axes.Height() {
		return HoverInfo{}, false
	}
	info := HoverInfo{
		Expiration: s.axes.Expirations[gridX],
		Strike:     s.axes.Strikes[gridY],
		Metric:     s.params.Metric,
		GridX:      gridX,
		GridY:      gridY,
	}
	if i, found := s.index.Find(info.Expiration, info.Strike, models.MetricSide(info.Metric)); found {
		info.Value, info.HasValue = s.table.Records[i].RawMetric(info.Metric)
	}
	return info, true
}

// Close releases every renderer handle.
func (s *Session) Close() {
	s.renderer.Clear()
	s.markers = nil
	s.byID = map[MarkerID]int{}
}

// Params returns a copy of the current view parameters.
func (s *Session) Params() ViewParameters { return s.params }

// Axes returns the current axes.
func (s *Session) Axes() AxisSet { return s.axes }

// Range returns the current metric range.
func (s *Session) Range() Range { return s.rng }

// Layout returns the grid layout.
func (s *Session) Layout() Layout { return s.layout }

// Table returns the loaded quote table.
func (s *Session) Table() models.QuoteTable { return s.table }

// Markers returns a copy of the installed markers.
func (s *Session) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}
