package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/seenimoa/optionocean/pkg/models"
)

// Vertical mapping: the minimum maps to YMin and the maximum to YMin+YSpan,
// whatever the metric's units.
const (
	YMin  = -60.0
	YSpan = 180.0
)

// Layout controls marker spacing on the ground plane.
type Layout struct {
	SpacingX float64 // between expiration columns
	SpacingZ float64 // between strike rows
	Radius   float64
}

// DefaultLayout returns the standard grid spacing.
func DefaultLayout() Layout {
	return Layout{SpacingX: 14, SpacingZ: 6, Radius: 2.5}
}

// Position maps grid cell (xi, zi) of a w×h grid and normalized value n to
// a world position centered on the origin.
func (l Layout) Position(xi, zi, w, h int, n float64) mgl64.Vec3 {
	return mgl64.Vec3{
		(float64(xi) - float64(w)/2) * l.SpacingX,
		YMin + n*YSpan,
		(float64(zi) - float64(h)/2) * l.SpacingZ,
	}
}

// NormalizedFromY inverts the vertical mapping.
func NormalizedFromY(y float64) float64 {
	return (y - YMin) / YSpan
}

// Marker is the base state of one populated grid cell. It is set once per
// rebuild; only Color is rewritten, by the appearance path.
type Marker struct {
	ID         MarkerID       `json:"id"`
	GridX      int            `json:"grid_x"`
	GridY      int            `json:"grid_y"`
	Base       mgl64.Vec3     `json:"base"`
	Normalized float64        `json:"normalized"`
	Color      colorful.Color `json:"-"`
}

type cellKey struct {
	expiration string
	strike     float64
	side       models.Side
}

// Index finds the record for an (expiration, strike, side) cell.
// The first record wins if the input repeats a cell.
type Index map[cellKey]int

// BuildIndex indexes records by cell. Values are positions in records.
func BuildIndex(records []models.OptionRecord) Index {
	ix := make(Index, len(records))
	for i, r := range records {
		k := cellKey{r.Expiration, r.Strike, r.Side}
		if _, dup := ix[k]; dup {
			continue
		}
		ix[k] = i
	}
	return ix
}

// Find returns the position of the matching record.
func (ix Index) Find(expiration string, strike float64, side models.Side) (int, bool) {
	i, ok := ix[cellKey{expiration, strike, side}]
	return i, ok
}

// Project computes the marker set for the active metric. It visits every
// cell of the axis cross product, looks up the record on the side the
// metric addresses, and skips cells with no record, a hidden side, or no
// finite value. The result is a pure function of its inputs; marker IDs are
// left zero for the caller to assign.
func Project(records []models.OptionRecord, axes AxisSet, ix Index, rng Range, p ViewParameters, l Layout) []Marker {
	side := models.MetricSide(p.Metric)
	if !p.Visible(side) {
		return nil
	}

	w, h := axes.Width(), axes.Height()
	var markers []Marker
	for xi, exp := range axes.Expirations {
		for zi, strike := range axes.Strikes {
			i, ok := ix.Find(exp, strike, side)
			if !ok {
				continue
			}
			v, ok := records[i].Metric(p.Metric)
			if !ok {
				continue
			}
			n := rng.Normalize(v)
			markers = append(markers, Marker{
				GridX:      xi,
				GridY:      zi,
				Base:       l.Position(xi, zi, w, h, n),
				Normalized: n,
				Color:      p.Gradient(n),
			})
		}
	}
	return markers
}
