package scene

import (
	"math"
	"sort"

	"github.com/seenimoa/optionocean/pkg/models"
)

// AxisSet holds the grid's categorical axes.
type AxisSet struct {
	Expirations []string  `json:"expirations"` // ascending lexical
	Strikes     []float64 `json:"strikes"`     // ascending numeric
}

// Width is the number of expiration columns.
func (a AxisSet) Width() int { return len(a.Expirations) }

// Height is the number of strike rows.
func (a AxisSet) Height() int { return len(a.Strikes) }

// DeriveAxes collects distinct expirations and strikes from every record,
// regardless of visibility, in a deterministic order.
func DeriveAxes(records []models.OptionRecord) AxisSet {
	expSet := make(map[string]struct{})
	strikeSet := make(map[float64]struct{})
	for _, r := range records {
		expSet[r.Expiration] = struct{}{}
		strikeSet[r.Strike] = struct{}{}
	}

	axes := AxisSet{
		Expirations: make([]string, 0, len(expSet)),
		Strikes:     make([]float64, 0, len(strikeSet)),
	}
	for e := range expSet {
		axes.Expirations = append(axes.Expirations, e)
	}
	for s := range strikeSet {
		axes.Strikes = append(axes.Strikes, s)
	}
	sort.Strings(axes.Expirations)
	sort.Float64s(axes.Strikes)
	return axes
}

// Range is the numeric span of the active metric over visible records.
// Valid is false when no visible record carried a finite value.
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"valid"`
}

// Degenerate reports whether normalization has to fall back to 0.5.
func (r Range) Degenerate() bool {
	return !r.Valid || r.Max <= r.Min
}

// Normalize maps v into [0,1]; a degenerate range maps everything to 0.5.
func (r Range) Normalize(v float64) float64 {
	if r.Degenerate() {
		return 0.5
	}
	n := (v - r.Min) / (r.Max - r.Min)
	return math.Max(0, math.Min(1, n))
}

// DeriveRange computes the min and max of metric across records whose side
// is visible under p. Records that cannot resolve the metric contribute
// nothing.
func DeriveRange(records []models.OptionRecord, metric string, p ViewParameters) Range {
	rng := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, r := range records {
		if !p.Visible(r.Side) {
			continue
		}
		v, ok := r.Metric(metric)
		if !ok {
			continue
		}
		rng.Min = math.Min(rng.Min, v)
		rng.Max = math.Max(rng.Max, v)
		rng.Valid = true
	}
	if !rng.Valid {
		return Range{}
	}
	return rng
}
