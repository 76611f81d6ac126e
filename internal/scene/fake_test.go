package scene

import (
	"io"
	"log/slog"
	"math"

	"github.com/seenimoa/optionocean/pkg/models"
)

// fakeRenderer records renderer calls and intersects by nearest center
// distance to the ray.
type fakeRenderer struct {
	next    MarkerID
	live    map[MarkerID]Sphere
	created int
	updates int
	cleared int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{live: map[MarkerID]Sphere{}}
}

func (f *fakeRenderer) CreateMarker(s Sphere) MarkerID {
	f.next++
	f.created++
	f.live[f.next] = s
	return f.next
}

func (f *fakeRenderer) UpdateMarker(id MarkerID, s Sphere) {
	if _, ok := f.live[id]; ok {
		f.live[id] = s
		f.updates++
	}
}

func (f *fakeRenderer) DestroyMarker(id MarkerID) { delete(f.live, id) }

func (f *fakeRenderer) Clear() {
	f.cleared++
	f.live = map[MarkerID]Sphere{}
}

func (f *fakeRenderer) Intersect(ray Ray, ids []MarkerID) (MarkerID, bool) {
	dir := ray.Dir.Normalize()
	best, bestD := MarkerID(0), math.Inf(1)
	for _, id := range ids {
		s, ok := f.live[id]
		if !ok {
			continue
		}
		oc := s.Center.Sub(ray.Origin)
		along := oc.Dot(dir)
		if along < 0 {
			continue
		}
		d := oc.Sub(dir.Mul(along)).Len()
		if d <= s.Radius && along < bestD {
			best, bestD = id, along
		}
	}
	return best, best != 0
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pair returns the call and put records one quote row produces.
func pair(exp string, strike, callAsk, putAsk float64) []models.OptionRecord {
	return []models.OptionRecord{
		{Side: models.Call, Expiration: exp, Strike: strike, Metrics: map[string]float64{"Ask": callAsk, "IV": 0.2}},
		{Side: models.Put, Expiration: exp, Strike: strike, Metrics: map[string]float64{"Ask.1": putAsk, "IV.1": 0.25}},
	}
}

func table(records ...[]models.OptionRecord) models.QuoteTable {
	t := models.QuoteTable{Source: "test"}
	for _, r := range records {
		t.Records = append(t.Records, r...)
		t.Stats.Rows++
	}
	return t
}
