package render

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/models"
)

func sampleSession(t *testing.T) *scene.Session {
	t.Helper()
	var recs []models.OptionRecord
	for i, exp := range []string{"2024-01-19", "2024-02-16"} {
		for j, strike := range []float64{95, 100, 105} {
			ask := float64(i*3 + j + 1)
			recs = append(recs,
				models.OptionRecord{Side: models.Call, Expiration: exp, Strike: strike, Metrics: map[string]float64{"Ask": ask}},
				models.OptionRecord{Side: models.Put, Expiration: exp, Strike: strike, Metrics: map[string]float64{"Ask.1": ask * 2}},
			)
		}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := scene.NewSession(NewRetained(), scene.DefaultLayout(), scene.DefaultViewParameters(), log)
	s.Load(models.QuoteTable{Source: "sample", Records: recs})
	return s
}

func TestHeatmap(t *testing.T) {
	s := sampleSession(t)
	svg := Heatmap(FieldOf(s), ChartConfig{})

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %.80s", svg)
	}
	for _, want := range []string{"2024-01-19", "2024-02-16", ">95<", ">105<", ">Ask<"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	// cells use the gradient endpoints for the extreme markers
	if !strings.Contains(svg, `fill="#00ffff"`) || !strings.Contains(svg, `fill="#ff50b4"`) {
		t.Error("expected gradient endpoint colors")
	}
}

func TestHeatmapEmpty(t *testing.T) {
	svg := Heatmap(Field{Params: scene.DefaultViewParameters()}, ChartConfig{})
	if !strings.Contains(svg, "No markers for Ask") {
		t.Errorf("empty svg = %s", svg)
	}
}

func TestWriteHeatmapEscapes(t *testing.T) {
	s := sampleSession(t)
	cfg := DefaultChartConfig()
	cfg.Title = `Ask <"calls"> & puts`

	var buf bytes.Buffer
	if err := WriteHeatmap(&buf, FieldOf(s), cfg); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Ask &lt;&quot;calls&quot;&gt; &amp; puts") {
		t.Error("title not escaped")
	}
}
