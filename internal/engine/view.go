package engine

import (
	"github.com/seenimoa/optionocean/internal/camera"
	"github.com/seenimoa/optionocean/internal/render"
	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/models"
)

// View is the full scene description a client needs to draw from scratch.
type View struct {
	Source       string            `json:"source"`
	Metric       string            `json:"metric"`
	Axes         scene.AxisSet     `json:"axes"`
	Range        scene.Range       `json:"range"`
	Stats        models.ParseStats `json:"stats"`
	Markers      []render.Item     `json:"markers"`
	Camera       camera.State      `json:"camera"`
	Background   string            `json:"background"`
	Lights       []Light           `json:"lights"`
	Title        string            `json:"title"`
	TitleFadeSec int               `json:"title_fade_sec"`
	Overlay      bool              `json:"overlay"`
}

// Light describes one scene light.
type Light struct {
	Kind      string      `json:"kind"` // "ambient" or "point"
	Color     string      `json:"color"`
	Intensity float64     `json:"intensity"`
	Position  *[3]float64 `json:"position,omitempty"`
}

// Frame is one animation step. Markers only move vertically, so X and Z
// are not repeated. Camera is set when the view moved.
type Frame struct {
	T       float64       `json:"t"`
	Markers []FrameItem   `json:"markers,omitempty"`
	Camera  *camera.State `json:"camera,omitempty"`
}

// FrameItem is a marker's per-frame display state.
type FrameItem struct {
	ID       scene.MarkerID `json:"id"`
	Y        float64        `json:"y"`
	Color    string         `json:"color"`
	Emissive float64        `json:"emissive"`
	Opacity  float64        `json:"opacity"`
}

var sceneLights = []Light{
	{Kind: "ambient", Color: "#ffffff", Intensity: 0.2},
	{Kind: "point", Color: "#ffffff", Intensity: 1, Position: &[3]float64{0, 200, 200}},
}

func (e *Engine) view() View {
	t := e.session.Table()
	return View{
		Source:       t.Source,
		Metric:       e.session.Params().Metric,
		Axes:         e.session.Axes(),
		Range:        e.session.Range(),
		Stats:        t.Stats,
		Markers:      e.renderer.Snapshot(),
		Camera:       e.camera.State(),
		Background:   e.opts.Background,
		Lights:       sceneLights,
		Title:        e.opts.Title,
		TitleFadeSec: e.opts.TitleFadeSec,
		Overlay:      e.overlay,
	}
}

func (e *Engine) publishScene() {
	e.sink.PublishScene(e.view())
}
