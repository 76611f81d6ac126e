// Package engine runs the viewer session. A single loop goroutine owns the
// scene session, camera and control panel; every input is posted to it as
// a closure, and a frame ticker drives animation between inputs. Quote
// loads are parsed off the loop and applied in the order they were
// started.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/optionocean/internal/camera"
	"github.com/seenimoa/optionocean/internal/panel"
	"github.com/seenimoa/optionocean/internal/quotes"
	"github.com/seenimoa/optionocean/internal/render"
	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/models"
)

// ErrClosed is returned for operations posted after the loop has stopped.
var ErrClosed = errors.New("engine closed")

// Renderer is the marker store the engine draws through. Snapshot feeds
// the scene message sent to clients.
type Renderer interface {
	scene.Renderer
	Snapshot() []render.Item
}

// Sink receives everything clients display: tooltips and the overlay via
// scene.Presenter, plus scene, frame and panel updates.
type Sink interface {
	scene.Presenter
	PublishScene(v View)
	PublishFrame(f Frame)
	PublishPanel(cs []panel.Control)
}

// Options configures an engine.
type Options struct {
	View         scene.ViewParameters
	Layout       scene.Layout
	Camera       camera.Config
	FrameRate    int // 0 disables the frame ticker
	MaxBytes     int64
	Fetcher      *quotes.Fetcher
	Title        string
	TitleFadeSec int
	Background   string
	Instructions string
}

// Engine is the viewer runtime. Create it with New and start it with Run.
type Engine struct {
	opts Options
	log  *slog.Logger
	sink Sink

	renderer Renderer
	session  *scene.Session
	camera   *camera.Camera
	panel    *panel.Panel

	ops  chan func()
	done chan struct{}

	started atomic.Uint64 // last load generation handed out
	applied uint64        // loop-owned: generation currently shown

	now         func() time.Time
	start       time.Time
	overlay     bool
	cameraDirty bool
}

// New wires an engine. A nil sink discards client updates.
func New(opts Options, r Renderer, sink Sink, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if sink == nil {
		sink = nopSink{}
	}
	e := &Engine{
		opts:     opts,
		log:      log,
		sink:     sink,
		renderer: r,
		session:  scene.NewSession(r, opts.Layout, opts.View, log.With("component", "scene")),
		camera:   camera.New(opts.Camera),
		panel:    panel.New(),
		ops:      make(chan func()),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	e.bindPanel()
	return e
}

// Panel exposes the control registry for reading the schema.
func (e *Engine) Panel() *panel.Panel { return e.panel }

// Fetcher returns the remote quote fetcher, or nil.
func (e *Engine) Fetcher() *quotes.Fetcher { return e.opts.Fetcher }

// Run processes posted operations and frames until ctx is cancelled. All
// renderer handles are released on return.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.session.Close()

	var tick <-chan time.Time
	if e.opts.FrameRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(e.opts.FrameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	e.start = e.now()
	last := e.start
	e.log.Info("engine started", "frame_rate", e.opts.FrameRate)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return nil
		case fn := <-e.ops:
			fn()
		case <-tick:
			now := e.now()
			e.step(now.Sub(last).Seconds(), now.Sub(e.start).Seconds())
			last = now
		}
	}
}

// Do runs fn on the loop and waits for it to finish. ctx only bounds the
// wait for the loop to accept fn; once accepted, fn always runs to
// completion and Do returns nil.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	finished := make(chan struct{})
	select {
	case e.ops <- func() { fn(); close(finished) }:
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// LoadResult reports what a load did.
type LoadResult struct {
	ID      string            `json:"id"`
	Source  string            `json:"source"`
	Stats   models.ParseStats `json:"stats"`
	Records int               `json:"records"`
	Markers int               `json:"markers"`
	// Applied is false when a load started later had already been shown.
	Applied bool `json:"applied"`
}

// LoadText parses quote text and shows it.
func (e *Engine) LoadText(ctx context.Context, name, text string) (LoadResult, error) {
	return e.load(ctx, func(context.Context) (models.QuoteTable, error) {
		return quotes.Parse(name, text), nil
	})
}

// LoadBytes decodes a quote document (text or HTML) and shows it.
func (e *Engine) LoadBytes(ctx context.Context, name string, body []byte, contentType string) (LoadResult, error) {
	return e.load(ctx, func(context.Context) (models.QuoteTable, error) {
		return quotes.Decode(name, body, contentType)
	})
}

// LoadReader reads a quote document from r, within the size limit.
func (e *Engine) LoadReader(ctx context.Context, name string, r io.Reader, contentType string) (LoadResult, error) {
	return e.load(ctx, func(context.Context) (models.QuoteTable, error) {
		body, err := quotes.ReadAll(r, e.opts.MaxBytes)
		if err != nil {
			return models.QuoteTable{Source: name}, fmt.Errorf("read %s: %w", name, err)
		}
		return quotes.Decode(name, body, contentType)
	})
}

// LoadFile reads a quote file from disk and shows it.
func (e *Engine) LoadFile(ctx context.Context, path string) (LoadResult, error) {
	return e.load(ctx, func(context.Context) (models.QuoteTable, error) {
		return quotes.ReadFile(path, e.opts.MaxBytes)
	})
}

// LoadURL downloads a quote document and shows it.
func (e *Engine) LoadURL(ctx context.Context, url string) (LoadResult, error) {
	if e.opts.Fetcher == nil {
		return LoadResult{}, errors.New("remote loading is not configured")
	}
	return e.load(ctx, func(ctx context.Context) (models.QuoteTable, error) {
		return e.opts.Fetcher.Fetch(ctx, url)
	})
}

// LoadSymbol downloads the delayed option chain for symbol and shows it.
func (e *Engine) LoadSymbol(ctx context.Context, symbol string) (LoadResult, error) {
	if e.opts.Fetcher == nil {
		return LoadResult{}, errors.New("remote loading is not configured")
	}
	return e.load(ctx, func(ctx context.Context) (models.QuoteTable, error) {
		return e.opts.Fetcher.FetchChain(ctx, symbol)
	})
}

// load produces a table off the loop, then installs it unless a load that
// started later is already showing.
func (e *Engine) load(ctx context.Context, produce func(context.Context) (models.QuoteTable, error)) (LoadResult, error) {
	gen := e.started.Add(1)
	res := LoadResult{ID: uuid.NewString()}

	t, err := produce(ctx)
	if err != nil {
		e.log.Warn("quote load failed", "load_id", res.ID, "error", err)
		return res, err
	}
	res.Source, res.Stats, res.Records = t.Source, t.Stats, len(t.Records)

	err = e.Do(ctx, func() {
		if gen < e.applied {
			e.log.Info("stale quote load dropped", "load_id", res.ID, "source", t.Source)
			return
		}
		e.applied = gen
		e.session.Load(t)
		e.publishScene()
		res.Applied = true
		res.Markers = len(e.session.Markers())
	})
	return res, err
}

// SetParam sets a panel control and runs the pipeline path it is tagged
// with.
func (e *Engine) SetParam(ctx context.Context, name string, value any) error {
	var setErr error
	if err := e.Do(ctx, func() { setErr = e.panel.Set(name, value) }); err != nil {
		return err
	}
	return setErr
}

// Key handles a key press or release. H toggles the instructions overlay
// and Esc closes it; flight keys go to the camera.
func (e *Engine) Key(ctx context.Context, code string, down bool) error {
	return e.Do(ctx, func() {
		if down && e.overlay && (code == KeyHelp || code == KeyEscape) {
			e.setOverlay(false)
			return
		}
		if down && !e.overlay && code == KeyHelp {
			e.setOverlay(true)
			return
		}
		e.camera.SetKey(code, down)
	})
}

// Key codes the engine handles itself.
const (
	KeyHelp   = "KeyH"
	KeyEscape = "Escape"
)

// SetOverlay shows or hides the instructions overlay.
func (e *Engine) SetOverlay(ctx context.Context, visible bool) error {
	return e.Do(ctx, func() {
		if e.overlay != visible {
			e.setOverlay(visible)
		}
	})
}

// ReleaseKeys lets go of every held flight key.
func (e *Engine) ReleaseKeys(ctx context.Context) error {
	return e.Do(ctx, func() { e.camera.ReleaseKeys() })
}

func (e *Engine) setOverlay(visible bool) {
	e.overlay = visible
	if visible {
		e.sink.ShowOverlay(InstructionsTitle, e.opts.Instructions)
	} else {
		e.sink.HideOverlay()
	}
}

// InstructionsTitle heads the instructions overlay.
const InstructionsTitle = "Option Particle Ocean Instructions"

// Orbit rotates the camera by a pointer drag in pixels.
func (e *Engine) Orbit(ctx context.Context, dx, dy float64) error {
	return e.Do(ctx, func() {
		e.camera.Orbit(dx, dy)
		e.cameraChanged()
	})
}

// Zoom moves the camera toward or away from its target.
func (e *Engine) Zoom(ctx context.Context, delta float64) error {
	return e.Do(ctx, func() {
		e.camera.Zoom(delta)
		e.cameraChanged()
	})
}

// Resize sets the client viewport used for picking and aspect.
func (e *Engine) Resize(ctx context.Context, width, height int) error {
	return e.Do(ctx, func() {
		e.camera.Resize(width, height)
		e.cameraChanged()
	})
}

// Tooltip placement relative to the pointer, in pixels.
const (
	TooltipOffsetX = 18
	TooltipOffsetY = -10
)

// Hover picks the marker under viewport pixel (px, py) and shows or hides
// the tooltip on to, the presenter of the pointer that asked. A nil to
// uses the engine's sink.
func (e *Engine) Hover(ctx context.Context, px, py float64, to scene.Presenter) (scene.HoverInfo, bool, error) {
	if to == nil {
		to = e.sink
	}
	var (
		info scene.HoverInfo
		ok   bool
	)
	err := e.Do(ctx, func() {
		x, y := e.camera.NDC(px, py)
		origin, dir := e.camera.Ray(x, y)
		info, ok = e.session.Pick(scene.Ray{Origin: origin, Dir: dir})
		if ok {
			to.ShowTooltip(px+TooltipOffsetX, py+TooltipOffsetY, info)
		} else {
			to.HideTooltip()
		}
	})
	return info, ok, err
}

// Snapshot returns the current scene description.
func (e *Engine) Snapshot(ctx context.Context) (View, error) {
	var v View
	err := e.Do(ctx, func() { v = e.view() })
	return v, err
}

// Heatmap renders the current field as an SVG document.
func (e *Engine) Heatmap(ctx context.Context, cfg render.ChartConfig) (string, error) {
	var svg string
	err := e.Do(ctx, func() { svg = render.Heatmap(render.FieldOf(e.session), cfg) })
	return svg, err
}

func (e *Engine) cameraChanged() {
	e.cameraDirty = true
	if e.opts.FrameRate <= 0 {
		cs := e.camera.State()
		e.cameraDirty = false
		e.sink.PublishFrame(Frame{Camera: &cs})
	}
}

// step advances one frame: dt seconds since the last frame, elapsed since
// the loop started.
func (e *Engine) step(dt, elapsed float64) {
	moved := e.camera.Update(dt)
	states := e.session.Frame(elapsed)

	f := Frame{T: elapsed, Markers: make([]FrameItem, len(states))}
	for i, s := range states {
		f.Markers[i] = FrameItem{
			ID:       s.ID,
			Y:        s.Position.Y(),
			Color:    s.Color.Clamped().Hex(),
			Emissive: s.Emissive,
			Opacity:  s.Opacity,
		}
	}
	if moved || e.cameraDirty {
		cs := e.camera.State()
		f.Camera = &cs
		e.cameraDirty = false
	}
	e.sink.PublishFrame(f)
}

type nopSink struct{}

func (nopSink) ShowTooltip(float64, float64, scene.HoverInfo) {}
func (nopSink) HideTooltip()                                  {}
func (nopSink) ShowOverlay(string, string)                    {}
func (nopSink) HideOverlay()                                  {}
func (nopSink) PublishScene(View)                             {}
func (nopSink) PublishFrame(Frame)                            {}
func (nopSink) PublishPanel([]panel.Control)                  {}
