package engine

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/models"
)

// bindPanel registers the viewer's controls. Each callback runs on the
// loop, inside SetParam.
func (e *Engine) bindPanel() {
	v := e.opts.View
	p := e.panel

	p.Enum(string(scene.ParamMetric), "Y Axis Metric", models.MetricNames, v.Metric, func(m string) {
		e.apply(scene.ParamMetric, func(vp *scene.ViewParameters) { vp.Metric = m })
	})
	p.Bool(string(scene.ParamShowCalls), "Show Calls", v.ShowCalls, func(b bool) {
		e.apply(scene.ParamShowCalls, func(vp *scene.ViewParameters) { vp.ShowCalls = b })
	})
	p.Bool(string(scene.ParamShowPuts), "Show Puts", v.ShowPuts, func(b bool) {
		e.apply(scene.ParamShowPuts, func(vp *scene.ViewParameters) { vp.ShowPuts = b })
	})
	p.Number(string(scene.ParamGlow), "Glow", 0.1, 3, 0.01, v.Glow, func(f float64) {
		e.apply(scene.ParamGlow, func(vp *scene.ViewParameters) { vp.Glow = f })
	})
	p.Number(string(scene.ParamWaveSpeed), "Wave Speed", 0.1, 3, 0.01, v.WaveSpeed, func(f float64) {
		e.apply(scene.ParamWaveSpeed, func(vp *scene.ViewParameters) { vp.WaveSpeed = f })
	})
	p.Number(string(scene.ParamAlpha), "Particle Alpha", 0.1, 1, 0.01, v.Alpha, func(f float64) {
		e.apply(scene.ParamAlpha, func(vp *scene.ViewParameters) { vp.Alpha = f })
	})
	p.Color(string(scene.ParamColor1), "Color 1", v.Color1, func(c colorful.Color) {
		e.apply(scene.ParamColor1, func(vp *scene.ViewParameters) { vp.Color1 = c })
	})
	p.Color(string(scene.ParamColor2), "Color 2", v.Color2, func(c colorful.Color) {
		e.apply(scene.ParamColor2, func(vp *scene.ViewParameters) { vp.Color2 = c })
	})
}

// apply runs a parameter change through the session. Structural and
// cosmetic changes republish the scene; wave speed is picked up by the
// next frame.
func (e *Engine) apply(param scene.Param, fn func(*scene.ViewParameters)) {
	kind := e.session.Apply(param, fn)
	if kind != scene.ChangeNone {
		e.publishScene()
	}
	e.sink.PublishPanel(e.panel.Controls())
}
