package scene

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/seenimoa/optionocean/pkg/models"
)

// BlendSpace selects the color space used for gradient interpolation.
type BlendSpace string

const (
	BlendRGB BlendSpace = "rgb"
	BlendLab BlendSpace = "lab"
	BlendHCL BlendSpace = "hcl"
)

// ParseBlendSpace accepts "rgb", "lab" or "hcl"; empty means rgb.
func ParseBlendSpace(s string) (BlendSpace, error) {
	switch BlendSpace(s) {
	case "", BlendRGB:
		return BlendRGB, nil
	case BlendLab, BlendHCL:
		return BlendSpace(s), nil
	}
	return "", fmt.Errorf("unknown blend space %q", s)
}

// Lerp interpolates from a (t=0) to b (t=1) in space.
func Lerp(a, b colorful.Color, t float64, space BlendSpace) colorful.Color {
	switch space {
	case BlendLab:
		return a.BlendLab(b, t).Clamped()
	case BlendHCL:
		return a.BlendHcl(b, t).Clamped()
	default:
		return a.BlendRgb(b, t)
	}
}

// MustHex parses a "#rrggbb" color and panics on malformed input. Use it
// for compile-time constants only.
func MustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ViewParameters is the live configuration the control panel edits.
type ViewParameters struct {
	Metric    string
	ShowCalls bool
	ShowPuts  bool
	Glow      float64
	WaveSpeed float64
	Alpha     float64
	Color1    colorful.Color
	Color2    colorful.Color
	Blend     BlendSpace
}

// DefaultViewParameters returns the startup view.
func DefaultViewParameters() ViewParameters {
	return ViewParameters{
		Metric:    models.MetricAsk,
		ShowCalls: true,
		ShowPuts:  true,
		Glow:      1.0,
		WaveSpeed: 1.0,
		Alpha:     0.7,
		Color1:    MustHex("#00ffff"),
		Color2:    MustHex("#ff50b4"),
		Blend:     BlendRGB,
	}
}

// Visible reports whether records of side are shown.
func (p ViewParameters) Visible(side models.Side) bool {
	if side == models.Put {
		return p.ShowPuts
	}
	return p.ShowCalls
}

// Gradient maps a normalized value onto the color1→color2 gradient.
func (p ViewParameters) Gradient(n float64) colorful.Color {
	return Lerp(p.Color1, p.Color2, n, p.Blend)
}

// ChangeKind says how much of the pipeline a parameter change re-runs.
type ChangeKind int

const (
	// ChangeNone needs no immediate work; the next frame picks it up.
	ChangeNone ChangeKind = iota
	// ChangeCosmetic restyles existing markers in place.
	ChangeCosmetic
	// ChangeStructural re-derives axes and range and rebuilds all markers.
	ChangeStructural
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCosmetic:
		return "cosmetic"
	case ChangeStructural:
		return "structural"
	}
	return "none"
}

// Param names one view parameter.
type Param string

const (
	ParamMetric    Param = "metric"
	ParamShowCalls Param = "showCalls"
	ParamShowPuts  Param = "showPuts"
	ParamGlow      Param = "glow"
	ParamWaveSpeed Param = "waveSpeed"
	ParamAlpha     Param = "particleAlpha"
	ParamColor1    Param = "color1"
	ParamColor2    Param = "color2"
)

var paramKinds = map[Param]ChangeKind{
	ParamMetric:    ChangeStructural,
	ParamShowCalls: ChangeStructural,
	ParamShowPuts:  ChangeStructural,
	ParamGlow:      ChangeCosmetic,
	ParamAlpha:     ChangeCosmetic,
	ParamColor1:    ChangeCosmetic,
	ParamColor2:    ChangeCosmetic,
	ParamWaveSpeed: ChangeNone,
}

// Kind returns the change kind tagged on p. Unknown params are structural.
func (p Param) Kind() ChangeKind {
	if k, ok := paramKinds[p]; ok {
		return k
	}
	return ChangeStructural
}
