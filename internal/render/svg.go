package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/utils"
)

// ChartConfig holds rendering parameters for the SVG snapshot.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 900)
	Height       int    // SVG height in pixels (default: 600)
	MarginTop    int    // top margin (default: 50)
	MarginRight  int    // right margin, holds the legend (default: 90)
	MarginBottom int    // bottom margin (default: 80)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#000000")
	GridColor    string // grid line color
	TextColor    string // axis label color
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns defaults matching the 3D view's dark scene.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        900,
		Height:       600,
		MarginTop:    50,
		MarginRight:  90,
		MarginBottom: 80,
		MarginLeft:   70,
		BgColor:      "#000000",
		GridColor:    "#222222",
		TextColor:    "#cccccc",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// Field is the state a heatmap is drawn from.
type Field struct {
	Axes    scene.AxisSet
	Range   scene.Range
	Markers []scene.Marker
	Params  scene.ViewParameters
}

// FieldOf captures a session's current field.
func FieldOf(s *scene.Session) Field {
	return Field{
		Axes:    s.Axes(),
		Range:   s.Range(),
		Markers: s.Markers(),
		Params:  s.Params(),
	}
}

const maxAxisLabels = 12

// Heatmap draws the field top-down: expirations across, strikes down, each
// marker a cell filled with its gradient color. A legend maps the gradient
// back to the metric range.
func Heatmap(f Field, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(f.Markers) == 0 || f.Axes.Width() == 0 || f.Axes.Height() == 0 {
		return emptySVG(cfg, "No markers for "+f.Params.Metric)
	}
	if cfg.Title == "" {
		cfg.Title = f.Params.Metric
	}

	px, py, pw, ph := cfg.plotArea()
	cols, rows := f.Axes.Width(), f.Axes.Height()
	cellW := float64(pw) / float64(cols)
	cellH := float64(ph) / float64(rows)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="24" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
	sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="%s"/>`,
		px, py, pw, ph, cfg.GridColor))

	for _, m := range f.Markers {
		x := float64(px) + float64(m.GridX)*cellW
		// highest strike at the top
		y := float64(py) + float64(rows-1-m.GridY)*cellH
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" opacity="%.2f"/>`,
			x, y, cellW, cellH, m.Color.Clamped().Hex(), f.Params.Alpha))
	}

	// Y-axis strike labels
	step := labelStep(rows)
	for i := 0; i < rows; i += step {
		y := float64(py) + float64(rows-1-i)*cellH + cellH/2
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, utils.FormatStrike(f.Axes.Strikes[i])))
	}

	// X-axis expiration labels
	step = labelStep(cols)
	for i := 0; i < cols; i += step {
		cx := float64(px) + float64(i)*cellW + cellW/2
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="end" transform="rotate(-45,%.1f,%d)">%s</text>`,
			cx, py+ph+15, cfg.FontSize-1, cfg.TextColor, cx, py+ph+15, escapeXML(f.Axes.Expirations[i])))
	}

	writeLegend(&sb, f, cfg)

	sb.WriteString("</svg>")
	return sb.String()
}

// WriteHeatmap renders the field to w.
func WriteHeatmap(w io.Writer, f Field, cfg ChartConfig) error {
	_, err := io.WriteString(w, Heatmap(f, cfg))
	return err
}

func writeLegend(sb *strings.Builder, f Field, cfg ChartConfig) {
	_, py, _, ph := cfg.plotArea()
	lx := cfg.Width - cfg.MarginRight + 20
	const bands = 20
	bandH := float64(ph) / bands
	for i := 0; i < bands; i++ {
		n := 1 - (float64(i)+0.5)/bands
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="14" height="%.1f" fill="%s"/>`,
			lx, float64(py)+float64(i)*bandH, bandH+0.5, f.Params.Gradient(n).Clamped().Hex()))
	}

	top, bottom := "-", "-"
	if f.Range.Valid {
		top = utils.FormatMetric(f.Params.Metric, f.Range.Max)
		bottom = utils.FormatMetric(f.Params.Metric, f.Range.Min)
	}
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s">%s</text>`,
		lx+18, py+8, cfg.FontSize-1, cfg.TextColor, escapeXML(top)))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s">%s</text>`,
		lx+18, py+ph, cfg.FontSize-1, cfg.TextColor, escapeXML(bottom)))
}

func labelStep(n int) int {
	step := n / maxAxisLabels
	if step < 1 {
		step = 1
	}
	return step
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#111111"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
