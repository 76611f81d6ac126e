package scene

import (
	"fmt"
	"strconv"
)

// HoverInfo is the display tuple for a picked marker. Value is meaningful
// only when HasValue is set.
type HoverInfo struct {
	Expiration string  `json:"expiration"`
	Strike     float64 `json:"strike"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	HasValue   bool    `json:"has_value"`
	GridX      int     `json:"grid_x"`
	GridY      int     `json:"grid_y"`
}

// ValueText renders the raw value, or "" when unresolved.
func (h HoverInfo) ValueText() string {
	if !h.HasValue {
		return ""
	}
	return strconv.FormatFloat(h.Value, 'f', -1, 64)
}

// Lines renders the tooltip body.
func (h HoverInfo) Lines() []string {
	return []string{
		"Expiration: " + h.Expiration,
		"Strike: " + strconv.FormatFloat(h.Strike, 'f', -1, 64),
		fmt.Sprintf("%s: %s", h.Metric, h.ValueText()),
	}
}
