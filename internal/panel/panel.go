// Package panel is the control-panel registry: named numeric, boolean, enum
// and color controls bound to live values, each with a change callback.
// Browser clients read the schema from Controls and write through Set.
package panel

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrUnknownControl is returned by Set for a name that was never bound.
	ErrUnknownControl = errors.New("unknown control")
	// ErrInvalidValue is returned by Set when the value does not fit the
	// control's kind.
	ErrInvalidValue = errors.New("invalid value")
)

// Kind is the widget type of a control.
type Kind string

const (
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindEnum   Kind = "enum"
	KindColor  Kind = "color"
)

// Control describes one bound field and its current value.
type Control struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Options []string `json:"options,omitempty"`
	Value   any      `json:"value"`
}

type binding struct {
	Control
	apply func(any)
}

// Panel holds the bound controls in registration order.
type Panel struct {
	mu       sync.Mutex
	order    []string
	bindings map[string]*binding
}

// New creates an empty panel.
func New() *Panel {
	return &Panel{bindings: make(map[string]*binding)}
}

func (p *Panel) bind(c Control, apply func(any)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.bindings[c.Name]; !dup {
		p.order = append(p.order, c.Name)
	}
	p.bindings[c.Name] = &binding{Control: c, apply: apply}
}

// Number binds a slider over [min, max]. Values outside the range are
// clamped.
func (p *Panel) Number(name, label string, min, max, step, value float64, onChange func(float64)) {
	p.bind(Control{Name: name, Label: label, Kind: KindNumber, Min: min, Max: max, Step: step, Value: value},
		func(v any) { onChange(v.(float64)) })
}

// Bool binds a checkbox.
func (p *Panel) Bool(name, label string, value bool, onChange func(bool)) {
	p.bind(Control{Name: name, Label: label, Kind: KindBool, Value: value},
		func(v any) { onChange(v.(bool)) })
}

// Enum binds a dropdown over options.
func (p *Panel) Enum(name, label string, options []string, value string, onChange func(string)) {
	opts := append([]string(nil), options...)
	p.bind(Control{Name: name, Label: label, Kind: KindEnum, Options: opts, Value: value},
		func(v any) { onChange(v.(string)) })
}

// Color binds a color picker. Values are "#rrggbb" strings.
func (p *Panel) Color(name, label string, value colorful.Color, onChange func(colorful.Color)) {
	p.bind(Control{Name: name, Label: label, Kind: KindColor, Value: value.Hex()},
		func(v any) {
			c, _ := colorful.Hex(v.(string))
			onChange(c)
		})
}

// Set validates raw against the named control, stores it and runs the
// control's callback. raw may be the native JSON type or its string form.
// The callback runs on the caller's goroutine after the panel is unlocked.
func (p *Panel) Set(name string, raw any) error {
	p.mu.Lock()
	b, ok := p.bindings[name]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	v, err := coerce(b.Control, raw)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("%s: %w", name, err)
	}
	b.Value = v
	apply := b.apply
	p.mu.Unlock()

	apply(v)
	return nil
}

// Value returns the current value of a control.
func (p *Panel) Value(name string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.bindings[name]
	if !ok {
		return nil, false
	}
	return b.Value, true
}

// Controls returns every control with its current value, in registration
// order.
func (p *Panel) Controls() []Control {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Control, 0, len(p.order))
	for _, name := range p.order {
		c := p.bindings[name].Control
		c.Options = append([]string(nil), c.Options...)
		out = append(out, c)
	}
	return out
}

func coerce(c Control, raw any) (any, error) {
	switch c.Kind {
	case KindNumber:
		var f float64
		switch v := raw.(type) {
		case float64:
			f = v
		case int:
			f = float64(v)
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
			}
			f = parsed
		default:
			return nil, fmt.Errorf("%w: want number, got %T", ErrInvalidValue, raw)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite number", ErrInvalidValue)
		}
		return math.Max(c.Min, math.Min(c.Max, f)), nil

	case KindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
			}
			return b, nil
		}
		return nil, fmt.Errorf("%w: want boolean, got %T", ErrInvalidValue, raw)

	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrInvalidValue, raw)
		}
		for _, opt := range c.Options {
			if opt == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not one of %s", ErrInvalidValue, s, strings.Join(c.Options, ", "))

	case KindColor:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want color string, got %T", ErrInvalidValue, raw)
		}
		col, err := colorful.Hex(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a hex color", ErrInvalidValue, s)
		}
		return col.Hex(), nil
	}
	return nil, fmt.Errorf("%w: control kind %q", ErrInvalidValue, c.Kind)
}
