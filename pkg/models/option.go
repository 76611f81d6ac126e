package models

import (
	"math"
	"strings"
)

// Side identifies the contract type of an option record.
type Side string

const (
	Call Side = "call"
	Put  Side = "put"
)

// PutSuffix marks the put-side variant of a base metric name ("Ask.1").
const PutSuffix = ".1"

// Base metric names carried by call records. Put records carry the same
// names with PutSuffix appended.
const (
	MetricAsk    = "Ask"
	MetricIV     = "IV"
	MetricVolume = "Volume"
	MetricDelta  = "Delta"
	MetricGamma  = "Gamma"
)

// MetricNames lists every metric a user can select, in panel order.
var MetricNames = []string{
	"Ask", "Ask.1",
	"IV", "IV.1",
	"Volume", "Volume.1",
	"Delta", "Delta.1",
	"Gamma", "Gamma.1",
}

// IsKnownMetric reports whether name is one of MetricNames.
func IsKnownMetric(name string) bool {
	for _, m := range MetricNames {
		if m == name {
			return true
		}
	}
	return false
}

// MetricSide returns the side a metric name addresses: suffixed names
// address puts, everything else addresses calls.
func MetricSide(metric string) Side {
	if strings.HasSuffix(metric, PutSuffix) {
		return Put
	}
	return Call
}

// BaseMetric strips a trailing put suffix from a metric name.
func BaseMetric(metric string) string {
	return strings.TrimSuffix(metric, PutSuffix)
}

// OptionRecord is one contract side (call or put) at one (expiration, strike).
type OptionRecord struct {
	Side       Side               `json:"side"`
	Expiration string             `json:"expiration"` // opaque, lexically sortable
	Strike     float64            `json:"strike"`
	Metrics    map[string]float64 `json:"metrics"` // NaN when the source cell was not numeric
}

// Metric resolves a metric name against the record. The suffixed name is
// tried first, then the base name. ok is false when neither key exists or
// the value is not a finite number.
func (r OptionRecord) Metric(name string) (float64, bool) {
	v, found := r.Metrics[name]
	if !found {
		v, found = r.Metrics[BaseMetric(name)]
	}
	if !found || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// RawMetric is like Metric but returns non-finite values as stored, for
// display. ok is false only when no key matches.
func (r OptionRecord) RawMetric(name string) (float64, bool) {
	if v, found := r.Metrics[name]; found {
		return v, true
	}
	v, found := r.Metrics[BaseMetric(name)]
	return v, found
}

// QuoteTable is a parsed quote file.
type QuoteTable struct {
	Source  string         `json:"source"`
	Header  []string       `json:"header"`
	Records []OptionRecord `json:"records"`
	Stats   ParseStats     `json:"stats"`
}

// ParseStats counts what the parser saw.
type ParseStats struct {
	Lines     int `json:"lines"`      // non-blank lines, preamble and header included
	Rows      int `json:"rows"`       // data rows accepted
	Skipped   int `json:"skipped"`    // data rows rejected as too short
	BadStrike int `json:"bad_strike"` // data rows rejected for a non-numeric strike
}
