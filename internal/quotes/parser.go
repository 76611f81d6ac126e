// Package quotes turns option quote tables into normalized option records.
//
// A quote table is plain comma-delimited text: two preamble lines, a header
// line, then one row per (expiration, strike) carrying call and put columns
// at fixed offsets. Fields are split on a literal comma; quoted fields are
// not supported.
package quotes

import (
	"math"
	"strings"

	"github.com/seenimoa/optionocean/pkg/models"
)

const (
	headerLine = 2  // zero-based index of the header among non-blank lines
	minFields  = 22 // rows shorter than this are dropped

	colExpiration = 0
	colStrike     = 11
)

// column maps one base metric to its call and put field offsets.
type column struct {
	metric string
	call   int
	put    int
}

var columns = []column{
	{models.MetricAsk, 5, 16},
	{models.MetricVolume, 6, 17},
	{models.MetricIV, 7, 18},
	{models.MetricDelta, 8, 19},
	{models.MetricGamma, 9, 20},
}

// Parse reads quote-table text. Malformed rows are skipped and counted;
// input with fewer than three non-blank lines yields an empty table.
// Parse never fails.
func Parse(source, text string) models.QuoteTable {
	table := models.QuoteTable{Source: source}

	lines := nonBlankLines(text)
	table.Stats.Lines = len(lines)
	if len(lines) <= headerLine {
		return table
	}

	for _, h := range strings.Split(lines[headerLine], ",") {
		table.Header = append(table.Header, strings.TrimSpace(h))
	}

	for _, line := range lines[headerLine+1:] {
		fields := strings.Split(line, ",")
		if len(fields) < minFields {
			table.Stats.Skipped++
			continue
		}

		strike := ParseNumber(fields[colStrike])
		if math.IsNaN(strike) {
			table.Stats.BadStrike++
			continue
		}
		expiration := strings.TrimSpace(fields[colExpiration])

		call := models.OptionRecord{
			Side:       models.Call,
			Expiration: expiration,
			Strike:     strike,
			Metrics:    make(map[string]float64, len(columns)),
		}
		put := models.OptionRecord{
			Side:       models.Put,
			Expiration: expiration,
			Strike:     strike,
			Metrics:    make(map[string]float64, len(columns)),
		}
		for _, c := range columns {
			call.Metrics[c.metric] = ParseNumber(fields[c.call])
			put.Metrics[c.metric+models.PutSuffix] = ParseNumber(fields[c.put])
		}

		table.Records = append(table.Records, call, put)
		table.Stats.Rows++
	}

	return table
}

// nonBlankLines splits on LF or CRLF and drops whitespace-only lines.
func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
