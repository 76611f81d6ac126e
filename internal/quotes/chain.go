package quotes

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/optionocean/pkg/models"
)

// ChainBaseURL is the CBOE delayed-quotes root for option chains. A chain
// lives at {base}/{SYMBOL}.json.
const ChainBaseURL = "https://cdn.cboe.com/api/global/delayed_quotes/options"

// indexSymbols need an underscore prefix in chain URLs.
var indexSymbols = map[string]bool{
	"SPX": true, "XSP": true, "NDX": true, "RUT": true,
	"VIX": true, "DJX": true, "OEX": true, "XEO": true,
}

// ChainURL returns the chain URL for symbol under base.
func ChainURL(base, symbol string) string {
	sym := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(symbol), "^"))
	if indexSymbols[sym] {
		sym = "_" + sym
	}
	return strings.TrimSuffix(base, "/") + "/" + sym + ".json"
}

type chainResponse struct {
	Data struct {
		Symbol       string        `json:"symbol"`
		CurrentPrice float64       `json:"current_price"`
		Options      []chainOption `json:"options"`
	} `json:"data"`
}

type chainOption struct {
	Option string   `json:"option"` // encoded contract, e.g. "SPY240119C00470000"
	Ask    *float64 `json:"ask"`
	Volume *float64 `json:"volume"`
	IV     *float64 `json:"iv"`
	Delta  *float64 `json:"delta"`
	Gamma  *float64 `json:"gamma"`
}

// contractRE splits TICKER + YYMMDD + C/P + strike*1000 (8 digits).
var contractRE = regexp.MustCompile(`^([A-Z]+)(\d{6})([CP])(\d{8})$`)

type cellKey struct {
	expiration string
	strike     float64
}

// FromChain converts a CBOE delayed option-chain JSON document into a
// quote table. Contracts are paired by (expiration, strike) the same way
// a quote-table row pairs them; a side missing from the chain gets NaN
// metrics. Expirations are ISO dates so they sort chronologically.
func FromChain(source string, r io.Reader) (models.QuoteTable, error) {
	var resp chainResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return models.QuoteTable{Source: source}, fmt.Errorf("decode option chain: %w", err)
	}

	table := models.QuoteTable{Source: source, Header: chainHeader}
	cells := make(map[cellKey][2]map[string]float64)

	for _, o := range resp.Data.Options {
		m := contractRE.FindStringSubmatch(strings.TrimSpace(o.Option))
		if m == nil {
			table.Stats.Skipped++
			continue
		}
		exp, err := time.Parse("060102", m[2])
		if err != nil {
			table.Stats.Skipped++
			continue
		}
		milli, _ := strconv.ParseFloat(m[4], 64)
		key := cellKey{expiration: exp.Format("2006-01-02"), strike: milli / 1000}

		pair, ok := cells[key]
		if !ok {
			pair = [2]map[string]float64{emptyMetrics(""), emptyMetrics(models.PutSuffix)}
		}
		side, suffix := 0, ""
		if m[3] == "P" {
			side, suffix = 1, models.PutSuffix
		}
		set := func(metric string, v *float64) {
			if v != nil {
				pair[side][metric+suffix] = *v
			}
		}
		set(models.MetricAsk, o.Ask)
		set(models.MetricVolume, o.Volume)
		set(models.MetricIV, o.IV)
		set(models.MetricDelta, o.Delta)
		set(models.MetricGamma, o.Gamma)
		cells[key] = pair
	}

	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].expiration != keys[j].expiration {
			return keys[i].expiration < keys[j].expiration
		}
		return keys[i].strike < keys[j].strike
	})

	for _, k := range keys {
		pair := cells[k]
		table.Records = append(table.Records,
			models.OptionRecord{Side: models.Call, Expiration: k.expiration, Strike: k.strike, Metrics: pair[0]},
			models.OptionRecord{Side: models.Put, Expiration: k.expiration, Strike: k.strike, Metrics: pair[1]},
		)
	}
	table.Stats.Rows = len(keys)
	table.Stats.Lines = len(resp.Data.Options)
	return table, nil
}

func emptyMetrics(suffix string) map[string]float64 {
	m := make(map[string]float64, len(columns))
	for _, c := range columns {
		m[c.metric+suffix] = math.NaN()
	}
	return m
}

// chainHeader mirrors the quote-table header so chain tables look like
// parsed files to downstream code.
var chainHeader = []string{
	"Expiration Date", "Calls", "Last Sale", "Net", "Bid", "Ask", "Volume", "IV", "Delta", "Gamma", "Open Interest",
	"Strike", "Puts", "Last Sale", "Net", "Bid", "Ask", "Volume", "IV", "Delta", "Gamma", "Open Interest",
}
