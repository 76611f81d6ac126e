package quotes

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/optionocean/pkg/models"
)

const chainJSON = `{"data":{"symbol":"SPY","current_price":470.1,"options":[
 {"option":"SPY240216C00105000","ask":0.8,"volume":40,"iv":0.3,"delta":0.4,"gamma":0.02},
 {"option":"SPY240119P00100000","ask":2.0,"volume":12,"iv":0.25,"delta":-0.5,"gamma":0.02},
 {"option":"SPY240119C00100000","ask":1.5,"volume":10,"iv":0.2,"delta":0.5,"gamma":0.01},
 {"option":"not-a-contract","ask":9}
]}}`

func TestFromChain(t *testing.T) {
	table, err := FromChain("SPY", strings.NewReader(chainJSON))
	if err != nil {
		t.Fatalf("FromChain: %v", err)
	}
	if table.Stats.Rows != 2 || table.Stats.Skipped != 1 {
		t.Errorf("stats: %+v", table.Stats)
	}
	if len(table.Records) != 4 {
		t.Fatalf("records: got %d, want 4", len(table.Records))
	}

	call, put := table.Records[0], table.Records[1]
	if call.Expiration != "2024-01-19" || call.Strike != 100 || call.Side != models.Call || put.Side != models.Put {
		t.Errorf("first pair: %+v / %+v", call, put)
	}
	if call.Metrics["Ask"] != 1.5 || put.Metrics["Ask.1"] != 2.0 || put.Metrics["Delta.1"] != -0.5 {
		t.Errorf("metrics: call %v put %v", call.Metrics, put.Metrics)
	}

	// 105 has only a call; its put side is present but empty.
	lonePut := table.Records[3]
	if lonePut.Strike != 105 || !math.IsNaN(lonePut.Metrics["Ask.1"]) {
		t.Errorf("missing side: %+v", lonePut)
	}
	if _, ok := lonePut.Metric("Ask.1"); ok {
		t.Error("NaN metric should not resolve")
	}
	if len(table.Header) != 22 || table.Header[11] != "Strike" {
		t.Errorf("header: %v", table.Header)
	}
}

func TestFromChainBadJSON(t *testing.T) {
	if _, err := FromChain("SPY", strings.NewReader(`{"data":`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestChainURL(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"spy", "https://cdn.cboe.com/api/global/delayed_quotes/options/SPY.json"},
		{"^SPX", "https://cdn.cboe.com/api/global/delayed_quotes/options/_SPX.json"},
		{" ndx ", "https://cdn.cboe.com/api/global/delayed_quotes/options/_NDX.json"},
	}
	for _, tt := range tests {
		if got := ChainURL(ChainBaseURL, tt.symbol); got != tt.want {
			t.Errorf("ChainURL(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestFetcherFetchChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/SPY.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(chainJSON)) //nolint:errcheck
		default:
			http.Error(w, "not found", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, time.Minute, 0)
	f.ChainBase = srv.URL
	ctx := context.Background()

	table, err := f.FetchChain(ctx, "spy")
	if err != nil {
		t.Fatalf("FetchChain: %v", err)
	}
	if table.Source != "SPY" || len(table.Records) != 4 {
		t.Errorf("table: source %q, %d records", table.Source, len(table.Records))
	}

	_, err = f.FetchChain(ctx, "QQQ")
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected ErrHTTP 403, got %v", err)
	}

	if _, err := f.FetchChain(ctx, "  "); err == nil {
		t.Error("expected error for empty symbol")
	}
}
