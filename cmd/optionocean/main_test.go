package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seenimoa/optionocean/internal/config"
	"github.com/seenimoa/optionocean/internal/quotes"
)

const quoteText = "SPY,Last: 470\nDate: Jan 5 2024\n" +
	"Expiration Date,Calls,Last Sale,Net,Bid,Ask,Volume,IV,Delta,Gamma,Open Interest,Strike,Puts,Last Sale,Net,Bid,Ask,Volume,IV,Delta,Gamma,Open Interest\n" +
	"2024-01-19,C100,0,0,0,1.5,10,0.2,0.5,0.01,0,100,P100,0,0,0,2.0,12,0.25,-0.5,0.02,0\n" +
	"2024-02-16,C105,0,0,0,0.8,2500,0.3,0.4,0.02,0,105,P105,0,0,0,3.1,22,0.28,-0.6,0.03,0\n" +
	"2024-02-16,short,row\n"

// setup writes a quote file and a quiet config file into a temp dir.
func setup(t *testing.T) (dir, quoteFile, cfgFile string) {
	t.Helper()
	dir = t.TempDir()
	quoteFile = filepath.Join(dir, "spy_quotedata.csv")
	cfgFile = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(quoteFile, []byte(quoteText), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgFile, []byte("logging:\n  level: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, quoteFile, cfgFile
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPrintTable(t *testing.T) {
	table := quotes.Parse("spy.csv", quoteText)
	var buf bytes.Buffer
	printTable(&buf, table, config.Default().View.Params())
	out := buf.String()

	for _, want := range []string{
		"spy.csv",
		"2 accepted, 1 short",
		"records:     4",
		"expirations: 2 (2024-01-19 .. 2024-02-16)",
		"strikes:     2 (100 .. 105)",
		"Volume",
		"2.5K",
		"IV.1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectCommand(t *testing.T) {
	_, quoteFile, cfgFile := setup(t)
	out, err := execute(t, "inspect", "--config", cfgFile, quoteFile, quoteFile)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if strings.Count(out, "spy_quotedata.csv") != 2 {
		t.Errorf("expected two summaries:\n%s", out)
	}

	if _, err := execute(t, "inspect", "--config", cfgFile, "/nonexistent.csv"); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestSnapshotCommand(t *testing.T) {
	dir, quoteFile, cfgFile := setup(t)
	svgFile := filepath.Join(dir, "iv.svg")

	if _, err := execute(t, "snapshot", "--config", cfgFile, "--metric", "IV", "--out", svgFile, quoteFile); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	data, err := os.ReadFile(svgFile)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(data)
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, "spy_quotedata.csv: IV") {
		t.Errorf("unexpected svg: %.200s", svg)
	}

	if _, err := execute(t, "snapshot", "--config", cfgFile, "--metric", "Theta", quoteFile); err == nil {
		t.Error("expected error for an unknown metric")
	}
}

func TestConfigCommand(t *testing.T) {
	_, _, cfgFile := setup(t)
	if _, err := execute(t, "config", "--config", cfgFile); err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.File != cfgFile {
		t.Errorf("loaded config: level %q file %q", cfg.Logging.Level, cfg.File)
	}
}

func TestEngineOptions(t *testing.T) {
	c := config.Default()
	opts := engineOptions(c)
	if opts.MaxBytes != 32<<20 || opts.FrameRate != 30 || opts.Fetcher == nil {
		t.Errorf("opts = %+v", opts)
	}
	if opts.View.Metric != "Ask" || opts.Background != "#101428" {
		t.Errorf("view = %+v background %q", opts.View, opts.Background)
	}
	if !strings.Contains(opts.Instructions, "W / S") {
		t.Error("instructions not wired")
	}
}
