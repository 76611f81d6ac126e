package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seenimoa/optionocean/internal/quotes"
	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/models"
	"github.com/seenimoa/optionocean/pkg/utils"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [FILE...]",
	Short: "Summarize quote tables",
	Long: `Parse one or more quote tables and print what the viewer would see:
row counts, the expiration and strike axes, and the range of every
metric. --symbol adds the delayed CBOE chain for a ticker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		symbols, _ := cmd.Flags().GetStringSlice("symbol")
		if len(args) == 0 && len(symbols) == 0 {
			return fmt.Errorf("give at least one FILE or --symbol")
		}
		tables, err := quotes.LoadAll(cmd.Context(), args, int64(cfg.Data.MaxUploadMB)<<20)
		if err != nil {
			return err
		}
		if len(symbols) > 0 {
			f := engineOptions(cfg).Fetcher
			for _, sym := range symbols {
				t, err := f.FetchChain(cmd.Context(), sym)
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}
		}
		params := cfg.View.Params()
		for i, t := range tables {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			printTable(cmd.OutOrStdout(), t, params)
		}
		return nil
	},
}

// printTable writes one table's summary.
func printTable(out io.Writer, t models.QuoteTable, params scene.ViewParameters) {
	axes := scene.DeriveAxes(t.Records)

	fmt.Fprintf(out, "%s\n", t.Source)
	fmt.Fprintf(out, "  rows:        %d accepted, %d short, %d bad strike (%d lines)\n",
		t.Stats.Rows, t.Stats.Skipped, t.Stats.BadStrike, t.Stats.Lines)
	fmt.Fprintf(out, "  records:     %d\n", len(t.Records))
	fmt.Fprintf(out, "  expirations: %d", axes.Width())
	if axes.Width() > 0 {
		fmt.Fprintf(out, " (%s .. %s)", axes.Expirations[0], axes.Expirations[axes.Width()-1])
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  strikes:     %d", axes.Height())
	if axes.Height() > 0 {
		fmt.Fprintf(out, " (%s .. %s)",
			utils.FormatStrike(axes.Strikes[0]), utils.FormatStrike(axes.Strikes[axes.Height()-1]))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "  METRIC\tSIDE\tMIN\tMAX\t")
	for _, m := range models.MetricNames {
		p := params
		p.ShowCalls, p.ShowPuts = true, true
		r := scene.DeriveRange(t.Records, m, p)
		lo, hi := "-", "-"
		if r.Valid {
			lo, hi = utils.FormatMetric(m, r.Min), utils.FormatMetric(m, r.Max)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t\n", m, models.MetricSide(m), lo, hi)
	}
	tw.Flush()
}

func init() {
	inspectCmd.Flags().StringSlice("symbol", nil, "ticker whose delayed CBOE chain to inspect (repeatable)")
}
