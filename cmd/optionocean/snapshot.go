package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/optionocean/internal/quotes"
	"github.com/seenimoa/optionocean/internal/render"
	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/models"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot FILE",
	Short: "Render a quote table as an SVG heatmap",
	Long: `Render the marker field top-down as an SVG heatmap: expirations
across, strikes down, each cell filled with the metric gradient.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		metric, _ := cmd.Flags().GetString("metric")
		out, _ := cmd.Flags().GetString("out")
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")

		if metric != "" && !models.IsKnownMetric(metric) {
			return fmt.Errorf("unknown metric %q", metric)
		}

		t, err := quotes.ReadFile(args[0], int64(cfg.Data.MaxUploadMB)<<20)
		if err != nil {
			return err
		}

		params := cfg.View.Params()
		if metric != "" {
			params.Metric = metric
		}
		s := scene.NewSession(render.NewRetained(), cfg.Grid.Layout(), params, nil)
		s.Load(t)
		defer s.Close()

		chart := render.DefaultChartConfig()
		chart.Width, chart.Height = width, height
		chart.Title = fmt.Sprintf("%s: %s", t.Source, params.Metric)

		w := cmd.OutOrStdout()
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := render.WriteHeatmap(w, render.FieldOf(s), chart); err != nil {
			return err
		}
		if out != "" && out != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d markers)\n", out, len(s.Markers()))
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringP("metric", "m", "", "metric for height and color (default: view.metric)")
	snapshotCmd.Flags().StringP("out", "o", "", "output file (default: stdout)")
	snapshotCmd.Flags().Int("width", 900, "image width")
	snapshotCmd.Flags().Int("height", 600, "image height")
}
