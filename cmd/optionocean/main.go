// Option Particle Ocean: an option-chain quote table drawn as a 3D field
// of glowing markers.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/optionocean/api"
	"github.com/seenimoa/optionocean/internal/config"
	"github.com/seenimoa/optionocean/internal/engine"
	"github.com/seenimoa/optionocean/internal/logger"
	"github.com/seenimoa/optionocean/internal/quotes"
	"github.com/seenimoa/optionocean/web"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "optionocean",
	Short: "Option Particle Ocean: a 3D view of an option quote table",
	Long: `Option Particle Ocean
Reads CBOE option quote tables and shows every contract as a glowing
marker: expirations across, strikes in depth, and the chosen metric as
height and color. Serve it to a browser, inspect tables from the shell,
or render a static SVG heatmap.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger.Init(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		api.Version = version
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(configCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("optionocean %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Config Command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		if cfg.File != "" {
			fmt.Printf("# loaded from %s\n", cfg.File)
		}
		fmt.Print(string(out))
		return nil
	},
}

// engineOptions maps the configuration onto the engine.
func engineOptions(cfg *config.Config) engine.Options {
	maxBytes := int64(cfg.Data.MaxUploadMB) << 20
	return engine.Options{
		View:      cfg.View.Params(),
		Layout:    cfg.Grid.Layout(),
		Camera:    cfg.Camera.Config(),
		FrameRate: cfg.Server.FrameRate,
		MaxBytes:  maxBytes,
		Fetcher: quotes.NewFetcher(
			time.Duration(cfg.Data.FetchTimeoutSec)*time.Second,
			time.Duration(cfg.Data.CacheTTL)*time.Second,
			maxBytes,
		),
		Title:        cfg.UI.Title,
		TitleFadeSec: cfg.UI.TitleFadeSec,
		Background:   cfg.UI.Background,
		Instructions: web.Instructions(),
	}
}
