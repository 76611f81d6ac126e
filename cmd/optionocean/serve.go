package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/optionocean/api"
	"github.com/seenimoa/optionocean/internal/engine"
	"github.com/seenimoa/optionocean/internal/render"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the viewer server",
	Long: `Start the HTTP server. Open the printed address in a browser to fly
through the quote table; upload other tables from the page or the API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Server.Host = host
		}
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			cfg.Data.DefaultFile = file
		}
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			cfg.Server.ServeUI = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := slog.Default()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hub := api.NewWSHub(log.With("component", "ws"))
		eng := engine.New(engineOptions(cfg), render.NewRetained(), hub, log.With("component", "engine"))
		srv := api.NewServer(cfg, eng, hub, log.With("component", "api"))

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("Option Particle Ocean listening on http://%s\n", addr)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return hub.Run(gctx) })
		g.Go(func() error { return eng.Run(gctx) })
		g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
		if file := cfg.Data.DefaultFile; file != "" {
			g.Go(func() error {
				loadDefault(gctx, eng, file, log)
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides server.port)")
	serveCmd.Flags().String("host", "", "listen host (overrides server.host)")
	serveCmd.Flags().StringP("file", "f", "", "quote file shown at startup (overrides data.default_file)")
	serveCmd.Flags().Bool("no-ui", false, "serve the API only")
}

// loadDefault shows the startup quote file. A missing file leaves the
// ocean empty until something is uploaded.
func loadDefault(ctx context.Context, eng *engine.Engine, file string, log *slog.Logger) {
	res, err := eng.LoadFile(ctx, file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("default quote file not found; waiting for an upload", "file", file)
	case err != nil:
		log.Warn("default quote file not loaded", "file", file, "error", err)
	default:
		log.Info("default quote file loaded",
			"file", file, "records", res.Records, "markers", res.Markers, "load_id", res.ID)
	}
}
