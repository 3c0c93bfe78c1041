package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelforge/internal/server"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes convert, estimate, generate and remove-bg over HTTP. Inputs
and outputs are blobs in the configured store. The generate and remove-bg
routes are enabled only when the image services are configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	store, err := c.newBlobStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := server.Options{
		Runner: runner,
		Store:  store,
		Logger: c.Logger,
		Defaults: pipeline.Options{
			Candidates: c.Config.Candidates,
			Threshold:  pipeline.IntPtr(c.Config.AlphaThreshold),
			Workers:    c.Config.Workers,
		},
	}
	if _, _, err := c.services(); err == nil {
		if opts.Generator, err = c.newGenerationClient(runner.Cache); err != nil {
			return err
		}
		if opts.Remover, err = c.newRemovalClient(runner.Cache); err != nil {
			return err
		}
	} else {
		c.Logger.Warn("image services disabled", "reason", err)
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, addr)
}
