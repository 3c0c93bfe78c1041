package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelforge/pkg/buildinfo"
	"github.com/matzehuels/pixelforge/pkg/errors"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The configuration is loaded in PersistentPreRunE, so every subcommand sees
// the file and environment settings before applying its own flags.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "pixelforge turns pseudo pixel art into exact block grids",
		Long:         `pixelforge reconstructs the block grid hidden in AI-generated "pseudo pixel art": it finds the content bounds, infers the block size and re-quantizes the image into a rectangle-list SVG plus a one-pixel-per-block editable PNG.`,
		Version:      buildinfo.Resolve(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.New(errors.ErrCodeInvalidInput, "%v", err)
	})
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pixelforge/config.toml)")

	// Register all subcommands
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.estimateCommand())
	root.AddCommand(c.boundsCommand())
	root.AddCommand(c.materializeCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.removeBackgroundCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
