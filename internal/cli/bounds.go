package cli

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/grid"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
	"github.com/matzehuels/pixelforge/pkg/raster"
)

// boundsCommand creates the bounds command, which prints the visible
// content bounding box of an image.
func (c *CLI) boundsCommand() *cobra.Command {
	var (
		threshold int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "bounds <image>",
		Short: "Print the visible content bounding box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				threshold = c.Config.AlphaThreshold
			}
			if err := errors.ValidateThreshold(threshold); err != nil {
				return err
			}
			img, err := raster.Load(args[0])
			if err != nil {
				return err
			}
			b, err := grid.ScanBounds(img, uint8(threshold))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			r := b.Rect()
			printKeyValue("first", point(b.First))
			printKeyValue("last", point(b.Last))
			printKeyValue("leftmost", point(b.Leftmost))
			printKeyValue("rightmost", point(b.Rightmost))
			printKeyValue("content", fmt.Sprintf("%dx%d at %s", r.Dx(), r.Dy(), point(r.Min)))
			return nil
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", pipeline.DefaultThreshold, "minimum alpha of a visible pixel (0-255)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the bounds as JSON")

	return cmd
}

func point(p image.Point) string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}
