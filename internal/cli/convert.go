package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelforge/pkg/blob"
	"github.com/matzehuels/pixelforge/pkg/config"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
	"github.com/matzehuels/pixelforge/pkg/raster"
	"github.com/matzehuels/pixelforge/pkg/render/sink"
	"github.com/matzehuels/pixelforge/pkg/session"
)

// paletteSize is how many block colors convert lists.
const paletteSize = 6

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output    string // output file (single format) or base path (multiple)
	formats   string // comma-separated: svg, json, png, editable
	blockSize int    // explicit block size in pixels
	auto      bool   // estimate the block size
	threshold int    // minimum visible alpha
	workers   int    // concurrent row scans
	scale     int    // svg display pixels per block
	width     int    // png width
	height    int    // png height
	noCache   bool   // bypass the estimate/artifact cache
	refresh   bool   // recompute and overwrite cached entries
	upload    bool   // also put every artifact into the blob store
}

// convertCommand creates the convert command.
//
// Block size resolution: --block-size wins, then --auto runs the estimator,
// then a configured block_size other than the default, then the default.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [image]",
		Short: "Reconstruct the block grid of a pseudo pixel art image",
		Long: `Convert finds the visible content of the image, scans it row by row in
blocks of the chosen size and writes the dominant color of every block.

Without an image argument the image from the last generate is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("block-size") {
				opts.blockSize = 0
			}
			if !cmd.Flags().Changed("threshold") {
				opts.threshold = c.Config.AlphaThreshold
			}
			if !cmd.Flags().Changed("workers") {
				opts.workers = c.Config.Workers
			}
			return c.runConvert(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), json, png, editable (comma-separated)")
	cmd.Flags().IntVarP(&opts.blockSize, "block-size", "b", pipeline.DefaultBlockSize, "block size in pixels")
	cmd.Flags().BoolVarP(&opts.auto, "auto", "a", false, "estimate the block size")
	cmd.Flags().IntVar(&opts.threshold, "threshold", pipeline.DefaultThreshold, "minimum alpha of a visible pixel (0-255)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "concurrent row scans")
	cmd.Flags().IntVar(&opts.scale, "scale", 1, "svg display pixels per block")
	cmd.Flags().IntVar(&opts.width, "width", 0, "png width (default source width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "png height (default source height)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached results")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload artifacts to the blob store")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, args []string, opts convertOpts) error {
	sessions, err := c.newSessionStore()
	if err != nil {
		return err
	}
	sess, err := sessions.Latest(ctx)
	if err != nil {
		return err
	}

	input := sess.ConvertInput()
	if len(args) > 0 {
		input = args[0]
	}
	if input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no image given and no generated image in the session")
	}

	popts := c.pipelineOptions(input, opts)
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	img, err := raster.Load(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Convert(ctx, img, popts)
	if err != nil {
		return err
	}
	prog.done("Converted "+filepath.Base(input), "block_size", result.BlockSize, "source", result.BlockSource)

	conv := session.Conversion{DetectedBlockSize: result.BlockSize}
	written := make(map[string]string, len(popts.Formats))
	multi := len(popts.Formats) > 1
	for _, format := range popts.Formats {
		path := outputPath(input, opts.output, format, result.BlockSize, multi)
		if err := sink.WriteFile(path, result.Artifacts[format]); err != nil {
			return err
		}
		written[format] = path
		switch format {
		case pipeline.FormatSVG:
			conv.SVG = path
		case pipeline.FormatPNG:
			conv.Raster = path
		case pipeline.FormatEditable:
			conv.Editable = path
		}
	}

	printSuccess("Converted %s", filepath.Base(input))
	printStats(gridStats{
		BlockSize: result.BlockSize,
		Source:    result.BlockSource,
		Rows:      result.Stats.Rows,
		Blocks:    result.Stats.Blocks,
		Width:     result.Vector.Width,
		Height:    result.Vector.Height,
		Cached:    result.CacheInfo.RenderHit,
	})
	printPalette(result.Vector, paletteSize)
	for _, format := range popts.Formats {
		printFile(written[format])
	}

	if opts.upload {
		if err := c.uploadArtifacts(ctx, popts.Formats, written, result.Artifacts); err != nil {
			return err
		}
	}

	if err := sessions.Save(ctx, sess.WithConversion(conv)); err != nil {
		c.Logger.Warn("could not save session", "err", err)
	}
	if conv.Editable == "" && conv.Raster == "" {
		printNextStep("Materialize rasters", appName+" materialize "+written[popts.Formats[0]])
	}
	return nil
}

// pipelineOptions maps flags and config onto pipeline options.
func (c *CLI) pipelineOptions(input string, opts convertOpts) pipeline.Options {
	popts := pipeline.Options{
		BlockSize:  opts.blockSize,
		AutoDetect: opts.auto,
		Candidates: c.Config.Candidates,
		Threshold:  pipeline.IntPtr(opts.threshold),
		Workers:    opts.workers,
		Formats:    parseFormats(opts.formats),
		Width:      opts.width,
		Height:     opts.height,
		Scale:      opts.scale,
		Source:     filepath.Base(input),
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	}
	if popts.BlockSize == 0 && !popts.AutoDetect && c.Config.BlockSize != config.DefaultBlockSize {
		popts.BlockSize = c.Config.BlockSize
	}
	return popts
}

// uploadArtifacts puts each written artifact into the blob store.
func (c *CLI) uploadArtifacts(ctx context.Context, formats []string, written map[string]string, artifacts map[string][]byte) error {
	store, err := c.newBlobStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, format := range formats {
		name := blob.NewName("artifacts", filepath.Ext(written[format]))
		url, err := store.Put(ctx, name, artifacts[format])
		if err != nil {
			return err
		}
		printKeyValue(format, StyleLink.Render(url))
	}
	return nil
}
