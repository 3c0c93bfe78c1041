package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pixelforge/pkg/config"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/estimate"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
	"github.com/matzehuels/pixelforge/pkg/raster"
	"github.com/matzehuels/pixelforge/pkg/render/sink"
	"github.com/matzehuels/pixelforge/pkg/session"
)

const (
	reportTable = "table"
	reportJSON  = "json"
	reportYAML  = "yaml"
)

// estimateOpts holds the command-line flags for the estimate command.
type estimateOpts struct {
	candidates string // comma-separated block sizes
	format     string // report format: table, json, yaml
	pick       bool   // choose the block size interactively
	svgOut     string // write the reconstruction at the chosen size
	threshold  int
	noCache    bool
}

// estimateCommand creates the estimate command.
func (c *CLI) estimateCommand() *cobra.Command {
	var opts estimateOpts

	cmd := &cobra.Command{
		Use:   "estimate <image>",
		Short: "Score candidate block sizes and pick the best",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				opts.threshold = c.Config.AlphaThreshold
			}
			switch opts.format {
			case reportTable, reportJSON, reportYAML:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid report format %q (must be table, json or yaml)", opts.format)
			}
			return c.runEstimate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.candidates, "candidates", "c", "", "candidate block sizes (default from config, e.g. 8,16,24,32)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", reportTable, "report format: table, json, yaml")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the block size interactively")
	cmd.Flags().StringVar(&opts.svgOut, "svg-out", "", "write the reconstruction at the chosen size as SVG")
	cmd.Flags().IntVar(&opts.threshold, "threshold", pipeline.DefaultThreshold, "minimum alpha of a visible pixel (0-255)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runEstimate(ctx context.Context, w io.Writer, input string, opts estimateOpts) error {
	candidates := c.Config.Candidates
	if opts.candidates != "" {
		var err error
		if candidates, err = config.ParseCandidates(opts.candidates); err != nil {
			return err
		}
	}
	popts := pipeline.Options{
		Candidates: candidates,
		Threshold:  pipeline.IntPtr(opts.threshold),
		Workers:    c.Config.Workers,
		Logger:     c.Logger,
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

	res, err := runner.Estimate(ctx, img, popts)
	if err != nil {
		return err
	}

	chosen := res.Estimate.BlockSize
	if opts.pick {
		picked, err := pickBlockSize(res.Estimate)
		if err != nil {
			return err
		}
		if picked == 0 {
			printInfo("No block size selected")
			return nil
		}
		chosen = picked
	} else if err := writeReport(w, res.Estimate, opts.format); err != nil {
		return err
	}

	if opts.svgOut != "" {
		svg := res.SVG
		if chosen != res.Estimate.BlockSize {
			popts.BlockSize = chosen
			popts.Formats = []string{pipeline.FormatSVG}
			conv, err := runner.Convert(ctx, img, popts)
			if err != nil {
				return err
			}
			svg = conv.Artifacts[pipeline.FormatSVG]
		}
		if svg == nil {
			printWarning("No reconstruction at %dpx, %s not written", chosen, opts.svgOut)
		} else {
			if err := sink.WriteFile(opts.svgOut, svg); err != nil {
				return err
			}
			printFile(opts.svgOut)
		}
	}

	if opts.format == reportTable {
		printSuccess("Block size %s", StyleNumber.Render(fmt.Sprintf("%dpx", chosen)))
	}
	c.rememberBlockSize(ctx, chosen)
	return nil
}

// pickBlockSize runs the interactive picker and returns the chosen size,
// or 0 if the user quit.
func pickBlockSize(est *estimate.Estimate) (int, error) {
	final, err := tea.NewProgram(NewBlockSizePickerModel(est)).Run()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "block size picker")
	}
	return final.(BlockSizePickerModel).Selected, nil
}

// writeReport prints the estimate in the requested report format.
func writeReport(w io.Writer, est *estimate.Estimate, format string) error {
	switch format {
	case reportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	case reportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(est); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, renderScoreTable(est))
		return err
	}
}

// rememberBlockSize records the chosen size in the session.
func (c *CLI) rememberBlockSize(ctx context.Context, blockSize int) {
	c.updateSession(ctx, func(s session.Session) session.Session {
		return s.WithConversion(session.Conversion{DetectedBlockSize: blockSize})
	})
}
