package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/integrations/generation"
	"github.com/matzehuels/pixelforge/pkg/integrations/rmbg"
	"github.com/matzehuels/pixelforge/pkg/render/sink"
	"github.com/matzehuels/pixelforge/pkg/session"
)

// resultName names a downloaded service result "<YYYYMMDD>_<id>_<suffix>.png",
// where id is the first four characters of the request ID.
func resultName(now time.Time, requestID, suffix string) string {
	id := "0000"
	if len(requestID) >= 4 {
		id = requestID[:4]
	} else if requestID != "" {
		id = requestID
	}
	return fmt.Sprintf("%s_%s_%s.png", now.Format("20060102"), id, suffix)
}

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	seed     int
	negative string
	aspect   string
	steps    int
	output   string
}

// generateCommand creates the generate command, which asks the generation
// service for an image and downloads it.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate an image with the generation service",
		Long: `Generate sends the prompt verbatim to the generation service, downloads
the result and records it in the session so that convert can pick it up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := generation.Request{
				Prompt:         args[0],
				NegativePrompt: opts.negative,
				AspectRatio:    opts.aspect,
				Steps:          opts.steps,
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &opts.seed
			}
			return c.runGenerate(cmd.Context(), req, opts.output)
		},
	}

	cmd.Flags().IntVar(&opts.seed, "seed", 0, "random seed (default random)")
	cmd.Flags().StringVar(&opts.negative, "negative", "", "negative prompt")
	cmd.Flags().StringVar(&opts.aspect, "aspect", "1:1", "aspect ratio")
	cmd.Flags().IntVar(&opts.steps, "steps", 50, "inference steps")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <date>_<id>_image.png)")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, req generation.Request, output string) error {
	ch, err := c.newCache(ctx, false)
	if err != nil {
		return err
	}
	defer ch.Close()

	client, err := c.newGenerationClient(ch)
	if err != nil {
		return err
	}

	res, err := spin(ctx, "Generating image...", func(ctx context.Context) (generation.Result, error) {
		return client.Generate(ctx, req)
	})
	if err != nil {
		return err
	}
	c.Logger.Debug("generated", "request_id", res.RequestID, "seed", res.Seed, "url", res.ImageURL)

	if output == "" {
		output = resultName(time.Now(), res.RequestID, "image")
	}
	if err := c.download(ctx, client.Fetch, res.ImageURL, output); err != nil {
		return err
	}

	printSuccess("Generated image")
	printFile(output)
	if res.Seed != 0 {
		printKeyValue("seed", fmt.Sprint(res.Seed))
	}

	c.updateSession(ctx, func(s session.Session) session.Session {
		return s.WithGenerated(session.Generated{
			Prompt:   req.Prompt,
			Path:     output,
			ImageURL: res.ImageURL,
			Seed:     res.Seed,
		})
	})
	printNextStep("Reconstruct the grid", appName+" convert --auto")
	return nil
}

// removeBackgroundCommand creates the remove-bg command.
func (c *CLI) removeBackgroundCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "remove-bg [image]",
		Short: "Remove the background with the background-removal service",
		Long: `Remove-bg uploads the image to the background-removal service and downloads
the result with transparency preserved.

Without an image argument the editable raster from the last convert is used,
or else the last generated image.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRemoveBackground(cmd.Context(), args, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <date>_<id>_nobg.png)")

	return cmd
}

func (c *CLI) runRemoveBackground(ctx context.Context, args []string, output string) error {
	sessions, err := c.newSessionStore()
	if err != nil {
		return err
	}
	sess, err := sessions.Latest(ctx)
	if err != nil {
		return err
	}

	input := sess.RemoveBackgroundInput()
	if len(args) > 0 {
		input = args[0]
	}
	if input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no image given and none in the session")
	}
	data, err := os.ReadFile(input)
	if os.IsNotExist(err) {
		return errors.New(errors.ErrCodeFileNotFound, "file not found: %s", input)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "read %s", input)
	}

	ch, err := c.newCache(ctx, false)
	if err != nil {
		return err
	}
	defer ch.Close()

	client, err := c.newRemovalClient(ch)
	if err != nil {
		return err
	}

	res, err := spin(ctx, "Removing background...", func(ctx context.Context) (rmbg.Result, error) {
		return client.Remove(ctx, data)
	})
	if err != nil {
		return err
	}

	if output == "" {
		output = resultName(time.Now(), res.RequestID, "nobg")
	}
	if err := c.download(ctx, client.Fetch, res.ImageURL, output); err != nil {
		return err
	}

	printSuccess("Removed background")
	printFile(output)
	return sessions.Save(ctx, sess.WithNoBackground(output))
}

// download fetches url and writes it to path.
func (c *CLI) download(ctx context.Context, fetch func(context.Context, string) ([]byte, error), url, path string) error {
	data, err := spin(ctx, "Downloading...", func(ctx context.Context) ([]byte, error) {
		return fetch(ctx, url)
	})
	if err != nil {
		return err
	}
	c.Logger.Debug("downloaded", "url", url, "bytes", len(data))
	return sink.WriteFile(path, data)
}
