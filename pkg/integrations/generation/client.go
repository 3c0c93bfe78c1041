package generation

import (
	"cmp"
	"context"
	"strings"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/integrations"
)

// Defaults applied to zero-valued request fields.
const (
	DefaultAspectRatio = "1:1"
	DefaultSteps       = 50
	guidanceScale      = 5
	endpoint           = "/image/generate"
)

// Request describes one generation call.
type Request struct {
	Prompt         string
	Seed           *int // nil lets the service pick
	NegativePrompt string
	AspectRatio    string // default "1:1"
	Steps          int    // default 50
}

// Result is the outcome of a generation call.
type Result struct {
	ImageURL  string `json:"image_url"`
	Seed      int    `json:"seed"`
	RequestID string `json:"request_id"`
}

type payload struct {
	Prompt         string `json:"prompt"`
	Sync           bool   `json:"sync"`
	Seed           *int   `json:"seed,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	AspectRatio    string `json:"aspect_ratio"`
	StepsNum       int    `json:"steps_num"`
	GuidanceScale  int    `json:"guidance_scale"`
}

type response struct {
	Result struct {
		ImageURL string `json:"image_url"`
		Seed     int    `json:"seed"`
	} `json:"result"`
	RequestID string `json:"request_id"`
}

// Client generates images.
type Client struct {
	*integrations.Client
}

// NewClient creates a generation client. The token is sent in the
// api_token header. A nil cache disables download caching.
func NewClient(baseURL, token string, c cache.Cache) *Client {
	return &Client{integrations.NewClient(baseURL, c, map[string]string{"api_token": token})}
}

// Generate renders an image for req.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "prompt cannot be empty")
	}
	if req.Steps < 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "steps must be positive, got %d", req.Steps)
	}

	body := payload{
		Prompt:         req.Prompt,
		Sync:           true,
		Seed:           req.Seed,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    cmp.Or(req.AspectRatio, DefaultAspectRatio),
		StepsNum:       cmp.Or(req.Steps, DefaultSteps),
		GuidanceScale:  guidanceScale,
	}

	var resp response
	if err := c.PostJSON(ctx, endpoint, body, &resp); err != nil {
		return Result{}, err
	}
	if resp.Result.ImageURL == "" {
		return Result{}, errors.New(errors.ErrCodeNetwork, "generation response has no image URL")
	}
	return Result{
		ImageURL:  resp.Result.ImageURL,
		Seed:      resp.Result.Seed,
		RequestID: resp.RequestID,
	}, nil
}
