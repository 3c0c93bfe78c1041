package rmbg

import (
	"context"
	"encoding/base64"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/integrations"
)

const endpoint = "/image/edit/remove_background"

// Result is the outcome of a background removal.
type Result struct {
	ImageURL  string `json:"image_url"`
	RequestID string `json:"request_id"`
}

type payload struct {
	Image         string `json:"image"`
	PreserveAlpha bool   `json:"preserve_alpha"`
	Sync          bool   `json:"sync"`
}

type response struct {
	Result struct {
		ImageURL string `json:"image_url"`
	} `json:"result"`
	RequestID string `json:"request_id"`
}

// Client removes image backgrounds.
type Client struct {
	*integrations.Client
}

// NewClient creates a background-removal client.
func NewClient(baseURL, token string, c cache.Cache) *Client {
	return &Client{integrations.NewClient(baseURL, c, map[string]string{"api_token": token})}
}

// Remove uploads data and returns the URL of the background-free image.
func (c *Client) Remove(ctx context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "image data cannot be empty")
	}

	body := payload{
		Image:         base64.StdEncoding.EncodeToString(data),
		PreserveAlpha: true,
		Sync:          true,
	}
	var resp response
	if err := c.PostJSON(ctx, endpoint, body, &resp); err != nil {
		return Result{}, err
	}
	if resp.Result.ImageURL == "" {
		return Result{}, errors.New(errors.ErrCodeNetwork, "background removal response has no image URL")
	}
	return Result{ImageURL: resp.Result.ImageURL, RequestID: resp.RequestID}, nil
}
