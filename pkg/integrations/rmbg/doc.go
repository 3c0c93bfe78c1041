// Package rmbg provides an HTTP client for a background-removal service.
//
// The service receives the image base64-encoded and returns the URL of a
// copy whose background is transparent. Existing alpha is preserved, so
// editable rasters keep their block edges.
//
//	client := rmbg.NewClient(baseURL, token, cache)
//	res, err := client.Remove(ctx, pngBytes)
//	out, err := client.Fetch(ctx, res.ImageURL)
package rmbg
