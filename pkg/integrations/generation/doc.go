// Package generation provides an HTTP client for a text-to-image service.
//
// # Overview
//
// The service renders "pseudo pixel art": images that look pixelated but
// whose blocks are blurry, uneven or slightly misaligned. pixelforge then
// reconstructs the exact block grid from the result.
//
// # Usage
//
//	client := generation.NewClient(baseURL, token, cache)
//
//	res, err := client.Generate(ctx, generation.Request{
//	    Prompt: "a red fox, 16-bit pixel art",
//	    Seed:   &seed,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	png, err := client.Fetch(ctx, res.ImageURL)
//
// The prompt is sent verbatim. Requests run synchronously; the response
// carries the result image URL, the seed actually used and a request ID.
package generation
