// Package integrations provides HTTP clients for the image services
// pixelforge collaborates with.
//
// # Overview
//
// Each service has its own subpackage:
//
//   - [generation]: text-to-image generation of pseudo pixel art
//   - [rmbg]: background removal preserving alpha
//
// # Client Pattern
//
// Service clients embed the shared [Client], which handles JSON requests,
// default headers, retries and result downloads:
//
//	gen := generation.NewClient(baseURL, token, c)
//	res, err := gen.Generate(ctx, generation.Request{Prompt: "a red fox"})
//	png, err := gen.Fetch(ctx, res.ImageURL)
//
// Network failures and 5xx responses are retried with backoff; 404 maps to
// [ErrNotFound] and 429 to a rate-limited error. Errors returned to callers
// carry pkg/errors codes (NOT_FOUND, NETWORK_ERROR, TIMEOUT, RATE_LIMITED).
//
// # Caching
//
// [Client.Fetch] stores downloads in a [cache.Cache] keyed by URL, so result
// images are fetched once even when several commands reuse them.
//
// [generation]: github.com/matzehuels/pixelforge/pkg/integrations/generation
// [rmbg]: github.com/matzehuels/pixelforge/pkg/integrations/rmbg
// [cache.Cache]: github.com/matzehuels/pixelforge/pkg/cache.Cache
package integrations
