package server

import (
	"context"
	"image"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pixelforge/pkg/blob"
	"github.com/matzehuels/pixelforge/pkg/buildinfo"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/estimate"
	"github.com/matzehuels/pixelforge/pkg/integrations/generation"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
	"github.com/matzehuels/pixelforge/pkg/raster"
)

// defaultFormats are rendered when a convert request names none.
var defaultFormats = []string{pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatEditable}

// =============================================================================
// Request / Response Types
// =============================================================================

type convertRequest struct {
	ImageName  string   `json:"image_name"`
	BlockSize  int      `json:"block_size,omitempty"`
	AutoDetect bool     `json:"auto_detect,omitempty"`
	Threshold  *int     `json:"threshold,omitempty"`
	Candidates []int    `json:"candidates,omitempty"`
	Formats    []string `json:"formats,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	Scale      int      `json:"scale,omitempty"`
}

type blobRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type convertResponse struct {
	DetectedBlockSize int                `json:"detected_block_size"`
	BlockSource       string             `json:"block_source"`
	Rows              int                `json:"rows"`
	Blocks            int                `json:"blocks"`
	Estimate          *estimate.Estimate `json:"estimate,omitempty"`
	Files             map[string]blobRef `json:"files"`
	CacheHit          bool               `json:"cache_hit"`
}

type estimateRequest struct {
	ImageName  string `json:"image_name"`
	Candidates []int  `json:"candidates,omitempty"`
	Threshold  *int   `json:"threshold,omitempty"`
	StoreSVG   bool   `json:"store_svg,omitempty"`
}

type estimateResponse struct {
	BlockSize int              `json:"block_size"`
	Scores    []estimate.Score `json:"scores"` // best first
	CacheHit  bool             `json:"cache_hit"`
	SVG       *blobRef         `json:"svg,omitempty"`
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	Seed           *int   `json:"seed,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	Steps          int    `json:"steps,omitempty"`
}

type generateResponse struct {
	ImageName string `json:"image_name"`
	ImageURL  string `json:"image_url"`
	Seed      int    `json:"seed,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type removeBackgroundRequest struct {
	ImageName string `json:"image_name"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Generation bool   `json:"generation"`
	RemoveBg   bool   `json:"remove_bg"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Version:    buildinfo.Resolve(),
		Generation: s.generator != nil,
		RemoveBg:   s.remover != nil,
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()

	opts := s.options(req.Threshold, req.Candidates)
	opts.BlockSize = req.BlockSize
	opts.AutoDetect = req.AutoDetect
	opts.Formats = req.Formats
	if len(opts.Formats) == 0 {
		opts.Formats = slices.Clone(defaultFormats)
	}
	opts.Width, opts.Height = req.Width, req.Height
	if req.Scale != 0 {
		opts.Scale = req.Scale
	}
	opts.Source = path.Base(req.ImageName)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}

	img, err := s.loadImage(ctx, req.ImageName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.runner.Convert(ctx, img, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := convertResponse{
		DetectedBlockSize: result.BlockSize,
		BlockSource:       result.BlockSource,
		Rows:              result.Stats.Rows,
		Blocks:            result.Stats.Blocks,
		Estimate:          result.Estimate,
		Files:             make(map[string]blobRef, len(opts.Formats)),
		CacheHit:          result.CacheInfo.RenderHit,
	}
	for _, format := range opts.Formats {
		ref, err := s.put(ctx, pipeline.OutputName(req.ImageName, format, result.BlockSize), result.Artifacts[format])
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Files[format] = ref
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()

	img, err := s.loadImage(ctx, req.ImageName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Estimate(ctx, img, s.options(req.Threshold, req.Candidates))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := estimateResponse{
		BlockSize: res.Estimate.BlockSize,
		Scores:    res.Estimate.Ranked(),
		CacheHit:  res.CacheHit,
	}
	if req.StoreSVG && res.SVG != nil {
		ref, err := s.put(ctx, pipeline.OutputName(req.ImageName, pipeline.FormatSVG, res.Estimate.BlockSize), res.SVG)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.SVG = &ref
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "image generation is not configured"))
		return
	}
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()

	res, err := s.generator.Generate(ctx, generation.Request{
		Prompt:         req.Prompt,
		Seed:           req.Seed,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		Steps:          req.Steps,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := s.generator.Fetch(ctx, res.ImageURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := s.put(ctx, blob.NewName("images", ".png"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		ImageName: ref.Name,
		ImageURL:  ref.URL,
		Seed:      res.Seed,
		RequestID: res.RequestID,
	})
}

func (s *Server) handleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	if s.remover == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "background removal is not configured"))
		return
	}
	var req removeBackgroundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()

	data, err := s.get(ctx, req.ImageName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.remover.Remove(ctx, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.remover.Fetch(ctx, res.ImageURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSuffix(req.ImageName, path.Ext(req.ImageName)) + "_nobg.png"
	ref, err := s.put(ctx, name, out)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{ImageName: ref.Name, ImageURL: ref.URL, RequestID: res.RequestID})
}

func (s *Server) handleListBlobs(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if infos == nil {
		infos = []blob.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"blobs": infos})
}

func (s *Server) handleDeleteBlob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	ok, err := s.store.Delete(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "blob not found: %s", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	data, err := s.get(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType(name))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

// options returns fresh pipeline options seeded from the server defaults.
func (s *Server) options(threshold *int, candidates []int) pipeline.Options {
	opts := pipeline.Options{
		Candidates: s.defaults.Candidates,
		Threshold:  s.defaults.Threshold,
		Workers:    s.defaults.Workers,
		Scale:      s.defaults.Scale,
		Logger:     s.logger,
	}
	if threshold != nil {
		opts.Threshold = threshold
	}
	if len(candidates) > 0 {
		opts.Candidates = candidates
	}
	return opts
}

// get reads a named blob; a missing blob is NOT_FOUND.
func (s *Server) get(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image_name is required")
	}
	if err := errors.ValidateBlobName(name); err != nil {
		return nil, err
	}
	data, ok, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "blob not found: %s", name)
	}
	return data, nil
}

// loadImage reads and decodes a named blob.
func (s *Server) loadImage(ctx context.Context, name string) (*image.NRGBA, error) {
	data, err := s.get(ctx, name)
	if err != nil {
		return nil, err
	}
	return raster.DecodeBytes(data)
}

// put stores data and returns its reference.
func (s *Server) put(ctx context.Context, name string, data []byte) (blobRef, error) {
	url, err := s.store.Put(ctx, name, data)
	if err != nil {
		return blobRef{}, err
	}
	return blobRef{Name: name, URL: url}, nil
}
