package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/estimate"
)

var green = color.NRGBA{0, 255, 0, 255}

func greenSquare() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			img.SetNRGBA(x, y, green)
		}
	}
	return img
}

// blocky draws size×size pixels of block×block tiles with varied colors.
func blocky(size, block int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			bx, by := x/block, y/block
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((bx*97 + by*31) % 256),
				G: uint8((bx*13 + by*151) % 256),
				B: uint8((bx*53 + by*71 + 40) % 256),
				A: 255,
			})
		}
	}
	return img
}

// countingEstimator counts calls to the wrapped estimator.
type countingEstimator struct {
	estimate.Estimator
	calls int
}

func (c *countingEstimator) Estimate(img *image.NRGBA, candidates []int) (*estimate.Estimate, error) {
	c.calls++
	return c.Estimator.Estimate(img, candidates)
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"png", false},
		{"editable", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %q", tt.format, errors.GetCode(err))
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.AlphaThreshold() != DefaultThreshold {
		t.Errorf("AlphaThreshold() = %d, want %d", opts.AlphaThreshold(), DefaultThreshold)
	}
	if !slices.Equal(opts.Formats, []string{FormatSVG}) {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if !slices.Equal(opts.Candidates, estimate.DefaultCandidates) {
		t.Errorf("Candidates = %v", opts.Candidates)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	zero := Options{Threshold: IntPtr(0)}
	zero.ValidateAndSetDefaults()
	if zero.AlphaThreshold() != 0 {
		t.Errorf("explicit zero threshold became %d", zero.AlphaThreshold())
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative block size", Options{BlockSize: -4}, errors.ErrCodeInvalidBlockSize},
		{"duplicate candidates", Options{Candidates: []int{8, 8}}, errors.ErrCodeInvalidBlockSize},
		{"threshold range", Options{Threshold: IntPtr(256)}, errors.ErrCodeInvalidThreshold},
		{"format", Options{Formats: []string{"svg", "gif"}}, errors.ErrCodeInvalidFormat},
		{"workers", Options{Workers: -1}, errors.ErrCodeInvalidInput},
		{"raster size", Options{Width: -1}, errors.ErrCodeInvalidInput},
		{"raster side", Options{Width: errors.MaxRasterDimension + 1}, errors.ErrCodeInvalidInput},
		{"raster area", Options{Width: 1 << 31, Height: 1 << 31}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %q, want %q", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestConvertGreenSquare(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	res, err := runner.Convert(context.Background(), greenSquare(), Options{
		BlockSize: 16,
		Formats:   []string{FormatSVG, FormatJSON, FormatPNG, FormatEditable},
	})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	if res.BlockSize != 16 || res.BlockSource != SourceExplicit {
		t.Errorf("block size = %d (%s)", res.BlockSize, res.BlockSource)
	}
	if res.Stats.Rows != 1 || res.Stats.Blocks != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Vector.Width != 1 || res.Vector.Height != 1 || len(res.Vector.Rects) != 1 {
		t.Fatalf("vector = %+v", res.Vector)
	}
	if r := res.Vector.Rects[0]; r.Fill != "#00FF00" || r.Opacity != 1 {
		t.Errorf("rect = %+v", r)
	}

	svg := string(res.Artifacts[FormatSVG])
	if !strings.Contains(svg, `viewBox="0 0 1 1"`) || !strings.Contains(svg, `fill="#00FF00"`) {
		t.Errorf("svg = %s", svg)
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"block_size": 16`) {
		t.Errorf("json = %s", res.Artifacts[FormatJSON])
	}

	full := decodePNG(t, res.Artifacts[FormatPNG])
	if full.Bounds().Dx() != 32 || full.Bounds().Dy() != 32 {
		t.Errorf("png size = %v, want source size", full.Bounds())
	}
	edit := decodePNG(t, res.Artifacts[FormatEditable])
	if edit.Bounds().Dx() != 1 || edit.Bounds().Dy() != 1 {
		t.Errorf("editable size = %v", edit.Bounds())
	}
	if r, g, b, _ := edit.At(0, 0).RGBA(); r != 0 || g != 0xffff || b != 0 {
		t.Errorf("editable pixel = %v", edit.At(0, 0))
	}
}

func TestConvertDefaultBlockSize(t *testing.T) {
	res, err := NewRunner(nil, nil, nil, nil).Convert(context.Background(), greenSquare(), Options{})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if res.BlockSize != DefaultBlockSize || res.BlockSource != SourceDefault {
		t.Errorf("block size = %d (%s)", res.BlockSize, res.BlockSource)
	}
	if res.Estimate != nil {
		t.Error("estimator should not run without AutoDetect")
	}
}

func TestConvertAutoDetect(t *testing.T) {
	est := &countingEstimator{Estimator: estimate.Gradient{}}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, est, nil)
	defer runner.Close()

	opts := Options{AutoDetect: true, Candidates: []int{8, 16, 32}, Formats: []string{FormatEditable}}
	img := blocky(128, 16)

	first, err := runner.Convert(context.Background(), img, opts)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if first.BlockSize != 16 || first.BlockSource != SourceEstimated || first.Estimate == nil {
		t.Fatalf("first = %d (%s)", first.BlockSize, first.BlockSource)
	}
	if first.Vector.Width != 8 || first.Vector.Height != 8 || len(first.Vector.Rects) != 64 {
		t.Errorf("vector %dx%d with %d rects", first.Vector.Width, first.Vector.Height, len(first.Vector.Rects))
	}
	if first.CacheInfo.EstimateHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit the cache: %+v", first.CacheInfo)
	}

	second, err := runner.Convert(context.Background(), img, opts)
	if err != nil {
		t.Fatalf("second Convert() error: %v", err)
	}
	if !second.CacheInfo.EstimateHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed the cache: %+v", second.CacheInfo)
	}
	if est.calls != 1 {
		t.Errorf("estimator ran %d times, want 1", est.calls)
	}
	if !bytes.Equal(first.Artifacts[FormatEditable], second.Artifacts[FormatEditable]) {
		t.Error("cached artifact differs from rendered artifact")
	}

	opts.Refresh = true
	if _, err := runner.Convert(context.Background(), img, opts); err != nil {
		t.Fatal(err)
	}
	if est.calls != 2 {
		t.Errorf("Refresh should bypass the estimate cache, calls = %d", est.calls)
	}
}

func TestConvertUnsupportedEstimatorFallsBack(t *testing.T) {
	none, _ := estimate.New(estimate.VariantNone)
	res, err := NewRunner(nil, nil, none, nil).Convert(context.Background(), greenSquare(), Options{AutoDetect: true})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if res.BlockSize != DefaultBlockSize || res.BlockSource != SourceDefault {
		t.Errorf("block size = %d (%s), want default", res.BlockSize, res.BlockSource)
	}
}

func TestConvertExplicitBeatsAutoDetect(t *testing.T) {
	est := &countingEstimator{Estimator: estimate.Gradient{}}
	res, err := NewRunner(nil, nil, est, nil).Convert(context.Background(), greenSquare(), Options{BlockSize: 8, AutoDetect: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.BlockSize != 8 || est.calls != 0 {
		t.Errorf("block size = %d, estimator calls = %d", res.BlockSize, est.calls)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		img  *image.NRGBA
		opts Options
		code errors.Code
	}{
		{"transparent", image.NewNRGBA(image.Rect(0, 0, 16, 16)), Options{}, errors.ErrCodeEmptyContent},
		{"bad format", greenSquare(), Options{Formats: []string{"bmp"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, nil, nil, nil).Convert(context.Background(), tt.img, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %q, want %q (err: %v)", errors.GetCode(err), tt.code, err)
			}
			if errors.ExitCode(err) == errors.ExitOK {
				t.Error("exit code should be non-zero")
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	res, err := NewRunner(nil, nil, nil, nil).Estimate(context.Background(), blocky(128, 16), Options{Candidates: []int{32, 8, 16}})
	if err != nil {
		t.Fatalf("Estimate() error: %v", err)
	}
	if res.Estimate.BlockSize != 16 {
		t.Errorf("BlockSize = %d, want 16", res.Estimate.BlockSize)
	}
	if len(res.Estimate.Scores) != 3 {
		t.Errorf("scores = %d", len(res.Estimate.Scores))
	}
	if res.Vector == nil || res.Vector.Width != 8 {
		t.Errorf("diagnostic vector = %+v", res.Vector)
	}
	if !bytes.Contains(res.SVG, []byte(`viewBox="0 0 8 8"`)) {
		t.Error("diagnostic svg missing viewBox")
	}
}

func TestEstimateKeepsScoresWithoutReconstruction(t *testing.T) {
	res, err := NewRunner(nil, nil, nil, nil).Estimate(context.Background(), image.NewNRGBA(image.Rect(0, 0, 32, 32)), Options{Candidates: []int{8, 16}})
	if err != nil {
		t.Fatalf("Estimate() error: %v", err)
	}
	if len(res.Estimate.Scores) != 2 {
		t.Errorf("scores = %d, want 2", len(res.Estimate.Scores))
	}
	if res.Vector != nil || res.SVG != nil {
		t.Error("transparent image produced a diagnostic reconstruction")
	}
}

func TestEstimateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(nil, nil, nil, nil).Estimate(ctx, blocky(64, 16), Options{})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEstimateUnsupported(t *testing.T) {
	none, _ := estimate.New(estimate.VariantNone)
	_, err := NewRunner(nil, nil, none, nil).Estimate(context.Background(), greenSquare(), Options{})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("code = %q, want UNSUPPORTED", errors.GetCode(err))
	}
	if errors.ExitCode(err) != errors.ExitInput {
		t.Errorf("exit code = %d, want %d", errors.ExitCode(err), errors.ExitInput)
	}
}

func TestMaterializeRoundTrip(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	res, err := runner.Convert(context.Background(), blocky(64, 16), Options{BlockSize: 16, Formats: []string{FormatSVG, FormatEditable}})
	if err != nil {
		t.Fatal(err)
	}

	mat, err := MaterializeBytes(res.Artifacts[FormatSVG], MaterializeOptions{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("Materialize() error: %v", err)
	}
	if mat.Skipped != 0 {
		t.Errorf("Skipped = %d", mat.Skipped)
	}
	if !bytes.Equal(mat.Editable, res.Artifacts[FormatEditable]) {
		t.Error("editable from parsed svg differs from direct render")
	}
	full := decodePNG(t, mat.Raster)
	if full.Bounds().Dx() != 64 {
		t.Errorf("raster width = %d", full.Bounds().Dx())
	}
}

func TestMaterializeSelectsOutputs(t *testing.T) {
	doc := []byte(`<svg viewBox="0 0 2 1"><rect x="0" y="0" width="1" height="1" fill="#FF0000"/><rect x="1" y="0" width="0" height="1"/></svg>`)
	mat, err := MaterializeBytes(doc, MaterializeOptions{Editable: true})
	if err != nil {
		t.Fatal(err)
	}
	if mat.Raster != nil || mat.Editable == nil {
		t.Errorf("outputs: raster=%v editable=%v", mat.Raster != nil, mat.Editable != nil)
	}
	if mat.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", mat.Skipped)
	}

	if _, err := MaterializeBytes([]byte("<html/>"), MaterializeOptions{}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("non-svg code = %q", errors.GetCode(err))
	}
}

func TestConvertRejectsHugeRaster(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	_, err := runner.Convert(context.Background(), greenSquare(), Options{
		BlockSize: 16,
		Formats:   []string{FormatPNG},
		Width:     1 << 31,
		Height:    1 << 31,
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("code = %q, want INVALID_INPUT", errors.GetCode(err))
	}
	if errors.ExitCode(err) != errors.ExitInput {
		t.Errorf("ExitCode = %d, want %d", errors.ExitCode(err), errors.ExitInput)
	}
}

func TestMaterializeRejectsHugeRaster(t *testing.T) {
	small := []byte(`<svg viewBox="0 0 2 1"><rect x="0" y="0" width="1" height="1" fill="#FF0000"/></svg>`)
	huge := []byte(`<svg viewBox="0 0 100000 100000"><rect x="0" y="0" width="1" height="1" fill="#FF0000"/></svg>`)

	tests := []struct {
		name string
		doc  []byte
		opts MaterializeOptions
	}{
		{"requested size", small, MaterializeOptions{Width: 1 << 20, Height: 1 << 20}},
		{"canvas size", huge, MaterializeOptions{Editable: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MaterializeBytes(tt.doc, tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %q, want INVALID_INPUT", errors.GetCode(err))
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input, format, want string
	}{
		{"fox.png", FormatSVG, "fox_perfect_16px.svg"},
		{"fox.png", FormatJSON, "fox_perfect_16px.json"},
		{"images/fox.webp", FormatPNG, "images/fox_perfect_16px_rasterized.png"},
		{"fox", FormatEditable, "fox_perfect_16px_editable.png"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := OutputName(tt.input, tt.format, 16); got != tt.want {
				t.Errorf("OutputName(%q, %q) = %q, want %q", tt.input, tt.format, got, tt.want)
			}
		})
	}
}
