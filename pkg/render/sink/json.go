package sink

import (
	"encoding/json"

	"github.com/matzehuels/pixelforge/pkg/vector"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	blockSize int
	source    string
}

// WithJSONBlockSize records the block size the image was reconstructed at.
func WithJSONBlockSize(n int) JSONOption { return func(r *jsonRenderer) { r.blockSize = n } }

// WithJSONSource records the name of the source raster.
func WithJSONSource(name string) JSONOption { return func(r *jsonRenderer) { r.source = name } }

type jsonOutput struct {
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	BlockSize int           `json:"block_size,omitempty"`
	Source    string        `json:"source,omitempty"`
	Rects     []vector.Rect `json:"rects"`
}

// RenderJSON exports the rectangle list of v.
func RenderJSON(v *vector.Image, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	out := jsonOutput{
		Width:     v.Width,
		Height:    v.Height,
		BlockSize: r.blockSize,
		Source:    r.source,
		Rects:     v.Rects,
	}
	if out.Rects == nil {
		out.Rects = []vector.Rect{}
	}
	return json.MarshalIndent(out, "", "  ")
}
