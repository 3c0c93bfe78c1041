package sink

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/vector"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	scale int
}

// WithScale sets the display size of one block in pixels. The viewBox keeps
// grid units, so the document stays one unit per block.
func WithScale(px int) SVGOption {
	return func(r *svgRenderer) {
		if px > 0 {
			r.scale = px
		}
	}
}

// RenderSVG renders v as an SVG document with one <rect> per rectangle.
func RenderSVG(v *vector.Image, opts ...SVGOption) []byte {
	r := svgRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(v.Width*r.scale, v.Height*r.scale,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, v.Width, v.Height),
		`style="shape-rendering:crispEdges"`,
	)
	for _, rect := range v.Rects {
		canvas.Rect(rect.X, rect.Y, rect.W, rect.H,
			fmt.Sprintf(`fill="%s"`, rect.Fill),
			`fill-opacity="`+strconv.FormatFloat(rect.Opacity, 'f', -1, 64)+`"`,
		)
	}
	canvas.End()
	return buf.Bytes()
}

// WriteFile writes a rendered artifact to path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}
