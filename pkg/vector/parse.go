package vector

import (
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// ParseSVG reads a rectangle-list SVG document.
//
// The canvas size comes from the root viewBox; a document without a usable
// viewBox is an INVALID_FORMAT error. Every <rect> element at any depth is
// read. Geometry attributes are parsed as decimals and truncated toward zero,
// with x and y defaulting to 0 and width and height to 1. A missing fill is
// black and a fill-opacity that is missing or unreadable is 1.
//
// Rectangles with unreadable geometry, a non-positive extent, or a
// malformed "#RRGGBB" fill are skipped; their number is the second result.
func ParseSVG(r io.Reader) (*Image, int, error) {
	dec := xml.NewDecoder(r)
	var (
		v       *Image
		skipped int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse svg")
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case v == nil:
			if el.Name.Local != "svg" {
				return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "root element is <%s>, want <svg>", el.Name.Local)
			}
			w, h, err := parseViewBox(attr(el, "viewBox"))
			if err != nil {
				return nil, 0, err
			}
			v = &Image{Width: w, Height: h}
		case el.Name.Local == "rect":
			rect, ok := parseRect(el)
			if !ok {
				skipped++
				continue
			}
			v.Rects = append(v.Rects, rect)
		}
	}
	if v == nil {
		return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "no <svg> element")
	}
	return v, skipped, nil
}

func parseViewBox(s string) (int, int, error) {
	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(parts) != 4 {
		return 0, 0, errors.New(errors.ErrCodeInvalidFormat, "invalid viewBox %q", s)
	}
	w, okW := truncate(parts[2])
	h, okH := truncate(parts[3])
	if !okW || !okH || w < 0 || h < 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidFormat, "invalid viewBox %q", s)
	}
	return w, h, nil
}

func parseRect(el xml.StartElement) (Rect, bool) {
	r := Rect{Fill: "#000000", Opacity: 1}
	geometry := []struct {
		name string
		dst  *int
		def  int
	}{
		{"x", &r.X, 0},
		{"y", &r.Y, 0},
		{"width", &r.W, 1},
		{"height", &r.H, 1},
	}
	for _, g := range geometry {
		s, ok := lookup(el, g.name)
		if !ok {
			*g.dst = g.def
			continue
		}
		n, ok := truncate(s)
		if !ok {
			return Rect{}, false
		}
		*g.dst = n
	}
	if r.W <= 0 || r.H <= 0 {
		return Rect{}, false
	}

	if fill, ok := lookup(el, "fill"); ok {
		if len(fill) == 7 && fill[0] == '#' {
			if _, ok := ParseFill(fill); !ok {
				return Rect{}, false
			}
			fill = strings.ToUpper(fill)
		}
		r.Fill = fill
	}
	if s, ok := lookup(el, "fill-opacity"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) {
			r.Opacity = math.Max(0, math.Min(1, f))
		}
	}
	return r, true
}

// truncate parses a decimal and truncates it toward zero.
func truncate(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func lookup(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func attr(el xml.StartElement, name string) string {
	s, _ := lookup(el, name)
	return s
}
