// Package raster loads, normalizes and encodes the raster images that flow
// through the reconstruction pipeline.
//
// Every analysis package in pixelforge works on a zero-origin *image.NRGBA:
// straight (non-premultiplied) alpha keeps the exact RGBA values a generator
// wrote, which is what color keys such as "#00FF00FF" are built from.
// [ToNRGBA] produces that view as a copy, so callers' images are never
// mutated.
//
// Supported input formats are PNG, JPEG and GIF from the standard library
// plus BMP, TIFF and WebP from golang.org/x/image.
package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// Decode reads an image in any supported format and returns it as a
// zero-origin NRGBA raster along with the detected format name.
// The header is checked first; images larger than the raster limits in
// [errors.ValidateRasterSize] are rejected before their pixels are decoded.
func Decode(r io.Reader) (*image.NRGBA, string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeDecode, err, "decode image")
	}
	if err := errors.ValidateRasterSize(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeDecode, err, "decode image")
	}
	return ToNRGBA(img), format, nil
}

// DecodeBytes is a convenience wrapper around [Decode] for in-memory data.
func DecodeBytes(data []byte) (*image.NRGBA, error) {
	img, _, err := Decode(bytes.NewReader(data))
	return img, err
}

// Load reads and decodes the image at path.
// A missing file is reported as FILE_NOT_FOUND, an unreadable or
// undecodable one as DECODE_ERROR; both are input errors.
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "open %s", path)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if errors.Is(err, errors.ErrCodeDecode) {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "read %s", path)
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ToNRGBA returns a copy of img as a zero-origin *image.NRGBA.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()*4], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "encode png")
	}
	return buf.Bytes(), nil
}

// Save encodes img as PNG and writes it to path.
func Save(img image.Image, path string) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

// HexRGBA formats c as an uppercase "#RRGGBBAA" color key.
func HexRGBA(c color.NRGBA) string {
	const digits = "0123456789ABCDEF"
	b := [9]byte{'#'}
	for i, v := range [4]uint8{c.R, c.G, c.B, c.A} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0x0f]
	}
	return string(b[:])
}
