package estimate

import (
	"image"
	"math"
)

// gray converts img to 8-bit luma with the BT.601 weights in 14-bit fixed
// point, rounding to nearest.
func gray(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			p := img.Pix[off+4*x:]
			r, g, b := uint32(p[0]), uint32(p[1]), uint32(p[2])
			out[y*w+x] = float64((r*4899 + g*9617 + b*1868 + 1<<13) >> 14)
		}
	}
	return out
}

// magnitude returns sqrt(gx² + gy²) of the 3×3 Sobel derivatives of the
// luma image, row-major. Borders reflect without repeating the edge pixel
// (dcb|abcd|cba).
func magnitude(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	lum := gray(img)
	at := func(x, y int) float64 { return lum[reflect101(y, h)*w+reflect101(x, w)] }

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			ml, mr := at(x-1, y), at(x+1, y)
			bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			out[y*w+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	return out
}

// reflect101 maps i into [0, n) by mirroring around the edge pixels.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*(n-1) - i
		}
	}
	return i
}
