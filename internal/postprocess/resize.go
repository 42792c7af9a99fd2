// Package postprocess resamples finished images.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Resize scales img to w×h with premultiplied-alpha CatmullRom filtering so
// transparent edges do not pick up dark halos.
func Resize(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}

	// Drawing NRGBA onto RGBA premultiplies.
	premul := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(premul, premul.Bounds(), img, b.Min, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(dst.Pix); i += 4 {
		a := float64(dst.Pix[i+3])
		if a > 1 {
			inv := 255.0 / a
			out.Pix[i] = clamp8(float64(dst.Pix[i]) * inv)
			out.Pix[i+1] = clamp8(float64(dst.Pix[i+1]) * inv)
			out.Pix[i+2] = clamp8(float64(dst.Pix[i+2]) * inv)
		}
		out.Pix[i+3] = dst.Pix[i+3]
	}
	return out
}

// Downsample reduces a square supersampled render to size×size.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}
	return Resize(img, size, size)
}

// Fit shrinks img so neither side exceeds maxSide, keeping the aspect ratio.
// A maxSide of zero or less leaves img untouched.
func Fit(img *image.NRGBA, maxSide int) *image.NRGBA {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	w, h := maxSide, maxSide
	if b.Dx() > b.Dy() {
		h = max(1, b.Dy()*maxSide/b.Dx())
	} else {
		w = max(1, b.Dx()*maxSide/b.Dy())
	}
	return Resize(img, w, h)
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
