package raster

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// SampleTexture performs bilinear filtering with wrapped UVs.
func SampleTexture(tex *image.NRGBA, u, v float32) color.NRGBA {
	w, h := tex.Rect.Dx(), tex.Rect.Dy()

	u -= math32.Floor(u)
	v -= math32.Floor(v)

	fx := u * float32(w-1)
	fy := v * float32(h-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := (x0+1)%w, (y0+1)%h
	dx, dy := fx-float32(x0), fy-float32(y0)

	i00 := y0*tex.Stride + x0*4
	i10 := y0*tex.Stride + x1*4
	i01 := y1*tex.Stride + x0*4
	i11 := y1*tex.Stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	pix := tex.Pix
	ch := func(k int) uint8 {
		f := float32(pix[i00+k])*w00 + float32(pix[i10+k])*w10 + float32(pix[i01+k])*w01 + float32(pix[i11+k])*w11
		return uint8(f + 0.5)
	}
	return color.NRGBA{ch(0), ch(1), ch(2), ch(3)}
}

// averageColor is the mean opaque color of tex, used where UVs are missing.
func averageColor(tex *image.NRGBA) color.NRGBA {
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	if w == 0 || h == 0 {
		return untextured
	}
	var r, g, b float32
	for y := range h {
		off := y * tex.Stride
		for x := range w {
			i := off + x*4
			r += float32(tex.Pix[i])
			g += float32(tex.Pix[i+1])
			b += float32(tex.Pix[i+2])
		}
	}
	n := float32(w * h)
	return color.NRGBA{uint8(r/n + 0.5), uint8(g/n + 0.5), uint8(b/n + 0.5), 255}
}
