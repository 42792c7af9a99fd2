package raster

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a projected vertex. Pos holds pixel X and Y and a depth that
// grows toward the viewer.
type Vertex struct {
	Pos  mgl32.Vec3
	UV   mgl32.Vec2
	Tint mgl32.Vec4 // RGBA multiplier, {1,1,1,1} leaves the color as is
}

// Surface describes how a triangle's pixels are colored.
type Surface struct {
	Texture  *image.NRGBA // nil draws Base
	Base     color.NRGBA
	Additive bool // add to the color buffer without depth test or write
}

var (
	untextured = color.NRGBA{160, 160, 170, 255}
	noTint     = mgl32.Vec4{1, 1, 1, 1}
)

// RasterizeTriangle fills one flat-shaded triangle. Opaque surfaces are depth
// tested; texels with alpha below 8 are discarded.
func RasterizeTriangle(fb *FrameBuffer, v [3]Vertex, s *Surface, lc *LightConfig) {
	p0, p1, p2 := v[0].Pos, v[1].Pos, v[2].Pos

	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if n.Len() < 1e-8 {
		return
	}
	shade := lc.Shade(n.Normalize())

	minX := max(int(math32.Floor(min(p0[0], p1[0], p2[0]))), 0)
	maxX := min(int(math32.Ceil(max(p0[0], p1[0], p2[0]))), fb.Width-1)
	minY := max(int(math32.Floor(min(p0[1], p1[1], p2[1]))), 0)
	maxY := min(int(math32.Ceil(max(p0[1], p1[1], p2[1]))), fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (p1[1]-p2[1])*(p0[0]-p2[0]) + (p2[0]-p1[0])*(p0[1]-p2[1])
	if math32.Abs(det) < 1e-8 {
		return
	}
	invDet := 1 / det
	dy12, dx21 := p1[1]-p2[1], p2[0]-p1[0]
	dy20, dx02 := p2[1]-p0[1], p0[0]-p2[0]

	for sy := minY; sy <= maxY; sy++ {
		fy := float32(sy) + 0.5 - p2[1]
		row := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			fx := float32(sx) + 0.5 - p2[0]
			w0 := (dy12*fx + dx21*fy) * invDet
			w1 := (dy20*fx + dx02*fy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			i := row + sx
			z := w0*p0[2] + w1*p1[2] + w2*p2[2]
			if !s.Additive && z <= fb.Depth[i] {
				continue
			}

			c := s.Base
			if s.Texture != nil {
				uv := v[0].UV.Mul(w0).Add(v[1].UV.Mul(w1)).Add(v[2].UV.Mul(w2))
				c = SampleTexture(s.Texture, uv[0], uv[1])
			}
			c = tint(c, v[0].Tint.Mul(w0).Add(v[1].Tint.Mul(w1)).Add(v[2].Tint.Mul(w2)))
			if c.A < 8 {
				continue
			}

			r, g, b := lc.toneMap(c.R, shade), lc.toneMap(c.G, shade), lc.toneMap(c.B, shade)
			o := i * 4
			if s.Additive {
				fb.Color[o] = clamp255(float32(fb.Color[o]) + r)
				fb.Color[o+1] = clamp255(float32(fb.Color[o+1]) + g)
				fb.Color[o+2] = clamp255(float32(fb.Color[o+2]) + b)
				// dark additions stay transparent
				if a := clamp255(r*0.299 + g*0.587 + b*0.114); a > fb.Color[o+3] {
					fb.Color[o+3] = a
				}
				continue
			}
			fb.Depth[i] = z
			fb.Color[o] = clamp255(r)
			fb.Color[o+1] = clamp255(g)
			fb.Color[o+2] = clamp255(b)
			fb.Color[o+3] = c.A
		}
	}
}

func tint(c color.NRGBA, t mgl32.Vec4) color.NRGBA {
	return color.NRGBA{
		clamp255(float32(c.R) * t[0]),
		clamp255(float32(c.G) * t[1]),
		clamp255(float32(c.B) * t[2]),
		clamp255(float32(c.A) * t[3]),
	}
}

func clamp255(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
