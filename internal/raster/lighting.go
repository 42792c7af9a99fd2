package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightConfig holds precomputed lighting parameters.
type LightConfig struct {
	LightDir mgl32.Vec3
	RimDir   mgl32.Vec3
	ViewDir  mgl32.Vec3
	HalfMain mgl32.Vec3 // Blinn-Phong half vector
	Ambient  float32
	Hemi     float32
	Direct   float32
	Rim      float32
	SpecInt  float32
	SpecPow  float32
	Exposure float32
	Gamma    float32
	InvGamma float32
}

// DefaultLightConfig is a key light from the upper right, a cool rim from
// behind and a hemisphere fill.
func DefaultLightConfig() LightConfig {
	lightDir := mgl32.Vec3{180, 260, 140}.Normalize()
	rimDir := mgl32.Vec3{-160, 130, -210}.Normalize()
	viewDir := mgl32.Vec3{0, -110, -400}.Normalize()

	return LightConfig{
		LightDir: lightDir,
		RimDir:   rimDir,
		ViewDir:  viewDir,
		HalfMain: lightDir.Sub(viewDir).Normalize(),
		Ambient:  0.55,
		Hemi:     0.50,
		Direct:   1.50,
		Rim:      0.60,
		SpecInt:  0.45,
		SpecPow:  12.0,
		Exposure: 1.05,
		Gamma:    2.2,
		InvGamma: 1.0 / 2.2,
	}
}

// Shade returns the combined lighting scalar for a unit face normal. Faces
// are lit on both sides.
func (lc *LightConfig) Shade(n mgl32.Vec3) float32 {
	ndlMain := math32.Abs(n.Dot(lc.LightDir))
	ndlRim := math32.Abs(n.Dot(lc.RimDir))
	hemi := ((1-math32.Abs(n[1]))*0.5 + 0.5) * lc.Hemi
	spec := math32.Pow(max(n.Dot(lc.HalfMain), 0), lc.SpecPow) * lc.SpecInt
	return lc.Ambient + hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// toneMap lights an sRGB channel value and maps it back to sRGB in [0,255].
func (lc *LightConfig) toneMap(c uint8, shade float32) float32 {
	lin := srgbToLinear[c] * shade * lc.Exposure
	return math32.Pow(ACESTonemap(lin), lc.InvGamma) * 255
}

var srgbToLinear [256]float32

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math32.Pow(float32(i)/255, 2.2)
	}
}

// ACESTonemap applies the ACES filmic curve to a linear value.
func ACESTonemap(x float32) float32 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
