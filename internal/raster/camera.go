package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera maps model space to pixels with an orthographic projection.
type Camera struct {
	View   mgl32.Mat4
	Center mgl32.Vec3 // view-space center of the framed bounds
	Scale  float32    // pixels per model unit
	Size   int
}

// ViewRotation turns the model by yaw degrees about Y, then tilts it by
// pitch degrees about X.
func ViewRotation(yaw, pitch float32) mgl32.Mat4 {
	return mgl32.HomogRotate3DX(mgl32.DegToRad(pitch)).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(yaw)))
}

// FitCamera frames points so their view-space extent fills a size×size
// target, leaving margin pixels on every side.
func FitCamera(points []mgl32.Vec3, view mgl32.Mat4, size, margin int) Camera {
	lo := mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	hi := mgl32.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for _, p := range points {
		v := mgl32.TransformCoordinate(p, view)
		for k := range 3 {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	if len(points) == 0 {
		lo, hi = mgl32.Vec3{}, mgl32.Vec3{}
	}
	span := max(hi[0]-lo[0], hi[1]-lo[1], 0.001)
	return Camera{
		View:   view,
		Center: lo.Add(hi).Mul(0.5),
		Scale:  float32(max(size-2*margin, 1)) / span,
		Size:   size,
	}
}

// Project returns pixel X and Y, with Y pointing down, and view depth.
func (c Camera) Project(p mgl32.Vec3) mgl32.Vec3 {
	v := mgl32.TransformCoordinate(p, c.View)
	half := float32(c.Size) / 2
	return mgl32.Vec3{
		(v[0]-c.Center[0])*c.Scale + half,
		-(v[1]-c.Center[1])*c.Scale + half,
		v[2],
	}
}
