// Package model decodes NUP, HGP and GHG model files into flat, index
// cross-referenced records.
package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Assets are the arrays shared by every model flavor. Meshes refer to
// materials, materials to textures, and meshes to vertex blocks by index.
type Assets struct {
	Textures  []Texture
	Materials []Material
	Buffers   *VertexIndexBuffers
}

func (a *Assets) Shared() *Assets { return a }

// Drawable is one container placed in model space.
type Drawable struct {
	Name      string
	Transform mgl32.Mat4
	Bone      int // >= 0 when Transform is relative to a bone's world matrix
	Hidden    bool
	Container *Container
}

// Model is what exporters and the preview renderer consume.
type Model interface {
	Shared() *Assets
	Drawables() []Drawable
}

var (
	_ Model = (*NUP)(nil)
	_ Model = (*HGP)(nil)
)

// Material returns material i when it exists.
func (a *Assets) Material(i uint32) (*Material, bool) {
	if int64(i) >= int64(len(a.Materials)) {
		return nil, false
	}
	return &a.Materials[i], true
}
