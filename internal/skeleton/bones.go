// Package skeleton poses HGP bones.
package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/model"
)

// WorldMatrices computes each bone's world transform in the rest pose by
// chaining Matrix1 under the parent's world. A parent that does not precede
// its child is treated as absent.
func WorldMatrices(bones []model.Bone) []mgl32.Mat4 {
	worlds := make([]mgl32.Mat4, len(bones))
	for i, b := range bones {
		if p := int(b.Parent); p >= 0 && p < i {
			worlds[i] = worlds[p].Mul4(b.Matrix1)
		} else {
			worlds[i] = b.Matrix1
		}
	}
	return worlds
}

// Placement returns the model-space transform of d. Drawables attached to a
// bone are placed relative to that bone's world matrix.
func Placement(d model.Drawable, worlds []mgl32.Mat4) mgl32.Mat4 {
	if d.Bone >= 0 && d.Bone < len(worlds) {
		return worlds[d.Bone].Mul4(d.Transform)
	}
	return d.Transform
}

// Posed reports whether any world matrix differs from identity.
func Posed(worlds []mgl32.Mat4) bool {
	id := mgl32.Ident4()
	for _, w := range worlds {
		if !w.ApproxEqual(id) {
			return true
		}
	}
	return false
}
