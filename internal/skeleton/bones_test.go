package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/model"
)

// near compares with an absolute tolerance; rotations leave tiny residues
// where the exact answer is zero.
func near(got, want mgl32.Vec3) bool { return got.Sub(want).Len() < 1e-5 }

func TestNearZeroResidue(t *testing.T) {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(90)).Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	if !near(rot, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("Rotated +X = %v", rot)
	}
	if near(mgl32.Vec3{1e-3, 1, 0}, mgl32.Vec3{0, 1, 0}) {
		t.Error("near accepts a visible offset")
	}
}

func TestWorldMatrices(t *testing.T) {
	bones := []model.Bone{
		{Name: "root", Parent: -1, Matrix1: mgl32.Translate3D(0, 1, 0)},
		{Name: "spine", Parent: 0, Matrix1: mgl32.Translate3D(0, 2, 0)},
		{Name: "arm", Parent: 1, Matrix1: mgl32.HomogRotate3DZ(mgl32.DegToRad(90))},
		{Name: "loop", Parent: 3, Matrix1: mgl32.Translate3D(5, 0, 0)},
	}
	w := WorldMatrices(bones)
	if got := w[1].Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3(); !got.ApproxEqual(mgl32.Vec3{0, 3, 0}) {
		t.Errorf("spine origin = %v", got)
	}
	if got := w[2].Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3(); !near(got, mgl32.Vec3{0, 4, 0}) {
		t.Errorf("arm +X = %v", got)
	}
	if w[3] != bones[3].Matrix1 {
		t.Errorf("Forward parent not ignored: %v", w[3])
	}
	if !Posed(w) || Posed([]mgl32.Mat4{mgl32.Ident4()}) {
		t.Error("Posed misreports")
	}
}

func TestPlacement(t *testing.T) {
	worlds := []mgl32.Mat4{mgl32.Translate3D(10, 0, 0)}
	local := mgl32.Translate3D(0, 0, 1)
	got := Placement(model.Drawable{Bone: 0, Transform: local}, worlds)
	if p := got.Col(3).Vec3(); !p.ApproxEqual(mgl32.Vec3{10, 0, 1}) {
		t.Errorf("Bone placement = %v", p)
	}
	if Placement(model.Drawable{Bone: -1, Transform: local}, worlds) != local {
		t.Error("Unattached drawable moved")
	}
}
