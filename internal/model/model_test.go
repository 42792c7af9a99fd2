package model

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

func TestMaterialLayoutDispatch(t *testing.T) {
	legacy := buffer.NewGrowable()
	legacy.WriteU32(3)
	legacy.WriteU32(0)
	for i := range 3 {
		writeLegacyMaterial(legacy, uint32(0x1000+i))
	}
	mats, err := DecodeMaterials(buffer.New(bytesOf(legacy)))
	if err != nil {
		t.Fatalf("Legacy materials: %v", err)
	}
	for i, m := range mats {
		if m.Layout != MaterialLegacy || m.VertexFormat != uint32(0x1000+i) {
			t.Errorf("Material %d = %+v", i, m)
		}
		if m.Color != (mgl32.Vec3{1, 1, 1}) {
			t.Errorf("Legacy color default = %v", m.Color)
		}
	}

	full := buffer.NewGrowable()
	full.WriteU32(2)
	full.WriteU32(0)
	writeFullMaterial(full, FlagTransparent|FlagTransparency, 0x1004, ExtFlagAlphaVariant, 3)
	writeFullMaterial(full, FlagAdditive, 0x100, 0, 0)
	mats, err = DecodeMaterials(buffer.New(bytesOf(full)))
	if err != nil {
		t.Fatalf("Full materials: %v", err)
	}
	m := mats[0]
	if m.Layout != MaterialFull || !m.Transparent() || !m.Transparency() || m.Additive() || !m.AlphaVariant() {
		t.Errorf("Material 0 predicates wrong: %+v", m)
	}
	if m.Color != (mgl32.Vec3{0.5, 0.25, 1}) || m.Texture0 != 9 {
		t.Errorf("Material 0 fields: %+v", m)
	}
	if idx, ok := m.BaseTexture(); !ok || idx != 2 {
		t.Errorf("BaseTexture = %d, %v", idx, ok)
	}
	if !mats[1].Additive() || mats[1].AlphaVariant() {
		t.Errorf("Material 1 predicates wrong: %+v", mats[1])
	}
	if _, ok := mats[1].BaseTexture(); ok {
		t.Error("Material 1 has no base texture")
	}

	odd := buffer.NewGrowable()
	odd.WriteU32(2)
	odd.WriteU32(0)
	odd.WriteZeros(200 * 2)
	if _, err := DecodeMaterials(buffer.New(bytesOf(odd))); !errors.Is(err, format.ErrUnsupportedLayout) {
		t.Errorf("Unknown record size: got %v", err)
	}
}

func TestVertexLayout(t *testing.T) {
	m := Material{VertexFormat: VFNormal | 2<<VFUVShift}
	got := m.VertexLayout()
	if names := got.Names(); !reflect.DeepEqual(names, []string{"pos", "normal", "uv0", "uv1"}) {
		t.Errorf("Field order = %v", names)
	}
	if got.Stride != 12+12+8+8 {
		t.Errorf("Stride = %d", got.Stride)
	}
	n, _ := got.Field("normal")
	if n.Type != Float32 || n.Count != 3 || n.Offset != 12 {
		t.Errorf("normal field = %+v", n)
	}
	if !reflect.DeepEqual(got, m.VertexLayout()) {
		t.Error("VertexLayout is not deterministic")
	}

	all := Material{VertexFormat: VFPackedNormal | VFTangent | VFPackedBinormal | VFColor | VFColor2 |
		1<<VFUVShift | VFPackedWeight | VFBlendIndices | VFSecondPosition}
	want := []string{"pos", "normal", "tangent", "binormal", "color", "color1", "uv0", "weights", "indices", "pos1"}
	l := all.VertexLayout()
	if !reflect.DeepEqual(l.Names(), want) {
		t.Errorf("Full field order = %v", l.Names())
	}
	if n, _ := l.Field("normal"); n.Type != Uint8 || n.Count != 4 {
		t.Errorf("Packed normal = %+v", n)
	}
	if w, _ := l.Field("weights"); w.Type != Uint8 {
		t.Errorf("Packed weights = %+v", w)
	}
	if ix, _ := l.Field("indices"); ix.Type != Float32 || ix.Count != 3 {
		t.Errorf("Float indices = %+v", ix)
	}
	if l.Stride != 12+4+12+4+4+4+8+4+12+12 {
		t.Errorf("Full stride = %d", l.Stride)
	}
}

func TestStripChain(t *testing.T) {
	w := buffer.NewGrowable()
	writeMesh(w, FlavorNUP, testMesh{
		material: 2, vertexCount: 4, blocks: []int32{0}, vertexSize: 24,
		strips: []testStrip{{count: 4, indexOffset: 0}, {count: 3, indexOffset: 4}},
	})
	writeMesh(w, FlavorNUP, testMesh{material: 5, vertexCount: 1, strips: []testStrip{{count: 1}}})
	c := buffer.New(bytesOf(w))

	m, err := decodeMesh(c, FlavorNUP)
	if err != nil {
		t.Fatalf("decodeMesh: %v", err)
	}
	if m.Material != 2 || m.VertexCount != 4 || m.VertexSize != 24 || m.Unk0 != 0x18 || m.Unk1 != 0x30 {
		t.Errorf("Mesh = %+v", m)
	}
	if !reflect.DeepEqual(m.VertexBlocks, []int32{0}) {
		t.Errorf("VertexBlocks = %v", m.VertexBlocks)
	}
	if len(m.Strips) != 2 || m.Strips[1].IndexOffset != 4 || m.Strips[1].Count != 3 {
		t.Fatalf("Strips = %+v", m.Strips)
	}
	if m.Strips[0].Mode != IndexStrip || m.Strips[0].Unk2 != 0xAA || m.Strips[0].Unk6 != 6 {
		t.Errorf("Strip 0 = %+v", m.Strips[0])
	}
	second, err := decodeMesh(c, FlavorNUP)
	if err != nil {
		t.Fatalf("Second mesh: %v", err)
	}
	if second.Material != 5 || !c.IsEmpty() {
		t.Errorf("Second mesh = %+v, %d bytes left", second, c.Remaining())
	}
}

func TestStripChainRequiresFirstStrip(t *testing.T) {
	w := buffer.NewGrowable()
	writeMesh(w, FlavorNUP, testMesh{vertexCount: 1, noStrips: true})
	_, err := decodeMesh(buffer.New(bytesOf(w)), FlavorNUP)
	var fe *format.FieldError
	if !errors.As(err, &fe) || !errors.Is(err, format.ErrFormatMismatch) {
		t.Fatalf("Expected format mismatch, got %v", err)
	}
	if fe.Offset != 0x2C {
		t.Errorf("Error offset 0x%X, want 0x2C", fe.Offset)
	}
}

func TestMeshAssertions(t *testing.T) {
	w := buffer.NewGrowable()
	writeMesh(w, FlavorNUP, testMesh{vertexCount: 3, strips: []testStrip{{count: 3}}})
	good := bytesOf(w)

	dup := append([]byte{}, good...)
	dup[0x14] = 4
	if _, err := decodeMesh(buffer.New(dup), FlavorNUP); !errors.Is(err, format.ErrSizeMismatch) {
		t.Errorf("Vertex count copy: got %v", err)
	}
	nonzero := append([]byte{}, good...)
	nonzero[0x20] = 1
	if _, err := decodeMesh(buffer.New(nonzero), FlavorNUP); !errors.Is(err, format.ErrFormatMismatch) {
		t.Errorf("Reserved field: got %v", err)
	}
	slots := append([]byte{}, good...)
	slots[0x44] = 10
	if _, err := decodeMesh(buffer.New(slots), FlavorNUP); !errors.Is(err, format.ErrSizeMismatch) {
		t.Errorf("Slot count: got %v", err)
	}
	stripDup := append([]byte{}, good...)
	stripDup[MeshHeaderSize+4+4+2] = 9
	if _, err := decodeMesh(buffer.New(stripDup), FlavorNUP); !errors.Is(err, format.ErrSizeMismatch) {
		t.Errorf("Index count copy: got %v", err)
	}
}

func TestHGPStrips(t *testing.T) {
	w := buffer.NewGrowable()
	writeMesh(w, FlavorHGP, testMesh{
		vertexCount: 3, blocks: []int32{1, 2},
		strips: []testStrip{{mode: IndexList, count: 6, remap: []uint16{4, 7, 9}}},
	})
	m, err := decodeMesh(buffer.New(bytesOf(w)), FlavorHGP)
	if err != nil {
		t.Fatalf("decodeMesh: %v", err)
	}
	s := m.Strips[0]
	if s.Mode != IndexList || !reflect.DeepEqual(s.Remap, []uint16{4, 7, 9}) || s.Unk5 != 5 {
		t.Errorf("Strip = %+v", s)
	}

	bad := buffer.NewGrowable()
	writeMesh(bad, FlavorHGP, testMesh{vertexCount: 3, strips: []testStrip{{mode: 6, count: 3}}})
	if _, err := decodeMesh(buffer.New(bytesOf(bad)), FlavorHGP); !errors.Is(err, format.ErrUnsupportedLayout) {
		t.Errorf("Index mode 6: got %v", err)
	}

	long := buffer.NewGrowable()
	writeMesh(long, FlavorHGP, testMesh{vertexCount: 3, strips: []testStrip{{mode: IndexStrip, count: 3}}})
	b := bytesOf(long)
	b[MeshHeaderSize+4+8] = MaxRemap + 1
	if _, err := decodeMesh(buffer.New(b), FlavorHGP); !errors.Is(err, format.ErrUnsupportedLayout) {
		t.Errorf("Remap count 18: got %v", err)
	}
}

func TestTriangles(t *testing.T) {
	if got := Unstrip([]uint16{0, 1, 2, 3, 4}); !reflect.DeepEqual(got, [][3]uint16{{0, 1, 2}, {3, 2, 1}, {2, 3, 4}}) {
		t.Errorf("Unstrip = %v", got)
	}
	if got := Unstrip([]uint16{0, 1, 2, 2, 3, 4}); !reflect.DeepEqual(got, [][3]uint16{{0, 1, 2}, {4, 3, 2}}) {
		t.Errorf("Unstrip with degenerates = %v", got)
	}
	if got := Unstrip([]uint16{0, 1}); got != nil {
		t.Errorf("Short strip = %v", got)
	}

	ib := &DataBuffer{Data: buffer.New(u16s(9, 9, 0, 1, 2, 3, 4, 5))}
	list := Strip{Mode: IndexList, Count: 6, IndexOffset: 2}
	got, err := list.Triangles(ib)
	if err != nil || !reflect.DeepEqual(got, [][3]uint16{{0, 1, 2}, {3, 4, 5}}) {
		t.Errorf("List triangles = %v, %v", got, err)
	}
	over := Strip{Mode: IndexStrip, Count: 8, IndexOffset: 2}
	if _, err := over.Triangles(ib); !errors.Is(err, format.ErrOutOfBounds) {
		t.Errorf("Index overrun: got %v", err)
	}
}

func TestContainerFlags(t *testing.T) {
	w := buffer.NewGrowable()
	w.WriteU32(2) // type with the aux floats bit
	w.WriteZeros(12)
	w.WriteU32(1)
	w.WriteU32(1) // one group
	w.WriteF32(1.5)
	w.WriteF32(2.5)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(3) // material
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(2) // billboards
	w.WriteU32(0)
	for i := range 2 {
		w.WriteVec3(mgl32.Vec3{float32(i), 0, 0})
		w.WriteF32(0.5)
		w.WriteF32(0.75)
		w.WriteBytes([]byte{127, 64, 0, 127})
	}
	w.WriteVec3(mgl32.Vec3{})
	w.WriteVec3(mgl32.Vec3{2, 2, 2})
	w.WriteZeros(8)

	ct, err := DecodeContainer(buffer.New(bytesOf(w)), FlavorNUP)
	if err != nil {
		t.Fatalf("Particle container: %v", err)
	}
	if !ct.IsParticles() || len(ct.Particles) != 1 || ct.Aux != (mgl32.Vec3{1.5, 2.5, 0}) {
		t.Fatalf("Container = %+v", ct)
	}
	g := ct.Particles[0]
	if g.Material != 3 || len(g.Billboards) != 2 || g.Billboards[1].Position.X() != 1 || g.Billboards[0].Color != [4]uint8{127, 64, 0, 127} {
		t.Errorf("Group = %+v", g)
	}
	if ct.BBoxMax != (mgl32.Vec3{2, 2, 2}) {
		t.Errorf("BBoxMax = %v", ct.BBoxMax)
	}

	bad := buffer.NewGrowable()
	bad.WriteU32(0)
	bad.WriteZeros(12)
	bad.WriteU32(3)
	bad.WriteZeros(64)
	_, err = DecodeContainer(buffer.New(bytesOf(bad)), FlavorNUP)
	var fe *format.FieldError
	if !errors.As(err, &fe) || !errors.Is(err, format.ErrUnsupportedLayout) || fe.Got != uint32(3) {
		t.Errorf("Flag 3: got %v", err)
	}
}

func TestTextures(t *testing.T) {
	w := buffer.NewGrowable()
	writeTextures(w, []byte("first"), []byte("second!"), []byte("x"))
	texs, err := DecodeTextures(buffer.New(bytesOf(w)))
	if err != nil {
		t.Fatalf("DecodeTextures: %v", err)
	}
	want := []string{"first", "second!", "x"}
	for i, tex := range texs {
		if string(tex.Data) != want[i] {
			t.Errorf("Texture %d data = %q", i, tex.Data)
		}
		if tex.Format != 0x31545844 || tex.Width != 4 {
			t.Errorf("Texture %d header = %+v", i, tex)
		}
	}

	b := bytesOf(w)
	// Swap the offsets of the last two textures so they decrease.
	bad := append([]byte{}, b...)
	c := buffer.New(bad)
	c.PatchU32At(20+20*1+16, 6)
	c.PatchU32At(20+20*2+16, 5)
	if _, err := DecodeTextures(buffer.New(bad)); !errors.Is(err, format.ErrFormatMismatch) {
		t.Errorf("Decreasing offsets: got %v", err)
	}
}

func TestAnimatedTextures(t *testing.T) {
	w := buffer.NewGrowable()
	w.WriteU32(2)
	w.WriteU32(0)
	for i, rec := range []struct{ off, count uint32 }{{0, 3}, {3, 2}} {
		w.WriteU32(0)
		w.WriteU32(0)
		w.WriteU32(rec.off)
		w.WriteU16(uint16(rec.count))
		w.WriteU16(0)
		w.WriteU32(uint32(10 + i)) // material
		w.WriteU32(0)
		w.WriteU32(0)
		w.WriteU32(0)
	}
	w.WriteU32(5)
	w.WriteBytes(u16s(4, 5, 6, 7, 8))

	anims, err := DecodeAnimatedTextures(buffer.New(bytesOf(w)))
	if err != nil {
		t.Fatalf("DecodeAnimatedTextures: %v", err)
	}
	if !reflect.DeepEqual(anims[0].Frames, []uint16{4, 5, 6}) || !reflect.DeepEqual(anims[1].Frames, []uint16{7, 8}) {
		t.Errorf("Frames = %v / %v", anims[0].Frames, anims[1].Frames)
	}
	if i, ok := ForMaterial(anims, 11); !ok || i != 1 {
		t.Errorf("ForMaterial(11) = %d, %v", i, ok)
	}
	if _, ok := ForMaterial(anims, 99); ok {
		t.Error("ForMaterial(99) found a match")
	}
}

func TestNameTable(t *testing.T) {
	w := buffer.NewGrowable()
	w.WriteU32(14)
	w.WriteASCII("root", true, 0)
	w.WriteASCII("door_01", true, 0)
	w.WriteU8(0)
	names, err := DecodeNameTable(buffer.New(bytesOf(w)))
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := names.Lookup(5); !ok || s != "door_01" {
		t.Errorf("Lookup(5) = %q, %v", s, ok)
	}
	if _, ok := names.Lookup(2); ok {
		t.Error("Lookup(2) hit the middle of a string")
	}
	if names.Len() != 3 {
		t.Errorf("Len = %d", names.Len())
	}
	var nilTable *NameTable
	if nilTable.Name(7) != "name@0x7" {
		t.Errorf("Name on nil table = %q", nilTable.Name(7))
	}
}

func TestSplinesAndBounds(t *testing.T) {
	w := buffer.NewGrowable()
	w.WriteU32(2)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU16(2)
	w.WriteU16(1)
	w.WriteU32(0)
	w.WriteU32(8)
	w.WriteU16(1)
	w.WriteU16(0)
	w.WriteU32(2)
	w.WriteU32(3)
	for i := range 3 {
		w.WriteVec3(mgl32.Vec3{float32(i), 1, 2})
	}
	splines, err := DecodeSplines(buffer.New(bytesOf(w)))
	if err != nil {
		t.Fatalf("DecodeSplines: %v", err)
	}
	if len(splines[0].Points) != 2 || splines[1].Points[0].X() != 2 || splines[0].Flags != 1 {
		t.Errorf("Splines = %+v", splines)
	}

	b := bytesOf(w)
	c := buffer.New(append([]byte{}, b...))
	c.PatchU32At(8+12+8, 3) // second spline starts at point 3
	data, _ := c.Bytes()
	if _, err := DecodeSplines(buffer.New(data)); !errors.Is(err, format.ErrSizeMismatch) {
		t.Errorf("Point range overrun: got %v", err)
	}

	bw := buffer.NewGrowable()
	bw.WriteU32(1)
	bw.WriteU32(0)
	bw.WriteVec3(mgl32.Vec3{-1, -1, -1})
	bw.WriteVec3(mgl32.Vec3{1, 1, 1})
	bw.WriteVec3(mgl32.Vec3{})
	bw.WriteF32(1.75)
	bounds, err := DecodeBounds(buffer.New(bytesOf(bw)))
	if err != nil || len(bounds) != 1 || bounds[0].Radius != 1.75 {
		t.Errorf("Bounds = %+v, %v", bounds, err)
	}
}

func TestInstanceContainerIndex(t *testing.T) {
	in := Instance{Container: 0x300002}
	if got := in.ContainerIndex(4); got != 2 {
		t.Errorf("Masked index = %d", got)
	}
	in.Container = 3
	if got := in.ContainerIndex(4); got != 3 {
		t.Errorf("Plain index = %d", got)
	}
	in.Flags = InstHidden
	if !in.Hidden() || !in.Static() {
		t.Error("Flag predicates wrong")
	}
}
