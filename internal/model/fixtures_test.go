package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
)

type testStrip struct {
	mode        IndexMode
	count       uint16
	indexOffset uint32
	remap       []uint16
}

func writeStrip(w *buffer.Cursor, flavor Flavor, s testStrip, last bool) {
	next := uint32(1)
	if last {
		next = 0
	}
	w.WriteU32(next)
	if flavor == FlavorHGP {
		w.WriteU32(uint32(s.mode))
	} else {
		w.WriteU32(0xAA) // unk2
	}
	w.WriteU16(s.count)
	w.WriteU16(s.count)
	if flavor == FlavorHGP {
		w.WriteU32(uint32(len(s.remap)))
		remap := make([]uint16, MaxRemap)
		copy(remap, s.remap)
		for _, r := range remap {
			w.WriteU16(r)
		}
		w.WriteZeros(6)
	} else {
		w.WriteZeros(44)
	}
	w.WriteU32(3)
	w.WriteU32(4)
	w.WriteU32(0)
	w.WriteU32(5)
	w.WriteU32(s.indexOffset)
	w.WriteU32(6)
}

type testMesh struct {
	material    uint32
	vertexCount uint32
	blocks      []int32
	vertexSize  uint32
	strips      []testStrip
	noStrips    bool
}

func writeMesh(w *buffer.Cursor, flavor Flavor, m testMesh) {
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(m.material)
	w.WriteU32(0)
	w.WriteU32(m.vertexCount)
	w.WriteU32(m.vertexCount)
	w.WriteU32(0x18) // unk0
	w.WriteZeros(16)
	if m.noStrips {
		w.WriteU32(0)
	} else {
		w.WriteU32(MeshHeaderSize - 0x2C)
	}
	w.WriteU32(0x30) // unk1
	w.WriteZeros(16)
	w.WriteU32(uint32(len(m.blocks)))
	slots := make([]int32, flavor.slots())
	copy(slots, m.blocks)
	for _, s := range slots {
		w.WriteI32(s)
	}
	w.WriteZeros(0x88 - 0x48 - 4*flavor.slots())
	w.WriteU32(m.vertexSize)
	w.WriteZeros(12)
	for i, s := range m.strips {
		writeStrip(w, flavor, s, i == len(m.strips)-1)
	}
}

func writeMeshContainer(w *buffer.Cursor, flavor Flavor, meshes ...testMesh) {
	w.WriteU32(1) // type
	w.WriteBytes([]byte("opaque bytes"))
	w.WriteU32(0) // flag
	w.WriteU32(uint32(len(meshes)))
	w.WriteVec3(mgl32.Vec3{7, 8, 9})
	w.WriteZeros(12)
	for _, m := range meshes {
		writeMesh(w, flavor, m)
	}
	w.WriteVec3(mgl32.Vec3{-1, -1, -1})
	w.WriteVec3(mgl32.Vec3{1, 1, 1})
	w.WriteZeros(8)
}

func writeFullMaterial(w *buffer.Cursor, flags, vertexFormat, ext uint32, slot1 uint32) {
	rec := buffer.New(make([]byte, FullMaterialSize))
	rec.SeekTo(0x40)
	rec.WriteU32(flags)
	rec.WriteU32(9) // texture0
	rec.SeekTo(0x54)
	rec.WriteVec3(mgl32.Vec3{0.5, 0.25, 1})
	rec.SeekTo(0xB8)
	rec.WriteU32(ext)
	rec.WriteU32(slot1)
	rec.SeekTo(0x1B8)
	rec.WriteU32(vertexFormat)
	b, _ := rec.Bytes()
	w.WriteBytes(b)
}

func writeLegacyMaterial(w *buffer.Cursor, vertexFormat uint32) {
	rec := buffer.New(make([]byte, LegacyMaterialSize))
	rec.SeekTo(0x40)
	rec.WriteU32(vertexFormat)
	b, _ := rec.Bytes()
	w.WriteBytes(b)
}

// writeTextures writes a TST0 body holding the given raw texture files.
func writeTextures(w *buffer.Cursor, datas ...[]byte) {
	count := uint32(len(datas))
	var raw uint32
	for _, d := range datas {
		raw += uint32(len(d))
	}
	w.WriteU32(count)
	w.WriteU32(raw)
	w.WriteU32(20)            // index table right after the header
	w.WriteU32(20 + 20*count) // data after the table
	w.WriteU32(raw)
	var off uint32
	for _, d := range datas {
		w.WriteI32(4)
		w.WriteI32(4)
		w.WriteU32(0)
		w.WriteU32(0x31545844)
		w.WriteU32(off)
		off += uint32(len(d))
	}
	for _, d := range datas {
		w.WriteBytes(d)
	}
}

// writeVBIB writes one vertex block and one index block.
func writeVBIB(w *buffer.Cursor, vertices, indices []byte) {
	w.WriteU32(1) // vertex blocks
	w.WriteU32(1) // index blocks
	w.WriteU32(uint32(len(vertices) + len(indices)))
	// header 40 bytes, vertex table 12 at 40, index table 12 at 52, data at 64
	w.WriteU32(40)
	w.WriteU32(64)
	w.WriteU32(uint32(len(vertices)))
	w.WriteU32(52)
	w.WriteU32(64 + uint32(len(vertices)))
	w.WriteU32(uint32(len(indices)))
	w.WriteU32(0)
	w.WriteU32(uint32(len(vertices)))
	w.WriteU32(0) // id
	w.WriteU32(0)
	w.WriteU32(uint32(len(indices)))
	w.WriteU32(1) // id
	w.WriteU32(0)
	w.WriteBytes(vertices)
	w.WriteBytes(indices)
}

func u16s(vals ...uint16) []byte {
	w := buffer.NewGrowable()
	for _, v := range vals {
		w.WriteU16(v)
	}
	b, _ := w.Bytes()
	return b
}

// envelope wraps chunks into a NU20 file.
func envelope(t *testing.T, chunks map[string][]byte, order ...string) []byte {
	t.Helper()
	w := buffer.NewGrowable()
	w.WriteFourCC("NU20")
	w.WriteI32(0)
	w.WriteU32(1)
	w.WriteU32(0)
	for _, tag := range order {
		w.WriteFourCC(tag)
		w.WriteU32(uint32(len(chunks[tag]) + 8))
		w.WriteBytes(chunks[tag])
	}
	w.WriteZeros(4)
	if err := w.PatchU32At(4, uint32(-int32(w.Size()))); err != nil {
		t.Fatal(err)
	}
	b, _ := w.Bytes()
	return b
}

func bytesOf(w *buffer.Cursor) []byte {
	b, _ := w.Bytes()
	return b
}
