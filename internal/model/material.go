package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// MaterialLayout identifies which of the two wire encodings a material came from.
type MaterialLayout int

const (
	MaterialLegacy MaterialLayout = iota // 180-byte record, vertex format only
	MaterialFull                         // 532-byte record
)

const (
	LegacyMaterialSize = 180
	FullMaterialSize   = 532
)

func (l MaterialLayout) Size() int {
	if l == MaterialLegacy {
		return LegacyMaterialSize
	}
	return FullMaterialSize
}

func (l MaterialLayout) String() string {
	if l == MaterialLegacy {
		return "legacy"
	}
	return "full"
}

// Material flag bits.
const (
	FlagTransparency      = 0x1
	FlagTransparent       = 0x2000
	FlagAdditive          = 0x4000
	FlagIgnoreVertexAlpha = 0x400000

	// ExtFlagAlphaVariant in ExtFlags marks the alternate transparency pass.
	ExtFlagAlphaVariant = 1 << 6
)

// Material is one MS00 entry. Legacy records carry only VertexFormat; the
// other fields keep their defaults (white color, no textures).
type Material struct {
	Layout       MaterialLayout
	Flags        uint32
	Color        mgl32.Vec3
	VertexFormat uint32
	Texture0     uint32
	Slots        [4]uint32 // texture slots 1-4, 1-based texture indices, 0 = unused
	ExtFlags     uint32
}

func (m *Material) Transparency() bool      { return m.Flags&FlagTransparency != 0 }
func (m *Material) Transparent() bool       { return m.Flags&FlagTransparent != 0 }
func (m *Material) Additive() bool          { return m.Flags&FlagAdditive != 0 }
func (m *Material) IgnoreVertexAlpha() bool { return m.Flags&FlagIgnoreVertexAlpha != 0 }
func (m *Material) AlphaVariant() bool      { return m.ExtFlags&ExtFlagAlphaVariant != 0 }

// BaseTexture returns the zero-based texture index bound to slot 1.
func (m *Material) BaseTexture() (int, bool) {
	if m.Slots[0] == 0 {
		return 0, false
	}
	return int(m.Slots[0]) - 1, true
}

// decodeMaterial reads one record of the given layout starting at the cursor
// position and leaves the cursor right after it.
func decodeMaterial(c *buffer.Cursor, layout MaterialLayout) (Material, error) {
	rec, err := c.SliceHere(int64(layout.Size()))
	if err != nil {
		return Material{}, err
	}
	if err := c.Skip(int64(layout.Size())); err != nil {
		return Material{}, err
	}

	m := Material{Layout: layout, Color: mgl32.Vec3{1, 1, 1}}
	if layout == MaterialLegacy {
		if err := rec.SeekTo(0x40); err != nil {
			return m, err
		}
		m.VertexFormat, err = rec.ReadU32()
		return m, err
	}

	if err := rec.SeekTo(0x40); err != nil {
		return m, err
	}
	if m.Flags, err = rec.ReadU32(); err != nil {
		return m, err
	}
	if m.Texture0, err = rec.ReadU32(); err != nil {
		return m, err
	}
	if err := rec.ExpectZero("material reserved", 12); err != nil {
		return m, err
	}
	if m.Color, err = rec.ReadVec3(); err != nil {
		return m, err
	}
	if err := rec.SeekTo(0xB8); err != nil {
		return m, err
	}
	if m.ExtFlags, err = rec.ReadU32(); err != nil {
		return m, err
	}
	for i := range m.Slots {
		if m.Slots[i], err = rec.ReadU32(); err != nil {
			return m, err
		}
	}
	if err := rec.SeekTo(0x1B8); err != nil {
		return m, err
	}
	m.VertexFormat, err = rec.ReadU32()
	return m, err
}

// DecodeMaterials reads an MS00 chunk: u32 count, u32 0, then count records
// whose layout is picked from the average record size.
func DecodeMaterials(c *buffer.Cursor) ([]Material, error) {
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("model: MS00 count: %w", err)
	}
	if err := c.ExpectU32("MS00 reserved", 0); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	var layout MaterialLayout
	switch q := c.Remaining() / int64(count); q {
	case LegacyMaterialSize:
		layout = MaterialLegacy
	case FullMaterialSize:
		layout = MaterialFull
	default:
		return nil, fmt.Errorf("model: MS00: %w", format.Unsupported("material size", c.AbsPos(), q))
	}
	mats := make([]Material, count)
	for i := range mats {
		if mats[i], err = decodeMaterial(c, layout); err != nil {
			return nil, fmt.Errorf("model: material %d: %w", i, err)
		}
	}
	return mats, nil
}

// Vertex format bits.
const (
	VFNormal         = 0x4
	VFPackedNormal   = 0x8 | 0x880000
	VFTangent        = 0x10
	VFPackedTangent  = 0x20 | 0x1000000
	VFBinormal       = 0x40
	VFPackedBinormal = 0x80
	VFColor          = 0x100
	VFColor2         = 0x600
	VFUVMask         = 0x3800
	VFUVShift        = 11
	VFBlendWeight    = 0x4000
	VFPackedWeight   = 0x8000
	VFBlendIndices   = 0x10000
	VFPackedIndices  = 0x20000
	VFSecondPosition = 0x400000
)

func (m *Material) has(bits uint32) bool { return m.VertexFormat&bits != 0 }

func (m *Material) Normal() bool             { return m.has(VFNormal) }
func (m *Material) PackedNormal() bool       { return m.has(VFPackedNormal) }
func (m *Material) Tangent() bool            { return m.has(VFTangent) }
func (m *Material) PackedTangent() bool      { return m.has(VFPackedTangent) }
func (m *Material) Binormal() bool           { return m.has(VFBinormal) }
func (m *Material) PackedBinormal() bool     { return m.has(VFPackedBinormal) }
func (m *Material) HasColors() bool          { return m.has(VFColor) }
func (m *Material) HasColors2() bool         { return m.has(VFColor2) }
func (m *Material) UVLayers() int            { return int(m.VertexFormat&VFUVMask) >> VFUVShift }
func (m *Material) BlendWeight() bool        { return m.has(VFBlendWeight) }
func (m *Material) PackedBlendWeight() bool  { return m.has(VFPackedWeight) }
func (m *Material) BlendIndices() bool       { return m.has(VFBlendIndices) }
func (m *Material) PackedBlendIndices() bool { return m.has(VFPackedIndices) }
func (m *Material) SecondPosition() bool     { return m.has(VFSecondPosition) }

// VertexLayout derives the per-vertex record from the vertex format bits.
// Packed variants win over their float counterparts.
func (m *Material) VertexLayout() VertexLayout {
	var b layoutBuilder
	b.add("pos", Float32, 3)

	switch {
	case m.PackedNormal():
		b.add("normal", Uint8, 4)
	case m.Normal():
		b.add("normal", Float32, 3)
	}
	switch {
	case m.PackedTangent():
		b.add("tangent", Uint8, 4)
	case m.Tangent():
		b.add("tangent", Float32, 3)
	}
	switch {
	case m.PackedBinormal():
		b.add("binormal", Uint8, 4)
	case m.Binormal():
		b.add("binormal", Float32, 3)
	}
	if m.HasColors() {
		b.add("color", Uint8, 4)
	}
	if m.HasColors2() {
		b.add("color1", Uint8, 4)
	}
	for i := range m.UVLayers() {
		b.add(fmt.Sprintf("uv%d", i), Float32, 2)
	}
	switch {
	case m.PackedBlendWeight():
		b.add("weights", Uint8, 4)
	case m.BlendWeight():
		b.add("weights", Float32, 2)
	}
	switch {
	case m.PackedBlendIndices():
		b.add("indices", Uint8, 4)
	case m.BlendIndices():
		b.add("indices", Float32, 3)
	}
	if m.SecondPosition() {
		b.add("pos1", Float32, 3)
	}
	return b.layout
}
