package model

import (
	"fmt"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// Flavor selects the record variants of the active top-level decoder.
type Flavor int

const (
	FlavorNUP Flavor = iota
	FlavorHGP
)

func (f Flavor) String() string {
	if f == FlavorHGP {
		return "hgp"
	}
	return "nup"
}

// slots is the vertex block id capacity of a mesh header.
func (f Flavor) slots() int {
	if f == FlavorHGP {
		return 8
	}
	return 9
}

// MeshHeaderSize is the fixed size of a mesh header in both flavors.
const MeshHeaderSize = 0x98

// Mesh is one drawable primitive group of a container.
type Mesh struct {
	Material     uint32
	VertexCount  uint32
	Unk0         uint32 // 0x18
	Unk1         uint32 // 0x30
	VertexBlocks []int32
	VertexSize   uint32 // 0 when not recorded
	Strips       []Strip
}

// decodeMesh reads a mesh header followed by its strip chain. The cursor is
// left after the last strip, where the next mesh header begins.
func decodeMesh(c *buffer.Cursor, flavor Flavor) (Mesh, error) {
	var m Mesh
	zero := func(field string) error { return c.ExpectU32(field, 0) }
	start := c.AbsPos()

	if err := zero("next"); err != nil {
		return m, err
	}
	if err := zero("material pointer"); err != nil {
		return m, err
	}
	var err error
	if m.Material, err = c.ReadU32(); err != nil {
		return m, err
	}
	if err := zero("field_0C"); err != nil {
		return m, err
	}
	if m.VertexCount, err = c.ReadU32(); err != nil {
		return m, err
	}
	dupAt := c.AbsPos()
	dup, err := c.ReadU32()
	if err != nil {
		return m, err
	}
	if dup != m.VertexCount {
		return m, format.SizeMismatch("vertex count copy", dupAt, dup, m.VertexCount)
	}
	if m.Unk0, err = c.ReadU32(); err != nil {
		return m, err
	}
	for _, f := range []string{"field_1C", "field_20", "field_24", "field_28"} {
		if err := zero(f); err != nil {
			return m, err
		}
	}
	stripField := c.Pos()
	stripRel, err := c.ReadU32()
	if err != nil {
		return m, err
	}
	if m.Unk1, err = c.ReadU32(); err != nil {
		return m, err
	}
	for _, f := range []string{"field_34", "field_38", "field_3C", "field_40"} {
		if err := zero(f); err != nil {
			return m, err
		}
	}
	slotAt := c.AbsPos()
	slotCount, err := c.ReadU32()
	if err != nil {
		return m, err
	}
	if int(slotCount) > flavor.slots() {
		return m, format.SizeMismatch("vertex block count", slotAt, slotCount, fmt.Sprintf("<= %d", flavor.slots()))
	}
	slots := make([]int32, flavor.slots())
	for i := range slots {
		if slots[i], err = c.ReadI32(); err != nil {
			return m, err
		}
	}
	m.VertexBlocks = slots[:slotCount]
	if err := c.ExpectZero("slot padding", 0x88-0x48-4*flavor.slots()); err != nil {
		return m, err
	}
	if m.VertexSize, err = c.ReadU32(); err != nil {
		return m, err
	}
	if err := c.ExpectZero("header tail", 12); err != nil {
		return m, err
	}

	if stripRel == 0 {
		return m, format.Mismatch("first strip offset", start+0x2C, 0, "non-zero")
	}
	if err := c.SeekTo(stripField + int64(stripRel)); err != nil {
		return m, fmt.Errorf("strip chain: %w", err)
	}
	for {
		next, err := c.ReadU32()
		if err != nil {
			return m, fmt.Errorf("strip %d: %w", len(m.Strips), err)
		}
		s, err := decodeStrip(c, flavor)
		if err != nil {
			return m, fmt.Errorf("strip %d: %w", len(m.Strips), err)
		}
		m.Strips = append(m.Strips, s)
		if next == 0 {
			break
		}
	}
	return m, nil
}
