package model

import (
	"fmt"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// IndexMode selects how a strip's indices form triangles.
type IndexMode uint32

const (
	IndexList  IndexMode = 4
	IndexStrip IndexMode = 5
)

func (m IndexMode) String() string {
	switch m {
	case IndexList:
		return "list"
	case IndexStrip:
		return "strip"
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// MaxRemap is the inline bone remap capacity of an HGP strip.
const MaxRemap = 17

// Strip is a run of indices inside the model's index block.
type Strip struct {
	Mode        IndexMode
	Count       uint16
	IndexOffset uint32   // in indices, not bytes
	Remap       []uint16 // packed blend index -> bone index, HGP only
	Unk2        uint32   // NUP only
	Unk3        uint32
	Unk4        uint32
	Unk5        uint32
	Unk6        uint32
}

// decodeStrip reads the 76 bytes following a strip's next field.
func decodeStrip(c *buffer.Cursor, flavor Flavor) (Strip, error) {
	var s Strip
	var err error

	if flavor == FlavorHGP {
		at := c.AbsPos()
		mode, err := c.ReadU32()
		if err != nil {
			return s, err
		}
		s.Mode = IndexMode(mode)
		if s.Mode != IndexList && s.Mode != IndexStrip {
			return s, format.Unsupported("index mode", at, mode)
		}
	} else {
		s.Mode = IndexStrip
		if s.Unk2, err = c.ReadU32(); err != nil {
			return s, err
		}
	}

	if s.Count, err = c.ReadU16(); err != nil {
		return s, err
	}
	dupAt := c.AbsPos()
	dup, err := c.ReadU16()
	if err != nil {
		return s, err
	}
	if dup != s.Count {
		return s, format.SizeMismatch("index count copy", dupAt, dup, s.Count)
	}

	if flavor == FlavorHGP {
		at := c.AbsPos()
		n, err := c.ReadU32()
		if err != nil {
			return s, err
		}
		if n > MaxRemap {
			return s, format.Unsupported("remap count", at, n)
		}
		remap, err := c.ReadU16s(MaxRemap)
		if err != nil {
			return s, err
		}
		s.Remap = remap[:n]
		if err := c.ExpectZero("remap padding", 2+4); err != nil {
			return s, err
		}
	} else if err := c.ExpectZero("strip reserved", 44); err != nil {
		return s, err
	}

	if s.Unk3, err = c.ReadU32(); err != nil {
		return s, err
	}
	if s.Unk4, err = c.ReadU32(); err != nil {
		return s, err
	}
	if err := c.ExpectU32("strip field_38", 0); err != nil {
		return s, err
	}
	if s.Unk5, err = c.ReadU32(); err != nil {
		return s, err
	}
	if s.IndexOffset, err = c.ReadU32(); err != nil {
		return s, err
	}
	s.Unk6, err = c.ReadU32()
	return s, err
}

// Triangles resolves the strip against an index block. Strip mode drops
// degenerate triangles.
func (s *Strip) Triangles(indices *DataBuffer) ([][3]uint16, error) {
	idx, err := indices.ReadIndices(int(s.IndexOffset), int(s.Count))
	if err != nil {
		return nil, err
	}
	if s.Mode == IndexStrip {
		return Unstrip(idx), nil
	}
	tris := make([][3]uint16, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		tris = append(tris, [3]uint16{idx[i], idx[i+1], idx[i+2]})
	}
	return tris, nil
}

// Unstrip converts a triangle strip into a triangle list, flipping every
// odd triangle to keep winding and skipping degenerates.
func Unstrip(strip []uint16) [][3]uint16 {
	if len(strip) < 3 {
		return nil
	}
	tris := make([][3]uint16, 0, len(strip)-2)
	for i := 2; i < len(strip); i++ {
		var t [3]uint16
		if i%2 == 0 {
			t = [3]uint16{strip[i-2], strip[i-1], strip[i]}
		} else {
			t = [3]uint16{strip[i], strip[i-1], strip[i-2]}
		}
		if t[0] == t[1] || t[1] == t[2] {
			continue
		}
		tris = append(tris, t)
	}
	return tris
}
