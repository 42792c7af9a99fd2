package model

import (
	"fmt"
	"iter"

	"github.com/elliotchance/orderedmap/v3"

	"nu20-tools/internal/buffer"
)

// NameTable maps string offsets inside an NTBL chunk to the strings found there.
type NameTable struct {
	names *orderedmap.OrderedMap[uint32, string]
}

// DecodeNameTable reads a u32 size followed by size bytes of NUL-terminated strings.
func DecodeNameTable(c *buffer.Cursor) (*NameTable, error) {
	size, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("model: NTBL size: %w", err)
	}
	data, err := c.SliceHere(int64(size))
	if err != nil {
		return nil, fmt.Errorf("model: NTBL: %w", err)
	}
	t := &NameTable{names: orderedmap.NewOrderedMap[uint32, string]()}
	for !data.IsEmpty() {
		off := uint32(data.Pos())
		s, err := data.ReadCString()
		if err != nil {
			return nil, fmt.Errorf("model: NTBL string at 0x%X: %w", off, err)
		}
		t.names.Set(off, s)
	}
	return t, nil
}

// Lookup is safe on a nil table.
func (t *NameTable) Lookup(off uint32) (string, bool) {
	if t == nil {
		return "", false
	}
	return t.names.Get(off)
}

// Name returns the string at off, or a placeholder naming the offset.
func (t *NameTable) Name(off uint32) string {
	if s, ok := t.Lookup(off); ok {
		return s
	}
	return fmt.Sprintf("name@0x%X", off)
}

func (t *NameTable) Len() int {
	if t == nil {
		return 0
	}
	return t.names.Len()
}

// All yields offset/string pairs in table order.
func (t *NameTable) All() iter.Seq2[uint32, string] {
	if t == nil {
		return func(func(uint32, string) bool) {}
	}
	return t.names.AllFromFront()
}
