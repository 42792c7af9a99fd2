package model

import (
	"fmt"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/nu20"
)

// GHG wraps a NU20 container behind a small prefix.
type GHG struct {
	NUPOffset uint32
	Count     uint16
	Container *nu20.Container
	Names     *NameTable
}

// DecodeGHG reads the prefix and the embedded NU20 envelope, which starts
// four bytes past NUPOffset and runs to the end of the cursor.
func DecodeGHG(c *buffer.Cursor) (*GHG, error) {
	g := &GHG{}
	var err error
	if g.NUPOffset, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("ghg: header: %w", err)
	}
	if g.Count, err = c.ReadU16(); err != nil {
		return nil, fmt.Errorf("ghg: header: %w", err)
	}
	body, err := c.Slice(int64(g.NUPOffset)+4, -1)
	if err != nil {
		return nil, fmt.Errorf("ghg: embedded NU20: %w", err)
	}
	if g.Container, err = nu20.Parse(body); err != nil {
		return nil, fmt.Errorf("ghg: %w", err)
	}
	if d := g.Container.Data("NTBL"); d != nil {
		if g.Names, err = DecodeNameTable(d); err != nil {
			return nil, fmt.Errorf("ghg: %w", err)
		}
	}
	return g, nil
}
