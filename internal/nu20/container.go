// Package nu20 splits a NU20 envelope into its tagged chunks.
package nu20

import (
	"fmt"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// HeaderSize is the fixed envelope prefix: tag, negated size, version, reserved.
const HeaderSize = 16

// Chunk is one tagged payload. Data starts right after the 8-byte chunk header.
type Chunk struct {
	Tag  string
	Size uint32 // declared size including the chunk header, after the VBIB fixup
	Data *buffer.Cursor
}

// Container is the ordered chunk list of one NU20 envelope.
type Container struct {
	Chunks []Chunk
}

// Parse reads the envelope starting at the cursor's current position, which
// must be the beginning of the cursor.
func Parse(c *buffer.Cursor) (*Container, error) {
	if err := c.ExpectFourCC("NU20"); err != nil {
		return nil, fmt.Errorf("nu20: %w", err)
	}
	at := c.AbsPos()
	neg, err := c.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("nu20: file size: %w", err)
	}
	if size := -int64(neg); size != c.Size() {
		return nil, fmt.Errorf("nu20: %w", format.SizeMismatch("file size", at, size, c.Size()))
	}
	if err := c.ExpectU32("version", 1); err != nil {
		return nil, fmt.Errorf("nu20: %w", err)
	}
	if err := c.ExpectU32("reserved", 0); err != nil {
		return nil, fmt.Errorf("nu20: %w", err)
	}

	ct := &Container{}
	for c.Remaining() >= 4 {
		tag, err := c.ReadFourCC()
		if err != nil {
			return nil, fmt.Errorf("nu20: chunk tag: %w", err)
		}
		if !printable(tag) {
			break
		}
		at := c.AbsPos()
		size, err := c.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("nu20: %s size: %w", tag, err)
		}
		if tag == "VBIB" && size == 16 {
			size = 48
		}
		if size < 8 || int64(size-8) > c.Remaining() {
			return nil, fmt.Errorf("nu20: %w", format.SizeMismatch(tag+" size", at, size, fmt.Sprintf("8..%d", c.Remaining()+8)))
		}
		data, err := c.SliceHere(int64(size - 8))
		if err != nil {
			return nil, fmt.Errorf("nu20: %s payload: %w", tag, err)
		}
		if err := c.Skip(int64(size - 8)); err != nil {
			return nil, fmt.Errorf("nu20: %s payload: %w", tag, err)
		}
		ct.Chunks = append(ct.Chunks, Chunk{Tag: tag, Size: size, Data: data})
	}
	return ct, nil
}

// printable reports whether tag is a non-empty run of printable ASCII.
func printable(tag string) bool {
	if tag == "" {
		return false
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] < 0x20 || tag[i] > 0x7E {
			return false
		}
	}
	return true
}

// Find returns the first chunk tagged tag.
func (ct *Container) Find(tag string) (Chunk, bool) {
	for _, ch := range ct.Chunks {
		if ch.Tag == tag {
			return ch, true
		}
	}
	return Chunk{}, false
}

// Data is Find returning only the payload, nil when absent.
func (ct *Container) Data(tag string) *buffer.Cursor {
	if ch, ok := ct.Find(tag); ok {
		return ch.Data
	}
	return nil
}

// Tags lists chunk tags in stream order.
func (ct *Container) Tags() []string {
	tags := make([]string, len(ct.Chunks))
	for i, ch := range ct.Chunks {
		tags[i] = ch.Tag
	}
	return tags
}
