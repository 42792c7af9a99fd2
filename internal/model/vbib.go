package model

import (
	"fmt"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// DataBuffer is one vertex or index block carved out of the VBIB data region.
type DataBuffer struct {
	ID   uint32
	Data *buffer.Cursor
}

// ReadVertices reinterprets the start of the block as count vertices.
func (d *DataBuffer) ReadVertices(layout VertexLayout, count int) (*VertexData, error) {
	if count < 0 || layout.Stride == 0 {
		return nil, fmt.Errorf("model: vertex block %d: invalid read of %d x %d bytes", d.ID, count, layout.Stride)
	}
	raw, err := d.bytesAt(0, int64(count)*int64(layout.Stride))
	if err != nil {
		return nil, fmt.Errorf("model: vertex block %d: %w", d.ID, err)
	}
	return &VertexData{Layout: layout, Count: count, raw: raw, order: d.Data.ByteOrder()}, nil
}

// ReadIndices reads count u16 indices starting offset indices into the block.
func (d *DataBuffer) ReadIndices(offset, count int) ([]uint16, error) {
	var out []uint16
	err := d.Data.At(int64(offset)*2, func() error {
		var err error
		out, err = d.Data.ReadU16s(count)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("model: index block %d: %w", d.ID, err)
	}
	return out, nil
}

func (d *DataBuffer) bytesAt(off, n int64) ([]byte, error) {
	var out []byte
	err := d.Data.At(off, func() error {
		b, err := d.Data.ReadBytes(int(n))
		out = b
		return err
	})
	return out, err
}

// VertexIndexBuffers is a decoded VBIB chunk.
type VertexIndexBuffers struct {
	Vertices []DataBuffer
	Indices  []DataBuffer
}

// DecodeVBIB reads a VBIB header at the cursor position. All offsets are
// relative to that position.
func DecodeVBIB(c *buffer.Cursor) (*VertexIndexBuffers, error) {
	entry, err := c.SliceHere(-1)
	if err != nil {
		return nil, fmt.Errorf("model: VBIB: %w", err)
	}
	var hdr struct {
		VertexCount, IndexCount, Total       uint32
		VertexBlocks, VertexData, VertexSize uint32
		IndexBlocks, IndexData, IndexSize    uint32
	}
	if err := entry.ReadStruct(&hdr); err != nil {
		return nil, fmt.Errorf("model: VBIB header: %w", err)
	}
	if err := entry.ExpectU32("VBIB reserved", 0); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	vb := &VertexIndexBuffers{}
	if vb.Vertices, err = decodeBlocks(entry, hdr.VertexBlocks, hdr.VertexData, hdr.VertexCount); err != nil {
		return nil, fmt.Errorf("model: VBIB vertex blocks: %w", err)
	}
	if vb.Indices, err = decodeBlocks(entry, hdr.IndexBlocks, hdr.IndexData, hdr.IndexCount); err != nil {
		return nil, fmt.Errorf("model: VBIB index blocks: %w", err)
	}
	return vb, nil
}

func decodeBlocks(c *buffer.Cursor, tableOff, dataOff, count uint32) ([]DataBuffer, error) {
	blocks := make([]DataBuffer, count)
	err := c.At(int64(tableOff), func() error {
		for i := range blocks {
			at := c.AbsPos()
			var rec struct{ Size, ID, Offset uint32 }
			if err := c.ReadStruct(&rec); err != nil {
				return err
			}
			data, err := c.Slice(int64(dataOff)+int64(rec.Offset), int64(rec.Size))
			if err != nil {
				return &format.FieldError{Kind: format.ErrOutOfBounds, Field: fmt.Sprintf("block %d range", i), Offset: at,
					Got: fmt.Sprintf("0x%X+0x%X", uint64(dataOff)+uint64(rec.Offset), rec.Size)}
			}
			blocks[i] = DataBuffer{ID: rec.ID, Data: data}
		}
		return nil
	})
	return blocks, err
}

// Vertex returns vertex block i.
func (vb *VertexIndexBuffers) Vertex(i int) (*DataBuffer, bool) {
	if vb == nil || i < 0 || i >= len(vb.Vertices) {
		return nil, false
	}
	return &vb.Vertices[i], true
}

// Index returns index block i.
func (vb *VertexIndexBuffers) Index(i int) (*DataBuffer, bool) {
	if vb == nil || i < 0 || i >= len(vb.Indices) {
		return nil, false
	}
	return &vb.Indices[i], true
}
