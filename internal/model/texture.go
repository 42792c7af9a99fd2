package model

import (
	"fmt"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// Texture is one TST0/TST2 entry. Data holds the raw texture file, normally a DDS.
type Texture struct {
	Width  int32
	Height int32
	Unk    uint32
	Format uint32
	Offset uint32 // start inside the texture data region
	Data   []byte
}

type textureHeader struct {
	Width, Height       int32
	Unk, Format, Offset uint32
}

// DecodeTextures reads a TST0/TST2 table at the cursor position. Header
// offsets are relative to that position.
func DecodeTextures(c *buffer.Cursor) ([]Texture, error) {
	entry, err := c.SliceHere(-1)
	if err != nil {
		return nil, fmt.Errorf("model: TST0: %w", err)
	}
	var hdr struct {
		Count, DataSize, IndexOffset, DataOffset, RawSize uint32
	}
	if err := entry.ReadStruct(&hdr); err != nil {
		return nil, fmt.Errorf("model: TST0 header: %w", err)
	}
	if err := entry.SeekTo(int64(hdr.IndexOffset)); err != nil {
		return nil, fmt.Errorf("model: TST0 index: %w", err)
	}

	texs := make([]Texture, hdr.Count)
	for i := range texs {
		var th textureHeader
		if err := entry.ReadStruct(&th); err != nil {
			return nil, fmt.Errorf("model: texture %d header: %w", i, err)
		}
		texs[i] = Texture{Width: th.Width, Height: th.Height, Unk: th.Unk, Format: th.Format, Offset: th.Offset}
	}

	region, err := entry.Slice(int64(hdr.DataOffset), int64(hdr.RawSize))
	if err != nil {
		return nil, fmt.Errorf("model: TST0 data region: %w", err)
	}
	// Second pass: extents follow from the next texture's offset.
	for i := range texs {
		end := hdr.RawSize
		if i+1 < len(texs) {
			end = texs[i+1].Offset
		}
		if texs[i].Offset > end {
			return nil, fmt.Errorf("model: texture %d: %w", i,
				format.Mismatch("offset", region.AbsOffset(), texs[i].Offset, fmt.Sprintf("<= 0x%X", end)))
		}
		if err := region.SeekTo(int64(texs[i].Offset)); err != nil {
			return nil, fmt.Errorf("model: texture %d: %w", i, err)
		}
		if texs[i].Data, err = region.ReadBytes(int(end - texs[i].Offset)); err != nil {
			return nil, fmt.Errorf("model: texture %d data: %w", i, err)
		}
	}
	return texs, nil
}
