package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// AnimatedTexture is one TAS0 entry. Frames lists texture indices, one per frame.
type AnimatedTexture struct {
	Unk             uint32
	Unk1            uint32
	FrameOffset     uint32 // in u16 units inside the frame table
	FrameCount      uint16
	Unk2            uint16
	Material        uint32
	Unk3            uint32
	NameOffset      uint32
	OtherNameOffset uint32
	Frames          []uint16
}

type animatedHeader struct {
	Unk, Unk1, FrameOffset      uint32
	FrameCount, Unk2            uint16
	Material, Unk3, Name, Other uint32
}

// DecodeAnimatedTextures reads a TAS0 chunk: u32 count, u32 0, count 32-byte
// records, then a u32-counted u16 frame table.
func DecodeAnimatedTextures(c *buffer.Cursor) ([]AnimatedTexture, error) {
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("model: TAS0 count: %w", err)
	}
	if err := c.ExpectU32("TAS0 reserved", 0); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	records, err := c.SliceHere(int64(count) * 32)
	if err != nil {
		return nil, fmt.Errorf("model: TAS0 records: %w", err)
	}
	if err := c.Skip(int64(count) * 32); err != nil {
		return nil, err
	}
	frameCount, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("model: TAS0 frame table size: %w", err)
	}
	table, err := c.SliceHere(int64(frameCount) * 2)
	if err != nil {
		return nil, fmt.Errorf("model: TAS0 frame table: %w", err)
	}

	out := make([]AnimatedTexture, count)
	for i := range out {
		var h animatedHeader
		if err := records.ReadStruct(&h); err != nil {
			return nil, fmt.Errorf("model: animated texture %d: %w", i, err)
		}
		a := AnimatedTexture{
			Unk: h.Unk, Unk1: h.Unk1, FrameOffset: h.FrameOffset, FrameCount: h.FrameCount,
			Unk2: h.Unk2, Material: h.Material, Unk3: h.Unk3, NameOffset: h.Name, OtherNameOffset: h.Other,
		}
		err := table.At(int64(h.FrameOffset)*2, func() error {
			var err error
			a.Frames, err = table.ReadU16s(int(h.FrameCount))
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("model: animated texture %d frames: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}

// ForMaterial returns the first animated texture bound to material.
func ForMaterial(anims []AnimatedTexture, material uint32) (int, bool) {
	for i := range anims {
		if anims[i].Material == material {
			return i, true
		}
	}
	return 0, false
}

// Spline is one SST0 curve.
type Spline struct {
	NameOffset uint32
	Flags      uint16
	Points     []mgl32.Vec3
}

// DecodeSplines reads an SST0 chunk: u32 count, u32 0, count headers of
// (u32 name, u16 points, u16 flags, u32 first point), then a u32-counted
// shared point array.
func DecodeSplines(c *buffer.Cursor) ([]Spline, error) {
	type header struct {
		Name         uint32
		Points, Flag uint16
		First        uint32
	}
	headers, err := decodeList[header](c, "SST0", 12)
	if err != nil {
		return nil, err
	}
	totalAt := c.AbsPos()
	total, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("model: SST0 point count: %w", err)
	}
	if int64(total)*12 > c.Remaining() {
		return nil, fmt.Errorf("model: SST0: %d points: %w", total, format.ErrOutOfBounds)
	}
	points := make([]mgl32.Vec3, total)
	for i := range points {
		if points[i], err = c.ReadVec3(); err != nil {
			return nil, fmt.Errorf("model: SST0 point %d: %w", i, err)
		}
	}

	out := make([]Spline, len(headers))
	for i, h := range headers {
		end := uint64(h.First) + uint64(h.Points)
		if end > uint64(total) {
			return nil, fmt.Errorf("model: spline %d: %w", i, format.SizeMismatch("point range", totalAt, end, fmt.Sprintf("<= %d", total)))
		}
		out[i] = Spline{NameOffset: h.Name, Flags: h.Flag, Points: points[h.First:end]}
	}
	return out, nil
}
