package buffer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// put reserves n bytes at the current position and advances past them.
// Growable cursors extend; fixed cursors fail with format.ErrOutOfBounds.
func (c *Cursor) put(n int64) ([]byte, error) {
	if c.file != nil {
		return nil, fmt.Errorf("buffer: write: %w", errReadOnly)
	}
	end := c.pos + n
	if end > c.size {
		if !c.growable {
			return nil, c.outOfBounds("write", n)
		}
		if end > int64(cap(c.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(c.data))))
			copy(grown, c.data)
			c.data = grown
		} else {
			c.data = c.data[:end]
		}
		c.size = end
	}
	b := c.data[c.pos:end]
	c.pos = end
	return b, nil
}

func (c *Cursor) WriteBytes(p []byte) error {
	b, err := c.put(int64(len(p)))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// Write implements io.Writer.
func (c *Cursor) Write(p []byte) (int, error) {
	if err := c.WriteBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Cursor) WriteU8(v uint8) error {
	b, err := c.put(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (c *Cursor) WriteI8(v int8) error { return c.WriteU8(uint8(v)) }

func (c *Cursor) WriteU16(v uint16) error {
	b, err := c.put(2)
	if err != nil {
		return err
	}
	c.order.PutUint16(b, v)
	return nil
}

func (c *Cursor) WriteI16(v int16) error { return c.WriteU16(uint16(v)) }

func (c *Cursor) WriteU32(v uint32) error {
	b, err := c.put(4)
	if err != nil {
		return err
	}
	c.order.PutUint32(b, v)
	return nil
}

func (c *Cursor) WriteI32(v int32) error { return c.WriteU32(uint32(v)) }

func (c *Cursor) WriteU64(v uint64) error {
	b, err := c.put(8)
	if err != nil {
		return err
	}
	c.order.PutUint64(b, v)
	return nil
}

func (c *Cursor) WriteI64(v int64) error   { return c.WriteU64(uint64(v)) }
func (c *Cursor) WriteF32(v float32) error { return c.WriteU32(math.Float32bits(v)) }
func (c *Cursor) WriteF64(v float64) error { return c.WriteU64(math.Float64bits(v)) }

// WriteZeros writes n zero bytes.
func (c *Cursor) WriteZeros(n int) error {
	b, err := c.put(int64(n))
	if err != nil {
		return err
	}
	clear(b)
	return nil
}

// WriteASCII writes s, optionally NUL-terminated, then pads with NULs up to
// padTo bytes. A padTo of 0 disables padding.
func (c *Cursor) WriteASCII(s string, zeroTerminated bool, padTo int) error {
	b := []byte(s)
	if zeroTerminated {
		b = append(b, 0)
	}
	if padTo > 0 {
		if len(b) > padTo {
			return fmt.Errorf("buffer: string %q longer than %d bytes", s, padTo)
		}
		b = append(b, make([]byte, padTo-len(b))...)
	}
	return c.WriteBytes(b)
}

func (c *Cursor) WriteFourCC(tag string) error { return c.WriteASCII(tag, false, 4) }

// WriteStruct encodes a fixed-size value in the cursor's byte order.
func (c *Cursor) WriteStruct(v any) error {
	b, err := binary.Append(nil, c.order, v)
	if err != nil {
		return fmt.Errorf("buffer: encode %T: %w", v, err)
	}
	return c.WriteBytes(b)
}

func (c *Cursor) WriteVec3(v mgl32.Vec3) error { return c.WriteStruct(v) }
func (c *Cursor) WriteMat4(m mgl32.Mat4) error { return c.WriteStruct(m) }

// PatchU32At overwrites a uint32 at off without moving the cursor.
func (c *Cursor) PatchU32At(off int64, v uint32) error {
	return c.At(off, func() error { return c.WriteU32(v) })
}
