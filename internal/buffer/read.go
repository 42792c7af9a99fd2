package buffer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/encoding/charmap"

	"nu20-tools/internal/format"
)

// take returns the next n bytes and advances. Memory cursors return a view
// into the backing storage.
func (c *Cursor) take(n int64) ([]byte, error) {
	if n < 0 || n > c.size-c.pos {
		return nil, c.outOfBounds("read", n)
	}
	if n == 0 {
		return []byte{}, nil
	}
	if c.file != nil {
		b := make([]byte, n)
		if _, err := c.file.ReadAt(b, c.abs+c.pos); err != nil {
			return nil, fmt.Errorf("buffer: read %d bytes at 0x%X: %w", n, c.pos, err)
		}
		c.pos += n
		return b, nil
	}
	b := c.data[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.IsEmpty() {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := min(int64(len(p)), c.Remaining())
	b, err := c.take(n)
	if err != nil {
		return 0, err
	}
	return copy(p, b), nil
}

// ReadBytes returns the next n bytes. Memory cursors return a view that must
// not be modified unless the caller owns the backing storage.
func (c *Cursor) ReadBytes(n int) ([]byte, error) { return c.take(int64(n)) }

// Peek returns the next n bytes without advancing.
func (c *Cursor) Peek(n int) ([]byte, error) {
	b, err := c.take(int64(n))
	if err != nil {
		return nil, err
	}
	c.pos -= int64(n)
	return b, nil
}

func (c *Cursor) PeekU32() (uint32, error) {
	b, err := c.Peek(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadI8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadU64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(b), nil
}

func (c *Cursor) ReadI64() (int64, error) {
	v, err := c.ReadU64()
	return int64(v), err
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

func (c *Cursor) ReadF64() (float64, error) {
	v, err := c.ReadU64()
	return math.Float64frombits(v), err
}

// ReadU16s reads n consecutive uint16 values.
func (c *Cursor) ReadU16s(n int) ([]uint16, error) {
	b, err := c.take(int64(n) * 2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = c.order.Uint16(b[i*2:])
	}
	return out, nil
}

// ReadU32s reads n consecutive uint32 values.
func (c *Cursor) ReadU32s(n int) ([]uint32, error) {
	b, err := c.take(int64(n) * 4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = c.order.Uint32(b[i*4:])
	}
	return out, nil
}

// ReadStruct decodes a fixed-size value (see encoding/binary) in the cursor's byte order.
func (c *Cursor) ReadStruct(v any) error {
	n := binary.Size(v)
	if n < 0 {
		return fmt.Errorf("buffer: ReadStruct: %T has no fixed size", v)
	}
	b, err := c.take(int64(n))
	if err != nil {
		return err
	}
	if _, err := binary.Decode(b, c.order, v); err != nil {
		return fmt.Errorf("buffer: decode %T: %w", v, err)
	}
	return nil
}

func (c *Cursor) ReadVec3() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	err := c.ReadStruct(&v)
	return v, err
}

// ReadMat4 reads 16 floats in storage order, which is column-major.
func (c *Cursor) ReadMat4() (mgl32.Mat4, error) {
	var m mgl32.Mat4
	err := c.ReadStruct(&m)
	return m, err
}

func decodeLatin1(b []byte) string {
	ascii := true
	for _, ch := range b {
		if ch >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// ReadASCII reads exactly n bytes, trims NUL padding and cuts at the first
// embedded NUL. Bytes are decoded as Latin-1.
func (c *Cursor) ReadASCII(n int) (string, error) {
	b, err := c.take(int64(n))
	if err != nil {
		return "", err
	}
	b = bytes.Trim(b, "\x00")
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return decodeLatin1(b), nil
}

// ReadCString reads up to and including the next NUL, or to the end of the
// cursor when there is none.
func (c *Cursor) ReadCString() (string, error) {
	var out []byte
	for !c.IsEmpty() {
		chunk := min(c.Remaining(), 64)
		b, err := c.Peek(int(chunk))
		if err != nil {
			return "", err
		}
		if i := bytes.IndexByte(b, 0); i >= 0 {
			out = append(out, b[:i]...)
			c.pos += int64(i) + 1
			return decodeLatin1(out), nil
		}
		out = append(out, b...)
		c.pos += chunk
	}
	return decodeLatin1(out), nil
}

func (c *Cursor) ReadFourCC() (string, error) { return c.ReadASCII(4) }

// ReadSizedString reads a uint32 length followed by that many bytes.
func (c *Cursor) ReadSizedString() (string, error) {
	n, err := c.ReadU32()
	if err != nil {
		return "", err
	}
	if int64(n) > c.Remaining() {
		c.pos -= 4
		return "", c.outOfBounds("read string", int64(n))
	}
	return c.ReadASCII(int(n))
}

// ExpectU32 reads a uint32 and fails with format.ErrFormatMismatch unless it equals want.
func (c *Cursor) ExpectU32(field string, want uint32) error {
	at := c.AbsPos()
	v, err := c.ReadU32()
	if err != nil {
		return err
	}
	if v != want {
		return format.Mismatch(field, at, v, want)
	}
	return nil
}

func (c *Cursor) ExpectI32(field string, want int32) error {
	at := c.AbsPos()
	v, err := c.ReadI32()
	if err != nil {
		return err
	}
	if v != want {
		return format.Mismatch(field, at, v, want)
	}
	return nil
}

// ExpectZero reads n bytes that must all be zero.
func (c *Cursor) ExpectZero(field string, n int) error {
	at := c.AbsPos()
	b, err := c.take(int64(n))
	if err != nil {
		return err
	}
	for i, v := range b {
		if v != 0 {
			return format.Mismatch(field, at+int64(i), fmt.Sprintf("0x%02X", v), "0x00")
		}
	}
	return nil
}

func (c *Cursor) ExpectFourCC(want string) error {
	at := c.AbsPos()
	tag, err := c.ReadFourCC()
	if err != nil {
		return err
	}
	if tag != want {
		return format.Mismatch("tag", at, fmt.Sprintf("%q", tag), fmt.Sprintf("%q", want))
	}
	return nil
}

// ExpectExhausted fails with format.ErrNotExhausted when bytes remain.
func (c *Cursor) ExpectExhausted(what string) error {
	if c.IsEmpty() {
		return nil
	}
	return &format.FieldError{
		Kind:   format.ErrNotExhausted,
		Field:  what,
		Offset: c.AbsPos(),
		Got:    fmt.Sprintf("%d trailing bytes", c.Remaining()),
	}
}
