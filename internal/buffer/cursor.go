package buffer

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nu20-tools/internal/format"
)

var errReadOnly = errors.New("cursor is read-only")

// Cursor is a seekable, endian-aware reader/writer over an in-memory region
// or a file. Slices of a memory cursor share its storage; slices of a file
// cursor are materialized into memory.
//
// A Cursor is not safe for concurrent use. Independent decodes of the same
// file need independent cursors.
type Cursor struct {
	data     []byte   // memory backing, nil when file backed
	file     *os.File // file backing
	size     int64
	pos      int64
	abs      int64 // offset of this cursor's start inside the root buffer
	order    binary.ByteOrder
	growable bool
}

// New wraps data without copying. Writes land in data and may not grow it.
func New(data []byte) *Cursor {
	return &Cursor{data: data, size: int64(len(data)), order: binary.LittleEndian}
}

// NewGrowable returns an empty memory cursor whose writes past the end extend it.
func NewGrowable() *Cursor {
	return &Cursor{order: binary.LittleEndian, growable: true}
}

// Open opens path as a read-only file-backed cursor.
func Open(path string) (*Cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("buffer: open %s: %w", path, err)
	}
	c, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// NewFile wraps an open file. The size is sampled once.
func NewFile(f *os.File) (*Cursor, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("buffer: stat %s: %w", f.Name(), err)
	}
	return &Cursor{file: f, size: st.Size(), order: binary.LittleEndian}, nil
}

// Close releases the file handle of a file-backed cursor.
func (c *Cursor) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *Cursor) Pos() int64       { return c.pos }
func (c *Cursor) Size() int64      { return c.size }
func (c *Cursor) Remaining() int64 { return c.size - c.pos }
func (c *Cursor) IsEmpty() bool    { return c.Remaining() == 0 }

// AbsOffset is the offset of this cursor's first byte inside the root buffer.
func (c *Cursor) AbsOffset() int64 { return c.abs }

// AbsPos is the current position expressed in root-buffer coordinates.
func (c *Cursor) AbsPos() int64 { return c.abs + c.pos }

func (c *Cursor) ByteOrder() binary.ByteOrder { return c.order }
func (c *Cursor) SetBigEndian()               { c.order = binary.BigEndian }
func (c *Cursor) SetLittleEndian()            { c.order = binary.LittleEndian }

func (c *Cursor) String() string {
	if c.file != nil {
		return fmt.Sprintf("<Cursor file=%q %d/%d>", c.file.Name(), c.pos, c.size)
	}
	return fmt.Sprintf("<Cursor %d/%d abs=0x%X>", c.pos, c.size, c.abs)
}

func (c *Cursor) outOfBounds(op string, n int64) error {
	return fmt.Errorf("buffer: %s %d bytes at 0x%X (size 0x%X): %w", op, n, c.AbsPos(), c.size, format.ErrOutOfBounds)
}

// Seek implements io.Seeker. Targets outside [0, Size()] fail with
// format.ErrOutOfBounds and leave the position unchanged.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = c.pos + offset
	case io.SeekEnd:
		target = c.size + offset
	default:
		return c.pos, fmt.Errorf("buffer: seek: invalid whence %d", whence)
	}
	if target < 0 || target > c.size {
		return c.pos, fmt.Errorf("buffer: seek to 0x%X (size 0x%X): %w", target, c.size, format.ErrOutOfBounds)
	}
	c.pos = target
	return target, nil
}

// SeekTo is Seek(off, io.SeekStart) without the returned position.
func (c *Cursor) SeekTo(off int64) error {
	_, err := c.Seek(off, io.SeekStart)
	return err
}

func (c *Cursor) Skip(n int64) error {
	_, err := c.Seek(n, io.SeekCurrent)
	return err
}

// Align advances to the next multiple of n.
func (c *Cursor) Align(n int64) error {
	if n <= 0 {
		return nil
	}
	return c.Skip((n - c.pos%n) % n)
}

// Preserve runs fn and restores the current position afterwards, whatever fn returns.
func (c *Cursor) Preserve(fn func() error) error {
	saved := c.pos
	defer func() { c.pos = saved }()
	return fn()
}

// At seeks to off, runs fn and restores the position that was current before the jump.
func (c *Cursor) At(off int64, fn func() error) error {
	saved := c.pos
	if err := c.SeekTo(off); err != nil {
		return err
	}
	defer func() { c.pos = saved }()
	return fn()
}

// CStringAt reads a NUL-terminated string at off without moving the cursor.
func (c *Cursor) CStringAt(off int64) (string, error) {
	var s string
	err := c.At(off, func() error {
		var err error
		s, err = c.ReadCString()
		return err
	})
	return s, err
}

// Slice returns a cursor over [off, off+size). A size of -1 extends to the end.
// Memory-backed slices share storage with c; file-backed slices are copies.
// The slice starts at position 0 and inherits the current byte order.
func (c *Cursor) Slice(off, size int64) (*Cursor, error) {
	if size == -1 {
		size = c.size - off
	}
	if off < 0 || size < 0 || off > c.size || size > c.size-off {
		return nil, fmt.Errorf("buffer: slice [0x%X, +0x%X) of 0x%X: %w", off, size, c.size, format.ErrOutOfBounds)
	}
	s := &Cursor{size: size, abs: c.abs + off, order: c.order}
	if c.file != nil {
		s.data = make([]byte, size)
		if size > 0 {
			if _, err := c.file.ReadAt(s.data, c.abs+off); err != nil {
				return nil, fmt.Errorf("buffer: slice read at 0x%X: %w", off, err)
			}
		}
		return s, nil
	}
	end := off + size
	s.data = c.data[off:end:end]
	return s, nil
}

// SliceHere slices from the current position without advancing it.
func (c *Cursor) SliceHere(size int64) (*Cursor, error) {
	return c.Slice(c.pos, size)
}

// Bytes returns the whole region. For memory cursors the result aliases the
// backing storage; file cursors return a fresh copy.
func (c *Cursor) Bytes() ([]byte, error) {
	if c.file == nil {
		return c.data[:c.size], nil
	}
	b := make([]byte, c.size)
	if _, err := c.file.ReadAt(b, c.abs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("buffer: read %s: %w", c.file.Name(), err)
	}
	return b, nil
}

// Preview hex-dumps up to 64 bytes from the current position.
func (c *Cursor) Preview() string {
	n := min(c.Remaining(), 64)
	b, err := c.Peek(int(n))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(b); i += 4 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToUpper(hex.EncodeToString(b[i:min(i+4, len(b))])))
	}
	return sb.String()
}
