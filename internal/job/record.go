package job

import (
	"errors"
	"fmt"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// Record is one self-framed unit of a JOB stream: u32 total size (counting
// itself), a sized name, then the payload. Payload covers everything after
// the size field and is positioned just past the name.
type Record struct {
	Name    string
	Offset  int64 // absolute offset of the size field
	Payload *buffer.Cursor
}

// ReadRecord frames the record at the cursor position and advances past it.
// On failure the cursor is left where it was.
func ReadRecord(c *buffer.Cursor) (Record, error) {
	start := c.Pos()
	r := Record{Offset: c.AbsPos()}
	size, err := c.ReadU32()
	if err != nil {
		return r, fmt.Errorf("record size: %w", err)
	}
	fail := func(err error) (Record, error) {
		if serr := c.SeekTo(start); serr != nil {
			return r, errors.Join(err, serr)
		}
		return r, err
	}
	if size < 8 {
		return fail(format.SizeMismatch("record size", r.Offset, size, ">= 8"))
	}
	if r.Payload, err = c.SliceHere(int64(size) - 4); err != nil {
		return fail(fmt.Errorf("record at 0x%X: %w", r.Offset, err))
	}
	if r.Name, err = r.Payload.ReadSizedString(); err != nil {
		return fail(fmt.Errorf("record at 0x%X name: %w", r.Offset, err))
	}
	if err := c.Skip(int64(size) - 4); err != nil {
		return fail(fmt.Errorf("record at 0x%X: %w", r.Offset, err))
	}
	return r, nil
}

// decodeRecord runs fn over the record payload and requires the payload to be
// fully consumed afterwards.
func decodeRecord[T any](r Record, fn func(*buffer.Cursor) (T, error)) (T, error) {
	v, err := fn(r.Payload)
	if err != nil {
		return v, fmt.Errorf("%s: %w", r.Name, err)
	}
	if err := r.Payload.ExpectExhausted(r.Name); err != nil {
		return v, err
	}
	return v, nil
}

// readTyped frames the next record and decodes it with fn.
func readTyped[T any](c *buffer.Cursor, fn func(*buffer.Cursor) (T, error)) (T, Record, error) {
	r, err := ReadRecord(c)
	if err != nil {
		var zero T
		return zero, r, err
	}
	v, err := decodeRecord(r, fn)
	return v, r, err
}

// readList decodes "u32 count, count records" with fn applied to each record.
func readList[T any](c *buffer.Cursor, what string, fn func(*buffer.Cursor) (T, error)) ([]T, error) {
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%s count: %w", what, err)
	}
	// every record is at least 8 bytes
	if int64(count)*8 > c.Remaining() {
		return nil, fmt.Errorf("%s: %d records: %w", what, count, format.ErrOutOfBounds)
	}
	out := make([]T, 0, count)
	for i := range count {
		v, _, err := readTyped(c, fn)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", what, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
