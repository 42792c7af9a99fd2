// Package pak indexes flat PAK archives: a magic word, a file count and a
// directory of fixed-size entries whose names live elsewhere in the file.
package pak

import (
	"fmt"
	"iter"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/gobwas/glob"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

const (
	Magic          = 0x12345678
	DirectoryStart = 0x18
	EntrySize      = 28
)

// Entry is one directory record.
type Entry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Archive is an opened PAK index. Member bytes are sliced on demand.
type Archive struct {
	c       *buffer.Cursor
	entries *orderedmap.OrderedMap[string, Entry]
}

// Open indexes the archive at path. The file stays open until Close.
func Open(path string) (*Archive, error) {
	c, err := buffer.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pak: %w", err)
	}
	a, err := New(c)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return a, nil
}

// New indexes an archive held by c. A later entry with a duplicate name
// replaces the earlier one.
func New(c *buffer.Cursor) (*Archive, error) {
	if err := c.SeekTo(0); err != nil {
		return nil, fmt.Errorf("pak: %w", err)
	}
	at := c.AbsPos()
	magic, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("pak: magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("pak: %w", format.Mismatch("magic", at, fmt.Sprintf("0x%08X", magic), fmt.Sprintf("0x%08X", Magic)))
	}
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("pak: file count: %w", err)
	}
	if err := c.SeekTo(DirectoryStart); err != nil {
		return nil, fmt.Errorf("pak: directory: %w", err)
	}
	if int64(count)*EntrySize > c.Remaining() {
		return nil, fmt.Errorf("pak: %d entries: %w", count, format.ErrOutOfBounds)
	}

	a := &Archive{c: c, entries: orderedmap.NewOrderedMap[string, Entry]()}
	for i := range count {
		at := c.AbsPos()
		var rec struct{ NameOffset, Offset, Size uint32 }
		if err := c.ReadStruct(&rec); err != nil {
			return nil, fmt.Errorf("pak: entry %d: %w", i, err)
		}
		if err := c.Skip(16); err != nil {
			return nil, fmt.Errorf("pak: entry %d: %w", i, err)
		}
		name, err := c.CStringAt(int64(rec.NameOffset))
		if err != nil {
			return nil, fmt.Errorf("pak: entry %d name: %w", i, err)
		}
		if int64(rec.Offset)+int64(rec.Size) > c.Size() {
			return nil, fmt.Errorf("pak: entry %s: %w", name, &format.FieldError{
				Kind: format.ErrOutOfBounds, Field: "member range", Offset: at,
				Got:  fmt.Sprintf("0x%X+0x%X", rec.Offset, rec.Size), Want: fmt.Sprintf("<= 0x%X", c.Size()),
			})
		}
		a.entries.Set(name, Entry{Name: name, Offset: rec.Offset, Size: rec.Size})
	}
	return a, nil
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error { return a.c.Close() }

// Len is the number of distinct member names.
func (a *Archive) Len() int { return a.entries.Len() }

// Lookup returns the directory entry for name.
func (a *Archive) Lookup(name string) (Entry, bool) { return a.entries.Get(name) }

// Read returns the bytes of e. File-backed archives return an owned copy.
func (a *Archive) Read(e Entry) (*buffer.Cursor, error) {
	s, err := a.c.Slice(int64(e.Offset), int64(e.Size))
	if err != nil {
		return nil, fmt.Errorf("pak: %s: %w", e.Name, err)
	}
	return s, nil
}

// Get returns the bytes of the member named name. It reports false when the
// name is absent or the member cannot be read.
func (a *Archive) Get(name string) (*buffer.Cursor, bool) {
	e, ok := a.entries.Get(name)
	if !ok {
		return nil, false
	}
	s, err := a.Read(e)
	if err != nil {
		return nil, false
	}
	return s, true
}

// Entries yields directory entries in directory order.
func (a *Archive) Entries() iter.Seq[Entry] { return a.entries.Values() }

// Files yields every member. A member that cannot be read is yielded with a
// nil cursor.
func (a *Archive) Files() iter.Seq2[string, *buffer.Cursor] {
	return a.filter(func(string) bool { return true })
}

// Glob yields members whose names match a shell pattern. Wildcards also
// match path separators.
func (a *Archive) Glob(pattern string) (iter.Seq2[string, *buffer.Cursor], error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("pak: pattern %q: %w", pattern, err)
	}
	return a.filter(g.Match), nil
}

func (a *Archive) filter(match func(string) bool) iter.Seq2[string, *buffer.Cursor] {
	return func(yield func(string, *buffer.Cursor) bool) {
		for e := range a.Entries() {
			if !match(e.Name) {
				continue
			}
			s, _ := a.Read(e)
			if !yield(e.Name, s) {
				return
			}
		}
	}
}
