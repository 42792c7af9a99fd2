package job

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/elliotchance/orderedmap/v3"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// Editor record names the decoder understands.
const (
	ClassEditorName  = "Class Editor"
	SplineEditorName = "Splines"
)

// Editor is one decoded entry of the "Editors" record.
type Editor interface {
	EditorName() string
}

// Editors holds decoded editors keyed by name in stream order.
type Editors struct {
	m       *orderedmap.OrderedMap[string, Editor]
	Skipped []string
}

// Get returns the editor named name.
func (e *Editors) Get(name string) (Editor, bool) {
	if e == nil {
		return nil, false
	}
	return e.m.Get(name)
}

func (e *Editors) Len() int {
	if e == nil {
		return 0
	}
	return e.m.Len()
}

// All yields editors in stream order.
func (e *Editors) All() iter.Seq2[string, Editor] {
	return func(yield func(string, Editor) bool) {
		if e == nil {
			return
		}
		for k, v := range e.m.AllFromFront() {
			if !yield(k, v) {
				return
			}
		}
	}
}

func decodeEditors(c *buffer.Cursor, log *slog.Logger) (*Editors, error) {
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("editor count: %w", err)
	}
	eds := &Editors{m: orderedmap.NewOrderedMap[string, Editor]()}
	for i := range count {
		r, err := ReadRecord(c)
		if err != nil {
			return nil, fmt.Errorf("editor %d: %w", i, err)
		}
		var ed Editor
		switch r.Name {
		case ClassEditorName:
			ed, err = decodeRecord(r, func(p *buffer.Cursor) (Editor, error) { return decodeClassEditor(p, r.Name) })
		case SplineEditorName:
			ed, err = decodeRecord(r, func(p *buffer.Cursor) (Editor, error) { return decodeSplineEditor(p, r.Name, log) })
		default:
			log.Warn("job: skipping unhandled editor", "name", r.Name, "offset", r.Offset)
			eds.Skipped = append(eds.Skipped, r.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("editor %d: %w", i, err)
		}
		eds.m.Set(r.Name, ed)
	}
	return eds, nil
}

// Type is one entry of the reflection type table.
type Type struct {
	Name string
}

// Member is one field of a reflected class.
type Member struct {
	TypeID uint32
	Type   *Type
	Name   string
	Offset uint32
	Unk0   uint32
	Unk1   uint32
	at     int64
}

// Class is a reflected class with members sorted by offset.
type Class struct {
	Name    string
	Members []Member
}

// ObjectList is a named list of object records whose payloads are kept undecoded.
type ObjectList struct {
	Name    string
	Objects []Record
}

// ClassEditor holds the reflection metadata of a level.
type ClassEditor struct {
	Name        string
	Types       []Type
	Classes     []Class
	ObjectLists [3]ObjectList
}

func (e *ClassEditor) EditorName() string { return e.Name }

// Class finds a class by name.
func (e *ClassEditor) Class(name string) (*Class, bool) {
	for i := range e.Classes {
		if e.Classes[i].Name == name {
			return &e.Classes[i], true
		}
	}
	return nil, false
}

func decodeType(c *buffer.Cursor) (Type, error) {
	name, err := c.ReadSizedString()
	return Type{Name: name}, err
}

func decodeMember(c *buffer.Cursor) (Member, error) {
	m := Member{at: c.AbsPos()}
	var err error
	if m.TypeID, err = c.ReadU32(); err != nil {
		return m, err
	}
	if m.Name, err = c.ReadSizedString(); err != nil {
		return m, err
	}
	var tail struct{ Offset, Unk0, Unk1 uint32 }
	if err := c.ReadStruct(&tail); err != nil {
		return m, err
	}
	m.Offset, m.Unk0, m.Unk1 = tail.Offset, tail.Unk0, tail.Unk1
	return m, nil
}

func decodeClass(c *buffer.Cursor) (Class, error) {
	cl := Class{}
	var err error
	if cl.Name, err = c.ReadSizedString(); err != nil {
		return cl, fmt.Errorf("class name: %w", err)
	}
	n, err := c.ReadU32()
	if err != nil {
		return cl, fmt.Errorf("class %s member count: %w", cl.Name, err)
	}
	// smallest member: type id, empty name, three words
	if int64(n)*20 > c.Remaining() {
		return cl, fmt.Errorf("class %s: %d members: %w", cl.Name, n, format.ErrOutOfBounds)
	}
	cl.Members = make([]Member, n)
	for i := range cl.Members {
		if cl.Members[i], err = decodeMember(c); err != nil {
			return cl, fmt.Errorf("class %s member %d: %w", cl.Name, i, err)
		}
	}
	slices.SortStableFunc(cl.Members, func(a, b Member) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	return cl, nil
}

func decodeObjectList(c *buffer.Cursor, name string) (ObjectList, error) {
	ol := ObjectList{Name: name}
	count, err := c.ReadU32()
	if err != nil {
		return ol, fmt.Errorf("object count: %w", err)
	}
	if int64(count)*8 > c.Remaining() {
		return ol, fmt.Errorf("%d objects: %w", count, format.ErrOutOfBounds)
	}
	ol.Objects = make([]Record, count)
	for i := range ol.Objects {
		if ol.Objects[i], err = ReadRecord(c); err != nil {
			return ol, fmt.Errorf("object %d: %w", i, err)
		}
	}
	return ol, nil
}

func decodeClassEditor(c *buffer.Cursor, name string) (*ClassEditor, error) {
	e := &ClassEditor{Name: name}
	var err error
	if e.Types, _, err = readTyped(c, func(p *buffer.Cursor) ([]Type, error) {
		return readList(p, "type", decodeType)
	}); err != nil {
		return nil, fmt.Errorf("type list: %w", err)
	}
	if e.Classes, _, err = readTyped(c, func(p *buffer.Cursor) ([]Class, error) {
		return readList(p, "class", decodeClass)
	}); err != nil {
		return nil, fmt.Errorf("class list: %w", err)
	}
	for ci := range e.Classes {
		for mi := range e.Classes[ci].Members {
			m := &e.Classes[ci].Members[mi]
			if int64(m.TypeID) >= int64(len(e.Types)) {
				return nil, fmt.Errorf("class %s member %s: %w", e.Classes[ci].Name, m.Name,
					format.Mismatch("type id", m.at, m.TypeID, fmt.Sprintf("< %d", len(e.Types))))
			}
			m.Type = &e.Types[m.TypeID]
		}
	}
	for i := range e.ObjectLists {
		r, err := ReadRecord(c)
		if err != nil {
			return nil, fmt.Errorf("object list %d: %w", i, err)
		}
		if e.ObjectLists[i], err = decodeRecord(r, func(p *buffer.Cursor) (ObjectList, error) {
			return decodeObjectList(p, r.Name)
		}); err != nil {
			return nil, fmt.Errorf("object list %d: %w", i, err)
		}
	}
	return e, nil
}
