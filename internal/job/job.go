// Package job decodes JOB scene files: a stream of self-framed named records
// carrying reflection metadata and spline paths for a level.
package job

import (
	"fmt"
	"log/slog"

	"nu20-tools/internal/buffer"
)

// FileInfo is the payload of the "FileInfo" record.
type FileInfo struct {
	Unk uint32
}

// Settings is the payload of the "Settings" record.
type Settings struct {
	Unk0 float32
	Unk1 uint32
}

// Job is a decoded JOB file. Records missing from the stream leave their field nil.
type Job struct {
	RecordCount uint32
	FileInfo    *FileInfo
	Settings    *Settings
	Editors     *Editors
	Skipped     []string // names of top-level records nobody decodes
}

type options struct {
	log *slog.Logger
}

// Option configures Decode.
type Option func(*options)

// WithLogger routes warnings about skipped records to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Decode reads a JOB stream from the cursor position.
func Decode(c *buffer.Cursor, opts ...Option) (*Job, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	count, _, err := readTyped(c, func(p *buffer.Cursor) (uint32, error) { return p.ReadU32() })
	if err != nil {
		return nil, fmt.Errorf("job: stream info: %w", err)
	}
	j := &Job{RecordCount: count}

	for i := range count {
		r, err := ReadRecord(c)
		if err != nil {
			return nil, fmt.Errorf("job: record %d: %w", i, err)
		}
		switch r.Name {
		case "FileInfo":
			fi, err := decodeRecord(r, decodeFileInfo)
			if err != nil {
				return nil, fmt.Errorf("job: %w", err)
			}
			j.FileInfo = &fi
		case "Settings":
			s, err := decodeRecord(r, decodeSettings)
			if err != nil {
				return nil, fmt.Errorf("job: %w", err)
			}
			j.Settings = &s
		case "Editors":
			eds, err := decodeRecord(r, func(p *buffer.Cursor) (*Editors, error) { return decodeEditors(p, o.log) })
			if err != nil {
				return nil, fmt.Errorf("job: %w", err)
			}
			j.Editors = eds
		default:
			o.log.Warn("job: skipping unhandled record", "name", r.Name, "offset", r.Offset, "size", r.Payload.Remaining())
			j.Skipped = append(j.Skipped, r.Name)
		}
	}
	return j, nil
}

func decodeFileInfo(c *buffer.Cursor) (FileInfo, error) {
	v, err := c.ReadU32()
	return FileInfo{Unk: v}, err
}

func decodeSettings(c *buffer.Cursor) (Settings, error) {
	var s Settings
	err := c.ReadStruct(&s)
	return s, err
}

// Editor returns the editor named name, if the stream has one.
func (j *Job) Editor(name string) (Editor, bool) {
	if j.Editors == nil {
		return nil, false
	}
	return j.Editors.Get(name)
}

// SplineEditor returns the "Splines" editor, if present.
func (j *Job) SplineEditor() (*SplineEditor, bool) {
	e, ok := j.Editor(SplineEditorName)
	if !ok {
		return nil, false
	}
	se, ok := e.(*SplineEditor)
	return se, ok
}

// ClassEditor returns the "Class Editor", if present.
func (j *Job) ClassEditor() (*ClassEditor, bool) {
	e, ok := j.Editor(ClassEditorName)
	if !ok {
		return nil, false
	}
	ce, ok := e.(*ClassEditor)
	return ce, ok
}
