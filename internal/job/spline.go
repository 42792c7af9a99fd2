package job

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// InstFlags are the entity flags carried by a spline.
type InstFlags uint32

const (
	DieWhenStopped InstFlags = 1 << iota
	CollideWithCharacters
	InteractOnlyWithActiveChars
	DamageCharacters
	DontDieWhenOffScreen
	IsACollectible
	RotateRandomly
	OrderedRotateRandomly
	NoBounce
	SlotCannotBeStolen
	IgnoreTerrain
	FaceDirectionOfMovement
	DisableDraw
	RealTimeLighting
	IgnoreCreature
	Thrown
	CanDamageOwner
)

var instFlagNames = [...]string{
	"Die_when_stopped",
	"Collide_with_Characters",
	"Interact_only_with_Active_Chars",
	"Damage_Characters",
	"Dont_die_when_off_screen",
	"Is_a_Collectible",
	"Rotate_Randomly",
	"Ordered_Rotate_Randomly",
	"No_Bounce",
	"Slot_Cannot_be_Stolen",
	"Ignore_Terrain",
	"Face_Direction_of_Movement",
	"Disable_Draw",
	"Real_Time_Lighting",
	"Ignore_Creature",
	"Thrown",
	"Can_Damage_Owner",
}

// Names lists the set flags in bit order. Unknown bits are rendered in hex.
func (f InstFlags) Names() []string {
	var out []string
	for i, name := range instFlagNames {
		if f&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	if rest := f &^ (1<<len(instFlagNames) - 1); rest != 0 {
		out = append(out, fmt.Sprintf("0x%X", uint32(rest)))
	}
	return out
}

func (f InstFlags) String() string {
	if f == 0 {
		return "0"
	}
	return strings.Join(f.Names(), "|")
}

// SplinePoint is one Bézier control point. A non-zero Flag ends the current segment.
type SplinePoint struct {
	Position  mgl32.Vec3
	HandleIn  mgl32.Vec3
	HandleOut mgl32.Vec3
	Flag      float32
}

// Spline is one named path.
type Spline struct {
	Name   string
	Flags  InstFlags
	Unk1   uint32
	Unk2   uint32
	Unk3   uint32
	Unk4   float32
	Points []SplinePoint
}

// Segments splits the points into continuous Bézier runs. A point with a
// non-zero flag is the last point of its run.
func (s *Spline) Segments() [][]SplinePoint {
	var out [][]SplinePoint
	start := 0
	for i, p := range s.Points {
		if p.Flag != 0 {
			out = append(out, s.Points[start:i+1])
			start = i + 1
		}
	}
	if start < len(s.Points) {
		out = append(out, s.Points[start:])
	}
	return out
}

// CloudPoint is one entry of the shared point cloud.
type CloudPoint struct {
	Position mgl32.Vec3
	Extra    [4]uint8
}

// SplineList holds the splines of a level and the point cloud they share.
type SplineList struct {
	Name    string
	Unk     uint32
	Splines []Spline
	Points  []CloudPoint
}

// SplineEditor is the "Splines" editor.
type SplineEditor struct {
	Name    string
	Splines SplineList
}

func (e *SplineEditor) EditorName() string { return e.Name }

// Spline finds a spline by name.
func (e *SplineEditor) Spline(name string) (*Spline, bool) {
	for i := range e.Splines.Splines {
		if e.Splines.Splines[i].Name == name {
			return &e.Splines.Splines[i], true
		}
	}
	return nil, false
}

func decodeSpline(c *buffer.Cursor) (Spline, error) {
	var s Spline
	var err error
	if s.Name, err = c.ReadSizedString(); err != nil {
		return s, fmt.Errorf("spline name: %w", err)
	}
	var hdr struct {
		Count, Flags, Unk1, Unk2, Unk3 uint32
		Unk4                           float32
	}
	if err := c.ReadStruct(&hdr); err != nil {
		return s, fmt.Errorf("spline %s: %w", s.Name, err)
	}
	s.Flags, s.Unk1, s.Unk2, s.Unk3, s.Unk4 = InstFlags(hdr.Flags), hdr.Unk1, hdr.Unk2, hdr.Unk3, hdr.Unk4
	if int64(hdr.Count)*40 > c.Remaining() {
		return s, fmt.Errorf("spline %s: %d points: %w", s.Name, hdr.Count, format.ErrOutOfBounds)
	}
	s.Points = make([]SplinePoint, hdr.Count)
	for i := range s.Points {
		if err := c.ReadStruct(&s.Points[i]); err != nil {
			return s, fmt.Errorf("spline %s point %d: %w", s.Name, i, err)
		}
	}
	return s, nil
}

func decodeSplineList(c *buffer.Cursor, name string) (SplineList, error) {
	l := SplineList{Name: name}
	var hdr struct{ Splines, Points, Unk uint32 }
	if err := c.ReadStruct(&hdr); err != nil {
		return l, fmt.Errorf("spline list header: %w", err)
	}
	l.Unk = hdr.Unk
	if int64(hdr.Splines)*8 > c.Remaining() {
		return l, fmt.Errorf("%d splines: %w", hdr.Splines, format.ErrOutOfBounds)
	}
	l.Splines = make([]Spline, hdr.Splines)
	for i := range l.Splines {
		var err error
		if l.Splines[i], _, err = readTyped(c, decodeSpline); err != nil {
			return l, fmt.Errorf("spline %d: %w", i, err)
		}
	}
	pts, _, err := readTyped(c, func(p *buffer.Cursor) ([]CloudPoint, error) {
		if int64(hdr.Points)*16 > p.Remaining() {
			return nil, fmt.Errorf("%d points: %w", hdr.Points, format.ErrOutOfBounds)
		}
		out := make([]CloudPoint, hdr.Points)
		for i := range out {
			if err := p.ReadStruct(&out[i]); err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
		}
		return out, nil
	})
	if err != nil {
		return l, fmt.Errorf("point cloud: %w", err)
	}
	l.Points = pts
	return l, nil
}

func decodeSplineEditor(c *buffer.Cursor, name string, log *slog.Logger) (*SplineEditor, error) {
	r, err := ReadRecord(c)
	if err != nil {
		return nil, fmt.Errorf("spline list: %w", err)
	}
	if r.Name != SplineEditorName {
		log.Warn("job: unexpected spline editor record", "name", r.Name, "offset", r.Offset)
	}
	l, err := decodeRecord(r, func(p *buffer.Cursor) (SplineList, error) { return decodeSplineList(p, r.Name) })
	if err != nil {
		return nil, err
	}
	return &SplineEditor{Name: name, Splines: l}, nil
}
