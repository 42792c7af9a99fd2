package model

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Component is the scalar type of a vertex field.
type Component int

const (
	Float32 Component = iota
	Uint8
)

func (c Component) Size() int {
	if c == Uint8 {
		return 1
	}
	return 4
}

func (c Component) String() string {
	if c == Uint8 {
		return "u8"
	}
	return "f32"
}

// VertexField is one named attribute inside a vertex record.
type VertexField struct {
	Name   string
	Type   Component
	Count  int
	Offset int // byte offset inside the record
}

func (f VertexField) Size() int { return f.Type.Size() * f.Count }

// VertexLayout is an ordered, tightly packed vertex record description.
type VertexLayout struct {
	Fields []VertexField
	Stride int
}

func (l VertexLayout) Field(name string) (VertexField, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return VertexField{}, false
}

// Names lists field names in record order.
func (l VertexLayout) Names() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

type layoutBuilder struct {
	layout VertexLayout
}

func (b *layoutBuilder) add(name string, t Component, count int) {
	f := VertexField{Name: name, Type: t, Count: count, Offset: b.layout.Stride}
	b.layout.Fields = append(b.layout.Fields, f)
	b.layout.Stride += f.Size()
}

// VertexData is a block of vertices reinterpreted through a layout.
type VertexData struct {
	Layout VertexLayout
	Count  int
	raw    []byte
	order  binary.ByteOrder
}

func (v *VertexData) record(i int) []byte {
	return v.raw[i*v.Layout.Stride : (i+1)*v.Layout.Stride]
}

// Floats returns field values of vertex i, or nil when the field is absent
// or not float typed.
func (v *VertexData) Floats(name string, i int) []float32 {
	f, ok := v.Layout.Field(name)
	if !ok || f.Type != Float32 || i < 0 || i >= v.Count {
		return nil
	}
	rec := v.record(i)[f.Offset:]
	out := make([]float32, f.Count)
	for j := range out {
		out[j] = math.Float32frombits(v.order.Uint32(rec[j*4:]))
	}
	return out
}

// Bytes returns a packed field of vertex i, or nil when absent or float typed.
func (v *VertexData) Bytes(name string, i int) []byte {
	f, ok := v.Layout.Field(name)
	if !ok || f.Type != Uint8 || i < 0 || i >= v.Count {
		return nil
	}
	rec := v.record(i)
	return rec[f.Offset : f.Offset+f.Count]
}

func (v *VertexData) Position(i int) mgl32.Vec3 {
	p := v.Floats("pos", i)
	if p == nil {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{p[0], p[1], p[2]}
}

// UV returns texture coordinates of the given layer.
func (v *VertexData) UV(layer, i int) (mgl32.Vec2, bool) {
	uv := v.Floats(uvName(layer), i)
	if uv == nil {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{uv[0], uv[1]}, true
}

func uvName(layer int) string {
	return "uv" + string(rune('0'+layer))
}

// Color returns the first vertex color as stored: B, G, R, A scaled so 127 is full.
func (v *VertexData) Color(i int) ([4]uint8, bool) {
	b := v.Bytes("color", i)
	if b == nil {
		return [4]uint8{}, false
	}
	return [4]uint8{b[0], b[1], b[2], b[3]}, true
}
