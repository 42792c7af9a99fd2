package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// Instance flag bits.
const (
	InstHidden    = 0x1
	InstNonStatic = 0x20
)

// Instance places a container in the scene.
type Instance struct {
	Matrix    mgl32.Mat4
	Container uint32
	Flags     uint32
	Unk0      uint32
	Unk1      uint32
}

func (in *Instance) Hidden() bool { return in.Flags&InstHidden != 0 }
func (in *Instance) Static() bool { return in.Flags&InstNonStatic == 0 }

// ContainerIndex resolves the container reference against n containers.
// Out of range references carry extra bits above the low 20.
func (in *Instance) ContainerIndex(n int) int {
	if int64(in.Container) > int64(n) {
		return int(in.Container & 0xFFFFF)
	}
	return int(in.Container)
}

// Spec names an instance.
type Spec struct {
	Matrix     mgl32.Mat4
	Instance   uint32
	NameOffset uint32
	Unk0       int32
	Unk1       int32
}

// decodeList reads the shared "u32 count, u32 0, count records" layout of
// fixed-size chunks.
func decodeList[T any](c *buffer.Cursor, tag string, recSize int) ([]T, error) {
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("model: %s count: %w", tag, err)
	}
	if err := c.ExpectU32(tag+" reserved", 0); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if int64(count)*int64(recSize) > c.Remaining() {
		return nil, fmt.Errorf("model: %s: %d records: %w", tag, count, format.ErrOutOfBounds)
	}
	out := make([]T, count)
	for i := range out {
		if err := c.ReadStruct(&out[i]); err != nil {
			return nil, fmt.Errorf("model: %s record %d: %w", tag, i, err)
		}
	}
	return out, nil
}

// DecodeInstances reads an INST chunk.
func DecodeInstances(c *buffer.Cursor) ([]Instance, error) {
	return decodeList[Instance](c, "INST", 80)
}

// DecodeSpecs reads a SPEC chunk.
func DecodeSpecs(c *buffer.Cursor) ([]Spec, error) {
	return decodeList[Spec](c, "SPEC", 80)
}

// Bound is one BNDS volume.
type Bound struct {
	Min    mgl32.Vec3
	Max    mgl32.Vec3
	Center mgl32.Vec3
	Radius float32
}

// DecodeBounds reads a BNDS chunk.
func DecodeBounds(c *buffer.Cursor) ([]Bound, error) {
	return decodeList[Bound](c, "BNDS", 40)
}
