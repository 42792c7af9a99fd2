package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

// Container groups either meshes (Flag 0) or particle groups (Flag 1 or 2).
type Container struct {
	Type      uint32
	Opaque    [12]byte
	Flag      uint32
	Aux       mgl32.Vec3 // flag 0: stored vector; particles: two floats when Type&2
	Meshes    []Mesh
	Particles []ParticleGroup
	BBoxMin   mgl32.Vec3
	BBoxMax   mgl32.Vec3
}

func (ct *Container) IsParticles() bool { return ct.Flag != 0 }

// Empty reports a container without geometry or billboards.
func (ct *Container) Empty() bool { return len(ct.Meshes) == 0 && len(ct.Particles) == 0 }

// Billboard is one particle sprite.
type Billboard struct {
	Position mgl32.Vec3
	Scale    mgl32.Vec2
	Color    [4]uint8
}

// ParticleGroup is a set of billboards sharing one material.
type ParticleGroup struct {
	Material   uint32
	Unk0       uint32
	Unk1       uint32
	Billboards []Billboard
}

func decodeParticleGroup(c *buffer.Cursor) (ParticleGroup, error) {
	var g ParticleGroup
	if err := c.ExpectU32("next", 0); err != nil {
		return g, err
	}
	if err := c.ExpectU32("material pointer", 0); err != nil {
		return g, err
	}
	var hdr struct{ Material, Unk0, Unk1, Count uint32 }
	if err := c.ReadStruct(&hdr); err != nil {
		return g, err
	}
	if err := c.ExpectU32("particle reserved", 0); err != nil {
		return g, err
	}
	g.Material, g.Unk0, g.Unk1 = hdr.Material, hdr.Unk0, hdr.Unk1
	if int64(hdr.Count)*24 > c.Remaining() {
		return g, fmt.Errorf("billboards: %w", format.ErrOutOfBounds)
	}
	g.Billboards = make([]Billboard, hdr.Count)
	for i := range g.Billboards {
		if err := c.ReadStruct(&g.Billboards[i]); err != nil {
			return g, fmt.Errorf("billboard %d: %w", i, err)
		}
	}
	return g, nil
}

// DecodeContainer reads one container at the cursor position.
func DecodeContainer(c *buffer.Cursor, flavor Flavor) (*Container, error) {
	ct := &Container{}
	var err error
	if ct.Type, err = c.ReadU32(); err != nil {
		return nil, err
	}
	opaque, err := c.ReadBytes(len(ct.Opaque))
	if err != nil {
		return nil, err
	}
	copy(ct.Opaque[:], opaque)
	flagAt := c.AbsPos()
	if ct.Flag, err = c.ReadU32(); err != nil {
		return nil, err
	}

	switch {
	case ct.Flag == 0:
		count, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		if ct.Aux, err = c.ReadVec3(); err != nil {
			return nil, err
		}
		if err := c.Skip(12); err != nil {
			return nil, err
		}
		if int64(count)*MeshHeaderSize > c.Remaining() {
			return nil, fmt.Errorf("%d meshes: %w", count, format.ErrOutOfBounds)
		}
		ct.Meshes = make([]Mesh, count)
		for i := range ct.Meshes {
			if ct.Meshes[i], err = decodeMesh(c, flavor); err != nil {
				return nil, fmt.Errorf("mesh %d: %w", i, err)
			}
		}
	case ct.Flag <= 2:
		count, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		if ct.Type&2 != 0 {
			var f [2]float32
			if err := c.ReadStruct(&f); err != nil {
				return nil, err
			}
			ct.Aux = mgl32.Vec3{f[0], f[1], 0}
		} else if err := c.Skip(8); err != nil {
			return nil, err
		}
		if int64(count)*28 > c.Remaining() {
			return nil, fmt.Errorf("%d particle groups: %w", count, format.ErrOutOfBounds)
		}
		ct.Particles = make([]ParticleGroup, count)
		for i := range ct.Particles {
			if ct.Particles[i], err = decodeParticleGroup(c); err != nil {
				return nil, fmt.Errorf("particle group %d: %w", i, err)
			}
		}
	default:
		return nil, format.Unsupported("container flag", flagAt, ct.Flag)
	}

	if ct.BBoxMin, err = c.ReadVec3(); err != nil {
		return nil, err
	}
	if ct.BBoxMax, err = c.ReadVec3(); err != nil {
		return nil, err
	}
	if err := c.Skip(8); err != nil {
		return nil, err
	}
	return ct, nil
}

// DecodeObjects reads an OBJ0 chunk: u32 count, u32 0, count containers.
func DecodeObjects(c *buffer.Cursor, flavor Flavor) ([]*Container, error) {
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("model: OBJ0 count: %w", err)
	}
	if err := c.ExpectU32("OBJ0 reserved", 0); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if int64(count)*16 > c.Remaining() {
		return nil, fmt.Errorf("model: OBJ0: %d containers: %w", count, format.ErrOutOfBounds)
	}
	out := make([]*Container, count)
	for i := range out {
		if out[i], err = DecodeContainer(c, flavor); err != nil {
			return nil, fmt.Errorf("model: container %d: %w", i, err)
		}
	}
	return out, nil
}
