package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
)

// HGPHeader is the fixed word table following the "NU20" tag of an HGP file.
type HGPHeader struct {
	Version           uint32
	ChunksOffset      uint32
	MaterialCount     uint32
	MaterialsOffset   uint32
	BoneCount         uint32
	BonesOffset       uint32
	Matrices1Offset   uint32
	Matrices2Offset   uint32
	Unk2              uint32
	Unk3              uint32
	NameTableOffset   uint32
	Unk4              uint32
	Unk5              uint32
	Unk6              uint32
	AttachmentCount   uint32
	AttachmentsOffset uint32
	LayerCount        uint32
	LayersOffset      uint32
}

// Bone is one skeleton node. Matrix1 and Matrix2 come from separate tables.
type Bone struct {
	Matrix     mgl32.Mat4
	Unk        mgl32.Vec3
	NameOffset uint32
	Name       string
	Parent     int8 // -1 for roots
	Flags      uint8
	Unk2       uint16
	UnkI       [3]uint32
	Matrix1    mgl32.Mat4
	Matrix2    mgl32.Mat4
}

type boneRecord struct {
	Matrix     mgl32.Mat4
	Unk        mgl32.Vec3
	NameOffset uint32
	Parent     int8
	Flags      uint8
	Unk2       uint16
	UnkI       [3]uint32
}

// Attachment is a named mount point.
type Attachment struct {
	Matrix     mgl32.Mat4
	NameOffset uint32
	Name       string
	Unk        [3]uint32
}

// Layer holds up to two model containers and up to two per-bone container
// arrays. A nil entry in a per-bone array means the bone has no geometry.
type Layer struct {
	Unk0           uint32
	Containers     []*Container
	BoneContainers [][]*Container
}

// HGP is a decoded monolithic character model.
type HGP struct {
	Assets
	FileSize    uint32
	Header      HGPHeader
	Bones       []Bone
	Attachments []Attachment
	Layers      []Layer
}

// DecodeHGP reads an HGP file. Every offset in it is relative to the cursor start.
func DecodeHGP(c *buffer.Cursor) (*HGP, error) {
	h := &HGP{}
	var err error
	if h.FileSize, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("hgp: file size: %w", err)
	}
	if err := c.ExpectFourCC("NU20"); err != nil {
		return nil, fmt.Errorf("hgp: %w", err)
	}
	if err := c.ReadStruct(&h.Header); err != nil {
		return nil, fmt.Errorf("hgp: header: %w", err)
	}
	hdr := &h.Header

	if err := h.decodeMaterials(c); err != nil {
		return nil, fmt.Errorf("hgp: %w", err)
	}
	err = c.At(int64(hdr.ChunksOffset), func() error {
		var offs struct{ TST0, VBIB uint32 }
		if err := c.ReadStruct(&offs); err != nil {
			return err
		}
		if err := c.SeekTo(int64(offs.TST0)); err != nil {
			return fmt.Errorf("TST0: %w", err)
		}
		if h.Textures, err = DecodeTextures(c); err != nil {
			return err
		}
		if err := c.SeekTo(int64(offs.VBIB)); err != nil {
			return fmt.Errorf("VBIB: %w", err)
		}
		h.Buffers, err = DecodeVBIB(c)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("hgp: chunks: %w", err)
	}
	if err := h.decodeBones(c); err != nil {
		return nil, fmt.Errorf("hgp: %w", err)
	}
	if err := h.decodeAttachments(c); err != nil {
		return nil, fmt.Errorf("hgp: %w", err)
	}
	if err := h.decodeLayers(c); err != nil {
		return nil, fmt.Errorf("hgp: %w", err)
	}
	return h, nil
}

func (h *HGP) decodeMaterials(c *buffer.Cursor) error {
	n := h.Header.MaterialCount
	if n == 0 {
		return nil
	}
	return c.At(int64(h.Header.MaterialsOffset), func() error {
		offs, err := c.ReadU32s(int(n))
		if err != nil {
			return fmt.Errorf("material table: %w", err)
		}
		h.Materials = make([]Material, n)
		for i, off := range offs {
			if err := c.SeekTo(int64(off)); err != nil {
				return fmt.Errorf("material %d: %w", i, err)
			}
			if h.Materials[i], err = decodeMaterial(c, MaterialFull); err != nil {
				return fmt.Errorf("material %d: %w", i, err)
			}
		}
		return nil
	})
}

// decodeBones reads bone headers, then fills Matrix1 and Matrix2 from their
// tables in a second and third pass over exactly BoneCount entries.
func (h *HGP) decodeBones(c *buffer.Cursor) error {
	n := int(h.Header.BoneCount)
	if n == 0 {
		return nil
	}
	h.Bones = make([]Bone, n)
	err := c.At(int64(h.Header.BonesOffset), func() error {
		for i := range h.Bones {
			var r boneRecord
			if err := c.ReadStruct(&r); err != nil {
				return fmt.Errorf("bone %d: %w", i, err)
			}
			name, err := c.CStringAt(int64(r.NameOffset))
			if err != nil {
				return fmt.Errorf("bone %d name: %w", i, err)
			}
			h.Bones[i] = Bone{
				Matrix: r.Matrix, Unk: r.Unk, NameOffset: r.NameOffset, Name: name,
				Parent: r.Parent, Flags: r.Flags, Unk2: r.Unk2, UnkI: r.UnkI,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	err = c.At(int64(h.Header.Matrices1Offset), func() error {
		for i := range h.Bones {
			if err := c.ReadStruct(&h.Bones[i].Matrix1); err != nil {
				return fmt.Errorf("bone %d matrix1: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.At(int64(h.Header.Matrices2Offset), func() error {
		for i := range h.Bones {
			if err := c.ReadStruct(&h.Bones[i].Matrix2); err != nil {
				return fmt.Errorf("bone %d matrix2: %w", i, err)
			}
		}
		return nil
	})
}

func (h *HGP) decodeAttachments(c *buffer.Cursor) error {
	n := int(h.Header.AttachmentCount)
	if n == 0 {
		return nil
	}
	h.Attachments = make([]Attachment, n)
	return c.At(int64(h.Header.AttachmentsOffset), func() error {
		for i := range h.Attachments {
			var r struct {
				Matrix     mgl32.Mat4
				NameOffset uint32
				Unk        [3]uint32
			}
			if err := c.ReadStruct(&r); err != nil {
				return fmt.Errorf("attachment %d: %w", i, err)
			}
			name, err := c.CStringAt(int64(r.NameOffset))
			if err != nil {
				return fmt.Errorf("attachment %d name: %w", i, err)
			}
			h.Attachments[i] = Attachment{Matrix: r.Matrix, NameOffset: r.NameOffset, Name: name, Unk: r.Unk}
		}
		return nil
	})
}

func (h *HGP) decodeLayers(c *buffer.Cursor) error {
	n := int(h.Header.LayerCount)
	if n == 0 {
		return nil
	}
	h.Layers = make([]Layer, n)
	return c.At(int64(h.Header.LayersOffset), func() error {
		for i := range h.Layers {
			var r struct{ Unk0, Bones1, Model1, Bones2, Model2 uint32 }
			if err := c.ReadStruct(&r); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			l := Layer{Unk0: r.Unk0}
			for _, pair := range [][2]uint32{{r.Bones1, r.Model1}, {r.Bones2, r.Model2}} {
				if pair[0] != 0 {
					bc, err := h.boneContainers(c, pair[0])
					if err != nil {
						return fmt.Errorf("layer %d bone containers: %w", i, err)
					}
					l.BoneContainers = append(l.BoneContainers, bc)
				}
				if pair[1] != 0 {
					var ct *Container
					err := c.At(int64(pair[1]), func() error {
						var err error
						ct, err = DecodeContainer(c, FlavorHGP)
						return err
					})
					if err != nil {
						return fmt.Errorf("layer %d container: %w", i, err)
					}
					l.Containers = append(l.Containers, ct)
				}
			}
			h.Layers[i] = l
		}
		return nil
	})
}

func (h *HGP) boneContainers(c *buffer.Cursor, tableOff uint32) ([]*Container, error) {
	out := make([]*Container, len(h.Bones))
	err := c.At(int64(tableOff), func() error {
		offs, err := c.ReadU32s(len(h.Bones))
		if err != nil {
			return err
		}
		for i, off := range offs {
			if off == 0 {
				continue
			}
			if err := c.SeekTo(int64(off)); err != nil {
				return fmt.Errorf("bone %d: %w", i, err)
			}
			if out[i], err = DecodeContainer(c, FlavorHGP); err != nil {
				return fmt.Errorf("bone %d: %w", i, err)
			}
		}
		return nil
	})
	return out, err
}

// Drawables lists layer containers at the origin and per-bone containers
// relative to their bone.
func (h *HGP) Drawables() []Drawable {
	var out []Drawable
	for li, l := range h.Layers {
		for ci, ct := range l.Containers {
			out = append(out, Drawable{
				Name:      fmt.Sprintf("LAYER_%d_%d", li, ci),
				Transform: mgl32.Ident4(),
				Bone:      -1,
				Container: ct,
			})
		}
		for _, arr := range l.BoneContainers {
			for bi, ct := range arr {
				if ct == nil {
					continue
				}
				out = append(out, Drawable{
					Name:      fmt.Sprintf("LAYER_%d_%s", li, h.Bones[bi].Name),
					Transform: mgl32.Ident4(),
					Bone:      bi,
					Container: ct,
				})
			}
		}
	}
	return out
}
