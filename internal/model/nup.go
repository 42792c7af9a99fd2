package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/nu20"
)

// NUP is a decoded chunked scene model. Chunks absent from the file leave
// their field nil.
type NUP struct {
	Assets
	Container *nu20.Container
	Names     *NameTable
	Objects   []*Container
	Instances []Instance
	Specs     []Spec
	Animated  []AnimatedTexture
	Bounds    []Bound
	Splines   []Spline
}

// DecodeNUP parses the NU20 envelope and every known chunk it contains.
func DecodeNUP(c *buffer.Cursor) (*NUP, error) {
	ct, err := nu20.Parse(c)
	if err != nil {
		return nil, fmt.Errorf("nup: %w", err)
	}
	n := &NUP{Container: ct}

	if d := ct.Data("NTBL"); d != nil {
		if n.Names, err = DecodeNameTable(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("OBJ0"); d != nil {
		if n.Objects, err = DecodeObjects(d, FlavorNUP); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("VBIB"); d != nil {
		if n.Buffers, err = DecodeVBIB(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	tex := ct.Data("TST0")
	if tex == nil {
		tex = ct.Data("TST2")
	}
	if tex != nil {
		if n.Textures, err = DecodeTextures(tex); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("INST"); d != nil {
		if n.Instances, err = DecodeInstances(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("SPEC"); d != nil {
		if n.Specs, err = DecodeSpecs(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("TAS0"); d != nil {
		if n.Animated, err = DecodeAnimatedTextures(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("MS00"); d != nil {
		if n.Materials, err = DecodeMaterials(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("BNDS"); d != nil {
		if n.Bounds, err = DecodeBounds(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	if d := ct.Data("SST0"); d != nil {
		if n.Splines, err = DecodeSplines(d); err != nil {
			return nil, fmt.Errorf("nup: %w", err)
		}
	}
	return n, nil
}

// Drawables places every instance. A spec referencing an instance names it.
// Without an INST chunk each container is drawn once at the origin.
func (n *NUP) Drawables() []Drawable {
	if len(n.Instances) == 0 {
		out := make([]Drawable, 0, len(n.Objects))
		for i, ct := range n.Objects {
			out = append(out, Drawable{Name: fmt.Sprintf("OBJECT_%d", i), Transform: mgl32.Ident4(), Bone: -1, Container: ct})
		}
		return out
	}

	specs := make(map[uint32]*Spec, len(n.Specs))
	for i := range n.Specs {
		specs[n.Specs[i].Instance] = &n.Specs[i]
	}
	out := make([]Drawable, 0, len(n.Instances))
	for i := range n.Instances {
		in := &n.Instances[i]
		idx := in.ContainerIndex(len(n.Objects))
		if idx < 0 || idx >= len(n.Objects) {
			continue
		}
		d := Drawable{
			Name:      fmt.Sprintf("INSTANCE_%d", i),
			Transform: in.Matrix,
			Bone:      -1,
			Hidden:    in.Hidden(),
			Container: n.Objects[idx],
		}
		if sp, ok := specs[uint32(i)]; ok {
			d.Name = n.Names.Name(sp.NameOffset)
		}
		out = append(out, d)
	}
	return out
}
