// Package raster renders orthographic previews of decoded models in software.
package raster

import (
	"cmp"
	"fmt"
	"image"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"nu20-tools/internal/format"
	"nu20-tools/internal/model"
	"nu20-tools/internal/postprocess"
	"nu20-tools/internal/skeleton"
	"nu20-tools/internal/texture"
)

// Options control a preview render.
type Options struct {
	Size        int     // output side in pixels
	Supersample int     // render at Size*Supersample, then downsample
	Yaw, Pitch  float32 // view rotation in degrees
	Frame       int     // animated texture frame
	Light       LightConfig
}

func DefaultOptions() Options {
	return Options{Size: 256, Supersample: 2, Yaw: 30, Pitch: 20, Light: DefaultLightConfig()}
}

// Stats summarizes a render.
type Stats struct {
	Drawables int
	Meshes    int
	Triangles int
	Skipped   int // hidden drawables, particle containers and alpha-variant meshes
}

// batch is one mesh in model space, ready for projection.
type batch struct {
	positions []mgl32.Vec3
	uvs       []mgl32.Vec2 // nil without a UV layer
	tints     []mgl32.Vec4
	tris      [][3]uint16
	surface   Surface
}

// Render draws every visible drawable of m. Textures come from res through
// the material index; a nil res renders flat colors.
func Render(m model.Model, res texture.Resolver, opts Options) (*image.NRGBA, Stats, error) {
	batches, st, err := collect(m, res, opts.Frame)
	if err != nil {
		return nil, st, err
	}

	ss := max(opts.Supersample, 1)
	size := opts.Size * ss
	var pts []mgl32.Vec3
	for _, b := range batches {
		pts = append(pts, b.positions...)
	}
	cam := FitCamera(pts, ViewRotation(opts.Yaw, opts.Pitch), size, size/16)

	// additive surfaces go last so they blend over finished opaque pixels
	slices.SortStableFunc(batches, func(a, b batch) int {
		return cmp.Compare(boolInt(a.surface.Additive), boolInt(b.surface.Additive))
	})

	lc := opts.Light
	if lc.InvGamma == 0 {
		lc = DefaultLightConfig()
	}
	fb := NewFrameBuffer(size, size)
	for i := range batches {
		st.Triangles += drawBatch(fb, cam, &batches[i], &lc)
	}

	img := fb.Image()
	if ss > 1 {
		img = postprocess.Downsample(img, opts.Size)
	}
	return img, st, nil
}

func drawBatch(fb *FrameBuffer, cam Camera, b *batch, lc *LightConfig) int {
	proj := make([]Vertex, len(b.positions))
	for i, p := range b.positions {
		proj[i] = Vertex{Pos: cam.Project(p), Tint: b.tints[i]}
		if b.uvs != nil {
			proj[i].UV = b.uvs[i]
		}
	}
	drawn := 0
	for _, t := range b.tris {
		if int(t[0]) >= len(proj) || int(t[1]) >= len(proj) || int(t[2]) >= len(proj) {
			continue
		}
		RasterizeTriangle(fb, [3]Vertex{proj[t[0]], proj[t[1]], proj[t[2]]}, &b.surface, lc)
		drawn++
	}
	return drawn
}

func collect(m model.Model, res texture.Resolver, frame int) ([]batch, Stats, error) {
	var st Stats
	a := m.Shared()
	if a.Buffers == nil {
		return nil, st, fmt.Errorf("raster: model has no vertex buffers: %w", format.ErrNotFound)
	}
	indices, ok := a.Buffers.Index(0)
	if !ok {
		return nil, st, fmt.Errorf("raster: model has no index block: %w", format.ErrNotFound)
	}

	var worlds []mgl32.Mat4
	var anims []model.AnimatedTexture
	switch t := m.(type) {
	case *model.HGP:
		worlds = skeleton.WorldMatrices(t.Bones)
	case *model.NUP:
		anims = t.Animated
	}
	ix := texture.NewIndex(a, anims).AtFrame(frame)

	var out []batch
	for _, d := range m.Drawables() {
		if d.Hidden || d.Container == nil || d.Container.IsParticles() {
			st.Skipped++
			continue
		}
		st.Drawables++
		place := skeleton.Placement(d, worlds)
		for mi := range d.Container.Meshes {
			b, err := meshBatch(a, indices, &d.Container.Meshes[mi], place, ix, res)
			if err != nil {
				return nil, st, fmt.Errorf("raster: %s mesh %d: %w", d.Name, mi, err)
			}
			if b == nil {
				st.Skipped++
				continue
			}
			st.Meshes++
			out = append(out, *b)
		}
	}
	return out, st, nil
}

// meshBatch reads the vertices and triangles of mesh. It returns nil for
// meshes that are not drawn in previews.
func meshBatch(a *model.Assets, indices *model.DataBuffer, mesh *model.Mesh, place mgl32.Mat4, ix *texture.Index, res texture.Resolver) (*batch, error) {
	mat, ok := a.Material(mesh.Material)
	if !ok {
		return nil, fmt.Errorf("material %d: %w", mesh.Material, format.ErrNotFound)
	}
	if mat.AlphaVariant() || len(mesh.VertexBlocks) == 0 || mesh.VertexBlocks[0] < 0 {
		return nil, nil
	}
	vb, ok := a.Buffers.Vertex(int(mesh.VertexBlocks[0]))
	if !ok {
		return nil, fmt.Errorf("vertex block %d: %w", mesh.VertexBlocks[0], format.ErrNotFound)
	}
	vd, err := vb.ReadVertices(mat.VertexLayout(), int(mesh.VertexCount))
	if err != nil {
		return nil, err
	}

	n := int(mesh.VertexCount)
	b := &batch{
		positions: make([]mgl32.Vec3, n),
		tints:     make([]mgl32.Vec4, n),
		surface:   Surface{Base: untextured, Additive: mat.Additive()},
	}
	base := mgl32.Vec4{mat.Color[0], mat.Color[1], mat.Color[2], 1}
	if _, ok := vd.UV(0, 0); ok {
		b.uvs = make([]mgl32.Vec2, n)
	}
	for i := range n {
		b.positions[i] = mgl32.TransformCoordinate(vd.Position(i), place)
		if b.uvs != nil {
			b.uvs[i], _ = vd.UV(0, i)
		}
		b.tints[i] = base
		if c, ok := vd.Color(i); ok {
			// stored B, G, R, A with 127 as full intensity
			vc := mgl32.Vec4{float32(c[2]) / 127, float32(c[1]) / 127, float32(c[0]) / 127, float32(c[3]) / 127}
			if mat.IgnoreVertexAlpha() {
				vc[3] = 1
			}
			b.tints[i] = mgl32.Vec4{base[0] * vc[0], base[1] * vc[1], base[2] * vc[2], vc[3]}
		}
	}

	for si := range mesh.Strips {
		tris, err := mesh.Strips[si].Triangles(indices)
		if err != nil {
			return nil, fmt.Errorf("strip %d: %w", si, err)
		}
		b.tris = append(b.tris, tris...)
	}

	if t, ok := ix.ForMaterial(mesh.Material); ok && res != nil {
		if tex := res.Resolve(t); tex != nil {
			if b.uvs != nil {
				b.surface.Texture = tex
			} else {
				b.surface.Base = averageColor(tex)
			}
		}
	}
	return b, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

