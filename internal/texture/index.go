package texture

import (
	"nu20-tools/internal/model"
)

// Index maps material indices to the texture they are drawn with. A
// material targeted by an animated texture shows one of its frames.
type Index struct {
	assets *model.Assets
	anims  []model.AnimatedTexture
	frame  int
}

// NewIndex builds an index showing animation frame 0.
func NewIndex(assets *model.Assets, anims []model.AnimatedTexture) *Index {
	return &Index{assets: assets, anims: anims}
}

// AtFrame returns a copy of the index that shows animation frame n, wrapped
// to each animation's length.
func (ix *Index) AtFrame(n int) *Index {
	cp := *ix
	cp.frame = n
	return &cp
}

// ForMaterial returns the texture index material m samples from.
func (ix *Index) ForMaterial(m uint32) (int, bool) {
	if a, ok := model.ForMaterial(ix.anims, m); ok && len(ix.anims[a].Frames) > 0 {
		frames := ix.anims[a].Frames
		f := ix.frame % len(frames)
		if f < 0 {
			f += len(frames)
		}
		return ix.valid(int(frames[f]))
	}
	mat, ok := ix.assets.Material(m)
	if !ok {
		return 0, false
	}
	t, ok := mat.BaseTexture()
	if !ok {
		return 0, false
	}
	return ix.valid(t)
}

func (ix *Index) valid(t int) (int, bool) {
	if t < 0 || t >= len(ix.assets.Textures) {
		return 0, false
	}
	return t, true
}

// Len is the number of textures reachable through the index.
func (ix *Index) Len() int { return len(ix.assets.Textures) }
