package texture

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"nu20-tools/internal/model"
	"nu20-tools/internal/postprocess"
)

// Format is an export target.
type Format string

const (
	WebP Format = "webp"
	TGA  Format = "tga"
	DDS  Format = "dds" // stored bytes, unchanged
)

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case WebP, TGA, DDS:
		return f, nil
	}
	return "", fmt.Errorf("texture: unknown format %q (want webp, tga or dds)", s)
}

// Ext is the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Encode writes img in format f. DDS is not an encoding target.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	case TGA:
		err = tga.Encode(w, img)
	default:
		return fmt.Errorf("texture: cannot encode %q", f)
	}
	if err != nil {
		return fmt.Errorf("texture: encode %s: %w", f, err)
	}
	return nil
}

// Export writes t in format f, shrinking it so no side exceeds maxSide
// (zero keeps the stored size). DDS export copies the payload verbatim.
func Export(w io.Writer, t model.Texture, f Format, maxSide int) error {
	if f == DDS {
		if _, err := w.Write(t.Data); err != nil {
			return fmt.Errorf("texture: write dds: %w", err)
		}
		return nil
	}
	img, err := Decode(t)
	if err != nil {
		return err
	}
	return Encode(w, postprocess.Fit(img, maxSide), f)
}

// EncodeAnimation writes frames as an endlessly looping animated WebP with
// every frame shown for frameMS milliseconds.
func EncodeAnimation(w io.Writer, frames []image.Image, frameMS int) error {
	if len(frames) == 0 {
		return fmt.Errorf("texture: animation has no frames")
	}
	ani := &nativewebp.Animation{
		Images:    frames,
		Durations: make([]uint, len(frames)),
		Disposals: make([]uint, len(frames)),
	}
	for i := range ani.Durations {
		ani.Durations[i] = uint(max(frameMS, 1))
	}
	if err := nativewebp.EncodeAll(w, ani, nil); err != nil {
		return fmt.Errorf("texture: encode animation: %w", err)
	}
	return nil
}
