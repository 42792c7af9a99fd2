// Package texture decodes the DDS payloads stored in model texture tables,
// caches them per model and writes them out as WebP, TGA or raw DDS.
package texture

import (
	"bytes"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"

	"nu20-tools/internal/model"
)

// IsWebP reports whether data starts with a RIFF WEBP header.
func IsWebP(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

// Decode returns the pixels of t. The decoder is picked by magic: DDS uses
// the built-in block decoder, RIFF WEBP goes to nativewebp and anything else
// is read as TGA, which has no magic of its own.
func Decode(t model.Texture) (*image.NRGBA, error) {
	var img image.Image
	var err error
	switch {
	case IsDDS(t.Data):
		return DecodeDDS(t.Data)
	case IsWebP(t.Data):
		img, err = nativewebp.Decode(bytes.NewReader(t.Data))
	default:
		img, err = tga.Decode(bytes.NewReader(t.Data))
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %d bytes: %w", len(t.Data), err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to a zero-origin NRGBA.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
