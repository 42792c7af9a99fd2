package texture

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math/bits"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
)

const (
	ddsMagic      = "DDS "
	ddsHeaderSize = 124

	pfAlphaPixels = 0x1
	pfFourCC      = 0x4
	pfRGB         = 0x40
)

type ddsPixelFormat struct {
	Size, Flags                             uint32
	FourCC                                  [4]byte
	RGBBitCount, RMask, GMask, BMask, AMask uint32
}

type ddsHeader struct {
	Size, Flags, Height, Width, PitchOrLinearSize, Depth, MipMapCount uint32
	Reserved1                                                         [11]uint32
	PixelFormat                                                       ddsPixelFormat
	Caps, Caps2, Caps3, Caps4, Reserved2                              uint32
}

// DDSInfo summarizes a DDS header.
type DDSInfo struct {
	Width, Height int
	MipMaps       int
	Format        string // DXT1, DXT3, DXT5, or RGB/RGBA with the bit count
}

// IsDDS reports whether data starts with the DDS magic.
func IsDDS(data []byte) bool { return len(data) >= 4 && string(data[:4]) == ddsMagic }

func readDDSHeader(c *buffer.Cursor) (ddsHeader, error) {
	var h ddsHeader
	if err := c.ExpectFourCC(ddsMagic); err != nil {
		return h, err
	}
	at := c.AbsPos()
	if err := c.ReadStruct(&h); err != nil {
		return h, fmt.Errorf("DDS header: %w", err)
	}
	if h.Size != ddsHeaderSize {
		return h, format.Mismatch("DDS header size", at, h.Size, ddsHeaderSize)
	}
	if h.Width == 0 || h.Height == 0 || h.Width > 1<<14 || h.Height > 1<<14 {
		return h, format.Unsupported("DDS dimensions", at+8, fmt.Sprintf("%dx%d", h.Width, h.Height))
	}
	return h, nil
}

func (pf ddsPixelFormat) name() string {
	switch {
	case pf.Flags&pfFourCC != 0:
		return string(pf.FourCC[:])
	case pf.Flags&pfAlphaPixels != 0:
		return fmt.Sprintf("RGBA%d", pf.RGBBitCount)
	}
	return fmt.Sprintf("RGB%d", pf.RGBBitCount)
}

// ParseDDS reads only the header of a DDS file.
func ParseDDS(data []byte) (DDSInfo, error) {
	h, err := readDDSHeader(buffer.New(data))
	if err != nil {
		return DDSInfo{}, fmt.Errorf("texture: %w", err)
	}
	return DDSInfo{Width: int(h.Width), Height: int(h.Height), MipMaps: max(1, int(h.MipMapCount)), Format: h.PixelFormat.name()}, nil
}

// DecodeDDS decodes the top mip level of a DXT1, DXT3, DXT5 or uncompressed
// 16/24/32-bit DDS file.
func DecodeDDS(data []byte) (*image.NRGBA, error) {
	c := buffer.New(data)
	h, err := readDDSHeader(c)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	w, ht := int(h.Width), int(h.Height)
	pf := h.PixelFormat
	img := image.NewNRGBA(image.Rect(0, 0, w, ht))

	switch {
	case pf.Flags&pfFourCC != 0:
		var blockSize int
		var decode func(b []byte, out *[16]color.NRGBA)
		switch string(pf.FourCC[:]) {
		case "DXT1":
			blockSize, decode = 8, decodeDXT1
		case "DXT3":
			blockSize, decode = 16, decodeDXT3
		case "DXT5":
			blockSize, decode = 16, decodeDXT5
		default:
			return nil, fmt.Errorf("texture: %w", format.Unsupported("DDS fourCC", 84, pf.name()))
		}
		bw, bh := (w+3)/4, (ht+3)/4
		blocks, err := c.ReadBytes(bw * bh * blockSize)
		if err != nil {
			return nil, fmt.Errorf("texture: %s blocks: %w", pf.name(), err)
		}
		var px [16]color.NRGBA
		for by := range bh {
			for bx := range bw {
				i := (by*bw + bx) * blockSize
				decode(blocks[i:i+blockSize], &px)
				for j, p := range px {
					x, y := bx*4+j%4, by*4+j/4
					if x < w && y < ht {
						img.SetNRGBA(x, y, p)
					}
				}
			}
		}

	case pf.Flags&pfRGB != 0:
		bpp := int(pf.RGBBitCount) / 8
		if bpp < 2 || bpp > 4 || pf.RGBBitCount%8 != 0 {
			return nil, fmt.Errorf("texture: %w", format.Unsupported("DDS bit count", 88, pf.RGBBitCount))
		}
		raw, err := c.ReadBytes(w * ht * bpp)
		if err != nil {
			return nil, fmt.Errorf("texture: %s pixels: %w", pf.name(), err)
		}
		alpha := pf.Flags&pfAlphaPixels != 0 && pf.AMask != 0
		for i := range w * ht {
			var v uint32
			for k := range bpp {
				v |= uint32(raw[i*bpp+k]) << (8 * k)
			}
			p := color.NRGBA{channel(v, pf.RMask), channel(v, pf.GMask), channel(v, pf.BMask), 255}
			if alpha {
				p.A = channel(v, pf.AMask)
			}
			img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = p.R, p.G, p.B, p.A
		}

	default:
		return nil, fmt.Errorf("texture: %w", format.Unsupported("DDS pixel format flags", 80, fmt.Sprintf("0x%X", pf.Flags)))
	}
	return img, nil
}

// channel extracts the bits under mask and widens them to 8 bits.
func channel(v, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	m := mask >> shift
	return uint8((v & mask >> shift) * 255 / m)
}

func rgb565(v uint16) color.NRGBA {
	r, g, b := uint8(v>>11&0x1F), uint8(v>>5&0x3F), uint8(v&0x1F)
	return color.NRGBA{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2, 255}
}

// mix blends a and b with integer weights wa and wb.
func mix(a, b color.NRGBA, wa, wb int) color.NRGBA {
	d := wa + wb
	f := func(x, y uint8) uint8 { return uint8((int(x)*wa + int(y)*wb) / d) }
	return color.NRGBA{f(a.R, b.R), f(a.G, b.G), f(a.B, b.B), 255}
}

// decodeColor fills out from an 8-byte BC1 color block. punchThrough enables
// the three-color mode with transparent black.
func decodeColor(b []byte, out *[16]color.NRGBA, punchThrough bool) {
	c0, c1 := binary.LittleEndian.Uint16(b), binary.LittleEndian.Uint16(b[2:])
	var pal [4]color.NRGBA
	pal[0], pal[1] = rgb565(c0), rgb565(c1)
	if c0 > c1 || !punchThrough {
		pal[2] = mix(pal[0], pal[1], 2, 1)
		pal[3] = mix(pal[0], pal[1], 1, 2)
	} else {
		pal[2] = mix(pal[0], pal[1], 1, 1)
	}
	idx := binary.LittleEndian.Uint32(b[4:])
	for i := range out {
		out[i] = pal[idx>>(2*i)&3]
	}
}

func decodeDXT1(b []byte, out *[16]color.NRGBA) { decodeColor(b, out, true) }

func decodeDXT3(b []byte, out *[16]color.NRGBA) {
	decodeColor(b[8:], out, false)
	for i := range out {
		out[i].A = (b[i/2] >> (4 * (i % 2)) & 0xF) * 17
	}
}

func decodeDXT5(b []byte, out *[16]color.NRGBA) {
	decodeColor(b[8:], out, false)
	a0, a1 := int(b[0]), int(b[1])
	var alphas [8]uint8
	alphas[0], alphas[1] = uint8(a0), uint8(a1)
	if a0 > a1 {
		for i := 1; i < 7; i++ {
			alphas[i+1] = uint8(((7-i)*a0 + i*a1) / 7)
		}
	} else {
		for i := 1; i < 5; i++ {
			alphas[i+1] = uint8(((5-i)*a0 + i*a1) / 5)
		}
		alphas[6], alphas[7] = 0, 255
	}
	var sel uint64
	for k := range 6 {
		sel |= uint64(b[2+k]) << (8 * k)
	}
	for i := range out {
		out[i].A = alphas[sel>>(3*i)&7]
	}
}
