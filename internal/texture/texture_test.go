package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
	"nu20-tools/internal/model"
)

func ddsFile(w, h int, pf ddsPixelFormat, payload []byte) []byte {
	c := buffer.NewGrowable()
	c.WriteFourCC(ddsMagic)
	c.WriteStruct(ddsHeader{Size: ddsHeaderSize, Width: uint32(w), Height: uint32(h), MipMapCount: 1, PixelFormat: pf})
	c.WriteBytes(payload)
	b, _ := c.Bytes()
	return b
}

func fourCC(s string) ddsPixelFormat {
	pf := ddsPixelFormat{Size: 32, Flags: pfFourCC}
	copy(pf.FourCC[:], s)
	return pf
}

var bgra32 = ddsPixelFormat{Size: 32, Flags: pfRGB | pfAlphaPixels, RGBBitCount: 32,
	RMask: 0x00FF0000, GMask: 0x0000FF00, BMask: 0x000000FF, AMask: 0xFF000000}

func TestDecodeDXT1(t *testing.T) {
	// red, blue, then the two interpolated colors
	block := []byte{0x00, 0xF8, 0x1F, 0x00, 0xE4, 0, 0, 0}
	img, err := DecodeDDS(ddsFile(2, 2, fourCC("DXT1"), block))
	if err != nil {
		t.Fatalf("DecodeDDS: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("Bounds = %v", b)
	}
	want := []color.NRGBA{{255, 0, 0, 255}, {0, 0, 255, 255}}
	for i, w := range want {
		if got := img.NRGBAAt(i, 0); got != w {
			t.Errorf("Pixel %d = %v, want %v", i, got, w)
		}
	}

	// c0 <= c1 selects the punch-through palette
	block = []byte{0x1F, 0x00, 0x00, 0xF8, 0xFF, 0, 0, 0}
	img, err = DecodeDDS(ddsFile(4, 4, fourCC("DXT1"), block))
	if err != nil {
		t.Fatalf("DecodeDDS: %v", err)
	}
	if got := img.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("Punch-through pixel = %v", got)
	}
}

func TestDecodeDXT5(t *testing.T) {
	block := []byte{255, 0, 0x88, 0, 0, 0, 0, 0, 0x00, 0xF8, 0x00, 0xF8, 0, 0, 0, 0}
	img, err := DecodeDDS(ddsFile(4, 4, fourCC("DXT5"), block))
	if err != nil {
		t.Fatalf("DecodeDDS: %v", err)
	}
	for i, a := range []uint8{255, 0, 218, 255} {
		if got := img.NRGBAAt(i, 0); got.A != a || got.R != 255 {
			t.Errorf("Pixel %d = %v, want alpha %d", i, got, a)
		}
	}
}

func TestDecodeDXT3(t *testing.T) {
	block := []byte{0xF0, 0x0F, 0, 0, 0, 0, 0, 0, 0x00, 0xF8, 0x00, 0xF8, 0, 0, 0, 0}
	img, err := DecodeDDS(ddsFile(4, 4, fourCC("DXT3"), block))
	if err != nil {
		t.Fatalf("DecodeDDS: %v", err)
	}
	for i, a := range []uint8{0, 255, 255, 0} {
		if got := img.NRGBAAt(i, 0).A; got != a {
			t.Errorf("Pixel %d alpha = %d, want %d", i, got, a)
		}
	}
}

func TestDecodeUncompressed(t *testing.T) {
	px := []byte{
		10, 20, 30, 40, // B G R A
		1, 2, 3, 255,
	}
	img, err := DecodeDDS(ddsFile(2, 1, bgra32, px))
	if err != nil {
		t.Fatalf("DecodeDDS: %v", err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{30, 20, 10, 40}) {
		t.Errorf("Pixel 0 = %v", got)
	}
	info, err := ParseDDS(ddsFile(2, 1, bgra32, px))
	if err != nil || info.Format != "RGBA32" || info.Width != 2 || info.MipMaps != 1 {
		t.Errorf("ParseDDS = %+v, %v", info, err)
	}
}

func TestDecodeDDSErrors(t *testing.T) {
	if _, err := DecodeDDS(ddsFile(4, 4, fourCC("ATI2"), make([]byte, 16))); !errors.Is(err, format.ErrUnsupportedLayout) {
		t.Errorf("ATI2: got %v", err)
	}
	if _, err := DecodeDDS(ddsFile(8, 8, fourCC("DXT1"), make([]byte, 8))); !errors.Is(err, format.ErrOutOfBounds) {
		t.Errorf("Short payload: got %v", err)
	}
	if _, err := DecodeDDS([]byte("PNG!")); !errors.Is(err, format.ErrFormatMismatch) {
		t.Errorf("Bad magic: got %v", err)
	}
}

func testTexture() model.Texture {
	px := make([]byte, 4*4*4)
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = 0, 128, 255, 255
	}
	return model.Texture{Width: 4, Height: 4, Data: ddsFile(4, 4, bgra32, px)}
}

func TestExportRoundTrip(t *testing.T) {
	for _, f := range []Format{WebP, TGA} {
		var buf bytes.Buffer
		if err := Export(&buf, testTexture(), f, 2); err != nil {
			t.Fatalf("Export %s: %v", f, err)
		}
		if got := IsWebP(buf.Bytes()); got != (f == WebP) {
			t.Errorf("%s: IsWebP = %v", f, got)
		}
		img, err := Decode(model.Texture{Data: buf.Bytes()})
		if err != nil {
			t.Fatalf("Decode %s: %v", f, err)
		}
		if img.Bounds().Dx() != 2 {
			t.Errorf("%s decoded to %v", f, img.Bounds())
		}
		r, g, b, _ := img.At(1, 1).RGBA()
		if r>>8 < 250 || g>>8 < 120 || g>>8 > 136 || b>>8 > 5 {
			t.Errorf("%s pixel = %d %d %d", f, r>>8, g>>8, b>>8)
		}
	}

	tex := testTexture()
	var raw bytes.Buffer
	if err := Export(&raw, tex, DDS, 1); err != nil || !bytes.Equal(raw.Bytes(), tex.Data) {
		t.Errorf("DDS export altered the payload: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("WebP"); err != nil || f != WebP || f.Ext() != ".webp" {
		t.Errorf("ParseFormat(WebP) = %q, %v", f, err)
	}
	if _, err := ParseFormat("png"); err == nil {
		t.Error("png accepted")
	}
}

func TestCache(t *testing.T) {
	c := NewCache([]model.Texture{testTexture(), {Data: []byte("junk")}})
	var wg sync.WaitGroup
	imgs := make([]*image.NRGBA, 8)
	for i := range imgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			imgs[i] = c.Resolve(0)
		}()
	}
	wg.Wait()
	if imgs[0] == nil {
		t.Fatal("Resolve(0) = nil")
	}
	if again, _ := c.Get(0); again != c.Resolve(0) {
		t.Error("Cached image not reused")
	}
	if _, err := c.Get(1); err == nil {
		t.Error("Junk texture decoded")
	}
	if _, err := c.Get(5); !errors.Is(err, format.ErrNotFound) {
		t.Errorf("Out of range: got %v", err)
	}
}

func TestAnimate(t *testing.T) {
	c := NewCache([]model.Texture{testTexture(), testTexture()})
	var buf bytes.Buffer
	if err := c.Animate(&buf, model.AnimatedTexture{Frames: []uint16{0, 1, 0}}, 80, 0); err != nil {
		t.Fatalf("Animate: %v", err)
	}
	b := buf.Bytes()
	if len(b) < 16 || string(b[:4]) != "RIFF" || !bytes.Contains(b, []byte("ANIM")) || bytes.Count(b, []byte("ANMF")) != 3 {
		t.Errorf("Not an animated WebP with 3 frames: % x", b[:min(len(b), 32)])
	}
	if err := c.Animate(&buf, model.AnimatedTexture{Frames: []uint16{9}}, 80, 0); err == nil {
		t.Error("Missing frame accepted")
	}
}

func TestIndex(t *testing.T) {
	assets := &model.Assets{
		Textures:  make([]model.Texture, 3),
		Materials: []model.Material{{Slots: [4]uint32{2}}, {}, {Slots: [4]uint32{9}}, {Slots: [4]uint32{1}}},
	}
	ix := NewIndex(assets, []model.AnimatedTexture{{Material: 3, Frames: []uint16{2, 0}}})
	if tex, ok := ix.ForMaterial(0); !ok || tex != 1 {
		t.Errorf("Material 0 -> %d, %v", tex, ok)
	}
	if _, ok := ix.ForMaterial(1); ok {
		t.Error("Untextured material resolved")
	}
	if _, ok := ix.ForMaterial(2); ok {
		t.Error("Dangling slot resolved")
	}
	if _, ok := ix.ForMaterial(7); ok {
		t.Error("Missing material resolved")
	}
	if tex, _ := ix.ForMaterial(3); tex != 2 {
		t.Errorf("Animated frame 0 -> %d", tex)
	}
	if tex, _ := ix.AtFrame(3).ForMaterial(3); tex != 0 {
		t.Errorf("Animated frame 3 -> %d", tex)
	}
}
