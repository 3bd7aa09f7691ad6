package model

import (
	"testing"

	"github.com/finalversus/pdfimage/pdf/core"
)

func rawStream(dict *core.PdfObjectDictionary, data []byte) *core.PdfObjectStream {
	return &core.PdfObjectStream{PdfObjectDictionary: dict, Stream: data}
}

// Scenario: 2x2 stencil mask, bit-packed, BPC=1, no explicit Decode
// array. FillGrayBuffer complements a raw 0 bit to 255 and a raw 1 bit
// to 0, per the fillGrayBuffer(needsDecode=false) formula.
func TestFillGrayBufferStencilMask(t *testing.T) {
	dict := core.MakeDict()
	dict.Set("Width", core.MakeInteger(2))
	dict.Set("Height", core.MakeInteger(2))
	dict.Set("ImageMask", core.MakeBool(true))
	stream := rawStream(dict, []byte{0b10000000, 0b01000000})

	img, err := BuildImage(dict, stream, nil, nil)
	if err != nil {
		t.Fatalf("BuildImage: %v", err)
	}
	gray, err := img.FillGrayBuffer()
	if err != nil {
		t.Fatalf("FillGrayBuffer: %v", err)
	}
	want := []byte{0, 255, 255, 0}
	for i, v := range want {
		if gray[i] != v {
			t.Fatalf("gray[%d] = %d, want %d", i, gray[i], v)
		}
	}
}

// Scenario: 2x1 DeviceGray, BPC=4, no Decode array. Samples [0,15]
// scale linearly to [0,255].
func TestFillGrayBufferBPC4Scales(t *testing.T) {
	dict := core.MakeDict()
	dict.Set("Width", core.MakeInteger(2))
	dict.Set("Height", core.MakeInteger(1))
	dict.Set("BitsPerComponent", core.MakeInteger(4))
	dict.Set("ColorSpace", core.MakeName("DeviceGray"))
	stream := rawStream(dict, []byte{0x0F})

	img, err := BuildImage(dict, stream, nil, nil)
	if err != nil {
		t.Fatalf("BuildImage: %v", err)
	}
	gray, err := img.FillGrayBuffer()
	if err != nil {
		t.Fatalf("FillGrayBuffer: %v", err)
	}
	if gray[0] != 0 || gray[1] != 255 {
		t.Fatalf("gray = %v, want [0 255]", gray)
	}
}

// Scenario: 1x1 DeviceRGB, BPC=8, no masks, no forced RGBA -> the
// compact-passthrough fast path copies the raw triple unchanged.
func TestCreateImageDataDeviceRGBPassthrough(t *testing.T) {
	dict := core.MakeDict()
	dict.Set("Width", core.MakeInteger(1))
	dict.Set("Height", core.MakeInteger(1))
	dict.Set("BitsPerComponent", core.MakeInteger(8))
	dict.Set("ColorSpace", core.MakeName("DeviceRGB"))
	stream := rawStream(dict, []byte{10, 20, 30})

	img, err := BuildImage(dict, stream, nil, nil)
	if err != nil {
		t.Fatalf("BuildImage: %v", err)
	}
	desc, err := img.CreateImageData(false)
	if err != nil {
		t.Fatalf("CreateImageData: %v", err)
	}
	if desc.Kind != RGB_24BPP || desc.Width != 1 || desc.Height != 1 {
		t.Fatalf("descriptor shape = %+v", desc)
	}
	want := []byte{10, 20, 30}
	for i, v := range want {
		if desc.Data[i] != v {
			t.Fatalf("data[%d] = %d, want %d", i, desc.Data[i], v)
		}
	}
}

// Scenario: 1x1 DeviceRGB with a color-key Mask [0,20,0,20,0,20].
// A sample fully inside every component's excluded range is masked
// out (alpha 0); a sample with any component outside its range is
// opaque (alpha 255).
func TestCreateImageDataColorKeyMask(t *testing.T) {
	dict := core.MakeDict()
	dict.Set("Width", core.MakeInteger(1))
	dict.Set("Height", core.MakeInteger(1))
	dict.Set("BitsPerComponent", core.MakeInteger(8))
	dict.Set("ColorSpace", core.MakeName("DeviceRGB"))
	dict.Set("Mask", core.MakeArray(
		core.MakeInteger(0), core.MakeInteger(20),
		core.MakeInteger(0), core.MakeInteger(20),
		core.MakeInteger(0), core.MakeInteger(20),
	))

	maskedDict := dict
	stream := rawStream(maskedDict, []byte{10, 10, 10})
	img, err := BuildImage(maskedDict, stream, nil, nil)
	if err != nil {
		t.Fatalf("BuildImage: %v", err)
	}
	desc, err := img.CreateImageData(false)
	if err != nil {
		t.Fatalf("CreateImageData: %v", err)
	}
	if desc.Kind != RGBA_32BPP {
		t.Fatalf("kind = %v, want RGBA_32BPP", desc.Kind)
	}
	if desc.Data[3] != 0 {
		t.Fatalf("alpha = %d, want 0 (fully masked)", desc.Data[3])
	}

	dict2 := core.MakeDict()
	dict2.Set("Width", core.MakeInteger(1))
	dict2.Set("Height", core.MakeInteger(1))
	dict2.Set("BitsPerComponent", core.MakeInteger(8))
	dict2.Set("ColorSpace", core.MakeName("DeviceRGB"))
	dict2.Set("Mask", core.MakeArray(
		core.MakeInteger(0), core.MakeInteger(20),
		core.MakeInteger(0), core.MakeInteger(20),
		core.MakeInteger(0), core.MakeInteger(20),
	))
	stream2 := rawStream(dict2, []byte{10, 10, 30})
	img2, err := BuildImage(dict2, stream2, nil, nil)
	if err != nil {
		t.Fatalf("BuildImage: %v", err)
	}
	desc2, err := img2.CreateImageData(false)
	if err != nil {
		t.Fatalf("CreateImageData: %v", err)
	}
	if desc2.Data[3] != 255 {
		t.Fatalf("alpha = %d, want 255 (opaque)", desc2.Data[3])
	}
}

// Scenario: matte undo arithmetic. Pixel (100,100,100) at alpha 128
// with matte (50,50,50) unpremultiplies to 149 per channel:
// k = 255/128, c' = clamp((c-m)*k + m).
func TestUndoPreblendArithmetic(t *testing.T) {
	img := &Image{Colorspace: NewPdfColorspaceDeviceRGB(), Matte: []float64{50.0 / 255, 50.0 / 255, 50.0 / 255}}
	rgba := []byte{100, 100, 100, 128}
	img.undoPreblend(rgba, 1, 1)
	for i := 0; i < 3; i++ {
		if rgba[i] != 149 {
			t.Fatalf("channel %d = %d, want 149", i, rgba[i])
		}
	}
}

// Scenario: matte undo at alpha 0 is degenerate and yields white,
// avoiding a division by zero.
func TestUndoPreblendZeroAlpha(t *testing.T) {
	img := &Image{Colorspace: NewPdfColorspaceDeviceRGB(), Matte: []float64{0, 0, 0}}
	rgba := []byte{10, 20, 30, 0}
	img.undoPreblend(rgba, 1, 1)
	if rgba[0] != 255 || rgba[1] != 255 || rgba[2] != 255 {
		t.Fatalf("rgb = %v, want white", rgba[:3])
	}
}

// Scenario: oversize grayscale image (W=H=16000) downscales by 2^3
// through the passthrough path, since 16000 exceeds
// DownscaleThreshold3x.
func TestCreateImageDataDownscalesOversizeGray(t *testing.T) {
	dict := core.MakeDict()
	dict.Set("Width", core.MakeInteger(16000))
	dict.Set("Height", core.MakeInteger(16000))
	dict.Set("BitsPerComponent", core.MakeInteger(1))
	dict.Set("ColorSpace", core.MakeName("DeviceGray"))
	stream := rawStream(dict, make([]byte, ((16000+7)/8)*16000))

	img, err := BuildImage(dict, stream, nil, nil)
	if err != nil {
		t.Fatalf("BuildImage: %v", err)
	}
	desc, err := img.CreateImageData(false)
	if err != nil {
		t.Fatalf("CreateImageData: %v", err)
	}
	if desc.Width != 2000 || desc.Height != 2000 {
		t.Fatalf("dims = %dx%d, want 2000x2000", desc.Width, desc.Height)
	}
}

func TestScaleBitsForThresholds(t *testing.T) {
	cases := []struct {
		w, h, want int
	}{
		{4000, 4000, 0},
		{6000, 100, 1},
		{11000, 100, 2},
		{16000, 100, 3},
	}
	for _, c := range cases {
		if got := scaleBitsFor(c.w, c.h); got != c.want {
			t.Fatalf("scaleBitsFor(%d,%d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}
