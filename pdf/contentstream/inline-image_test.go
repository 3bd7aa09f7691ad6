package contentstream

import (
	"strings"
	"testing"

	"github.com/finalversus/pdfimage/pdf/core"
)

func TestNormalizeFilterNameExpandsAbbreviation(t *testing.T) {
	out := normalizeFilterName(core.MakeName("Fl"))
	name, ok := core.GetName(out)
	if !ok || string(*name) != core.StreamEncodingFilterNameFlate {
		t.Fatalf("normalizeFilterName(Fl) = %v, want FlateDecode", out)
	}
}

func TestNormalizeFilterNamePassesThroughFullName(t *testing.T) {
	out := normalizeFilterName(core.MakeName("FlateDecode"))
	name, ok := core.GetName(out)
	if !ok || string(*name) != "FlateDecode" {
		t.Fatalf("normalizeFilterName(FlateDecode) = %v, want unchanged", out)
	}
}

func TestNormalizeFilterNameArray(t *testing.T) {
	arr := core.MakeArray(core.MakeName("AHx"), core.MakeName("Fl"))
	out := normalizeFilterName(arr)
	got, ok := out.(*core.PdfObjectArray)
	if !ok {
		t.Fatalf("normalizeFilterName(array) = %T, want *PdfObjectArray", out)
	}
	els := got.Elements()
	first, _ := core.GetName(els[0])
	second, _ := core.GetName(els[1])
	if string(*first) != core.StreamEncodingFilterNameASCIIHex || string(*second) != core.StreamEncodingFilterNameFlate {
		t.Fatalf("elements = %v, %v", first, second)
	}
}

func TestGetColorSpaceDefaultsToGray(t *testing.T) {
	img := &ContentStreamInlineImage{}
	cs, err := img.GetColorSpace(NewPdfPageResources())
	if err != nil {
		t.Fatalf("GetColorSpace: %v", err)
	}
	if cs.Name() != "DeviceGray" {
		t.Fatalf("name = %s, want DeviceGray", cs.Name())
	}
}

func TestGetColorSpaceResolvesDeviceName(t *testing.T) {
	img := &ContentStreamInlineImage{ColorSpace: core.MakeName("RGB")}
	cs, err := img.GetColorSpace(NewPdfPageResources())
	if err != nil {
		t.Fatalf("GetColorSpace: %v", err)
	}
	if cs.Name() != "DeviceRGB" {
		t.Fatalf("name = %s, want DeviceRGB", cs.Name())
	}
}

func TestIsMaskReadsBoolean(t *testing.T) {
	img := &ContentStreamInlineImage{ImageMask: core.MakeBool(true)}
	isMask, err := img.IsMask()
	if err != nil {
		t.Fatalf("IsMask: %v", err)
	}
	if !isMask {
		t.Fatal("IsMask() = false, want true")
	}
}

func TestIsMaskAbsentIsFalse(t *testing.T) {
	img := &ContentStreamInlineImage{}
	isMask, err := img.IsMask()
	if err != nil || isMask {
		t.Fatalf("IsMask() = %v, %v; want false, nil", isMask, err)
	}
}

// Scenario: a 2x2 inline stencil mask, matching image_test.go's
// TestFillGrayBufferStencilMask fixture but reached through the
// BI...ID...EI parser and ToImage instead of BuildImage directly.
func TestParseInlineImageStencilMaskRoundTrip(t *testing.T) {
	content := "q\n" +
		"BI\n" +
		"/W 2\n" +
		"/H 2\n" +
		"/IM true\n" +
		"ID " + string([]byte{0b10000000, 0b01000000}) + "\n" +
		"EI\n" +
		"Q"

	parser := NewContentStreamParser(content)
	ops, err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var im *ContentStreamInlineImage
	for _, op := range *ops {
		if op.Operand == "BI" {
			for _, p := range op.Params {
				if inlineImg, ok := p.(*ContentStreamInlineImage); ok {
					im = inlineImg
				}
			}
		}
	}
	if im == nil {
		t.Fatal("no inline image operation found")
	}

	isMask, err := im.IsMask()
	if err != nil {
		t.Fatalf("IsMask: %v", err)
	}
	if !isMask {
		t.Fatal("IsMask() = false, want true")
	}

	desc, err := im.ToImage(NewPdfPageResources())
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	if desc.Width != 2 || desc.Height != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", desc.Width, desc.Height)
	}
}

func TestParseInlineImageStopsAtWhitespaceDelimitedEI(t *testing.T) {
	// The pixel data itself contains the byte sequence "EI" without
	// surrounding whitespace; the state machine must not stop there.
	data := []byte{0x45, 0x49, 0xAA, 0xBB} // "EI" followed by two more bytes
	content := "BI\n/W 2\n/H 1\n/BPC 8\n/CS /G\nID " + string(data) + " EI"

	parser := NewContentStreamParser(content)
	im, err := parser.ParseInlineImage()
	if err != nil {
		t.Fatalf("ParseInlineImage: %v", err)
	}
	if !strings.Contains(string(im.String()), "InlineImage(len=4)") {
		t.Fatalf("String() = %q", im.String())
	}
}
