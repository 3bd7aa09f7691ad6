package model

import "testing"

// CreateMask's documented round trip: negating the whole output of an
// inverseDecode call reproduces the original buffer in the positions
// that were actually copied, and 0x00 in the padded tail.
func TestCreateMaskRoundTrip(t *testing.T) {
	buf := []byte{0xA5, 0x3C}
	width, height := 8, 2 // exactly two whole bytes, no padding

	out, w, h := CreateMask(buf, width, height, false, true)
	if w != width || h != height {
		t.Fatalf("dims = %dx%d, want %dx%d", w, h, width, height)
	}
	for i := range out {
		out[i] = ^out[i]
	}
	for i, v := range buf {
		if out[i] != v {
			t.Fatalf("out[%d] = %#x after round trip, want %#x", i, out[i], v)
		}
	}
}

func TestCreateMaskPadsShortTailWithoutNegatingIt(t *testing.T) {
	buf := []byte{0xFF} // one row's worth; height=2 needs two rows
	width, height := 8, 2
	out, _, _ := CreateMask(buf, width, height, false, true)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	// row 0 was copied then negated: 0xFF -> 0x00.
	if out[0] != 0x00 {
		t.Fatalf("out[0] = %#x, want 0x00", out[0])
	}
	// row 1 is padding: left at 0xFF, not negated.
	if out[1] != 0xFF {
		t.Fatalf("out[1] = %#x, want 0xFF", out[1])
	}
}

func TestCreateMaskNoInverseLeavesBytesAsIs(t *testing.T) {
	buf := []byte{0x12, 0x34}
	out, _, _ := CreateMask(buf, 8, 2, false, false)
	for i, v := range buf {
		if out[i] != v {
			t.Fatalf("out[%d] = %#x, want %#x", i, out[i], v)
		}
	}
}

func TestWriteAlphaPlaneSameDims(t *testing.T) {
	gray := []byte{0, 128, 255, 64}
	rgba := make([]byte, 4*4)
	writeAlphaPlane(rgba, gray, 2, 2, 2, 2, false)
	for i, v := range gray {
		if rgba[i*4+3] != v {
			t.Fatalf("alpha[%d] = %d, want %d", i, rgba[i*4+3], v)
		}
	}
}

func TestWriteAlphaPlaneInvertsForStencil(t *testing.T) {
	gray := []byte{0, 255}
	rgba := make([]byte, 4*2)
	writeAlphaPlane(rgba, gray, 2, 1, 2, 1, true)
	if rgba[3] != 255 || rgba[7] != 0 {
		t.Fatalf("alpha = [%d %d], want [255 0]", rgba[3], rgba[7])
	}
}

// Nearest-neighbor upsampling: alpha_dst(i,j) = alpha_src(floor(j*sw/W), floor(i*sh/H)).
func TestWriteAlphaPlaneResamples(t *testing.T) {
	gray := []byte{10, 20} // 2x1 source
	rgba := make([]byte, 4*4)
	writeAlphaPlane(rgba, gray, 2, 1, 4, 1, false)
	want := []byte{10, 10, 20, 20}
	for x := 0; x < 4; x++ {
		if rgba[x*4+3] != want[x] {
			t.Fatalf("alpha[%d] = %d, want %d", x, rgba[x*4+3], want[x])
		}
	}
}
