package model

import "testing"

func TestGetComponentsBPC4(t *testing.T) {
	// W=2,H=1,BPC=4: single byte 0x0F packs samples [0, 15].
	samples := getComponents([]byte{0x0F}, 2, 1, 1, 4)
	want := []uint32{0, 15}
	for i, v := range want {
		if samples[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], v)
		}
	}
}

func TestGetComponentsBPC8PassesThrough(t *testing.T) {
	buf := []byte{10, 20, 30, 40}
	samples := getComponents(buf, 4, 1, 1, 8)
	for i, b := range buf {
		if samples[i] != uint32(b) {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], b)
		}
	}
}

func TestGetComponentsRowAlignment(t *testing.T) {
	// W=3, BPC=1: each row needs 3 bits but occupies a whole byte
	// (padding bits at the end of the byte are never read into the
	// next row).
	row0 := byte(0b10100000) // samples 1,0,1
	row1 := byte(0b01100000) // samples 0,1,1
	samples := getComponents([]byte{row0, row1}, 3, 2, 1, 1)
	want := []uint32{1, 0, 1, 0, 1, 1}
	for i, v := range want {
		if samples[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], v)
		}
	}
}

func TestDecodeBufferIdentityIsNoop(t *testing.T) {
	samples := []uint32{0, 5, 10, 15}
	before := append([]uint32{}, samples...)
	// identity decode [0,1] per component: addend=0, coefficient=1.
	decodeBuffer(samples, 1, 4, []float64{0}, []float64{1})
	for i := range samples {
		if samples[i] != before[i] {
			t.Fatalf("identity decode changed sample %d: %d -> %d", i, before[i], samples[i])
		}
	}
}

func TestDecodeBufferBPC1Complements(t *testing.T) {
	samples := []uint32{0, 1, 1, 0}
	decodeBuffer(samples, 1, 1, nil, nil)
	want := []uint32{1, 0, 0, 1}
	for i, v := range want {
		if samples[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], v)
		}
	}
}

func TestGetComponentsBPC2(t *testing.T) {
	// Two pixels, two components each, BPC=2: byte 0b11_10_01_00 packs
	// samples [3,2,1,0].
	samples := getComponents([]byte{0b11_10_01_00}, 2, 1, 2, 2)
	want := []uint32{3, 2, 1, 0}
	for i, v := range want {
		if samples[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], v)
		}
	}
}
