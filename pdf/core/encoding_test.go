package core

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func TestRawEncoderPassesThrough(t *testing.T) {
	enc := NewRawEncoder()
	out, err := enc.DecodeBytes([]byte("abc"))
	if err != nil || string(out) != "abc" {
		t.Errorf("DecodeBytes = %q, %v", out, err)
	}
}

func TestPostDecodingPredictors(t *testing.T) {
	testcases := []struct {
		Colors    int
		Columns   int
		Predictor int
		Input     []byte
		Expected  []byte
	}{
		{
			Colors: 3, Columns: 3, Predictor: 15,
			Input: []byte{
				pfNone, 1, 2, 3, 1, 2, 3, 1, 2, 3,
				pfNone, 3, 2, 1, 3, 2, 1, 3, 2, 1,
			},
			Expected: []byte{
				1, 2, 3, 1, 2, 3, 1, 2, 3,
				3, 2, 1, 3, 2, 1, 3, 2, 1,
			},
		},
		{
			Colors: 3, Columns: 3, Predictor: 15,
			Input: []byte{
				pfSub, 1, 2, 3, 1, 2, 3, 1, 2, 3,
			},
			Expected: []byte{
				1, 2, 3, 1 + 1, 2 + 2, 3 + 3, 1 + 1 + 1, 2 + 2 + 2, 3 + 3 + 3,
			},
		},
		{
			Colors: 3, Columns: 3, Predictor: 15,
			Input: []byte{
				pfUp, 1, 2, 3, 1, 2, 3, 1, 2, 3,
				pfUp, 3, 2, 1, 3, 2, 1, 3, 2, 1,
			},
			Expected: []byte{
				1, 2, 3, 1, 2, 3, 1, 2, 3,
				3 + 1, 2 + 2, 1 + 3, 3 + 1, 2 + 2, 1 + 3, 3 + 1, 2 + 2, 1 + 3,
			},
		},
	}

	for i, tcase := range testcases {
		encoder := &FlateEncoder{Colors: tcase.Colors, Columns: tcase.Columns, Predictor: tcase.Predictor}
		predicted, err := encoder.postDecodePredict(tcase.Input)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if !bytes.Equal(predicted, tcase.Expected) {
			t.Errorf("case %d: predicted % d, want % d", i, predicted, tcase.Expected)
		}
	}
}

func TestRunLengthDecodeLiteralAndRepeat(t *testing.T) {
	enc := NewRunLengthEncoder()
	// length=2 (literal run of 3 bytes "abc"), then length=254 (repeat
	// byte 'x' 257-254=3 times), then the 128 EOD marker.
	input := []byte{2, 'a', 'b', 'c', 254, 'x', 128}
	out, err := enc.DecodeBytes(input)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if want := "abcxxx"; string(out) != want {
		t.Errorf("DecodeBytes = %q, want %q", out, want)
	}
}

func TestASCIIHexDecodesPairs(t *testing.T) {
	enc := NewASCIIHexEncoder()
	out, err := enc.DecodeBytes([]byte("48656C6C6F>"))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if string(out) != "Hello" {
		t.Errorf("DecodeBytes = %q, want Hello", out)
	}
}

func TestASCIIHexOddDigitPadsWithZero(t *testing.T) {
	enc := NewASCIIHexEncoder()
	out, err := enc.DecodeBytes([]byte("4>"))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if len(out) != 1 || out[0] != 0x40 {
		t.Errorf("DecodeBytes = %v, want [0x40]", out)
	}
}

func TestASCII85ZShorthandAndTrailer(t *testing.T) {
	enc := NewASCII85Encoder()
	out, err := enc.DecodeBytes([]byte("z~>"))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	want := []byte{0, 0, 0, 0}
	if !bytes.Equal(out, want) {
		t.Errorf("DecodeBytes = %v, want %v", out, want)
	}
}

func TestASCII85WikipediaExample(t *testing.T) {
	expected := `Man `
	encoded := `9jqo^~>`
	enc := NewASCII85Encoder()
	out, err := enc.DecodeBytes([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if string(out) != expected {
		t.Errorf("DecodeBytes = %q, want %q", out, expected)
	}
}

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func TestFlateEncoderDecodeBytesRoundTrip(t *testing.T) {
	raw := []byte("the quick brown fox jumps over the lazy dog")
	compressed := zlibCompress(t, raw)

	enc := NewFlateEncoder()
	out, err := enc.DecodeBytes(compressed)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if string(out) != string(raw) {
		t.Errorf("DecodeBytes = %q, want %q", out, raw)
	}
}

func TestFlateEncoderPNGUpPredictor(t *testing.T) {
	// Two 1-component, 2-column rows tagged pfUp: row 0's deltas are
	// against an implicit all-zero previous row, row 1's against row
	// 0's reconstructed bytes.
	raw := []byte{pfUp, 5, 6, pfUp, 1, 1}
	compressed := zlibCompress(t, raw)

	enc := NewFlateEncoder()
	enc.Predictor = 12
	enc.Columns = 2
	enc.Colors = 1

	streamObj := &PdfObjectStream{PdfObjectDictionary: MakeDict(), Stream: compressed}
	out, err := enc.DecodeStream(streamObj)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	want := []byte{5, 6, 6, 7}
	if !bytes.Equal(out, want) {
		t.Errorf("DecodeStream = %v, want %v", out, want)
	}
}

func TestNewEncoderFromStreamNoFilterIsRaw(t *testing.T) {
	streamObj := &PdfObjectStream{PdfObjectDictionary: MakeDict(), Stream: []byte("data")}
	enc, err := NewEncoderFromStream(streamObj)
	if err != nil {
		t.Fatalf("NewEncoderFromStream: %v", err)
	}
	if enc.GetFilterName() != StreamEncodingFilterNameRaw {
		t.Errorf("filter name = %q, want raw", enc.GetFilterName())
	}
}

func TestNewEncoderFromStreamUnsupportedFilterErrors(t *testing.T) {
	dict := MakeDict()
	dict.Set("Filter", MakeName("BogusDecode"))
	streamObj := &PdfObjectStream{PdfObjectDictionary: dict, Stream: []byte{}}
	if _, err := NewEncoderFromStream(streamObj); err == nil {
		t.Error("expected error for unsupported filter")
	}
}

func TestDecodeStreamFlate(t *testing.T) {
	raw := []byte("hello, pdf")
	compressed := zlibCompress(t, raw)
	dict := MakeDict()
	dict.Set("Filter", MakeName(StreamEncodingFilterNameFlate))
	streamObj := &PdfObjectStream{PdfObjectDictionary: dict, Stream: compressed}

	out, err := DecodeStream(streamObj)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if string(out) != string(raw) {
		t.Errorf("DecodeStream = %q, want %q", out, raw)
	}
}

func TestMultiEncoderChain(t *testing.T) {
	raw := []byte("this is a dummy text with some \x01\x02\x03 binary data")
	compressed := zlibCompress(t, raw)
	hexEncoded := []byte(NewASCIIHexEncoderTestHelper(compressed))

	menc := NewMultiEncoder()
	menc.AddEncoder(NewASCIIHexEncoder())
	menc.AddEncoder(NewFlateEncoder())

	out, err := menc.DecodeBytes(hexEncoded)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if string(out) != string(raw) {
		t.Errorf("DecodeBytes = %q, want %q", out, raw)
	}
}

// NewASCIIHexEncoderTestHelper hex-encodes bytes the way the teacher's
// inline-image abbreviation table expects them to already be in
// practice (hand-built here only because this module never encodes).
func NewASCIIHexEncoderTestHelper(data []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, 0, len(data)*2+1)
	for _, b := range data {
		out = append(out, hexDigits[b>>4], hexDigits[b&0xF])
	}
	out = append(out, '>')
	return string(out)
}
