package model

import "github.com/finalversus/pdfimage/pdf/core"

// NativeDecoder is an optional fast path offered by the host: given a
// stream this engine would otherwise hand to a generic StreamEncoder,
// it may instead decode it directly (e.g. a platform JPEG/JPX decoder)
// and return the resulting sample bytes plus the bit depth/component
// count it discovered. CanDecode is consulted before Decode is ever
// called, and a decoder that declines is never asked twice for the
// same stream.
type NativeDecoder interface {
	CanDecode(streamObj *core.PdfObjectStream) bool
	Decode(streamObj *core.PdfObjectStream) (NativeDecodeResult, error)
}

// NativeDecodeResult carries the decoded bytes back along with any
// metadata the native decoder alone could determine (JPX and JBIG2
// streams don't carry BitsPerComponent/ColorComponents in the PDF
// dictionary; the decoder discovers them from the codestream itself).
type NativeDecodeResult struct {
	Data             []byte
	BitsPerComponent int64
	ColorComponents  int64
}
