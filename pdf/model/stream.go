package model

import (
	"github.com/finalversus/pdfimage/common"
	"github.com/finalversus/pdfimage/pdf/core"
)

// imageSource is the resettable byte producer the pipeline pulls rows
// from. Most filters decode eagerly at construction, but DCT and JPX
// defer to first GetBytes so that SetForceRGB — set by CreateImageData
// only once its JPEG fast path has decided it wants RGB triples — still
// has an effect, matching the stream's "writable hint" contract.
type imageSource struct {
	streamObj *core.PdfObjectStream
	encoder   core.StreamEncoder

	data    []byte
	decoded bool
	pos     int
	owned   bool

	drawWidth  int
	drawHeight int
	forceRGB   bool

	filterName       string
	bitsPerComponent int64
	colorComponents  int64
	metadataKnown    bool
}

func newImageSource(streamObj *core.PdfObjectStream, nativeDecoder NativeDecoder) (*imageSource, error) {
	src := &imageSource{owned: true}

	if nativeDecoder != nil && nativeDecoder.CanDecode(streamObj) {
		result, err := nativeDecoder.Decode(streamObj)
		if err != nil {
			return nil, err
		}
		src.data = result.Data
		src.decoded = true
		if result.BitsPerComponent > 0 || result.ColorComponents > 0 {
			src.bitsPerComponent = result.BitsPerComponent
			src.colorComponents = result.ColorComponents
			src.metadataKnown = true
		}
		return src, nil
	}

	encoder, err := core.NewEncoderFromStream(streamObj)
	if err != nil {
		return nil, err
	}
	src.streamObj = streamObj
	src.encoder = encoder
	src.filterName = encoder.GetFilterName()

	switch src.filterName {
	case core.StreamEncodingFilterNameJBIG2:
		src.bitsPerComponent = 1
		src.colorComponents = 1
		src.metadataKnown = true
	case core.StreamEncodingFilterNameJPX:
		if jpxEnc, ok := encoder.(*core.JPXEncoder); ok {
			if _, _, nc, err := jpxEnc.PeekMetadata(streamObj.Stream); err == nil {
				src.colorComponents = int64(nc)
				src.bitsPerComponent = 8
				src.metadataKnown = true
			}
		}
	}

	// DCT and JPX are decoded lazily: SetForceRGB may still arrive
	// before the first GetBytes call.
	if src.filterName == core.StreamEncodingFilterNameDCT || src.filterName == core.StreamEncodingFilterNameJPX {
		return src, nil
	}

	decoded, err := encoder.DecodeStream(streamObj)
	if err != nil {
		return nil, err
	}
	src.data = decoded
	src.decoded = true

	return src, nil
}

func (s *imageSource) ensureDecoded() {
	if s.decoded {
		return
	}
	if dctEnc, ok := s.encoder.(*core.DCTEncoder); ok {
		dctEnc.ForceRGB = s.forceRGB
	}
	if jpxEnc, ok := s.encoder.(*core.JPXEncoder); ok {
		jpxEnc.ForceRGB = s.forceRGB
	}
	decoded, err := s.encoder.DecodeStream(s.streamObj)
	if err != nil {
		common.Log.Debug("Error decoding image stream: %v", err)
		decoded = nil
	}
	s.data = decoded
	s.decoded = true
}

func (s *imageSource) Reset() { s.pos = 0 }

// GetBytes pulls up to n bytes starting from the current position,
// advancing it. Fewer than n bytes are returned, never an error, when
// the underlying stream under-delivers (e.g. a truncated CCITT fax
// scan) — callers compute actualHeight from the short count.
func (s *imageSource) GetBytes(n int) []byte {
	s.ensureDecoded()
	if s.pos >= len(s.data) {
		return nil
	}
	end := s.pos + n
	if end > len(s.data) {
		end = len(s.data)
	}
	out := s.data[s.pos:end]
	s.pos = end
	return out
}

func (s *imageSource) SetForceRGB(force bool) { s.forceRGB = force }

func (s *imageSource) SetDrawDimensions(w, h int) {
	s.drawWidth = w
	s.drawHeight = h
}

// IsJPXFilter lets the factory know whether to trust the dictionary's
// BitsPerComponent/ColorComponents or the ones the JPX header itself
// carries.
func (s *imageSource) IsJPXFilter() bool { return s.filterName == core.StreamEncodingFilterNameJPX }

func (s *imageSource) Metadata() (bpc, nc int64, ok bool) {
	return s.bitsPerComponent, s.colorComponents, s.metadataKnown
}

// Owned reports the source's owned flag, which newImageSource sets to
// true for every source. Nothing in this module consults it: the 1-bpp
// fast path always copies, and a source with no /Filter hands out the
// stream object's own Stream bytes rather than a fresh buffer.
func (s *imageSource) Owned() bool { return s.owned }
