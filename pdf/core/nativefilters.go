package core

import (
	"bytes"
	"fmt"
	"image"
	gocolor "image/color"
	"io"

	"golang.org/x/image/ccitt"

	xjbig2 "github.com/xiaoqidun/jbig2"

	jpeg2000 "github.com/ajroetker/go-jpeg2000"

	"github.com/finalversus/pdfimage/common"
)

// CCITTFaxEncoder implements /CCITTFaxDecode (Group 3/4 fax
// compression) via the CCITT reader in golang.org/x/image, the same
// one-dimensional/two-dimensional run-length scheme fax machines use.
type CCITTFaxEncoder struct {
	K               int
	Columns         int
	Rows            int
	BlackIs1        bool
	EncodedByteAlign bool
}

func NewCCITTFaxEncoder() *CCITTFaxEncoder {
	return &CCITTFaxEncoder{Columns: 1728, K: 0}
}

func (enc *CCITTFaxEncoder) GetFilterName() string { return StreamEncodingFilterNameCCITTFax }

func newCCITTFaxEncoderFromStream(streamObj *PdfObjectStream) (*CCITTFaxEncoder, error) {
	encoder := NewCCITTFaxEncoder()

	encDict := streamObj.PdfObjectDictionary
	if encDict == nil {
		return encoder, nil
	}

	var decodeParams *PdfObjectDictionary
	obj := TraceToDirectObject(encDict.Get("DecodeParms"))
	switch t := obj.(type) {
	case *PdfObjectDictionary:
		decodeParams = t
	case *PdfObjectArray:
		if t.Len() == 1 {
			decodeParams, _ = GetDict(t.Get(0))
		}
	}
	if decodeParams == nil {
		return encoder, nil
	}

	if k, ok := GetIntVal(decodeParams.Get("K")); ok {
		encoder.K = k
	}
	if columns, ok := GetIntVal(decodeParams.Get("Columns")); ok {
		encoder.Columns = columns
	}
	if rows, ok := GetIntVal(decodeParams.Get("Rows")); ok {
		encoder.Rows = rows
	}
	if blackIs1, ok := GetBoolVal(decodeParams.Get("BlackIs1")); ok {
		encoder.BlackIs1 = blackIs1
	}
	if align, ok := GetBoolVal(decodeParams.Get("EncodedByteAlign")); ok {
		encoder.EncodedByteAlign = align
	}

	return encoder, nil
}

func (enc *CCITTFaxEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	sf := ccitt.Group4
	if enc.K >= 0 {
		sf = ccitt.Group3
	}

	rows := enc.Rows
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	r := ccitt.NewReader(bytes.NewReader(encoded), ccitt.MSB, sf, enc.Columns, rows, &ccitt.Options{
		Align:  enc.EncodedByteAlign,
		Invert: enc.BlackIs1,
	})

	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil && err != io.EOF {
		common.Log.Debug("Error decoding CCITTFax stream: %v", err)
		return nil, err
	}
	return out.Bytes(), nil
}

func (enc *CCITTFaxEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return enc.DecodeBytes(streamObj.Stream)
}

// JBIG2Encoder implements /JBIG2Decode, the bilevel compression scheme
// used heavily for scanned text pages. Decoding is delegated to the
// xiaoqidun/jbig2 decoder, which returns a one-bit image.Image; the
// result is repacked into MSB-first rows to match the rest of this
// module's bit-unpacking conventions.
type JBIG2Encoder struct {
	Globals []byte
}

func NewJBIG2Encoder() *JBIG2Encoder { return &JBIG2Encoder{} }

func (enc *JBIG2Encoder) GetFilterName() string { return StreamEncodingFilterNameJBIG2 }

func newJBIG2EncoderFromStream(streamObj *PdfObjectStream) (*JBIG2Encoder, error) {
	encoder := NewJBIG2Encoder()

	encDict := streamObj.PdfObjectDictionary
	if encDict == nil {
		return encoder, nil
	}

	var decodeParams *PdfObjectDictionary
	obj := TraceToDirectObject(encDict.Get("DecodeParms"))
	switch t := obj.(type) {
	case *PdfObjectDictionary:
		decodeParams = t
	case *PdfObjectArray:
		if t.Len() == 1 {
			decodeParams, _ = GetDict(t.Get(0))
		}
	}
	if decodeParams == nil {
		return encoder, nil
	}

	if globalsStream, ok := GetStream(decodeParams.Get("JBIG2Globals")); ok {
		decoded, err := DecodeStream(globalsStream)
		if err == nil {
			encoder.Globals = decoded
		}
	}

	return encoder, nil
}

func (enc *JBIG2Encoder) decode(encoded []byte) (image.Image, error) {
	if len(enc.Globals) > 0 {
		dec, err := xjbig2.NewDecoderWithGlobals(bytes.NewReader(encoded), enc.Globals)
		if err != nil {
			return nil, fmt.Errorf("jbig2: new decoder with globals: %w", err)
		}
		return dec.Decode()
	}
	return xjbig2.Decode(bytes.NewReader(encoded))
}

// packBitonal packs a one-bit image.Image into MSB-first rows, padded
// to a byte boundary, with 0 meaning black and 1 white (the inverse of
// JBIG2's own 1-is-black convention; PDF inverts this again via
// ImageMask/Decode as needed upstream).
func packBitonal(img image.Image) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	rowBytes := (width + 7) / 8
	out := make([]byte, rowBytes*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			_, _, _, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gr := gocolor.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(gocolor.Gray)
			isBlack := gr.Y < 128 && a > 0
			if !isBlack {
				out[y*rowBytes+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return out
}

func (enc *JBIG2Encoder) DecodeBytes(encoded []byte) ([]byte, error) {
	img, err := enc.decode(encoded)
	if err != nil {
		common.Log.Debug("Error decoding JBIG2 stream: %v", err)
		return nil, err
	}
	return packBitonal(img), nil
}

func (enc *JBIG2Encoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return enc.DecodeBytes(streamObj.Stream)
}

// JPXEncoder implements /JPXDecode, the JPEG2000 wavelet codec used for
// high-fidelity scanned images. Decoding is delegated to
// ajroetker/go-jpeg2000, which returns an image.Image; samples are
// flattened into interleaved bytes matching the image's channel count.
type JPXEncoder struct {
	ForceRGB bool
}

func NewJPXEncoder() *JPXEncoder { return &JPXEncoder{} }

func (enc *JPXEncoder) GetFilterName() string { return StreamEncodingFilterNameJPX }

func (enc *JPXEncoder) decodeImage(encoded []byte) (image.Image, error) {
	return jpeg2000.Decode(bytes.NewReader(encoded))
}

// PeekMetadata parses just the JPX header (cheap, no tile decoding) to
// recover the width, height and component count the codestream
// carries but the surrounding PDF dictionary may omit.
func (enc *JPXEncoder) PeekMetadata(encoded []byte) (width, height, components int, err error) {
	cfg, err := jpeg2000.DecodeConfig(bytes.NewReader(encoded))
	if err != nil {
		return 0, 0, 0, err
	}
	switch cfg.ColorModel {
	case gocolor.GrayModel, gocolor.Gray16Model:
		components = 1
	case gocolor.CMYKModel:
		components = 4
	default:
		components = 3
	}
	return cfg.Width, cfg.Height, components, nil
}

func (enc *JPXEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	img, err := enc.decodeImage(encoded)
	if err != nil {
		common.Log.Debug("Error decoding JPX stream: %v", err)
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if enc.ForceRGB {
		out := make([]byte, width*height*3)
		idx := 0
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				out[idx] = byte(r >> 8)
				out[idx+1] = byte(g >> 8)
				out[idx+2] = byte(b >> 8)
				idx += 3
			}
		}
		return out, nil
	}

	switch gray := img.(type) {
	case *image.Gray:
		return gray.Pix, nil
	case *image.NRGBA:
		out := make([]byte, width*height*4)
		idx := 0
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := gray.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
				out[idx], out[idx+1], out[idx+2], out[idx+3] = c.R, c.G, c.B, c.A
				idx += 4
			}
		}
		return out, nil
	default:
		out := make([]byte, width*height*3)
		idx := 0
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				out[idx] = byte(r >> 8)
				out[idx+1] = byte(g >> 8)
				out[idx+2] = byte(b >> 8)
				idx += 3
			}
		}
		return out, nil
	}
}

func (enc *JPXEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return enc.DecodeBytes(streamObj.Stream)
}
