package core

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	gocolor "image/color"
	"image/jpeg"
	"io"

	lzw0 "compress/lzw"

	lzw1 "golang.org/x/image/tiff/lzw"

	"github.com/finalversus/pdfimage/common"
)

const (
	StreamEncodingFilterNameFlate     = "FlateDecode"
	StreamEncodingFilterNameLZW       = "LZWDecode"
	StreamEncodingFilterNameDCT       = "DCTDecode"
	StreamEncodingFilterNameRunLength = "RunLengthDecode"
	StreamEncodingFilterNameASCIIHex  = "ASCIIHexDecode"
	StreamEncodingFilterNameASCII85   = "ASCII85Decode"
	StreamEncodingFilterNameCCITTFax  = "CCITTFaxDecode"
	StreamEncodingFilterNameJBIG2     = "JBIG2Decode"
	StreamEncodingFilterNameJPX       = "JPXDecode"
	StreamEncodingFilterNameRaw       = ""
)

// StreamEncoder turns the encoded bytes of one stream object into the
// sample bytes the image engine unpacks. This module is read-only: it
// never re-encodes a stream for serialization, only reverses a filter
// that was applied upstream by an encoder this module never runs.
type StreamEncoder interface {
	GetFilterName() string
	DecodeBytes(encoded []byte) ([]byte, error)
	DecodeStream(streamObj *PdfObjectStream) ([]byte, error)
}

// RawEncoder passes bytes through unchanged (no /Filter entry).
type RawEncoder struct{}

func NewRawEncoder() *RawEncoder { return &RawEncoder{} }

func (enc *RawEncoder) GetFilterName() string { return StreamEncodingFilterNameRaw }

func (enc *RawEncoder) DecodeBytes(encoded []byte) ([]byte, error) { return encoded, nil }

func (enc *RawEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return streamObj.Stream, nil
}

// FlateEncoder implements /FlateDecode, including the TIFF (2) and PNG
// (10-15) predictors that images commonly layer on top of zlib to
// improve compression of row-structured pixel data.
type FlateEncoder struct {
	Predictor        int
	BitsPerComponent int
	Columns          int
	Colors           int
}

func NewFlateEncoder() *FlateEncoder {
	return &FlateEncoder{Predictor: 1, BitsPerComponent: 8, Colors: 1, Columns: 1}
}

func (enc *FlateEncoder) GetFilterName() string { return StreamEncodingFilterNameFlate }

func newFlateEncoderFromStream(streamObj *PdfObjectStream, decodeParams *PdfObjectDictionary) (*FlateEncoder, error) {
	encoder := NewFlateEncoder()

	encDict := streamObj.PdfObjectDictionary
	if encDict == nil {
		return encoder, nil
	}

	if decodeParams == nil {
		obj := TraceToDirectObject(encDict.Get("DecodeParms"))
		switch t := obj.(type) {
		case *PdfObjectArray:
			if t.Len() != 1 {
				common.Log.Debug("Error: DecodeParms array length != 1 (%d)", t.Len())
				return nil, ErrRangeError
			}
			obj = TraceToDirectObject(t.Get(0))
			if dp, isDict := obj.(*PdfObjectDictionary); isDict {
				decodeParams = dp
			}
		case *PdfObjectDictionary:
			decodeParams = t
		case *PdfObjectNull, nil:
		default:
			common.Log.Debug("Error: DecodeParms not a dictionary (%T)", obj)
			return nil, fmt.Errorf("invalid DecodeParms")
		}
	}
	if decodeParams == nil {
		return encoder, nil
	}

	if predictor, ok := GetIntVal(decodeParams.Get("Predictor")); ok {
		encoder.Predictor = predictor
	}
	if bpc, ok := GetIntVal(decodeParams.Get("BitsPerComponent")); ok {
		encoder.BitsPerComponent = bpc
	}
	if encoder.Predictor > 1 {
		encoder.Columns = 1
		if columns, ok := GetIntVal(decodeParams.Get("Columns")); ok {
			encoder.Columns = columns
		}
		encoder.Colors = 1
		if colors, ok := GetIntVal(decodeParams.Get("Colors")); ok {
			encoder.Colors = colors
		}
	}

	return encoder, nil
}

func (enc *FlateEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(encoded))
	if err != nil {
		common.Log.Debug("Decoding error %v", err)
		return nil, err
	}
	defer r.Close()

	var outBuf bytes.Buffer
	if _, err := outBuf.ReadFrom(r); err != nil {
		return nil, err
	}
	return outBuf.Bytes(), nil
}

const (
	pfNone  = 0
	pfSub   = 1
	pfUp    = 2
	pfAvg   = 3
	pfPaeth = 4
)

func paeth(a, b, c byte) byte {
	pa := abs16(int16(b) - int16(c))
	pb := abs16(int16(a) - int16(c))
	pc := abs16(int16(a) + int16(b) - 2*int16(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

func (enc *FlateEncoder) postDecodePredict(outData []byte) ([]byte, error) {
	if enc.Predictor <= 1 {
		return outData, nil
	}

	if enc.Predictor == 2 {
		rowLength := enc.Columns * enc.Colors
		if rowLength < 1 {
			return []byte{}, nil
		}
		if len(outData)%rowLength != 0 {
			return nil, fmt.Errorf("invalid row length (%d/%d)", len(outData), rowLength)
		}
		rows := len(outData) / rowLength
		pOutBuffer := bytes.NewBuffer(nil)
		for i := 0; i < rows; i++ {
			rowData := outData[rowLength*i : rowLength*(i+1)]
			for j := enc.Colors; j < rowLength; j++ {
				rowData[j] += rowData[j-enc.Colors]
			}
			pOutBuffer.Write(rowData)
		}
		return pOutBuffer.Bytes(), nil
	}

	if enc.Predictor >= 10 && enc.Predictor <= 15 {
		rowLength := enc.Columns*enc.Colors + 1
		if rowLength < 1 {
			return []byte{}, nil
		}
		if len(outData)%rowLength != 0 {
			return nil, fmt.Errorf("invalid row length (%d/%d)", len(outData), rowLength)
		}
		rows := len(outData) / rowLength
		pOutBuffer := bytes.NewBuffer(nil)
		prevRowData := make([]byte, rowLength)
		bytesPerPixel := enc.Colors

		for i := 0; i < rows; i++ {
			rowData := outData[rowLength*i : rowLength*(i+1)]
			switch rowData[0] {
			case pfNone:
			case pfSub:
				for j := 1 + bytesPerPixel; j < rowLength; j++ {
					rowData[j] += rowData[j-bytesPerPixel]
				}
			case pfUp:
				for j := 1; j < rowLength; j++ {
					rowData[j] += prevRowData[j]
				}
			case pfAvg:
				for j := 1; j < bytesPerPixel+1; j++ {
					rowData[j] += prevRowData[j] / 2
				}
				for j := bytesPerPixel + 1; j < rowLength; j++ {
					rowData[j] += byte((int(rowData[j-bytesPerPixel]) + int(prevRowData[j])) / 2)
				}
			case pfPaeth:
				for j := 1; j < rowLength; j++ {
					var a, b, c byte
					b = prevRowData[j]
					if j >= bytesPerPixel+1 {
						a = rowData[j-bytesPerPixel]
						c = prevRowData[j-bytesPerPixel]
					}
					rowData[j] += paeth(a, b, c)
				}
			default:
				return nil, fmt.Errorf("invalid filter byte (%d)", rowData[0])
			}
			copy(prevRowData, rowData)
			pOutBuffer.Write(rowData[1:])
		}
		return pOutBuffer.Bytes(), nil
	}

	return nil, fmt.Errorf("unsupported predictor (%d)", enc.Predictor)
}

func (enc *FlateEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	outData, err := enc.DecodeBytes(streamObj.Stream)
	if err != nil {
		return nil, err
	}
	return enc.postDecodePredict(outData)
}

// LZWEncoder implements /LZWDecode. PDF's EarlyChange flag (default 1)
// selects between the TIFF-variant and classic LZW bit packing.
type LZWEncoder struct {
	Predictor        int
	BitsPerComponent int
	Columns          int
	Colors           int
	EarlyChange      int
}

func NewLZWEncoder() *LZWEncoder {
	return &LZWEncoder{Predictor: 1, BitsPerComponent: 8, Colors: 1, Columns: 1, EarlyChange: 1}
}

func (enc *LZWEncoder) GetFilterName() string { return StreamEncodingFilterNameLZW }

func newLZWEncoderFromStream(streamObj *PdfObjectStream, decodeParams *PdfObjectDictionary) (*LZWEncoder, error) {
	encoder := NewLZWEncoder()

	encDict := streamObj.PdfObjectDictionary
	if encDict == nil {
		return encoder, nil
	}

	if decodeParams == nil {
		if obj := encDict.Get("DecodeParms"); obj != nil {
			if dp, isDict := obj.(*PdfObjectDictionary); isDict {
				decodeParams = dp
			} else if a, isArr := obj.(*PdfObjectArray); isArr && a.Len() == 1 {
				if dp, isDict := GetDict(a.Get(0)); isDict {
					decodeParams = dp
				}
			}
		}
	}

	if earlyChange, ok := GetIntVal(encDict.Get("EarlyChange")); ok {
		if earlyChange != 0 && earlyChange != 1 {
			return nil, fmt.Errorf("invalid EarlyChange value (not 0 or 1)")
		}
		encoder.EarlyChange = earlyChange
	}

	if decodeParams == nil {
		return encoder, nil
	}

	if predictor, ok := GetIntVal(decodeParams.Get("Predictor")); ok {
		encoder.Predictor = predictor
	}
	if bpc, ok := GetIntVal(decodeParams.Get("BitsPerComponent")); ok {
		encoder.BitsPerComponent = bpc
	}
	if encoder.Predictor > 1 {
		encoder.Columns = 1
		if columns, ok := GetIntVal(decodeParams.Get("Columns")); ok {
			encoder.Columns = columns
		}
		encoder.Colors = 1
		if colors, ok := GetIntVal(decodeParams.Get("Colors")); ok {
			encoder.Colors = colors
		}
	}

	return encoder, nil
}

func (enc *LZWEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	var outBuf bytes.Buffer
	bufReader := bytes.NewReader(encoded)

	var r io.ReadCloser
	if enc.EarlyChange == 1 {
		r = lzw1.NewReader(bufReader, lzw1.MSB, 8)
	} else {
		r = lzw0.NewReader(bufReader, lzw0.MSB, 8)
	}
	defer r.Close()

	if _, err := outBuf.ReadFrom(r); err != nil {
		return nil, err
	}
	return outBuf.Bytes(), nil
}

func (enc *LZWEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	outData, err := enc.DecodeBytes(streamObj.Stream)
	if err != nil {
		return nil, err
	}

	if enc.Predictor <= 1 {
		return outData, nil
	}

	if enc.Predictor == 2 {
		rowLength := enc.Columns * enc.Colors
		if rowLength < 1 {
			return []byte{}, nil
		}
		if len(outData)%rowLength != 0 {
			return nil, fmt.Errorf("invalid row length (%d/%d)", len(outData), rowLength)
		}
		rows := len(outData) / rowLength
		pOutBuffer := bytes.NewBuffer(nil)
		for i := 0; i < rows; i++ {
			rowData := outData[rowLength*i : rowLength*(i+1)]
			for j := enc.Colors; j < rowLength; j++ {
				rowData[j] = byte(int(rowData[j]+rowData[j-enc.Colors]) % 256)
			}
			pOutBuffer.Write(rowData)
		}
		return pOutBuffer.Bytes(), nil
	}

	if enc.Predictor >= 10 && enc.Predictor <= 15 {
		rowLength := enc.Columns*enc.Colors + 1
		if rowLength < 1 {
			return []byte{}, nil
		}
		if len(outData)%rowLength != 0 {
			return nil, fmt.Errorf("invalid row length (%d/%d)", len(outData), rowLength)
		}
		rows := len(outData) / rowLength
		pOutBuffer := bytes.NewBuffer(nil)
		prevRowData := make([]byte, rowLength)
		for i := 0; i < rows; i++ {
			rowData := outData[rowLength*i : rowLength*(i+1)]
			switch rowData[0] {
			case 0:
			case 1:
				for j := 2; j < rowLength; j++ {
					rowData[j] = byte(int(rowData[j]+rowData[j-1]) % 256)
				}
			case 2:
				for j := 1; j < rowLength; j++ {
					rowData[j] = byte(int(rowData[j]+prevRowData[j]) % 256)
				}
			default:
				return nil, fmt.Errorf("invalid filter byte (%d)", rowData[0])
			}
			copy(prevRowData, rowData)
			pOutBuffer.Write(rowData[1:])
		}
		return pOutBuffer.Bytes(), nil
	}

	return nil, fmt.Errorf("unsupported predictor (%d)", enc.Predictor)
}

// DCTEncoder implements /DCTDecode (baseline JPEG) via the standard
// library decoder. ForceRGB mirrors the stream hint the image engine
// sets for its 24-bpp fast path: CMYK and gray JPEGs are converted to
// RGB triples instead of their native component layout.
type DCTEncoder struct {
	ColorComponents  int
	BitsPerComponent int
	Width            int
	Height           int
	ForceRGB         bool
}

func NewDCTEncoder() *DCTEncoder {
	return &DCTEncoder{BitsPerComponent: 8}
}

func (enc *DCTEncoder) GetFilterName() string { return StreamEncodingFilterNameDCT }

func newDCTEncoderFromStream(streamObj *PdfObjectStream) (*DCTEncoder, error) {
	encoder := NewDCTEncoder()

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(streamObj.Stream))
	if err != nil {
		common.Log.Debug("Error decoding file: %s", err)
		return nil, err
	}

	switch cfg.ColorModel {
	case gocolor.RGBAModel, gocolor.YCbCrModel:
		encoder.ColorComponents = 3
	case gocolor.GrayModel:
		encoder.ColorComponents = 1
	case gocolor.CMYKModel:
		encoder.ColorComponents = 4
	default:
		return nil, errors.New("unsupported color model")
	}
	encoder.Width = cfg.Width
	encoder.Height = cfg.Height
	return encoder, nil
}

func (enc *DCTEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(encoded))
	if err != nil {
		common.Log.Debug("Error decoding image: %s", err)
		return nil, err
	}
	bounds := img.Bounds()

	components := enc.ColorComponents
	if enc.ForceRGB {
		components = 3
	}
	decoded := make([]byte, bounds.Dx()*bounds.Dy()*components)
	index := 0

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			c := img.At(i, j)
			if enc.ForceRGB {
				r, g, b, _ := c.RGBA()
				decoded[index] = byte(r >> 8)
				decoded[index+1] = byte(g >> 8)
				decoded[index+2] = byte(b >> 8)
				index += 3
				continue
			}
			switch enc.ColorComponents {
			case 1:
				val, ok := c.(gocolor.Gray)
				if !ok {
					return nil, errors.New("color type error")
				}
				decoded[index] = val.Y
				index++
			case 3:
				r, g, b, _ := c.RGBA()
				decoded[index] = byte(r >> 8)
				decoded[index+1] = byte(g >> 8)
				decoded[index+2] = byte(b >> 8)
				index += 3
			case 4:
				val, ok := c.(gocolor.CMYK)
				if !ok {
					return nil, errors.New("color type error")
				}
				decoded[index] = 255 - val.C
				decoded[index+1] = 255 - val.M
				decoded[index+2] = 255 - val.Y
				decoded[index+3] = 255 - val.K
				index += 4
			}
		}
	}

	return decoded, nil
}

func (enc *DCTEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return enc.DecodeBytes(streamObj.Stream)
}

// RunLengthEncoder implements /RunLengthDecode (PDF's own tiny RLE
// scheme, distinct from PackBits or the predictor filters above).
type RunLengthEncoder struct{}

func NewRunLengthEncoder() *RunLengthEncoder { return &RunLengthEncoder{} }

func (enc *RunLengthEncoder) GetFilterName() string { return StreamEncodingFilterNameRunLength }

func (enc *RunLengthEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	var out bytes.Buffer
	i := 0
	for i < len(encoded) {
		length := int(encoded[i])
		i++
		switch {
		case length == 128:
			return out.Bytes(), nil
		case length < 128:
			end := i + length + 1
			if end > len(encoded) {
				return nil, io.ErrUnexpectedEOF
			}
			out.Write(encoded[i:end])
			i = end
		default:
			if i >= len(encoded) {
				return nil, io.ErrUnexpectedEOF
			}
			b := encoded[i]
			i++
			for k := 0; k < 257-length; k++ {
				out.WriteByte(b)
			}
		}
	}
	return out.Bytes(), nil
}

func (enc *RunLengthEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return enc.DecodeBytes(streamObj.Stream)
}

// ASCIIHexEncoder implements /ASCIIHexDecode.
type ASCIIHexEncoder struct{}

func NewASCIIHexEncoder() *ASCIIHexEncoder { return &ASCIIHexEncoder{} }

func (enc *ASCIIHexEncoder) GetFilterName() string { return StreamEncodingFilterNameASCIIHex }

func (enc *ASCIIHexEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	var out bytes.Buffer
	var hi byte
	haveHi := false
	for _, c := range encoded {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		case c == '>':
			if haveHi {
				out.WriteByte(hi << 4)
			}
			return out.Bytes(), nil
		default:
			continue
		}
		if !haveHi {
			hi = v
			haveHi = true
		} else {
			out.WriteByte(hi<<4 | v)
			haveHi = false
		}
	}
	return out.Bytes(), nil
}

func (enc *ASCIIHexEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return enc.DecodeBytes(streamObj.Stream)
}

// ASCII85Encoder implements /ASCII85Decode.
type ASCII85Encoder struct{}

func NewASCII85Encoder() *ASCII85Encoder { return &ASCII85Encoder{} }

func (enc *ASCII85Encoder) GetFilterName() string { return StreamEncodingFilterNameASCII85 }

func (enc *ASCII85Encoder) DecodeBytes(encoded []byte) ([]byte, error) {
	var out bytes.Buffer
	var group [5]byte
	n := 0

	flush := func(count int) error {
		if count == 0 {
			return nil
		}
		for i := count; i < 5; i++ {
			group[i] = 'u'
		}
		var val uint32
		for _, c := range group {
			if c < '!' || c > 'u' {
				return errors.New("invalid ASCII85 character")
			}
			val = val*85 + uint32(c-'!')
		}
		buf := []byte{byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)}
		out.Write(buf[:count-1])
		return nil
	}

	i := 0
	for i < len(encoded) {
		c := encoded[i]
		i++
		if c == '~' {
			break
		}
		if c == 'z' && n == 0 {
			out.Write([]byte{0, 0, 0, 0})
			continue
		}
		if IsWhiteSpace(c) {
			continue
		}
		group[n] = c
		n++
		if n == 5 {
			if err := flush(5); err != nil {
				return nil, err
			}
			n = 0
		}
	}
	if n > 0 {
		if err := flush(n); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

func (enc *ASCII85Encoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	return enc.DecodeBytes(streamObj.Stream)
}

// MultiEncoder chains several filters and decodes through them in
// declaration order, as a /Filter array lists them (e.g.
// [/ASCII85Decode /FlateDecode] undoes ASCII85 first, then Flate).
type MultiEncoder struct {
	encoders []StreamEncoder
}

func NewMultiEncoder() *MultiEncoder { return &MultiEncoder{} }

func (enc *MultiEncoder) AddEncoder(encoder StreamEncoder) {
	enc.encoders = append(enc.encoders, encoder)
}

func (enc *MultiEncoder) GetFilterName() string {
	var names []string
	for _, e := range enc.encoders {
		names = append(names, e.GetFilterName())
	}
	return fmt.Sprintf("%v", names)
}

func (enc *MultiEncoder) DecodeBytes(encoded []byte) ([]byte, error) {
	decoded := encoded
	var err error
	for _, e := range enc.encoders {
		decoded, err = e.DecodeBytes(decoded)
		if err != nil {
			return nil, err
		}
	}
	return decoded, nil
}

func (enc *MultiEncoder) DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	if len(enc.encoders) == 0 {
		return streamObj.Stream, nil
	}
	decoded, err := enc.encoders[0].DecodeStream(streamObj)
	if err != nil {
		return nil, err
	}
	for _, e := range enc.encoders[1:] {
		decoded, err = e.DecodeBytes(decoded)
		if err != nil {
			return nil, err
		}
	}
	return decoded, nil
}

func newMultiEncoderFromStream(streamObj *PdfObjectStream) (*MultiEncoder, error) {
	menc := NewMultiEncoder()

	filterArray, ok := GetArray(streamObj.PdfObjectDictionary.Get("Filter"))
	if !ok {
		return nil, errors.New("filter not an array")
	}

	var decodeParamsArray []PdfObject
	if dp, ok := GetArray(streamObj.PdfObjectDictionary.Get("DecodeParms")); ok {
		decodeParamsArray = dp.Elements()
	}

	for idx, obj := range filterArray.Elements() {
		name, ok := GetName(obj)
		if !ok {
			return nil, errors.New("filter array member not a name")
		}

		var decodeParams *PdfObjectDictionary
		if idx < len(decodeParamsArray) {
			decodeParams, _ = GetDict(decodeParamsArray[idx])
		}

		var encoder StreamEncoder
		var err error
		switch *name {
		case StreamEncodingFilterNameFlate:
			encoder, err = newFlateEncoderFromStream(streamObj, decodeParams)
		case StreamEncodingFilterNameLZW:
			encoder, err = newLZWEncoderFromStream(streamObj, decodeParams)
		case StreamEncodingFilterNameASCIIHex:
			encoder = NewASCIIHexEncoder()
		case StreamEncodingFilterNameASCII85, "A85":
			encoder = NewASCII85Encoder()
		case StreamEncodingFilterNameRunLength:
			encoder = NewRunLengthEncoder()
		default:
			return nil, fmt.Errorf("unsupported filter in chain: %s", *name)
		}
		if err != nil {
			return nil, err
		}
		menc.AddEncoder(encoder)
	}

	return menc, nil
}
