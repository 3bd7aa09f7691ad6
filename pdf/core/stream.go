package core

import (
	"fmt"

	"github.com/finalversus/pdfimage/common"
)

// NewEncoderFromStream inspects a stream dictionary's /Filter entry and
// builds the StreamEncoder capable of reversing it. A missing or null
// Filter means the stream's bytes are stored as-is.
func NewEncoderFromStream(streamObj *PdfObjectStream) (StreamEncoder, error) {
	filterObj := TraceToDirectObject(streamObj.PdfObjectDictionary.Get("Filter"))
	if filterObj == nil {
		return NewRawEncoder(), nil
	}

	if _, isNull := filterObj.(*PdfObjectNull); isNull {
		return NewRawEncoder(), nil
	}

	method, ok := filterObj.(*PdfObjectName)
	if !ok {
		array, ok := filterObj.(*PdfObjectArray)
		if !ok {
			return nil, fmt.Errorf("filter not a Name or Array object")
		}
		if array.Len() == 0 {
			return NewRawEncoder(), nil
		}

		if array.Len() != 1 {
			menc, err := newMultiEncoderFromStream(streamObj)
			if err != nil {
				common.Log.Error("Failed creating multi encoder: %v", err)
				return nil, err
			}

			common.Log.Trace("Multi enc: %s\n", menc.GetFilterName())
			return menc, nil
		}

		filterObj = array.Get(0)
		method, ok = filterObj.(*PdfObjectName)
		if !ok {
			return nil, fmt.Errorf("filter array member not a Name object")
		}
	}

	switch *method {
	case StreamEncodingFilterNameFlate:
		return newFlateEncoderFromStream(streamObj, nil)
	case StreamEncodingFilterNameLZW:
		return newLZWEncoderFromStream(streamObj, nil)
	case StreamEncodingFilterNameDCT:
		return newDCTEncoderFromStream(streamObj)
	case StreamEncodingFilterNameRunLength:
		return NewRunLengthEncoder(), nil
	case StreamEncodingFilterNameASCIIHex:
		return NewASCIIHexEncoder(), nil
	case StreamEncodingFilterNameASCII85, "A85":
		return NewASCII85Encoder(), nil
	case StreamEncodingFilterNameCCITTFax:
		return newCCITTFaxEncoderFromStream(streamObj)
	case StreamEncodingFilterNameJBIG2:
		return newJBIG2EncoderFromStream(streamObj)
	case StreamEncodingFilterNameJPX:
		return NewJPXEncoder(), nil
	default:
		common.Log.Debug("ERROR: Unsupported encoding method: %s", *method)
		return nil, fmt.Errorf("unsupported encoding method (%s)", *method)
	}
}

// DecodeStream resolves the right StreamEncoder for streamObj and runs
// its decode. Callers that already know the filter (e.g. the image
// engine picking a native decoder) can skip this and talk to a
// concrete encoder directly.
func DecodeStream(streamObj *PdfObjectStream) ([]byte, error) {
	common.Log.Trace("Decode stream")

	encoder, err := NewEncoderFromStream(streamObj)
	if err != nil {
		common.Log.Debug("ERROR: Stream decoding failed: %v", err)
		return nil, err
	}
	common.Log.Trace("Encoder: %s\n", encoder.GetFilterName())

	decoded, err := encoder.DecodeStream(streamObj)
	if err != nil {
		common.Log.Debug("ERROR: Stream decoding failed: %v", err)
		return nil, err
	}

	return decoded, nil
}
