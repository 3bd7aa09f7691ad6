package contentstream

import (
	"errors"
	"fmt"

	"github.com/finalversus/pdfimage/common"
	"github.com/finalversus/pdfimage/pdf/core"
	"github.com/finalversus/pdfimage/pdf/model"
)

// ContentStreamInlineImage holds the key/value pairs and raw stream
// bytes of one BI...ID...EI sequence, using the same abbreviated key
// names (BPC, CS, D, ...) the content stream grammar allows.
type ContentStreamInlineImage struct {
	BitsPerComponent core.PdfObject
	ColorSpace       core.PdfObject
	Decode           core.PdfObject
	DecodeParms      core.PdfObject
	Filter           core.PdfObject
	Height           core.PdfObject
	ImageMask        core.PdfObject
	Intent           core.PdfObject
	Interpolate      core.PdfObject
	Width            core.PdfObject
	stream           []byte
}

func (img *ContentStreamInlineImage) String() string {
	s := fmt.Sprintf("InlineImage(len=%d)\n", len(img.stream))
	if img.BitsPerComponent != nil {
		s += "- BPC " + img.BitsPerComponent.WriteString() + "\n"
	}
	if img.ColorSpace != nil {
		s += "- CS " + img.ColorSpace.WriteString() + "\n"
	}
	if img.Decode != nil {
		s += "- D " + img.Decode.WriteString() + "\n"
	}
	if img.Filter != nil {
		s += "- F " + img.Filter.WriteString() + "\n"
	}
	if img.Height != nil {
		s += "- H " + img.Height.WriteString() + "\n"
	}
	if img.Width != nil {
		s += "- W " + img.Width.WriteString() + "\n"
	}
	return s
}

func (img *ContentStreamInlineImage) WriteString() string {
	return img.String()
}

var inlineFilterAbbrev = map[string]string{
	"AHx": core.StreamEncodingFilterNameASCIIHex,
	"A85": core.StreamEncodingFilterNameASCII85,
	"DCT": core.StreamEncodingFilterNameDCT,
	"Fl":  core.StreamEncodingFilterNameFlate,
	"LZW": core.StreamEncodingFilterNameLZW,
	"CCF": core.StreamEncodingFilterNameCCITTFax,
	"RL":  core.StreamEncodingFilterNameRunLength,
}

// normalizeFilterName expands an inline image's abbreviated filter
// name(s) to the full names core.NewEncoderFromStream recognizes.
func normalizeFilterName(obj core.PdfObject) core.PdfObject {
	switch t := obj.(type) {
	case *core.PdfObjectName:
		if full, ok := inlineFilterAbbrev[string(*t)]; ok {
			return core.MakeName(full)
		}
		return t
	case *core.PdfObjectArray:
		out := core.MakeArray()
		for _, el := range t.Elements() {
			out.Append(normalizeFilterName(el))
		}
		return out
	default:
		return obj
	}
}

// buildStreamObject adapts the inline image's scattered abbreviated
// fields into the *core.PdfObjectStream shape the generic stream
// filters expect, so inline images reuse the same decode machinery as
// XObject image streams instead of a parallel implementation.
func (img *ContentStreamInlineImage) buildStreamObject() *core.PdfObjectStream {
	dict := core.MakeDict()
	if img.Filter != nil {
		dict.Set("Filter", normalizeFilterName(img.Filter))
	}
	if img.DecodeParms != nil {
		dict.Set("DecodeParms", img.DecodeParms)
	}
	if img.BitsPerComponent != nil {
		dict.Set("BitsPerComponent", img.BitsPerComponent)
	}
	if img.ColorSpace != nil {
		dict.Set("ColorSpace", img.ColorSpace)
	}
	if img.Decode != nil {
		dict.Set("Decode", img.Decode)
	}
	if img.Height != nil {
		dict.Set("Height", img.Height)
	}
	if img.Width != nil {
		dict.Set("Width", img.Width)
	}
	if img.ImageMask != nil {
		dict.Set("ImageMask", img.ImageMask)
	}
	return &core.PdfObjectStream{PdfObjectDictionary: dict, Stream: img.stream}
}

func (img *ContentStreamInlineImage) GetColorSpace(resources *PdfPageResources) (model.PdfColorspace, error) {
	if img.ColorSpace == nil {
		common.Log.Debug("Inline image not having specified colorspace, assuming Gray")
		return model.NewPdfColorspaceDeviceGray(), nil
	}

	name, ok := img.ColorSpace.(*core.PdfObjectName)
	if !ok {
		common.Log.Debug("Error: unsupported inline image colorspace shape (%T)", img.ColorSpace)
		return nil, errors.New("type check error")
	}

	if cs, err := model.DefaultColorspaceResolver(name); err == nil {
		return cs, nil
	}

	cs, has := resources.GetColorspaceByName(string(*name))
	if !has {
		common.Log.Debug("Error, unsupported inline image colorspace: %s", *name)
		return nil, errors.New("unknown colorspace")
	}
	return cs, nil
}

func (img *ContentStreamInlineImage) GetEncoder() (core.StreamEncoder, error) {
	return core.NewEncoderFromStream(img.buildStreamObject())
}

func (img *ContentStreamInlineImage) IsMask() (bool, error) {
	if img.ImageMask == nil {
		return false, nil
	}
	imMask, ok := img.ImageMask.(*core.PdfObjectBool)
	if !ok {
		common.Log.Debug("Image mask not a boolean")
		return false, errors.New("invalid object type")
	}
	return bool(*imMask), nil
}

// ToImage runs the inline image through the same decode pipeline an
// XObject image stream uses, resolving any non-device colorspace name
// against the page's resources.
func (img *ContentStreamInlineImage) ToImage(resources *PdfPageResources) (*model.Descriptor, error) {
	streamObj := img.buildStreamObject()

	resolveCS := func(csObj core.PdfObject) (model.PdfColorspace, error) {
		if cs, err := model.DefaultColorspaceResolver(csObj); err == nil {
			return cs, nil
		}
		name, ok := core.GetName(csObj)
		if !ok {
			return nil, errors.New("unsupported inline image colorspace shape")
		}
		cs, has := resources.GetColorspaceByName(string(*name))
		if !has {
			return nil, fmt.Errorf("unsupported inline image colorspace: %s", *name)
		}
		return cs, nil
	}

	built, err := model.BuildImage(streamObj.PdfObjectDictionary, streamObj, resolveCS, nil)
	if err != nil {
		return nil, err
	}
	return built.CreateImageData(false)
}

// ParseInlineImage reads an inline image's dictionary entries followed
// by its raw "ID ... EI" byte span. The span's true end cannot be
// found by length (inline images have none recorded up front), so the
// scanner runs a small state machine looking for whitespace-E-I-
// whitespace, the same heuristic a renderer needs to avoid stopping
// at an "EI" that happens to appear inside the pixel data itself.
func (csp *ContentStreamParser) ParseInlineImage() (*ContentStreamInlineImage, error) {
	im := ContentStreamInlineImage{}

	for {
		csp.skipSpaces()
		obj, isOperand, err := csp.parseObject()
		if err != nil {
			return nil, err
		}

		if !isOperand {
			param, ok := obj.(*core.PdfObjectName)
			if !ok {
				common.Log.Debug("Invalid inline image property (expecting name) - %T", obj)
				return nil, fmt.Errorf("invalid inline image property (expecting name) - %T", obj)
			}

			valueObj, isOperand, err := csp.parseObject()
			if err != nil {
				return nil, err
			}
			if isOperand {
				return nil, fmt.Errorf("not expecting an operand")
			}

			switch *param {
			case "BPC", "BitsPerComponent":
				im.BitsPerComponent = valueObj
			case "CS", "ColorSpace":
				im.ColorSpace = valueObj
			case "D", "Decode":
				im.Decode = valueObj
			case "DP", "DecodeParms":
				im.DecodeParms = valueObj
			case "F", "Filter":
				im.Filter = valueObj
			case "H", "Height":
				im.Height = valueObj
			case "IM", "ImageMask":
				im.ImageMask = valueObj
			case "Intent":
				im.Intent = valueObj
			case "I", "Interpolate":
				im.Interpolate = valueObj
			case "W", "Width":
				im.Width = valueObj
			default:
				return nil, fmt.Errorf("unknown inline image parameter %s", *param)
			}
			continue
		}

		operand, ok := obj.(*core.PdfObjectString)
		if !ok {
			return nil, fmt.Errorf("failed to read inline image - invalid operand")
		}

		if operand.Str() == "EI" {
			common.Log.Trace("Inline image finished...")
			return &im, nil
		}

		if operand.Str() != "ID" {
			continue
		}

		common.Log.Trace("ID start")

		b, err := csp.reader.Peek(1)
		if err != nil {
			return nil, err
		}
		if core.IsWhiteSpace(b[0]) {
			csp.reader.Discard(1)
		}

		im.stream = []byte{}
		state := 0
		var skipBytes []byte
		for {
			c, err := csp.reader.ReadByte()
			if err != nil {
				common.Log.Debug("Unable to find end of image EI in inline image data")
				return nil, err
			}

			switch state {
			case 0:
				if core.IsWhiteSpace(c) {
					skipBytes = []byte{c}
					state = 1
				} else {
					im.stream = append(im.stream, c)
				}
			case 1:
				skipBytes = append(skipBytes, c)
				if c == 'E' {
					state = 2
				} else {
					im.stream = append(im.stream, skipBytes...)
					skipBytes = nil
					if core.IsWhiteSpace(c) {
						state = 1
					} else {
						state = 0
					}
				}
			case 2:
				skipBytes = append(skipBytes, c)
				if c == 'I' {
					state = 3
				} else {
					im.stream = append(im.stream, skipBytes...)
					skipBytes = nil
					state = 0
				}
			case 3:
				skipBytes = append(skipBytes, c)
				if core.IsWhiteSpace(c) {
					return &im, nil
				}
				im.stream = append(im.stream, skipBytes...)
				skipBytes = nil
				state = 0
			}
		}
	}
}
