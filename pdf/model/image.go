package model

import (
	"github.com/finalversus/pdfimage/common"
	"github.com/finalversus/pdfimage/pdf/core"
)

// OutputKind enumerates the three pixel layouts this engine can emit.
type OutputKind int

const (
	GRAYSCALE_1BPP OutputKind = iota
	RGB_24BPP
	RGBA_32BPP
)

func (k OutputKind) String() string {
	switch k {
	case GRAYSCALE_1BPP:
		return "GRAYSCALE_1BPP"
	case RGB_24BPP:
		return "RGB_24BPP"
	case RGBA_32BPP:
		return "RGBA_32BPP"
	default:
		return "unknown"
	}
}

// Descriptor is the output of one decode: a pixel buffer in one of the
// three layouts above, ready for compositing.
type Descriptor struct {
	Kind   OutputKind
	Width  int
	Height int
	Data   []byte
}

// ColorspaceResolver turns a ColorSpace dictionary entry into the
// interface the pipeline needs. Full colorspace resolution (ICCBased,
// Separation, Indexed with an arbitrary base, named lookups against
// page resources) is an external collaborator; DefaultColorspaceResolver
// only understands the three device spaces by name.
type ColorspaceResolver func(csObj core.PdfObject) (PdfColorspace, error)

// DefaultColorspaceResolver resolves the DeviceGray/DeviceRGB/DeviceCMYK
// names (including their inline-image abbreviations). Anything else is
// left to a caller-supplied resolver with more context (e.g. page
// resources for a named colorspace, or an Indexed palette).
func DefaultColorspaceResolver(csObj core.PdfObject) (PdfColorspace, error) {
	name, ok := core.GetName(csObj)
	if !ok {
		return nil, newUnsupportedError("colorspace is not a name")
	}
	switch string(*name) {
	case "DeviceGray", "G", "CalGray":
		return NewPdfColorspaceDeviceGray(), nil
	case "DeviceRGB", "RGB", "CalRGB":
		return NewPdfColorspaceDeviceRGB(), nil
	case "DeviceCMYK", "CMYK":
		return NewPdfColorspaceDeviceCMYK(), nil
	default:
		return nil, newUnsupportedError("colorspace " + string(*name))
	}
}

// Image is constructed once per decode by BuildImage, consumed by
// exactly one CreateImageData (or FillGrayBuffer when it is itself
// serving as someone else's mask), and then discarded.
type Image struct {
	stream *imageSource

	Width            int64
	Height           int64
	BitsPerComponent int64
	ColorComponents  int64
	Colorspace       PdfColorspace
	ImageMask        bool
	Interpolate      bool

	NeedsDecode       bool
	DecodeAddend      []float64
	DecodeCoefficient []float64

	SMask       *Image
	StencilMask *Image
	ColorKey    []float64
	Matte       []float64

	isSubImage bool
}

// BuildImage runs the factory steps described for the primary image
// object: resolve the stream (through a native decoder when offered
// one), read and validate the dictionary, recursively resolve SMask
// or Mask, and return a ready-to-decode Image. There is no actual
// concurrency in this port — decoding is synchronous CPU work, so the
// three-way "promise fan-in" over primary/SMask/Mask collapses into
// three ordinary sequential calls.
func BuildImage(dict *core.PdfObjectDictionary, streamObj *core.PdfObjectStream, resolveCS ColorspaceResolver, nativeDecoder NativeDecoder) (*Image, error) {
	if resolveCS == nil {
		resolveCS = DefaultColorspaceResolver
	}
	return buildImage(dict, streamObj, resolveCS, nativeDecoder, false)
}

func buildImage(dict *core.PdfObjectDictionary, streamObj *core.PdfObjectStream, resolveCS ColorspaceResolver, nativeDecoder NativeDecoder, isSubImage bool) (*Image, error) {
	width, hasWidth := core.GetIntVal(dict.Get("Width"))
	height, hasHeight := core.GetIntVal(dict.Get("Height"))
	if !hasWidth || width < 1 {
		return nil, newFormatError("invalid image width")
	}
	if !hasHeight || height < 1 {
		return nil, newFormatError("invalid image height")
	}

	img := &Image{
		Width:      int64(width),
		Height:     int64(height),
		isSubImage: isSubImage,
	}

	if imageMask, ok := core.GetBoolVal(dict.Get("ImageMask")); ok {
		img.ImageMask = imageMask
	} else if im, ok := core.GetBoolVal(dict.Get("IM")); ok {
		img.ImageMask = im
	}
	if interp, ok := core.GetBoolVal(dict.Get("Interpolate")); ok {
		img.Interpolate = interp
	}

	src, err := newImageSource(streamObj, nativeDecoder)
	if err != nil {
		return nil, err
	}
	img.stream = src

	bpc, hasBPC := core.GetIntVal(dict.Get("BitsPerComponent"))
	if !hasBPC {
		bpc, hasBPC = core.GetIntVal(dict.Get("BPC"))
	}
	if streamBPC, _, ok := src.Metadata(); ok && streamBPC > 0 {
		bpc = int(streamBPC)
		hasBPC = true
	}
	if !hasBPC {
		if img.ImageMask {
			bpc = 1
		} else {
			return nil, newFormatError("missing BitsPerComponent")
		}
	}
	img.BitsPerComponent = int64(bpc)

	if img.ImageMask {
		img.ColorComponents = 1
	} else {
		_, streamNC, metaOK := src.Metadata()
		csObj := core.TraceToDirectObject(dict.Get("ColorSpace"))
		if csObj == nil {
			csObj = core.TraceToDirectObject(dict.Get("CS"))
		}

		if csObj == nil && src.IsJPXFilter() && metaOK && streamNC > 0 {
			img.ColorComponents = streamNC
			switch streamNC {
			case 1:
				img.Colorspace = NewPdfColorspaceDeviceGray()
			case 4:
				img.Colorspace = NewPdfColorspaceDeviceCMYK()
			default:
				img.Colorspace = NewPdfColorspaceDeviceRGB()
			}
		} else if csObj != nil {
			cs, err := resolveCS(csObj)
			if err != nil {
				return nil, err
			}
			img.Colorspace = cs
			img.ColorComponents = cs.GetNumComponents()
		} else {
			return nil, newFormatError("missing ColorSpace")
		}
	}

	if err := img.setupDecodeArray(dict); err != nil {
		return nil, err
	}

	if !isSubImage {
		if err := img.resolveAuxiliaryMasks(dict, resolveCS, nativeDecoder); err != nil {
			return nil, err
		}
	}

	return img, nil
}

func (img *Image) setupDecodeArray(dict *core.PdfObjectDictionary) error {
	decodeObj := core.TraceToDirectObject(dict.Get("Decode"))
	if decodeObj == nil {
		decodeObj = core.TraceToDirectObject(dict.Get("D"))
	}
	arr, ok := core.GetArray(decodeObj)
	if !ok {
		return nil
	}
	decode, err := arr.ToFloat64Array()
	if err != nil {
		return err
	}

	nc := int(img.ColorComponents)
	if nc == 0 {
		nc = 1
	}

	isDefault := false
	if img.Colorspace != nil {
		isDefault = img.Colorspace.IsDefaultDecode(decode)
	} else {
		isDefault = isDefaultDecode(decode, int64(nc))
	}
	if isDefault {
		return nil
	}

	maxVal := float64((int64(1) << uint(img.BitsPerComponent)) - 1)
	addend := make([]float64, nc)
	coefficient := make([]float64, nc)
	for j := 0; j < nc && 2*j+1 < len(decode); j++ {
		dmin, dmax := decode[2*j], decode[2*j+1]
		addend[j] = maxVal * dmin
		coefficient[j] = dmax - dmin
	}

	img.NeedsDecode = true
	img.DecodeAddend = addend
	img.DecodeCoefficient = coefficient
	return nil
}

func (img *Image) resolveAuxiliaryMasks(dict *core.PdfObjectDictionary, resolveCS ColorspaceResolver, nativeDecoder NativeDecoder) error {
	if smaskObj := core.TraceToDirectObject(dict.Get("SMask")); smaskObj != nil {
		if smaskStream, ok := core.GetStream(smaskObj); ok {
			sub, err := buildImage(smaskStream.PdfObjectDictionary, smaskStream, resolveCS, nativeDecoder, true)
			if err != nil {
				common.Log.Debug("Warning: failed to build SMask sub-image: %v", err)
			} else {
				img.SMask = sub
				// Matte lives in the soft mask's own dictionary; the
				// parent inherits it for undoPreblend's benefit.
				if matteObj := core.TraceToDirectObject(smaskStream.PdfObjectDictionary.Get("Matte")); matteObj != nil {
					if arr, ok := core.GetArray(matteObj); ok {
						if m, err := arr.ToFloat64Array(); err == nil {
							img.Matte = m
						}
					}
				}
			}
		}
		return nil
	}

	maskObj := core.TraceToDirectObject(dict.Get("Mask"))
	if maskObj == nil {
		return nil
	}

	if maskStream, ok := core.GetStream(maskObj); ok {
		maskDict := maskStream.PdfObjectDictionary
		if isMask, _ := core.GetBoolVal(maskDict.Get("ImageMask")); !isMask {
			common.Log.Debug("Warning: Mask stream missing ImageMask - dropping")
			return nil
		}
		sub, err := buildImage(maskDict, maskStream, resolveCS, nativeDecoder, true)
		if err != nil {
			common.Log.Debug("Warning: failed to build Mask sub-image: %v", err)
			return nil
		}
		img.StencilMask = sub
		return nil
	}

	if maskArr, ok := core.GetArray(maskObj); ok {
		key, err := maskArr.ToFloat64Array()
		if err != nil {
			common.Log.Debug("Warning: invalid color-key Mask array: %v", err)
			return nil
		}
		img.ColorKey = key
		return nil
	}

	common.Log.Debug("Warning: unsupported Mask shape (%T) - dropping", maskObj)
	return nil
}

func (img *Image) rowBytes() int {
	return int((img.Width*img.ColorComponents*img.BitsPerComponent + 7) / 8)
}

func (img *Image) maxSampleValue() uint32 {
	return uint32(1)<<uint(img.BitsPerComponent) - 1
}

// drawDimensions returns max(W, smask.W?, mask.W?) and the same for H.
func (img *Image) drawDimensions() (int, int) {
	w, h := int(img.Width), int(img.Height)
	if img.SMask != nil {
		if int(img.SMask.Width) > w {
			w = int(img.SMask.Width)
		}
		if int(img.SMask.Height) > h {
			h = int(img.SMask.Height)
		}
	}
	if img.StencilMask != nil {
		if int(img.StencilMask.Width) > w {
			w = int(img.StencilMask.Width)
		}
		if int(img.StencilMask.Height) > h {
			h = int(img.StencilMask.Height)
		}
	}
	return w, h
}

// FillGrayBuffer implements §4.8: valid only for single-component
// images, it unpacks and returns an 8-bit gray plane used both as the
// terminal operation for a mask sub-image and as a directly callable
// convenience for single-channel images.
func (img *Image) FillGrayBuffer() ([]byte, error) {
	return img.fillGrayBuffer()
}

func (img *Image) fillGrayBuffer() ([]byte, error) {
	if img.ColorComponents != 1 {
		return nil, errNotGrayscale
	}

	width, height := int(img.Width), int(img.Height)
	rowBytes := img.rowBytes()
	raw := img.stream.GetBytes(rowBytes * height)

	bpc := int(img.BitsPerComponent)
	samples := getComponents(raw, width, height, 1, bpc)

	out := make([]byte, width*height)
	if bpc == 1 {
		for i, v := range samples {
			if img.NeedsDecode {
				out[i] = byte((-int32(v)) & 0xFF)
			} else {
				out[i] = byte((v - 1) & 0xFF)
			}
		}
		return out, nil
	}

	if img.NeedsDecode {
		decodeBuffer(samples, 1, bpc, img.DecodeAddend, img.DecodeCoefficient)
	}
	maxVal := float64(img.maxSampleValue())
	scale := 255 / maxVal
	for i, v := range samples {
		out[i] = clamp255(float64(v) * scale)
	}
	return out, nil
}

// CreateImageData runs the full orchestration described in §4.6: fast
// paths for 1-bpp gray and JPEG-backed RGB/CMYK images when no mask
// applies and the draw dimensions match the source, otherwise the
// general unpack/mask/decode/color-convert/matte-undo path.
func (img *Image) CreateImageData(forceRGBA bool) (*Descriptor, error) {
	drawW, drawH := img.drawDimensions()
	srcW, srcH := int(img.Width), int(img.Height)
	hasMask := img.SMask != nil || img.StencilMask != nil || len(img.ColorKey) > 0
	sameDims := drawW == srcW && drawH == srcH

	if !forceRGBA && !hasMask && sameDims {
		isBilevelGray := img.BitsPerComponent == 1 && (img.ImageMask || (img.Colorspace != nil && img.Colorspace.Name() == "DeviceGray"))
		if isBilevelGray {
			return img.grayscalePassthrough()
		}

		if desc, ok, err := img.jpegPassthrough(); ok || err != nil {
			return desc, err
		}

		if img.Colorspace != nil && img.Colorspace.Name() == "DeviceRGB" && img.BitsPerComponent == 8 && !img.NeedsDecode {
			return img.compactRGBPassthrough()
		}
	}

	return img.generalDecode(forceRGBA, drawW, drawH)
}

func (img *Image) grayscalePassthrough() (*Descriptor, error) {
	rowBytes := img.rowBytes()
	height := int(img.Height)
	width := int(img.Width)

	raw := img.stream.GetBytes(rowBytes * height)
	data := make([]byte, len(raw))
	copy(data, raw)

	if img.NeedsDecode {
		for i := range data {
			data[i] ^= 0xFF
		}
	}

	if shallResizeImage(int(img.ColorComponents), int(img.BitsPerComponent)) {
		if scaleBits := scaleBitsFor(width, height); scaleBits > 0 {
			scaled, newW, newH := downscaleBilevel(data, width, height, scaleBits)
			return &Descriptor{Kind: GRAYSCALE_1BPP, Width: newW, Height: newH, Data: scaled}, nil
		}
	}

	return &Descriptor{Kind: GRAYSCALE_1BPP, Width: width, Height: height, Data: data}, nil
}

func (img *Image) jpegPassthrough() (*Descriptor, bool, error) {
	if img.stream.filterName != core.StreamEncodingFilterNameDCT {
		return nil, false, nil
	}
	if img.Colorspace == nil {
		return nil, false, nil
	}
	switch img.Colorspace.Name() {
	case "DeviceGray", "DeviceRGB", "DeviceCMYK":
	default:
		return nil, false, nil
	}

	img.stream.SetForceRGB(true)
	width, height := int(img.Width), int(img.Height)
	data := img.stream.GetBytes(width * height * 3)
	return &Descriptor{Kind: RGB_24BPP, Width: width, Height: height, Data: data}, true, nil
}

func (img *Image) compactRGBPassthrough() (*Descriptor, error) {
	width, height := int(img.Width), int(img.Height)
	rowBytes := img.rowBytes()
	raw := img.stream.GetBytes(rowBytes * height)
	data := make([]byte, width*height*3)
	copy(data, raw)
	return &Descriptor{Kind: RGB_24BPP, Width: width, Height: height, Data: data}, nil
}

func (img *Image) generalDecode(forceRGBA bool, drawW, drawH int) (*Descriptor, error) {
	srcW, srcH := int(img.Width), int(img.Height)
	nc := int(img.ColorComponents)
	bpc := int(img.BitsPerComponent)
	rowBytes := img.rowBytes()

	raw := img.stream.GetBytes(rowBytes * srcH)

	effectiveW, effectiveH := srcW, srcH
	if img.Colorspace != nil && img.Colorspace.Name() == "DeviceGray" && shallResizeImage(nc, bpc) {
		if scaleBits := scaleBitsFor(srcW, srcH); scaleBits > 0 && bpc == 8 {
			raw, effectiveW, effectiveH = downscaleGray8(raw, srcW, srcH, scaleBits)
			rowBytes = effectiveW
			if drawW == srcW && drawH == srcH {
				drawW, drawH = effectiveW, effectiveH
			}
		}
	}

	actualHeight := effectiveH
	if rowBytes > 0 {
		deliveredRows := len(raw) / rowBytes
		actualHeight = deliveredRows * drawH / effectiveH
		if actualHeight > effectiveH {
			actualHeight = effectiveH
		}
		if actualHeight < 0 {
			actualHeight = 0
		}
	}

	comps := getComponents(raw, effectiveW, effectiveH, nc, bpc)

	hasMask := img.SMask != nil || img.StencilMask != nil || len(img.ColorKey) > 0
	useRGBA := forceRGBA || hasMask

	var alphaStride int
	var pixSize int
	var kind OutputKind
	if useRGBA {
		alphaStride = 1
		pixSize = 4
		kind = RGBA_32BPP
	} else {
		alphaStride = 0
		pixSize = 3
		kind = RGB_24BPP
	}

	dst := make([]byte, pixSize*drawW*drawH)

	if useRGBA {
		if err := img.fillOpacity(dst, drawW, drawH, actualHeight, comps); err != nil {
			return nil, err
		}
	}

	if img.NeedsDecode {
		decodeBuffer(comps, nc, bpc, img.DecodeAddend, img.DecodeCoefficient)
	}

	if img.Colorspace == nil {
		return nil, newFormatError("missing colorspace for color conversion")
	}
	img.Colorspace.FillRgb(dst, effectiveW, effectiveH, drawW, drawH, actualHeight, comps, img.maxSampleValue(), alphaStride)

	if useRGBA && len(img.Matte) > 0 {
		img.undoPreblend(dst, drawW, drawH)
	}

	return &Descriptor{Kind: kind, Width: drawW, Height: drawH, Data: dst}, nil
}
