package model

// PdfColorspace is the small surface the image engine needs from a
// resolved color space: how many components it carries, what its
// identity decode array looks like, how to turn one component vector
// into RGB (used once, for the matte color), and how to convert and
// resample a whole plane of component samples into an RGB(A) buffer.
//
// Fuller color spaces (ICCBased, Separation, Lab, Indexed palettes
// with arbitrary base spaces) are an external collaborator that this
// module only consumes through this interface; only the three device
// spaces are implemented here.
type PdfColorspace interface {
	GetNumComponents() int64
	Name() string
	IsDefaultDecode(decode []float64) bool
	GetRgb(comps []float64) (r, g, b uint8)
	FillRgb(dst []byte, srcW, srcH, dstW, dstH, actualHeight int, comps []uint32, maxVal uint32, alphaStride int)
}

func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// fillRgbResample is the nearest-neighbor resampler shared by every
// device colorspace's FillRgb: it walks the destination grid, maps
// each destination pixel back onto the nearest source pixel (clamped
// to the rows actually delivered by a truncated stream), and asks
// convert to turn that pixel's raw samples into RGB.
func fillRgbResample(dst []byte, srcW, srcH, dstW, dstH, actualHeight, nc int, comps []uint32, alphaStride int, convert func(pix []uint32) (r, g, b uint8)) {
	if actualHeight <= 0 || actualHeight > srcH {
		actualHeight = srcH
	}
	pixStride := 3 + alphaStride
	pix := make([]uint32, nc)

	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		if sy >= actualHeight {
			sy = actualHeight - 1
		}
		if sy < 0 {
			sy = 0
		}
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			srcIdx := (sy*srcW + sx) * nc
			for c := 0; c < nc; c++ {
				if srcIdx+c < len(comps) {
					pix[c] = comps[srcIdx+c]
				} else {
					pix[c] = 0
				}
			}
			r, g, b := convert(pix)
			dstIdx := (y*dstW + x) * pixStride
			if dstIdx+2 < len(dst) {
				dst[dstIdx] = r
				dst[dstIdx+1] = g
				dst[dstIdx+2] = b
			}
		}
	}
}

type DeviceGrayColorspace struct{}

func NewPdfColorspaceDeviceGray() *DeviceGrayColorspace { return &DeviceGrayColorspace{} }

func (cs *DeviceGrayColorspace) GetNumComponents() int64 { return 1 }
func (cs *DeviceGrayColorspace) Name() string            { return "DeviceGray" }

func (cs *DeviceGrayColorspace) IsDefaultDecode(decode []float64) bool {
	return isDefaultDecode(decode, 1)
}

func (cs *DeviceGrayColorspace) GetRgb(comps []float64) (r, g, b uint8) {
	v := clamp255(comps[0] * 255)
	return v, v, v
}

func (cs *DeviceGrayColorspace) FillRgb(dst []byte, srcW, srcH, dstW, dstH, actualHeight int, comps []uint32, maxVal uint32, alphaStride int) {
	fillRgbResample(dst, srcW, srcH, dstW, dstH, actualHeight, 1, comps, alphaStride, func(pix []uint32) (uint8, uint8, uint8) {
		v := clamp255(float64(pix[0]) * 255 / float64(maxVal))
		return v, v, v
	})
}

type DeviceRGBColorspace struct{}

func NewPdfColorspaceDeviceRGB() *DeviceRGBColorspace { return &DeviceRGBColorspace{} }

func (cs *DeviceRGBColorspace) GetNumComponents() int64 { return 3 }
func (cs *DeviceRGBColorspace) Name() string            { return "DeviceRGB" }

func (cs *DeviceRGBColorspace) IsDefaultDecode(decode []float64) bool {
	return isDefaultDecode(decode, 3)
}

func (cs *DeviceRGBColorspace) GetRgb(comps []float64) (r, g, b uint8) {
	return clamp255(comps[0] * 255), clamp255(comps[1] * 255), clamp255(comps[2] * 255)
}

func (cs *DeviceRGBColorspace) FillRgb(dst []byte, srcW, srcH, dstW, dstH, actualHeight int, comps []uint32, maxVal uint32, alphaStride int) {
	fillRgbResample(dst, srcW, srcH, dstW, dstH, actualHeight, 3, comps, alphaStride, func(pix []uint32) (uint8, uint8, uint8) {
		scale := 255 / float64(maxVal)
		return clamp255(float64(pix[0]) * scale), clamp255(float64(pix[1]) * scale), clamp255(float64(pix[2]) * scale)
	})
}

type DeviceCMYKColorspace struct{}

func NewPdfColorspaceDeviceCMYK() *DeviceCMYKColorspace { return &DeviceCMYKColorspace{} }

func (cs *DeviceCMYKColorspace) GetNumComponents() int64 { return 4 }
func (cs *DeviceCMYKColorspace) Name() string            { return "DeviceCMYK" }

func (cs *DeviceCMYKColorspace) IsDefaultDecode(decode []float64) bool {
	return isDefaultDecode(decode, 4)
}

func cmykToRgb(c, m, y, k float64) (uint8, uint8, uint8) {
	r := 255 * (1 - c) * (1 - k)
	g := 255 * (1 - m) * (1 - k)
	b := 255 * (1 - y) * (1 - k)
	return clamp255(r), clamp255(g), clamp255(b)
}

func (cs *DeviceCMYKColorspace) GetRgb(comps []float64) (r, g, b uint8) {
	return cmykToRgb(comps[0], comps[1], comps[2], comps[3])
}

func (cs *DeviceCMYKColorspace) FillRgb(dst []byte, srcW, srcH, dstW, dstH, actualHeight int, comps []uint32, maxVal uint32, alphaStride int) {
	fillRgbResample(dst, srcW, srcH, dstW, dstH, actualHeight, 4, comps, alphaStride, func(pix []uint32) (uint8, uint8, uint8) {
		scale := 1 / float64(maxVal)
		return cmykToRgb(float64(pix[0])*scale, float64(pix[1])*scale, float64(pix[2])*scale, float64(pix[3])*scale)
	})
}

// isDefaultDecode reports whether decode is the identity [0,1]*NC
// array (or unset, which means the same thing).
func isDefaultDecode(decode []float64, nc int64) bool {
	if len(decode) == 0 {
		return true
	}
	if int64(len(decode)) != 2*nc {
		return false
	}
	for i := int64(0); i < nc; i++ {
		if decode[2*i] != 0 || decode[2*i+1] != 1 {
			return false
		}
	}
	return true
}
