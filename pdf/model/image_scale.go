package model

// Downscale thresholds for oversize grayscale/bilevel images. These are
// heuristics the document format does not specify, so they are kept as
// configurable knobs rather than baked-in constants.
var (
	DownscaleThreshold3x = 15000
	DownscaleThreshold2x = 10000
	DownscaleThreshold1x = 5000
)

// shallResizeImage reports whether the grayscale downscaler applies to
// an image with the given component count and bit depth.
func shallResizeImage(nc, bpc int) bool {
	return nc == 1 && (bpc == 1 || bpc == 8)
}

// scaleBitsFor returns the log2 decimation factor the downscaler would
// apply to an image whose largest dimension is max(w,h).
func scaleBitsFor(w, h int) int {
	largest := w
	if h > largest {
		largest = h
	}
	switch {
	case largest > DownscaleThreshold3x:
		return 3
	case largest > DownscaleThreshold2x:
		return 2
	case largest > DownscaleThreshold1x:
		return 1
	default:
		return 0
	}
}

// downscaleGray8 nearest-neighbor decimates a one-byte-per-pixel buffer
// by 2^scaleBits along both axes.
func downscaleGray8(data []byte, width, height, scaleBits int) (out []byte, newW, newH int) {
	step := 1 << uint(scaleBits)
	newW = width >> uint(scaleBits)
	newH = height >> uint(scaleBits)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	out = make([]byte, newW*newH)
	for y := 0; y < newH; y++ {
		sy := y * step
		for x := 0; x < newW; x++ {
			sx := x * step
			idx := sy*width + sx
			if idx < len(data) {
				out[y*newW+x] = data[idx]
			}
		}
	}
	return out, newW, newH
}

// downscaleBilevel decimates a packed MSB-first 1-bpp buffer by
// sampling the source bit at (x*step, y*step) for each destination
// pixel and OR-ing it into the destination byte at the matching bit
// position.
func downscaleBilevel(data []byte, width, height, scaleBits int) (out []byte, newW, newH int) {
	step := 1 << uint(scaleBits)
	newW = width >> uint(scaleBits)
	newH = height >> uint(scaleBits)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	rowBytes := (width + 7) / 8
	newRowBytes := (newW + 7) / 8
	out = make([]byte, newRowBytes*newH)

	for y := 0; y < newH; y++ {
		sy := y * step
		for x := 0; x < newW; x++ {
			sx := x * step
			srcByteIdx := sy*rowBytes + sx/8
			if srcByteIdx >= len(data) {
				continue
			}
			bit := (data[srcByteIdx] >> uint(7-sx%8)) & 1
			if bit != 0 {
				out[y*newRowBytes+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return out, newW, newH
}

// resizeImageMask nearest-neighbor resamples a sub-image's gray buffer
// from (w1,h1) to (w2,h2); used by the mask engine when an SMask/Mask
// sub-image's dimensions differ from the parent's draw dimensions.
func resizeImageMask(src []byte, w1, h1, w2, h2 int) []byte {
	out := make([]byte, w2*h2)
	for i := 0; i < h2; i++ {
		pySrc := (i * h1 / h2) * w1
		for j := 0; j < w2; j++ {
			xScaled := j * w1 / w2
			srcIdx := pySrc + xScaled
			if srcIdx < len(src) {
				out[i*w2+j] = src[srcIdx]
			}
		}
	}
	return out
}
