package model

// fillOpacity writes the alpha channel of an RGBA output buffer. The
// three mask shapes are mutually exclusive (enforced when the Image
// was built): a soft mask sub-image, a stencil mask sub-image, or a
// color-key range evaluated directly against the pre-decode samples.
// With none of the three, every pixel is fully opaque.
func (img *Image) fillOpacity(rgba []byte, drawW, drawH, actualHeight int, srcSamples []uint32) error {
	if img.SMask != nil {
		gray, err := img.SMask.fillGrayBuffer()
		if err != nil {
			return err
		}
		writeAlphaPlane(rgba, gray, int(img.SMask.Width), int(img.SMask.Height), drawW, drawH, false)
		return nil
	}

	if img.StencilMask != nil {
		gray, err := img.StencilMask.fillGrayBuffer()
		if err != nil {
			return err
		}
		writeAlphaPlane(rgba, gray, int(img.StencilMask.Width), int(img.StencilMask.Height), drawW, drawH, true)
		return nil
	}

	if len(img.ColorKey) > 0 {
		nc := int(img.ColorComponents)
		key := img.ColorKey
		count := drawW * drawH
		for i := 0; i < count; i++ {
			opaque := false
			for j := 0; j < nc; j++ {
				idx := i*nc + j
				if idx >= len(srcSamples) {
					break
				}
				v := srcSamples[idx]
				if float64(v) < key[2*j] || float64(v) > key[2*j+1] {
					opaque = true
					break
				}
			}
			a := byte(0)
			if opaque {
				a = 255
			}
			rgba[i*4+3] = a
		}
		return nil
	}

	for i := range rgba {
		if i%4 == 3 {
			rgba[i] = 255
		}
	}
	return nil
}

// writeAlphaPlane resamples an 8-bit gray plane of size (srcW,srcH)
// onto a (dstW,dstH) grid via resizeImageMask, writing each result
// into byte 4i+3 of rgba. invert flips the sample before writing, used
// for stencil masks where a set bit means "don't paint".
func writeAlphaPlane(rgba []byte, gray []byte, srcW, srcH, dstW, dstH int, invert bool) {
	resampled := gray
	if srcW != dstW || srcH != dstH {
		resampled = resizeImageMask(gray, srcW, srcH, dstW, dstH)
	}

	for i := 0; i < dstW*dstH && i < len(resampled); i++ {
		a := resampled[i]
		if invert {
			a = 255 - a
		}
		rgba[i*4+3] = a
	}
}

// undoPreblend reverses premultiplication of an RGBA buffer by the
// SMask's matte color. Only meaningful when an SMask with a Matte
// entry was resolved; callers must check that before calling this.
func (img *Image) undoPreblend(rgba []byte, width, height int) {
	matte := img.Matte
	if len(matte) == 0 {
		return
	}

	mr, mg, mb := img.Colorspace.GetRgb(matte)
	mrf, mgf, mbf := float64(mr), float64(mg), float64(mb)

	count := width * height
	for i := 0; i < count; i++ {
		idx := i * 4
		if idx+3 >= len(rgba) {
			break
		}
		a := rgba[idx+3]
		if a == 0 {
			rgba[idx] = 255
			rgba[idx+1] = 255
			rgba[idx+2] = 255
			continue
		}
		k := 255 / float64(a)
		rgba[idx] = clamp255((float64(rgba[idx]) - mrf) * k + mrf)
		rgba[idx+1] = clamp255((float64(rgba[idx+1]) - mgf) * k + mgf)
		rgba[idx+2] = clamp255((float64(rgba[idx+2]) - mbf) * k + mbf)
	}
}

// CreateMask builds a stencil mask buffer from a plain bit array: an
// output of ceil(width/8)*height bytes, the tail padded with 0xFF when
// inverseDecode and the input is short, and only the original (copied)
// portion bitwise-negated when inverseDecode is set (PDF's ImageMask
// Decode [1 0] convention for "1 means paint") — the padded tail is
// left at 0xFF, not negated.
func CreateMask(imgArray []byte, width, height int, fromDecodeStream, inverseDecode bool) (data []byte, outW, outH int) {
	rowBytes := (width + 7) / 8
	want := rowBytes * height

	out := make([]byte, want)
	n := copy(out, imgArray)
	if n < want && inverseDecode {
		for i := n; i < want; i++ {
			out[i] = 0xFF
		}
	}

	if inverseDecode {
		for i := 0; i < n; i++ {
			out[i] = ^out[i]
		}
	}

	return out, width, height
}
