package contentstream

import "github.com/finalversus/pdfimage/pdf/model"

// PdfPageResources is the minimal resource lookup an inline image
// needs: resolving a named (non-device) colorspace against the page's
// /Resources /ColorSpace dictionary. A full resource dictionary also
// carries fonts, XObjects and patterns, none of which the image engine
// touches, so none of it is modeled here.
type PdfPageResources struct {
	ColorSpaces map[string]model.PdfColorspace
}

func NewPdfPageResources() *PdfPageResources {
	return &PdfPageResources{ColorSpaces: map[string]model.PdfColorspace{}}
}

func (r *PdfPageResources) GetColorspaceByName(name string) (model.PdfColorspace, bool) {
	if r == nil || r.ColorSpaces == nil {
		return nil, false
	}
	cs, ok := r.ColorSpaces[name]
	return cs, ok
}
