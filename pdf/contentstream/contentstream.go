// Package contentstream scans a page content stream just far enough to
// locate and extract inline images (the BI/ID/EI operator sequence).
// Executing the rest of the operator set — graphics state, paths,
// text showing — belongs to a renderer, not to the image engine this
// module feeds.
package contentstream

import "github.com/finalversus/pdfimage/pdf/core"

// ContentStreamOperation is one operator and the operands that precede
// it, in source order. An inline image's decoded operands are carried
// as a single *ContentStreamInlineImage parameter on a "BI" operation.
type ContentStreamOperation struct {
	Params  []core.PdfObject
	Operand string
}

type ContentStreamOperations []*ContentStreamOperation
