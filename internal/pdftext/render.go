package pdftext

import (
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
)

// RenderFirstPage rasterizes the first page of a PDF so that barcode
// decoding can run against it. Most payment slips sit on page one.
func RenderFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, common.NewAppError("PDF_RENDER", "open document", common.ErrDocumentUnreadable)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, common.NewAppError("PDF_RENDER", "render page", common.ErrDocumentUnreadable)
	}
	return img, nil
}
