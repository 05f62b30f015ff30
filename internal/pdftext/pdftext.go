// Package pdftext pulls text plus per-glyph coordinates out of PDF documents.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
	"github.com/joseph-ayodele/booking-drafts/internal/layout"
)

// Page holds one page's positioned fragments plus its concatenated raw text.
// Fragments may be empty for scanned-but-tagged documents; RawText is the
// fallback in that case.
type Page struct {
	Fragments []layout.Fragment
	RawText   string
}

// Document is the structured extraction result.
type Document struct {
	Pages []Page
}

// HasFragments reports whether any page yielded positioned fragments.
func (d *Document) HasFragments() bool {
	for _, p := range d.Pages {
		if len(p.Fragments) > 0 {
			return true
		}
	}
	return false
}

// Fragments returns all fragments of all pages, in page order.
func (d *Document) Fragments() []layout.Fragment {
	var out []layout.Fragment
	for _, p := range d.Pages {
		out = append(out, p.Fragments...)
	}
	return out
}

// PlainText returns the document text: reconstructed lines where fragments
// exist, raw page text otherwise.
func (d *Document) PlainText() string {
	var b strings.Builder
	for _, p := range d.Pages {
		var t string
		if len(p.Fragments) > 0 {
			t = layout.Text(p.Fragments)
		} else {
			t = p.RawText
		}
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t)
	}
	return b.String()
}

// Extractor reads the text layer of PDF documents.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract parses the PDF byte stream. A malformed container yields
// common.ErrDocumentUnreadable; the orchestrator then falls back to treating
// the input as an image.
func (e *Extractor) Extract(data []byte) (doc *Document, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdftext.parse.panic", "recovered", fmt.Sprint(r))
			doc = nil
			err = common.NewAppError("PDF_PARSE", "parser panic", common.ErrDocumentUnreadable)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Debug("pdftext.parse.failed", "error", err)
		return nil, common.NewAppError("PDF_PARSE", "open document", common.ErrDocumentUnreadable)
	}

	doc = &Document{}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		frags := coalesce(page.Content().Text)
		doc.Pages = append(doc.Pages, Page{Fragments: frags})
	}

	if !doc.HasFragments() {
		if txt, terr := readPlainText(r); terr == nil && txt != "" {
			if len(doc.Pages) == 0 {
				doc.Pages = append(doc.Pages, Page{})
			}
			doc.Pages[0].RawText = txt
		}
	}

	e.logger.Debug("pdftext.parse.ok",
		"pages", len(doc.Pages),
		"fragments", len(doc.Fragments()),
	)
	return doc, nil
}

func readPlainText(r *pdf.Reader) (string, error) {
	rd, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// coalesce merges per-glyph text items into word fragments. Glyphs belong to
// the same fragment while they share a baseline and the horizontal gap stays
// below a third of the font size.
func coalesce(items []pdf.Text) []layout.Fragment {
	var frags []layout.Fragment
	var cur strings.Builder
	var curX, curY, lastEnd, lastSize float64

	flush := func() {
		if cur.Len() > 0 {
			frags = append(frags, layout.Fragment{Text: cur.String(), X: curX, Y: curY})
			cur.Reset()
		}
	}

	for _, t := range items {
		if t.S == "" {
			continue
		}
		gap := t.X - lastEnd
		maxGap := lastSize * 0.3
		if maxGap <= 0 {
			maxGap = 1.0
		}
		sameLine := math.Abs(t.Y-curY) < 0.5
		if cur.Len() == 0 || !sameLine || gap > maxGap || gap < -1.0 {
			flush()
			curX, curY = t.X, t.Y
		}
		cur.WriteString(t.S)
		lastEnd = t.X + t.W
		lastSize = t.FontSize
	}
	flush()
	return frags
}
