// Package pipeline routes an incoming document through extraction and
// produces a booking draft with a detection trail. The pipeline never fails
// on malformed content: every accepted input yields a draft, because a human
// reviews each one before it becomes a ledger entry. The only propagated
// error is a zero-byte input.
package pipeline

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/booking-drafts/constants"
	"github.com/joseph-ayodele/booking-drafts/internal/barcode"
	"github.com/joseph-ayodele/booking-drafts/internal/common"
	"github.com/joseph-ayodele/booking-drafts/internal/entity"
	"github.com/joseph-ayodele/booking-drafts/internal/fields"
	"github.com/joseph-ayodele/booking-drafts/internal/mailparse"
	"github.com/joseph-ayodele/booking-drafts/internal/ocr"
	"github.com/joseph-ayodele/booking-drafts/internal/pdftext"
	"github.com/joseph-ayodele/booking-drafts/internal/qrbill"
	"github.com/joseph-ayodele/booking-drafts/internal/raster"
	"github.com/joseph-ayodele/booking-drafts/internal/vendormem"
)

// Trail tags, joined with "+" in the order strategies contributed.
const (
	TagPDF      = "PDF"
	TagLayout   = "Layout"
	TagQR       = "QR"
	TagOCR      = "OCR"
	TagMail     = "E-Mail"
	TagText     = "Text"
	TagTemplate = "Template"
)

// Document is the pipeline input: opaque bytes plus whatever kind/type
// metadata the caller has. Kind is sniffed when left empty.
type Document struct {
	Kind        constants.DocKind
	Data        []byte
	Filename    string
	ContentType string
}

// Result pairs a draft with its detection trail. A mail container yields one
// Result per recovered attachment (or one for the body when there are none);
// every other kind yields exactly one.
type Result struct {
	Draft           *entity.BookingDraft
	Trail           string
	TemplateApplied bool
	VendorPattern   string

	// filename used for the vendor-memory lookup; per-attachment for mail
	filename string
}

type Config struct {
	// RecognitionTimeout bounds a single OCR call; expiry is treated the
	// same as an engine failure. Zero means no bound.
	RecognitionTimeout time.Duration
}

// Deps are the injected collaborators. Interface-bound where tests need to
// substitute fakes.
type Deps struct {
	Fields  *fields.Engine
	PDF     *pdftext.Extractor
	OCR     ocr.Recognizer
	Barcode barcode.Decoder
	Mail    *mailparse.Parser
	Store   vendormem.Store

	// RenderPage rasterizes the first page of a PDF for barcode decoding.
	// Defaults to the fitz-backed renderer.
	RenderPage func(data []byte) (image.Image, error)
}

type Processor struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
}

func NewProcessor(cfg Config, deps Deps, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Fields == nil {
		deps.Fields = fields.NewEngine(fields.Config{}, logger)
	}
	if deps.PDF == nil {
		deps.PDF = pdftext.NewExtractor(logger)
	}
	if deps.Barcode == nil {
		deps.Barcode = barcode.NewQRDecoder(logger)
	}
	if deps.Mail == nil {
		deps.Mail = mailparse.NewParser(logger)
	}
	if deps.Store == nil {
		deps.Store = vendormem.NewMemory()
	}
	if deps.RenderPage == nil {
		deps.RenderPage = pdftext.RenderFirstPage
	}
	return &Processor{cfg: cfg, deps: deps, logger: logger}
}

// Process turns one document into one or more booking drafts. It returns an
// error only for zero-byte input; all content-level failures degrade to a
// default-populated draft.
func (p *Processor) Process(ctx context.Context, doc Document) ([]*Result, error) {
	if len(doc.Data) == 0 {
		return nil, common.NewAppError("EMPTY_INPUT", "document has no bytes", common.ErrEmptyInput)
	}

	kind := doc.Kind
	if kind == "" {
		kind = sniffKind(doc)
	}
	p.logger.Info("pipeline.start", "kind", string(kind), "filename", doc.Filename, "bytes", len(doc.Data))

	var results []*Result
	switch kind {
	case constants.KindMail:
		results = p.processMail(ctx, doc)
	case constants.KindPDF:
		results = []*Result{p.processPDF(ctx, doc.Data, doc.Filename, nil)}
	case constants.KindText:
		draft := p.deps.Fields.FromText(string(doc.Data), doc.Filename)
		results = []*Result{{Draft: draft, Trail: TagText, filename: doc.Filename}}
	default:
		results = []*Result{p.processImage(ctx, doc.Data, doc.Filename, doc.ContentType, nil)}
	}

	for _, res := range results {
		p.applyTemplate(ctx, res)
		p.logger.Info("pipeline.done", "trail", res.Trail, "amount", res.Draft.Amount.String(), "currency", res.Draft.Currency)
	}
	return results, nil
}

// sniffKind resolves the document kind from magic bytes, the declared
// content type, and finally the filename extension.
func sniffKind(doc Document) constants.DocKind {
	if bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		return constants.KindPDF
	}
	switch {
	case doc.ContentType == "application/pdf":
		return constants.KindPDF
	case doc.ContentType == "message/rfc822":
		return constants.KindMail
	case strings.HasPrefix(doc.ContentType, "image/"):
		return constants.KindImage
	case strings.HasPrefix(doc.ContentType, "text/"):
		return constants.KindText
	}
	return constants.MapExtToKind(filepath.Ext(doc.Filename))
}

// processPDF runs the structured-text path. An unreadable container falls
// back to the image path: scanners produce PDF wrappers around plain rasters
// often enough that giving up here would lose real documents.
func (p *Processor) processPDF(ctx context.Context, data []byte, filename string, prefix []string) *Result {
	doc, err := p.deps.PDF.Extract(data)
	if err != nil {
		p.logger.Warn("pipeline.pdf.unreadable", "filename", filename, "error", err)
		return p.processImage(ctx, data, filename, "", prefix)
	}

	var (
		draft *entity.BookingDraft
		tags  []string
	)
	if doc.HasFragments() {
		draft = p.deps.Fields.FromFragments(doc.Fragments(), filename)
		tags = append(prefix, TagPDF, TagLayout)
	} else {
		draft = p.deps.Fields.FromText(doc.PlainText(), filename)
		tags = append(prefix, TagPDF)
	}

	if img, err := p.deps.RenderPage(data); err == nil {
		if p.applySlip(draft, img) {
			tags = append(tags, TagQR)
		}
	} else {
		p.logger.Debug("pipeline.pdf.render_failed", "filename", filename, "error", err)
	}

	return &Result{Draft: draft, Trail: strings.Join(tags, "+"), filename: filename}
}

// processImage runs preprocess → barcode → OCR → text extraction. Every
// failure inside degrades to empty text so a draft is still produced.
func (p *Processor) processImage(ctx context.Context, data []byte, filename, contentType string, prefix []string) *Result {
	tags := append(prefix, TagOCR)

	img, err := raster.Decode(data, contentType)
	if err != nil {
		p.logger.Warn("pipeline.image.unreadable", "filename", filename, "error", err)
		draft := p.deps.Fields.FromText("", filename)
		return &Result{Draft: draft, Trail: strings.Join(tags, "+"), filename: filename}
	}

	gray := raster.Grayscale(img)

	text := p.recognize(ctx, gray)
	draft := p.deps.Fields.FromText(text, filename)

	// barcode against the original first, the preprocessed surface second
	if p.applySlip(draft, img) || p.applySlip(draft, gray) {
		tags = append(tags, TagQR)
	}

	return &Result{Draft: draft, Trail: strings.Join(tags, "+"), filename: filename}
}

// processMail fans out per PDF attachment; a mail without attachments is
// extracted from its subject and body text.
func (p *Processor) processMail(ctx context.Context, doc Document) []*Result {
	msg, err := p.deps.Mail.Parse(doc.Data)
	if err != nil {
		p.logger.Warn("pipeline.mail.unreadable", "filename", doc.Filename, "error", err)
		draft := p.deps.Fields.FromText("", doc.Filename)
		return []*Result{{Draft: draft, Trail: TagMail + "+" + TagText, filename: doc.Filename}}
	}

	if len(msg.Attachments) == 0 {
		text := strings.TrimSpace(msg.Subject + "\n" + msg.TextBody)
		draft := p.deps.Fields.FromText(text, doc.Filename)
		return []*Result{{Draft: draft, Trail: TagMail + "+" + TagText, filename: doc.Filename}}
	}

	results := make([]*Result, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		name := att.Filename
		if name == "" {
			name = doc.Filename
		}
		results = append(results, p.processPDF(ctx, att.Data, name, []string{TagMail}))
	}
	return results
}

// recognize bounds one OCR call with the configured timeout. Expiry kills
// the engine process, which surfaces as a recognition failure; either way
// the result is empty text.
func (p *Processor) recognize(ctx context.Context, img image.Image) string {
	if p.deps.OCR == nil {
		return ""
	}
	if p.cfg.RecognitionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RecognitionTimeout)
		defer cancel()
	}
	text, err := p.deps.OCR.Recognize(ctx, img)
	if err != nil {
		p.logger.Warn("pipeline.ocr.failed", "error", err)
		return ""
	}
	return text
}

// applySlip decodes a barcode from the image and, when the payload is a
// payment slip, overrides amount and currency. Slip data is machine-written
// and always beats text scraping. An open slip amount overrides nothing.
func (p *Processor) applySlip(draft *entity.BookingDraft, img image.Image) bool {
	payload, ok := p.deps.Barcode.Decode(img)
	if !ok {
		return false
	}
	slip, ok := qrbill.Parse(payload)
	if !ok {
		return false
	}
	if slip.Amount != nil {
		draft.Amount = *slip.Amount
	}
	if slip.Currency != "" {
		draft.Currency = slip.Currency
	}
	return true
}

// applyTemplate is the terminal step for every draft: the vendor-memory
// overlay. Stored rule fields win unconditionally over fresh extraction.
func (p *Processor) applyTemplate(ctx context.Context, res *Result) {
	rule, err := p.deps.Store.Find(ctx, res.filename)
	if err != nil {
		p.logger.Warn("pipeline.template.lookup_failed", "filename", res.filename, "error", err)
		return
	}
	if rule == nil {
		return
	}
	rule.Draft.Apply(res.Draft)
	res.Trail += "+" + TagTemplate
	res.TemplateApplied = true
	res.VendorPattern = rule.Pattern
	p.logger.Info("pipeline.template.applied", "pattern", rule.Pattern, "filename", res.filename)
}
