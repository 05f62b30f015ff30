package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/booking-drafts/constants"
	"github.com/joseph-ayodele/booking-drafts/internal/common"
	"github.com/joseph-ayodele/booking-drafts/internal/entity"
	"github.com/joseph-ayodele/booking-drafts/internal/fields"
	"github.com/joseph-ayodele/booking-drafts/internal/vendormem"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

type stubOCR struct {
	text string
	err  error
}

func (s stubOCR) Recognize(_ context.Context, _ image.Image) (string, error) {
	return s.text, s.err
}

type stubQR struct {
	payload string
	ok      bool
}

func (s stubQR) Decode(_ image.Image) (string, bool) {
	return s.payload, s.ok
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func slipPayload(amount, currency string) string {
	lines := make([]string, 20)
	lines[0] = "SPC"
	lines[1] = "0200"
	lines[2] = "1"
	lines[3] = "CH4431999123000889012"
	lines[18] = amount
	lines[19] = currency
	return strings.Join(lines, "\n")
}

func newProcessor(deps Deps) *Processor {
	if deps.OCR == nil {
		deps.OCR = stubOCR{}
	}
	if deps.Barcode == nil {
		deps.Barcode = stubQR{}
	}
	return NewProcessor(Config{RecognitionTimeout: time.Second}, deps, discard)
}

func TestProcessEmptyInput(t *testing.T) {
	p := newProcessor(Deps{})
	_, err := p.Process(context.Background(), Document{Filename: "empty.pdf"})
	if !errors.Is(err, common.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

// A failed OCR and no barcode must still yield a complete default draft.
func TestImageRecognitionFailureYieldsDefaultDraft(t *testing.T) {
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	eng := fields.NewEngine(fields.Config{Now: func() time.Time { return now }}, discard)
	p := newProcessor(Deps{
		Fields: eng,
		OCR:    stubOCR{err: common.ErrRecognitionUnavailable},
	})

	results, err := p.Process(context.Background(), Document{
		Kind:     constants.KindImage,
		Data:     pngBytes(t),
		Filename: "scan.png",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	d := res.Draft
	if res.Trail != "OCR" {
		t.Errorf("trail = %q, want OCR", res.Trail)
	}
	if !d.Amount.IsZero() {
		t.Errorf("amount = %s, want 0", d.Amount)
	}
	if d.Currency != "CHF" {
		t.Errorf("currency = %q, want CHF", d.Currency)
	}
	if d.PaymentStatus != constants.PaymentOpen {
		t.Errorf("status = %q, want OPEN", d.PaymentStatus)
	}
	if d.DebitAccount != "6500" {
		t.Errorf("debit = %q, want default 6500", d.DebitAccount)
	}
	if !d.Date.Equal(now) {
		t.Errorf("date = %v, want processing date", d.Date)
	}
}

func TestImageSlipOverridesTextAmount(t *testing.T) {
	p := newProcessor(Deps{
		OCR:     stubOCR{text: "Rechnung Total EUR 55.00"},
		Barcode: stubQR{payload: slipPayload("100.00", "CHF"), ok: true},
	})

	results, err := p.Process(context.Background(), Document{
		Kind:     constants.KindImage,
		Data:     pngBytes(t),
		Filename: "slip.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Trail != "OCR+QR" {
		t.Errorf("trail = %q, want OCR+QR", res.Trail)
	}
	if !res.Draft.Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("amount = %s, want slip amount 100.00", res.Draft.Amount)
	}
	if res.Draft.Currency != "CHF" {
		t.Errorf("currency = %q, want slip currency CHF", res.Draft.Currency)
	}
}

func TestImageOpenSlipKeepsTextAmount(t *testing.T) {
	p := newProcessor(Deps{
		OCR:     stubOCR{text: "Total CHF 55.00"},
		Barcode: stubQR{payload: slipPayload("", "EUR"), ok: true},
	})

	results, err := p.Process(context.Background(), Document{
		Kind: constants.KindImage,
		Data: pngBytes(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if !res.Draft.Amount.Equal(decimal.RequireFromString("55.00")) {
		t.Errorf("amount = %s, want text-derived 55.00", res.Draft.Amount)
	}
	if res.Draft.Currency != "EUR" {
		t.Errorf("currency = %q, want slip currency EUR", res.Draft.Currency)
	}
}

func TestTextKind(t *testing.T) {
	p := newProcessor(Deps{})
	results, err := p.Process(context.Background(), Document{
		Kind:     constants.KindText,
		Data:     []byte("Rechnung\nGesamtbetrag: CHF 42.50"),
		Filename: "notiz.txt",
	})
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Trail != "Text" {
		t.Errorf("trail = %q, want Text", res.Trail)
	}
	if !res.Draft.Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("amount = %s, want 42.50", res.Draft.Amount)
	}
}

func TestUnreadablePDFFallsBackToImagePath(t *testing.T) {
	p := newProcessor(Deps{})
	results, err := p.Process(context.Background(), Document{
		Kind:     constants.KindPDF,
		Data:     []byte("definitely not a pdf"),
		Filename: "broken.pdf",
	})
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Trail != "OCR" {
		t.Errorf("trail = %q, want OCR fallback", res.Trail)
	}
	if res.Draft == nil {
		t.Fatal("no draft produced")
	}
}

func TestMailBodyOnly(t *testing.T) {
	raw := strings.Join([]string{
		"From: buchhaltung@example.ch",
		"Subject: Miete Oktober",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Mietzins CHF 1'500.00, bereits bezahlt.",
	}, "\r\n")

	p := newProcessor(Deps{})
	results, err := p.Process(context.Background(), Document{
		Kind:     constants.KindMail,
		Data:     []byte(raw),
		Filename: "miete.eml",
	})
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Trail != "E-Mail+Text" {
		t.Errorf("trail = %q, want E-Mail+Text", res.Trail)
	}
	if !res.Draft.Amount.Equal(decimal.RequireFromString("1500.00")) {
		t.Errorf("amount = %s, want 1500.00", res.Draft.Amount)
	}
	if res.Draft.DebitAccount != "6000" {
		t.Errorf("debit = %q, want rent account 6000", res.Draft.DebitAccount)
	}
	if res.Draft.PaymentStatus != constants.PaymentPaid {
		t.Errorf("status = %q, want PAID", res.Draft.PaymentStatus)
	}
}

func TestMailAttachmentFanOut(t *testing.T) {
	pdfBody := "not really a pdf but carried as one"
	raw := strings.Join([]string{
		"From: a@example.ch",
		"Subject: Rechnungen",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="BOUND"`,
		"",
		"--BOUND",
		"Content-Type: text/plain",
		"",
		"im Anhang",
		"--BOUND",
		`Content-Type: application/pdf; name="lieferant_rechnung.pdf"`,
		"Content-Transfer-Encoding: base64",
		"",
		b64(pdfBody),
		"--BOUND--",
	}, "\r\n")

	p := newProcessor(Deps{})
	results, err := p.Process(context.Background(), Document{
		Kind:     constants.KindMail,
		Data:     []byte(raw),
		Filename: "inbox.eml",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 per attachment", len(results))
	}
	res := results[0]
	if !strings.HasPrefix(res.Trail, "E-Mail+") {
		t.Errorf("trail = %q, want E-Mail prefix", res.Trail)
	}
	if res.Draft == nil {
		t.Fatal("no draft for attachment")
	}
}

func TestTemplateOverlayIsTerminal(t *testing.T) {
	ctx := context.Background()
	store := vendormem.NewMemory()
	cat := "Telefon"
	debit := "6510"
	if _, err := store.Add(ctx, "swisscom", entity.DraftPatch{Category: &cat, DebitAccount: &debit}); err != nil {
		t.Fatal(err)
	}

	p := newProcessor(Deps{Store: store})
	results, err := p.Process(ctx, Document{
		Kind:     constants.KindText,
		Data:     []byte("Abo-Rechnung Total CHF 80.00"),
		Filename: "Swisscom_Rechnung_Okt.txt",
	})
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if !res.TemplateApplied {
		t.Fatal("template not applied")
	}
	if res.VendorPattern != "swisscom" {
		t.Errorf("vendor pattern = %q", res.VendorPattern)
	}
	if !strings.HasSuffix(res.Trail, "+Template") {
		t.Errorf("trail = %q, want +Template suffix", res.Trail)
	}
	if res.Draft.Category != "Telefon" || res.Draft.DebitAccount != "6510" {
		t.Errorf("overlay not applied: category=%q debit=%q", res.Draft.Category, res.Draft.DebitAccount)
	}
	// extraction result survives where the rule is silent
	if !res.Draft.Amount.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("amount = %s, want 80.00", res.Draft.Amount)
	}
}

func TestSniffKind(t *testing.T) {
	cases := []struct {
		name string
		doc  Document
		want constants.DocKind
	}{
		{"pdf magic", Document{Data: []byte("%PDF-1.7 ...")}, constants.KindPDF},
		{"pdf content type", Document{Data: []byte("x"), ContentType: "application/pdf"}, constants.KindPDF},
		{"mail content type", Document{Data: []byte("x"), ContentType: "message/rfc822"}, constants.KindMail},
		{"image content type", Document{Data: []byte("x"), ContentType: "image/jpeg"}, constants.KindImage},
		{"text content type", Document{Data: []byte("x"), ContentType: "text/plain"}, constants.KindText},
		{"eml extension", Document{Data: []byte("x"), Filename: "msg.eml"}, constants.KindMail},
		{"unknown defaults to image", Document{Data: []byte("x"), Filename: "scan.webp"}, constants.KindImage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sniffKind(tc.doc); got != tc.want {
				t.Errorf("sniffKind = %q, want %q", got, tc.want)
			}
		})
	}
}
