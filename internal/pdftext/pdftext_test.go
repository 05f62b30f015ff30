package pdftext

import (
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
)

func TestExtractRejectsGarbage(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract([]byte("not a pdf at all"))
	if err == nil {
		t.Fatal("expected error for non-PDF input")
	}
	if !errors.Is(err, common.ErrDocumentUnreadable) {
		t.Errorf("error = %v, want ErrDocumentUnreadable", err)
	}
}

func TestCoalesceMergesGlyphs(t *testing.T) {
	items := []pdf.Text{
		{S: "T", X: 10, Y: 100, W: 5, FontSize: 10},
		{S: "o", X: 15, Y: 100, W: 5, FontSize: 10},
		{S: "t", X: 20, Y: 100, W: 5, FontSize: 10},
		{S: "a", X: 25, Y: 100, W: 5, FontSize: 10},
		{S: "l", X: 30, Y: 100, W: 4, FontSize: 10},
		// wide gap -> new fragment
		{S: "9", X: 200, Y: 100, W: 5, FontSize: 10},
		{S: "9", X: 205, Y: 100, W: 5, FontSize: 10},
		// new baseline -> new fragment
		{S: "x", X: 10, Y: 80, W: 5, FontSize: 10},
	}
	frags := coalesce(items)
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d: %+v", len(frags), frags)
	}
	if frags[0].Text != "Total" || frags[0].X != 10 || frags[0].Y != 100 {
		t.Errorf("fragment 0 = %+v", frags[0])
	}
	if frags[1].Text != "99" {
		t.Errorf("fragment 1 = %+v", frags[1])
	}
	if frags[2].Text != "x" || frags[2].Y != 80 {
		t.Errorf("fragment 2 = %+v", frags[2])
	}
}

func TestDocumentPlainTextFallsBackToRawText(t *testing.T) {
	doc := &Document{Pages: []Page{{RawText: "scanned page text"}}}
	if doc.HasFragments() {
		t.Error("HasFragments should be false")
	}
	if got := doc.PlainText(); got != "scanned page text" {
		t.Errorf("PlainText = %q", got)
	}
}
