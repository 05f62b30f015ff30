package mailparse

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

const pdfStub = "%PDF-1.4 fake document body for testing"

func multipartMail(t *testing.T) []byte {
	t.Helper()
	b64 := base64.StdEncoding.EncodeToString([]byte(pdfStub))

	var b strings.Builder
	b.WriteString("From: buchhaltung@example.ch\r\n")
	b.WriteString("To: intake@example.ch\r\n")
	b.WriteString("Subject: =?UTF-8?Q?Rechnung_M=C3=A4rz?=\r\n")
	b.WriteString("Date: Tue, 05 Mar 2024 10:30:00 +0100\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed;\r\n")
	b.WriteString(" boundary=\"XYZ123\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("preamble to be ignored\r\n")
	b.WriteString("--XYZ123\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Anbei die Rechnung.\r\n")
	b.WriteString("--XYZ123\r\n")
	b.WriteString("Content-Type: application/pdf\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("Content-Disposition: attachment;\r\n")
	b.WriteString(" filename=\"=?ISO-8859-1?Q?Geb=FChren=2Epdf?=\"\r\n")
	b.WriteString("\r\n")
	// wrap base64 lines the way mailers do
	for i := 0; i < len(b64); i += 60 {
		end := i + 60
		if end > len(b64) {
			end = len(b64)
		}
		b.WriteString(b64[i:end] + "\r\n")
	}
	b.WriteString("--XYZ123--\r\n")
	b.WriteString("epilogue\r\n")
	return []byte(b.String())
}

func TestParseMultipart(t *testing.T) {
	msg, err := NewParser(nil).Parse(multipartMail(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if msg.Subject != "Rechnung März" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.From != "buchhaltung@example.ch" {
		t.Errorf("from = %q", msg.From)
	}
	if msg.Date.IsZero() {
		t.Error("date not parsed")
	}
	if msg.TextBody != "Anbei die Rechnung." {
		t.Errorf("body = %q", msg.TextBody)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(msg.Attachments))
	}

	att := msg.Attachments[0]
	if att.Filename != "Gebühren.pdf" {
		t.Errorf("filename = %q", att.Filename)
	}
	if att.MIMEType != "application/pdf" {
		t.Errorf("mime = %q", att.MIMEType)
	}
	// decoded bytes must round-trip to the original payload byte-for-byte
	if !bytes.Equal(att.Data, []byte(pdfStub)) {
		t.Errorf("attachment bytes do not match: %q", att.Data)
	}
}

func TestParseSinglePartPlainText(t *testing.T) {
	raw := "Subject: Zahlungserinnerung\n" +
		"From: a@b.c\n" +
		"Content-Type: text/plain\n" +
		"\n" +
		"Offener Betrag CHF 150.00\n"
	msg, err := NewParser(nil).Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.TextBody != "Offener Betrag CHF 150.00" {
		t.Errorf("body = %q", msg.TextBody)
	}
	if len(msg.Attachments) != 0 {
		t.Errorf("attachments = %d", len(msg.Attachments))
	}
}

func TestParseFoldedHeaderKeepsFirstOccurrence(t *testing.T) {
	raw := "Subject: first\n" +
		"Subject: second\n" +
		"X-Long: part one\n" +
		"\tpart two\n" +
		"\n" +
		"body\n"
	headers, body, err := splitHeaders([]byte(raw))
	if err != nil {
		t.Fatalf("splitHeaders: %v", err)
	}
	if headers["subject"] != "first" {
		t.Errorf("subject = %q", headers["subject"])
	}
	if headers["x-long"] != "part one part two" {
		t.Errorf("x-long = %q", headers["x-long"])
	}
	if string(body) != "body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestCorruptPartIsSkipped(t *testing.T) {
	raw := "Subject: test\n" +
		"Content-Type: multipart/mixed; boundary=\"B\"\n" +
		"\n" +
		"--B\n" +
		"Content-Type: application/pdf; name=\"bad.pdf\"\n" +
		"Content-Transfer-Encoding: base64\n" +
		"\n" +
		"!!!not base64!!!\n" +
		"--B\n" +
		"Content-Type: text/plain\n" +
		"\n" +
		"still readable\n" +
		"--B--\n"
	msg, err := NewParser(nil).Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(msg.Attachments) != 0 {
		t.Errorf("corrupt attachment should be skipped, got %d", len(msg.Attachments))
	}
	if msg.TextBody != "still readable" {
		t.Errorf("sibling part lost: body = %q", msg.TextBody)
	}
}

func TestUnsupportedCharsetFallsBackToRaw(t *testing.T) {
	in := "=?X-UNKNOWN?Q?abc?="
	if got := decodeWords(in); got != in {
		t.Errorf("decodeWords = %q, want raw fallback", got)
	}
}
