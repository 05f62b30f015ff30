// Package mailparse decodes raw RFC-822-style mail containers into subject,
// sender, body text and PDF attachments for the extraction pipeline.
package mailparse

import (
	"bytes"
	"encoding/base64"
	"io"
	"log/slog"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
)

// Attachment is a recovered binary document from a mail part.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Message is the decoded mail container. Ephemeral: produced and consumed
// within one ingestion call, never persisted.
type Message struct {
	Subject     string
	From        string
	Date        time.Time
	TextBody    string
	Attachments []Attachment
}

// Parser decodes raw mail bytes.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse splits the header block from the body, decodes encoded-word headers,
// and walks multipart content recursively. The first text/plain part becomes
// the body; parts that look like PDFs become attachments; everything else is
// dropped. An undecodable part is skipped, its siblings still processed.
func (p *Parser) Parse(raw []byte) (*Message, error) {
	headers, body, err := splitHeaders(raw)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Subject: decodeWords(headers["subject"]),
		From:    decodeWords(headers["from"]),
	}
	if d, err := mail.ParseDate(headers["date"]); err == nil {
		msg.Date = d
	}

	p.walkPart(headers["content-type"], headers["content-transfer-encoding"], headers["content-disposition"], body, msg, 0)
	return msg, nil
}

// partDepthLimit guards against pathological nesting.
const partDepthLimit = 8

func (p *Parser) walkPart(contentType, transferEncoding, disposition string, body []byte, msg *Message, depth int) {
	if depth > partDepthLimit {
		return
	}

	mediaType, params := parseMediaType(contentType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return
		}
		for _, part := range splitMultipart(body, boundary) {
			ph, pb, err := splitHeaders(part)
			if err != nil {
				p.logger.Warn("mailparse.part.skipped", "error", err)
				continue
			}
			p.walkPart(ph["content-type"], ph["content-transfer-encoding"], ph["content-disposition"], pb, msg, depth+1)
		}
		return
	}

	decoded, err := decodeTransfer(body, transferEncoding)
	if err != nil {
		p.logger.Warn("mailparse.part.corrupt", "content_type", mediaType, "error", err)
		return
	}

	filename := partFilename(disposition, params)
	switch {
	case isPDFPart(mediaType, filename):
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: filename,
			MIMEType: "application/pdf",
			Data:     decoded,
		})
	case mediaType == "text/plain" || mediaType == "":
		if msg.TextBody == "" {
			msg.TextBody = strings.TrimSpace(string(decoded))
		}
	}
	// other part types carry nothing recoverable for bookkeeping
}

// splitHeaders separates the unfolded header block from the body. The first
// occurrence of each header name wins.
func splitHeaders(raw []byte) (map[string]string, []byte, error) {
	normalized := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	headerPart, body, found := bytes.Cut(normalized, []byte("\n\n"))
	if !found {
		headerPart = normalized
		body = nil
	}

	headers := make(map[string]string)
	var name, value string
	commit := func() {
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, dup := headers[key]; !dup {
			headers[key] = strings.TrimSpace(value)
		}
		name, value = "", ""
	}

	for _, line := range strings.Split(string(headerPart), "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			// folded continuation line
			value += " " + strings.TrimSpace(line)
			continue
		}
		commit()
		n, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, nil, common.NewAppError("MAIL_HEADER", "malformed header line", common.ErrDocumentUnreadable)
		}
		name, value = n, v
	}
	commit()
	return headers, body, nil
}

func parseMediaType(contentType string) (string, map[string]string) {
	if contentType == "" {
		return "", nil
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType)), nil
	}
	return mediaType, params
}

// splitMultipart cuts the body on the boundary marker, dropping preamble and
// epilogue.
func splitMultipart(body []byte, boundary string) [][]byte {
	delim := "\n--" + boundary
	text := "\n" + string(body)

	var parts [][]byte
	segments := strings.Split(text, delim)
	for i, seg := range segments {
		if i == 0 {
			continue // preamble
		}
		if strings.HasPrefix(seg, "--") {
			break // closing marker, anything after is epilogue
		}
		seg = strings.TrimPrefix(seg, "\n")
		parts = append(parts, []byte(seg))
	}
	return parts
}

func decodeTransfer(body []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		compact := strings.Map(func(r rune) rune {
			switch r {
			case '\n', '\r', ' ', '\t':
				return -1
			}
			return r
		}, string(body))
		decoded, err := base64.StdEncoding.DecodeString(compact)
		if err != nil {
			return nil, common.NewAppError("MAIL_DECODE", "base64 body", common.ErrCorruptAttachment)
		}
		return decoded, nil
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, common.NewAppError("MAIL_DECODE", "quoted-printable body", common.ErrCorruptAttachment)
		}
		return decoded, nil
	default:
		// 7bit, 8bit, binary or unspecified
		return body, nil
	}
}

func partFilename(disposition string, typeParams map[string]string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if fn := params["filename"]; fn != "" {
				return decodeWords(fn)
			}
		}
	}
	if fn := typeParams["name"]; fn != "" {
		return decodeWords(fn)
	}
	return ""
}

func isPDFPart(mediaType, filename string) bool {
	if mediaType == "application/pdf" || mediaType == "application/x-pdf" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// decodeWords resolves RFC-2047 encoded words, falling back to the raw
// encoded text when the charset is unsupported.
func decodeWords(s string) string {
	dec := mime.WordDecoder{CharsetReader: charsetReader}
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "iso-8859-15":
		return charmap.ISO8859_15.NewDecoder().Reader(input), nil
	case "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, common.NewAppError("MAIL_CHARSET", "unsupported charset "+charset, common.ErrInvalidInput)
	}
}
