package constants

import "strings"

// DocKind is the closed set of document kinds the pipeline accepts.
type DocKind string

const (
	KindPDF   DocKind = "PDF"
	KindImage DocKind = "IMAGE"
	KindMail  DocKind = "MAIL"
	KindText  DocKind = "TEXT"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"heic": {},
	"heif": {},
	"eml":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind maps a normalized extension to a document kind.
// Unknown extensions map to KindImage, the most forgiving entry path.
func MapExtToKind(ext string) DocKind {
	switch NormalizeExt(ext) {
	case "pdf":
		return KindPDF
	case "eml", "msg", "mime":
		return KindMail
	case "txt", "text":
		return KindText
	default:
		return KindImage
	}
}

// IsHEICExt reports whether the extension is a HEIC/HEIF variant.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}
