// Package raster decodes uploaded images and normalizes them for recognition.
package raster

import (
	"bytes"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
)

// Decode turns an uploaded byte blob into an image. HEIC/HEIF photos (common
// on iPhones) are handled through a dedicated decoder; everything else goes
// through the standard registry (JPEG, PNG, GIF, BMP, TIFF).
func Decode(data []byte, contentType string) (image.Image, error) {
	if isHEICData(data) || isHEICMimeType(contentType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, common.NewAppError("IMAGE_DECODE", "decode heic", common.ErrDocumentUnreadable)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError("IMAGE_DECODE", "decode image", common.ErrDocumentUnreadable)
	}
	return img, nil
}

// Grayscale converts to single-channel luminance (0.299R+0.587G+0.114B) to
// improve OCR and barcode contrast. Idempotent and side-effect-free.
func Grayscale(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// isHEICData sniffs the ISO-BMFF ftyp box for HEIC/HEIF brands.
func isHEICData(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
