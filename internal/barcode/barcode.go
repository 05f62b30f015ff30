// Package barcode locates and decodes 2D barcodes on raster surfaces.
package barcode

import (
	"image"
	"log/slog"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder extracts a barcode payload from an image. Absence is the
// overwhelmingly common case and is reported through the bool, never as an
// error.
type Decoder interface {
	Decode(img image.Image) (payload string, ok bool)
}

// QRDecoder decodes QR codes with the zxing port.
type QRDecoder struct {
	logger *slog.Logger
}

func NewQRDecoder(logger *slog.Logger) *QRDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &QRDecoder{logger: logger}
}

func (d *QRDecoder) Decode(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		d.logger.Debug("barcode.bitmap.failed", "error", err)
		return "", false
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		// no code on the surface, the normal case
		return "", false
	}

	payload := result.GetText()
	d.logger.Debug("barcode.decode.ok", "bytes", len(payload))
	return payload, payload != ""
}
