// Package ocr converts raster surfaces into unstructured text via tesseract.
package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
)

// Recognizer converts a raster surface into unstructured text.
// An empty result is acceptable; the field extraction engine degrades to
// defaults when nothing was recognized.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Languages   string // default "deu+eng", the bilingual recognition profile
	TessdataDir string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Tesseract shells out to the tesseract binary. The process boundary keeps
// the recognition engine replaceable and lets tests stub the Runner.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "deu+eng"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Recognize writes the surface to a temp PNG and runs
// `tesseract <file> stdout -l <languages>`. Engine failures surface as
// common.ErrRecognitionUnavailable; callers treat that as "nothing found".
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	tmpDir, err := os.MkdirTemp("", "bd-ocr-*")
	if err != nil {
		return "", common.WrapError(err, "ocr temp dir")
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			t.logger.Warn("ocr.tmp.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	path := filepath.Join(tmpDir, "page.png")
	f, err := os.Create(path)
	if err != nil {
		return "", common.WrapError(err, "ocr temp file")
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", common.WrapError(err, "encode surface")
	}
	if err := f.Close(); err != nil {
		return "", common.WrapError(err, "close surface")
	}

	args := []string{path, "stdout", "-l", t.cfg.Languages}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		t.logger.Warn("ocr.recognize.failed", "error", err, "stderr_bytes", len(errb))
		return "", common.NewAppError("OCR_ENGINE", "tesseract", common.ErrRecognitionUnavailable)
	}

	txt := Normalize(string(out))
	t.logger.Debug("ocr.recognize.ok", "bytes", len(txt), "lang", t.cfg.Languages)
	return txt, nil
}
