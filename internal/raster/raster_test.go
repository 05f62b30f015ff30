package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
)

func testImagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{G: 255, A: 255})
	img.Set(2, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	img, err := Decode(testImagePNG(t), "image/png")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"), "")
	if !errors.Is(err, common.ErrDocumentUnreadable) {
		t.Errorf("error = %v, want ErrDocumentUnreadable", err)
	}
}

func TestGrayscaleIdempotent(t *testing.T) {
	img, err := Decode(testImagePNG(t), "image/png")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	once := Grayscale(img)
	twice := Grayscale(once)

	b := once.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, _ := once.At(x, y).RGBA()
			if r1 != g1 || g1 != b1 {
				t.Fatalf("pixel (%d,%d) not gray after one pass", x, y)
			}
			r2, g2, b2, _ := twice.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 {
				t.Fatalf("grayscale not idempotent at (%d,%d)", x, y)
			}
		}
	}
}

func TestIsHEICData(t *testing.T) {
	hdr := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	hdr = append(hdr, make([]byte, 8)...)
	if !isHEICData(hdr) {
		t.Error("heic magic not detected")
	}
	if isHEICData([]byte("short")) {
		t.Error("short buffer misdetected")
	}
}
