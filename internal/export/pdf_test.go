package export

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"
)

func TestPDFFilename(t *testing.T) {
	at := time.UnixMilli(1760875200000)
	if got, want := PDFFilename("2x4", at), "collage-2x4-1760875200000.pdf"; got != want {
		t.Errorf("PDFFilename() = %q, want %q", got, want)
	}
}

func TestPDF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 86, 170))
	for y := range 170 {
		for x := range 86 {
			img.Set(x, y, color.RGBA{uint8(x * 2), uint8(y), 120, 255})
		}
	}

	var buf bytes.Buffer
	if err := PDF(&buf, img, 90); err != nil {
		t.Fatalf("PDF failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-") {
		t.Errorf("expected a PDF header, got %q", out[:min(len(out), 8)])
	}
	if !strings.Contains(out, "/DCTDecode") {
		t.Error("expected the image to be embedded as JPEG")
	}
	if !strings.Contains(strings.TrimSpace(out[len(out)-16:]), "%%EOF") {
		t.Error("expected a PDF trailer")
	}
}
