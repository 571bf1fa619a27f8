package export

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kozaktomas/photobooth/internal/codec"
)

func init() {
	// No pdfcpu config directory under the user's home.
	model.ConfigPath = "disable"
}

// PDFFilename names a collage PDF: collage-<layout>-<unix millis>.pdf.
func PDFFilename(layoutID string, t time.Time) string {
	name := DownloadFilename(layoutID, codec.JPEG, t)
	return name[:len(name)-len(codec.JPEG.Ext())] + "pdf"
}

// PDF writes a single page document whose page is sized to img. The image is
// embedded as JPEG at the given quality.
func PDF(w io.Writer, img image.Image, quality int) error {
	jpg, err := codec.EncodeBytes(img, codec.JPEG, quality)
	if err != nil {
		return fmt.Errorf("encoding pdf image: %w", err)
	}

	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImages(nil, w, []io.Reader{bytes.NewReader(jpg)}, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("building pdf: %w", err)
	}
	return nil
}
