// Package export turns a finished collage into the artifacts a visitor takes
// home: a download file name, a printable HTML page and a PDF.
package export

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/photobooth/internal/codec"
)

// ErrUnsafeImageURL is returned when a print document would embed something other
// than an image data URL or a same-origin path.
var ErrUnsafeImageURL = errors.New("unsafe image url")

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Slug reduces s to lowercase ASCII letters, digits and single dashes.
func Slug(s string) string {
	s = strings.ToLower(RemoveDiacritics(s))

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DownloadFilename names a collage download: collage-<layout>-<unix millis>.<ext>.
func DownloadFilename(layoutID string, format codec.Format, t time.Time) string {
	name := "collage"
	if slug := Slug(layoutID); slug != "" {
		name += "-" + slug
	}
	return fmt.Sprintf("%s-%d.%s", name, t.UnixMilli(), format.Ext())
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; display: flex; justify-content: center; align-items: center; height: 100vh; }
img { max-width: 100%; max-height: 100%; object-fit: contain; }
</style>
</head>
<body>
<img src="{{.Src}}" alt="{{.Title}}" onload="window.print()">
</body>
</html>
`))

// PrintDocument writes a page that shows the collage full-bleed and opens the
// print dialog once the image has loaded. src is either an image data URL or a
// path on the same origin.
func PrintDocument(w io.Writer, src, title string) error {
	var safe template.URL
	switch {
	case strings.HasPrefix(src, "data:"):
		_, mime, err := codec.ParseDataURL(src)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnsafeImageURL, err)
		}
		if !strings.HasPrefix(mime, "image/") {
			return fmt.Errorf("%w: media type %q", ErrUnsafeImageURL, mime)
		}
		safe = template.URL(src)
	case strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//"):
		safe = template.URL(src)
	default:
		return fmt.Errorf("%w: %q", ErrUnsafeImageURL, src)
	}

	if title == "" {
		title = "Collage"
	}
	return printTemplate.Execute(w, struct {
		Title string
		Src   template.URL
	}{title, safe})
}
