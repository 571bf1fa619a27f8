package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/photobooth/internal/codec"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jiří", "Jiri"},
		{"café", "cafe"},
		{"Žluťoučký kůň", "Zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := RemoveDiacritics(tt.input); got != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2x2", "2x2"},
		{"2×4 Strip", "2-4-strip"},
		{"Svatba Nováků 2026!", "svatba-novaku-2026"},
		{"  --  ", ""},
		{"a__b", "a-b"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.expected {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDownloadFilename(t *testing.T) {
	ts := time.UnixMilli(1760889600123)

	tests := []struct {
		layout   string
		format   codec.Format
		expected string
	}{
		{"2x2", codec.PNG, "collage-2x2-1760889600123.png"},
		{"4x2", codec.JPEG, "collage-4x2-1760889600123.jpg"},
		{"3x2", codec.WebP, "collage-3x2-1760889600123.webp"},
		{"", codec.PNG, "collage-1760889600123.png"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := DownloadFilename(tt.layout, tt.format, ts); got != tt.expected {
				t.Errorf("DownloadFilename() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPrintDocument(t *testing.T) {
	src := codec.DataURL([]byte("\x89PNG fake"), "image/png")

	var sb strings.Builder
	if err := PrintDocument(&sb, src, "Party <2026>"); err != nil {
		t.Fatalf("PrintDocument failed: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, `src="`+src+`"`) {
		t.Error("image data URL should be embedded verbatim")
	}
	if !strings.Contains(out, "object-fit: contain") || !strings.Contains(out, "margin: 0") {
		t.Error("print styles missing")
	}
	if strings.Contains(out, "Party <2026>") || !strings.Contains(out, "Party &lt;2026&gt;") {
		t.Error("title must be escaped")
	}
}

func TestPrintDocument_SameOriginPath(t *testing.T) {
	var sb strings.Builder
	if err := PrintDocument(&sb, "/api/v1/session/collage/download?inline=1", ""); err != nil {
		t.Fatalf("PrintDocument failed: %v", err)
	}
	if !strings.Contains(sb.String(), "<title>Collage</title>") {
		t.Error("default title missing")
	}
}

func TestPrintDocument_Rejects(t *testing.T) {
	tests := []string{
		"javascript:alert(1)",
		"https://evil.example/x.png",
		"//evil.example/x.png",
		"data:text/html;base64,PHNjcmlwdD4=",
		"data:image/png,notbase64",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			var sb strings.Builder
			if err := PrintDocument(&sb, src, "x"); !errors.Is(err, ErrUnsafeImageURL) {
				t.Errorf("expected ErrUnsafeImageURL, got %v", err)
			}
		})
	}
}
