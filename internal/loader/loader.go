// Package loader turns encoded image payloads (raw bytes, data URLs, http(s) URLs or
// local files) into decoded bitmaps with known dimensions.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/edsrzf/mmap-go"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/constants"
)

// ErrDecode matches every DecodeFailure via errors.Is.
var ErrDecode = errors.New("decode failure")

// DecodeFailure reports a source that could not be read or decoded.
// Entry is the position of the source in a batch, or -1 for a single decode.
type DecodeFailure struct {
	Entry  int
	Source string
	Err    error
}

func (e *DecodeFailure) Error() string {
	if e.Entry >= 0 {
		return fmt.Sprintf("decode failure: entry %d (%s): %v", e.Entry, e.Source, e.Err)
	}
	return fmt.Sprintf("decode failure: %s: %v", e.Source, e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) true for any DecodeFailure.
func (e *DecodeFailure) Is(target error) bool { return target == ErrDecode }

// Bitmap is a decoded image.
type Bitmap struct {
	Image  image.Image
	Width  int
	Height int
	Format string // name reported by the registered decoder, e.g. "jpeg"
}

// AspectRatio returns width / height.
func (b *Bitmap) AspectRatio() float64 {
	if b.Height == 0 {
		return 0
	}
	return float64(b.Width) / float64(b.Height)
}

// Source is an encoded image payload. Exactly one field is set; use the From* constructors.
type Source struct {
	Data []byte
	URL  string // data:, http:// or https://
	Path string
}

// FromBytes wraps an in-memory encoded image.
func FromBytes(data []byte) Source { return Source{Data: data} }

// FromURL wraps a data URL or an http(s) URL.
func FromURL(url string) Source { return Source{URL: url} }

// FromPath wraps a local file.
func FromPath(path string) Source { return Source{Path: path} }

// String describes the source for error messages without dumping payloads.
func (s Source) String() string {
	switch {
	case s.Path != "":
		return "file " + s.Path
	case strings.HasPrefix(s.URL, "data:"):
		return "data URL"
	case s.URL != "":
		return "url " + s.URL
	default:
		return fmt.Sprintf("%d bytes", len(s.Data))
	}
}

// Loader decodes image sources.
type Loader struct {
	client   *http.Client
	maxBytes int64
}

// New creates a loader. timeout bounds remote fetches; maxBytes caps every payload.
func New(timeout time.Duration, maxBytes int64) *Loader {
	if timeout <= 0 {
		timeout = constants.DefaultLoaderTimeoutSeconds * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = constants.DefaultLoaderMaxBytes
	}
	return &Loader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Decode reads and decodes a source. Every failure is a *DecodeFailure with Entry -1.
func (l *Loader) Decode(ctx context.Context, src Source) (*Bitmap, error) {
	bm, err := l.decode(ctx, src)
	if err != nil {
		return nil, &DecodeFailure{Entry: -1, Source: src.String(), Err: err}
	}
	return bm, nil
}

func (l *Loader) decode(ctx context.Context, src Source) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case src.Path != "":
		return l.decodeFile(src.Path)
	case strings.HasPrefix(src.URL, "data:"):
		data, _, err := codec.ParseDataURL(src.URL)
		if err != nil {
			return nil, err
		}
		return l.decodeBytes(data)
	case strings.HasPrefix(src.URL, "http://"), strings.HasPrefix(src.URL, "https://"):
		data, err := l.fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		return l.decodeBytes(data)
	case src.URL != "":
		return nil, fmt.Errorf("unsupported url scheme in %q", src.URL)
	default:
		return l.decodeBytes(src.Data)
	}
}

func (l *Loader) decodeBytes(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("payload of %d bytes exceeds limit of %d", len(data), l.maxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > constants.MaxDecodePixels {
		return nil, fmt.Errorf("image of %dx%d exceeds limit of %d pixels", cfg.Width, cfg.Height, constants.MaxDecodePixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.New("image has zero size")
	}

	return &Bitmap{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

// decodeFile maps the file read-only and decodes straight from the mapping.
// Decoders copy pixels into their own buffers, so unmapping afterwards is safe.
func (l *Loader) decodeFile(path string) (*Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}
	if info.Size() == 0 {
		return nil, errors.New("empty file")
	}
	if info.Size() > l.maxBytes {
		return nil, fmt.Errorf("file of %d bytes exceeds limit of %d", info.Size(), l.maxBytes)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("could not map file: %w", err)
	}
	defer m.Unmap()

	return l.decodeBytes(m)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := l.client.Do(req) //nolint:gosec // fetching user-supplied image URLs is the purpose of this loader
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if int64(len(body)) > l.maxBytes {
		return nil, fmt.Errorf("response exceeds limit of %d bytes", l.maxBytes)
	}
	return body, nil
}
