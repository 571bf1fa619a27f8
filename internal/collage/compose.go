// Package collage lays captured photos out on a polaroid-style grid and encodes
// the composite.
//
// Compose is the core: it decodes every source (the only blocking step), waits for
// all of them, then draws background, frames, fitted photos and captions in
// row-major order and encodes the canvas once. Generator adds request versioning
// on top so that a superseded composition never replaces a newer one.
package collage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/constants"
	"github.com/kozaktomas/photobooth/internal/fingerprint"
	"github.com/kozaktomas/photobooth/internal/loader"
)

// Decoder decodes an image source.
type Decoder interface {
	Decode(ctx context.Context, src loader.Source) (*loader.Bitmap, error)
}

// Input is one photo handed to the compositor. The compositor only reads it.
type Input struct {
	ID     string
	Source loader.Source
}

// Result is a finished composite.
type Result struct {
	Image       *image.RGBA
	Encoded     []byte
	Format      codec.Format
	LayoutID    string
	PhotoIDs    []string // photos used, in cell order
	Fingerprint string
	CreatedAt   time.Time
	Version     uint64 // set by Generator; 0 for direct Compose calls
}

// Compositor renders collages.
type Compositor struct {
	decoder     Decoder
	format      codec.Format
	quality     int
	concurrency int
	now         func() time.Time
	log         *zap.Logger
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithEncoding sets the output format and its fixed quality.
func WithEncoding(format codec.Format, quality int) Option {
	return func(c *Compositor) {
		c.format = format
		c.quality = quality
	}
}

// WithClock sets the time source used for captions.
func WithClock(now func() time.Time) Option {
	return func(c *Compositor) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Compositor) { c.log = log }
}

// WithConcurrency sets how many sources are decoded in parallel.
func WithConcurrency(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewCompositor creates a compositor that decodes sources with decoder.
func NewCompositor(decoder Decoder, opts ...Option) *Compositor {
	c := &Compositor{
		decoder:     decoder,
		format:      codec.PNG,
		quality:     constants.DefaultQuality,
		concurrency: constants.DecodeConcurrency,
		now:         time.Now,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose renders inputs onto layout. Only the first rows*cols inputs are used;
// extras are ignored. An empty input yields (nil, nil). A source that fails to
// decode aborts the whole composition with a *loader.DecodeFailure naming its entry.
func (c *Compositor) Compose(ctx context.Context, inputs []Input, layout catalog.Layout) (*Result, error) {
	grid, err := NewGrid(layout)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	used := inputs[:min(len(inputs), grid.Cells())]
	start := time.Now()

	bitmaps, err := c.decodeAll(ctx, used)
	if err != nil {
		return nil, err
	}

	face, err := newCaptionFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	createdAt := c.now()
	caption := createdAt.Format(constants.CaptionDateLayout)

	size := grid.CanvasSize()
	canvas := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	fillBackground(canvas)

	shadow := newShadowTile(grid.Cell)
	for i, bm := range bitmaps {
		drawFrame(canvas, grid.FrameRect(i), shadow)
		drawPhoto(canvas, FitInside(bm.Width, bm.Height, grid.PhotoBounds(i)), bm.Image)
		drawCaption(canvas, face, caption, grid.CaptionAnchor(i))
	}

	encoded, err := codec.EncodeBytes(canvas, c.format, c.quality)
	if err != nil {
		return nil, fmt.Errorf("serializing collage: %w", err)
	}

	hashes := fingerprint.ComputeHashes(canvas)

	ids := make([]string, len(used))
	for i, in := range used {
		ids[i] = in.ID
	}

	c.log.Debug("collage composed",
		zap.String("layout", layout.ID),
		zap.Int("photos", len(used)),
		zap.Int("ignored", len(inputs)-len(used)),
		zap.Int("width", size.X),
		zap.Int("height", size.Y),
		zap.Int("bytes", len(encoded)),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Image:       canvas,
		Encoded:     encoded,
		Format:      c.format,
		LayoutID:    layout.ID,
		PhotoIDs:    ids,
		Fingerprint: hashes.DHash,
		CreatedAt:   createdAt,
	}, nil
}

// decodeAll decodes every input and returns only once all of them have finished.
// On failure the lowest failing entry is reported.
func (c *Compositor) decodeAll(ctx context.Context, inputs []Input) ([]*loader.Bitmap, error) {
	bitmaps := make([]*loader.Bitmap, len(inputs))
	errs := make([]error, len(inputs))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i := range inputs {
		wg.Add(1)
		go func(idx int, in Input) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			bm, err := c.decoder.Decode(ctx, in.Source)
			if err == nil && (bm == nil || bm.Width <= 0 || bm.Height <= 0) {
				err = errors.New("decoder returned an empty bitmap")
			}
			bitmaps[idx], errs[idx] = bm, err
		}(i, inputs[i])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		name := inputs[i].ID
		if name == "" {
			name = inputs[i].Source.String()
		}
		var df *loader.DecodeFailure
		if errors.As(err, &df) {
			err = df.Err
		}
		c.log.Warn("collage source failed to decode",
			zap.Int("entry", i),
			zap.String("photo", name),
			zap.Error(err))
		return nil, &loader.DecodeFailure{Entry: i, Source: name, Err: err}
	}
	return bitmaps, nil
}
