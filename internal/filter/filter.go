// Package filter bakes cosmetic adjustments into a photo.
//
// Apply is a pure function of (source pixels, adjustments): the same input always
// yields the same pixels. Multipliers are not range-checked here; the UI keeps them
// in a sensible range and out-of-range values just produce extreme colors.
package filter

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/loader"
)

// ErrUnknownEffect is returned when Adjustments.Effect names no catalog preset.
var ErrUnknownEffect = errors.New("unknown filter effect")

// Adjustments are the per-photo filter values. A Photo keeps its own copy, so
// catalog changes never alter photos rendered earlier.
type Adjustments struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Sharpness  float64 `json:"sharpness"`
	Effect     string  `json:"filter"` // preset id; "" means none
}

// Default returns neutral adjustments.
func Default() Adjustments {
	return Adjustments{
		Brightness: 1,
		Contrast:   1,
		Saturation: 1,
		Sharpness:  1,
		Effect:     catalog.NoFilterID,
	}
}

// IsDefault reports whether the adjustments leave a photo untouched.
func (a Adjustments) IsDefault() bool {
	return a.Brightness == 1 && a.Contrast == 1 && a.Saturation == 1 && a.Sharpness == 1 &&
		(a.Effect == "" || a.Effect == catalog.NoFilterID)
}

// effectSteps resolves the named effect. The result is nil for no effect.
func (a Adjustments) effectSteps() ([]catalog.Step, error) {
	if a.Effect == "" || a.Effect == catalog.NoFilterID {
		return nil, nil
	}
	f, ok := catalog.FilterByID(a.Effect)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, a.Effect)
	}
	return f.Effect, nil
}

// Validate checks that the named effect exists.
func (a Adjustments) Validate() error {
	_, err := a.effectSteps()
	return err
}

// Apply returns a new image with the adjustments baked in. The numeric adjustments
// run first (brightness, contrast, saturation, sharpness), the named effect after.
func Apply(src image.Image, adj Adjustments) (*image.NRGBA, error) {
	steps, err := adj.effectSteps()
	if err != nil {
		return nil, err
	}

	out := imaging.Clone(src)
	if adj.Brightness != 1 {
		out = applyStep(out, catalog.Step{Op: catalog.OpBrightness, Amount: adj.Brightness})
	}
	if adj.Contrast != 1 {
		out = applyStep(out, catalog.Step{Op: catalog.OpContrast, Amount: adj.Contrast})
	}
	if adj.Saturation != 1 {
		out = applyStep(out, catalog.Step{Op: catalog.OpSaturate, Amount: adj.Saturation})
	}
	if adj.Sharpness != 1 {
		out = sharpen(out, adj.Sharpness)
	}
	for _, step := range steps {
		out = applyStep(out, step)
	}
	return out, nil
}

// Decoder decodes an image source.
type Decoder interface {
	Decode(ctx context.Context, src loader.Source) (*loader.Bitmap, error)
}

// Renderer applies adjustments to encoded photos and re-encodes them with a fixed
// format and quality.
type Renderer struct {
	decoder Decoder
	format  codec.Format
	quality int
}

// NewRenderer creates a renderer.
func NewRenderer(decoder Decoder, format codec.Format, quality int) *Renderer {
	return &Renderer{
		decoder: decoder,
		format:  format,
		quality: quality,
	}
}

// Format returns the output format of rendered photos.
func (r *Renderer) Format() codec.Format {
	return r.format
}

// Render decodes original, applies adj and encodes the result.
func (r *Renderer) Render(ctx context.Context, original []byte, adj Adjustments) ([]byte, error) {
	bm, err := r.decoder.Decode(ctx, loader.FromBytes(original))
	if err != nil {
		return nil, err
	}

	out, err := Apply(bm.Image, adj)
	if err != nil {
		return nil, err
	}

	data, err := codec.EncodeBytes(out, r.format, r.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding filtered photo: %w", err)
	}
	return data, nil
}
