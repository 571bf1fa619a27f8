package collage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/photobooth/internal/constants"
)

var (
	backgroundColor = color.White
	frameColor      = color.White
	captionColor    = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

// captionFont is parsed once. Faces are not safe for concurrent use, so every
// composition creates its own face from it.
var captionFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

func newCaptionFace() (font.Face, error) {
	f, err := captionFont()
	if err != nil {
		return nil, fmt.Errorf("parsing caption font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    constants.CaptionFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating caption face: %w", err)
	}
	return face, nil
}

// fillBackground paints the whole canvas opaque white.
func fillBackground(canvas *image.RGBA) {
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)
}

// shadowTile is a pre-blurred drop shadow for one frame, with its offset from the
// frame's top-left corner.
type shadowTile struct {
	img    *image.NRGBA
	offset image.Point
}

// newShadowTile renders the shadow of a size x size frame: a black square at 30%
// opacity, shifted by ShadowOffset and blurred with sigma ShadowBlur/2.
func newShadowTile(size int) shadowTile {
	sigma := float64(constants.ShadowBlur) / 2
	margin := int(3 * sigma)

	mask := image.NewNRGBA(image.Rect(0, 0, size+2*margin, size+2*margin))
	shade := color.NRGBA{A: constants.ShadowAlpha}
	draw.Draw(mask, image.Rect(margin, margin, margin+size, margin+size), image.NewUniform(shade), image.Point{}, draw.Src)

	return shadowTile{
		img:    imaging.Blur(mask, sigma),
		offset: image.Pt(constants.ShadowOffset-margin, constants.ShadowOffset-margin),
	}
}

// drawFrame draws the shadow first and the white frame over it.
func drawFrame(canvas *image.RGBA, frame image.Rectangle, shadow shadowTile) {
	origin := frame.Min.Add(shadow.offset)
	dst := shadow.img.Bounds().Add(origin)
	draw.Draw(canvas, dst, shadow.img, image.Point{}, draw.Over)

	draw.Draw(canvas, frame, image.NewUniform(frameColor), image.Point{}, draw.Src)
}

// drawPhoto scales src into dst with Catmull-Rom resampling.
func drawPhoto(canvas *image.RGBA, dst image.Rectangle, src image.Image) {
	if dst.Empty() {
		return
	}
	xdraw.CatmullRom.Scale(canvas, dst, src, src.Bounds(), xdraw.Over, nil)
}

// drawCaption writes text horizontally centered on anchor.X with its baseline at anchor.Y.
func drawCaption(canvas *image.RGBA, face font.Face, text string, anchor image.Point) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(captionColor),
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(anchor.X) - width/2,
		Y: fixed.I(anchor.Y),
	}
	d.DrawString(text)
}
