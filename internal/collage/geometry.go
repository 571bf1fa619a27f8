package collage

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/constants"
)

// ErrInvalidLayout is returned for a degenerate grid (rows*cols == 0).
var ErrInvalidLayout = errors.New("invalid layout")

// Grid is the pixel geometry of a layout. Cell size and padding are fixed; layouts
// only choose the number of rows and columns.
type Grid struct {
	Rows    int
	Cols    int
	Cell    int
	Padding int
}

// NewGrid returns the geometry of a layout.
func NewGrid(layout catalog.Layout) (Grid, error) {
	if layout.Rows <= 0 || layout.Cols <= 0 {
		return Grid{}, fmt.Errorf("%w: %q is %dx%d", ErrInvalidLayout, layout.ID, layout.Rows, layout.Cols)
	}
	return Grid{
		Rows:    layout.Rows,
		Cols:    layout.Cols,
		Cell:    constants.CellSize,
		Padding: constants.CellPadding,
	}, nil
}

// Cells returns the number of photo slots.
func (g Grid) Cells() int {
	return g.Rows * g.Cols
}

// CanvasSize returns the full canvas extent: n cells plus n+1 paddings per axis.
func (g Grid) CanvasSize() image.Point {
	return image.Pt(
		g.Cols*g.Cell+(g.Cols+1)*g.Padding,
		g.Rows*g.Cell+(g.Rows+1)*g.Padding,
	)
}

// CellOrigin returns the top-left corner of cell i in row-major order.
func (g Grid) CellOrigin(i int) image.Point {
	row, col := i/g.Cols, i%g.Cols
	return image.Pt(
		col*(g.Cell+g.Padding)+g.Padding,
		row*(g.Cell+g.Padding)+g.Padding,
	)
}

// FrameRect returns the polaroid frame square of cell i.
func (g Grid) FrameRect(i int) image.Rectangle {
	o := g.CellOrigin(i)
	return image.Rect(o.X, o.Y, o.X+g.Cell, o.Y+g.Cell)
}

// PhotoBounds returns the area inside the frame of cell i that the photo is fitted
// into: a 320x300 box at frame+(20,20). The bottom inset is larger to leave room
// for the caption.
func (g Grid) PhotoBounds(i int) image.Rectangle {
	f := g.FrameRect(i)
	return image.Rect(
		f.Min.X+constants.FrameInsetLeft,
		f.Min.Y+constants.FrameInsetTop,
		f.Max.X-constants.FrameInsetRight,
		f.Max.Y-constants.FrameInsetBottom,
	)
}

// CaptionAnchor returns the horizontal centre and text baseline of cell i's caption.
func (g Grid) CaptionAnchor(i int) image.Point {
	f := g.FrameRect(i)
	return image.Pt(f.Min.X+g.Cell/2, f.Max.Y-constants.CaptionBaseline)
}

// Fit scales a srcW x srcH image into a boxW x boxH box keeping its aspect ratio
// and centers it. It returns the offset inside the box and the drawn size.
func Fit(srcW, srcH int, boxW, boxH float64) (x, y, w, h float64) {
	if srcW <= 0 || srcH <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0, 0, 0
	}
	aspect := float64(srcW) / float64(srcH)

	w = boxW
	h = w / aspect
	if h > boxH {
		h = boxH
		w = h * aspect
	}
	return (boxW - w) / 2, (boxH - h) / 2, w, h
}

// FitInside returns the pixel rectangle a srcW x srcH image occupies when fitted
// and centered inside bounds. Edges are rounded independently, so the result never
// leaves bounds and the left/right (top/bottom) gaps differ by at most one pixel.
func FitInside(srcW, srcH int, bounds image.Rectangle) image.Rectangle {
	x, y, w, h := Fit(srcW, srcH, float64(bounds.Dx()), float64(bounds.Dy()))
	if w == 0 || h == 0 {
		return image.Rectangle{}
	}
	x0 := bounds.Min.X + int(math.Round(x))
	y0 := bounds.Min.Y + int(math.Round(y))
	x1 := bounds.Min.X + int(math.Round(x+w))
	y1 := bounds.Min.Y + int(math.Round(y+h))
	return image.Rect(x0, y0, x1, y1).Intersect(bounds)
}
