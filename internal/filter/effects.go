package filter

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/constants"
)

// colorMatrix is a 3x3 linear transform over normalized RGB.
type colorMatrix [3][3]float64

// Luminance weights shared by the saturate and hue-rotate matrices.
const (
	lumR = 0.213
	lumG = 0.715
	lumB = 0.072
)

func saturateMatrix(s float64) colorMatrix {
	return colorMatrix{
		{lumR + (1-lumR)*s, lumG - lumG*s, lumB - lumB*s},
		{lumR - lumR*s, lumG + (1-lumG)*s, lumB - lumB*s},
		{lumR - lumR*s, lumG - lumG*s, lumB + (1-lumB)*s},
	}
}

func hueRotateMatrix(degrees float64) colorMatrix {
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return colorMatrix{
		{lumR + c*(1-lumR) - s*lumR, lumG - c*lumG - s*lumG, lumB - c*lumB + s*(1-lumB)},
		{lumR - c*lumR + s*0.143, lumG + c*(1-lumG) + s*0.140, lumB - c*lumB - s*0.283},
		{lumR - c*lumR - s*(1-lumR), lumG - c*lumG + s*lumG, lumB + c*(1-lumB) + s*lumB},
	}
}

func sepiaMatrix(amount float64) colorMatrix {
	a := 1 - clamp01(amount)
	return colorMatrix{
		{0.393 + 0.607*a, 0.769 - 0.769*a, 0.189 - 0.189*a},
		{0.349 - 0.349*a, 0.686 + 0.314*a, 0.168 - 0.168*a},
		{0.272 - 0.272*a, 0.534 - 0.534*a, 0.131 + 0.869*a},
	}
}

func grayscaleMatrix(amount float64) colorMatrix {
	a := 1 - clamp01(amount)
	return colorMatrix{
		{0.2126 + 0.7874*a, 0.7152 - 0.7152*a, 0.0722 - 0.0722*a},
		{0.2126 - 0.2126*a, 0.7152 + 0.2848*a, 0.0722 - 0.0722*a},
		{0.2126 - 0.2126*a, 0.7152 - 0.7152*a, 0.0722 + 0.9278*a},
	}
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func toByte(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

// channelFunc maps one normalized channel value.
type channelFunc func(v float64) float64

func brightness(amount float64) channelFunc {
	return func(v float64) float64 { return v * amount }
}

func contrast(amount float64) channelFunc {
	return func(v float64) float64 { return (v-0.5)*amount + 0.5 }
}

// applyChannel runs f over R, G and B, leaving alpha untouched.
func applyChannel(img image.Image, f channelFunc) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: toByte(f(float64(c.R) / 255)),
			G: toByte(f(float64(c.G) / 255)),
			B: toByte(f(float64(c.B) / 255)),
			A: c.A,
		}
	})
}

// applyMatrix multiplies every pixel by m.
func applyMatrix(img image.Image, m colorMatrix) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
		return color.NRGBA{
			R: toByte(m[0][0]*r + m[0][1]*g + m[0][2]*b),
			G: toByte(m[1][0]*r + m[1][1]*g + m[1][2]*b),
			B: toByte(m[2][0]*r + m[2][1]*g + m[2][2]*b),
			A: c.A,
		}
	})
}

// applyStep runs one effect step.
func applyStep(img image.Image, step catalog.Step) *image.NRGBA {
	switch step.Op {
	case catalog.OpBrightness:
		return applyChannel(img, brightness(step.Amount))
	case catalog.OpContrast:
		return applyChannel(img, contrast(step.Amount))
	case catalog.OpSaturate:
		return applyMatrix(img, saturateMatrix(step.Amount))
	case catalog.OpSepia:
		return applyMatrix(img, sepiaMatrix(step.Amount))
	case catalog.OpGrayscale:
		return applyMatrix(img, grayscaleMatrix(step.Amount))
	case catalog.OpHueRotate:
		return applyMatrix(img, hueRotateMatrix(step.Amount))
	case catalog.OpBlur:
		return imaging.Blur(img, clampSigma(step.Amount))
	}
	return imaging.Clone(img)
}

// sharpen maps the sharpness multiplier onto an unsharp mask (above 1) or a blur (below 1).
func sharpen(img image.Image, amount float64) *image.NRGBA {
	sigma := clampSigma(math.Abs(amount-1) * sharpnessSigma)
	switch {
	case amount > 1:
		return imaging.Sharpen(img, sigma)
	case amount < 1:
		return imaging.Blur(img, sigma)
	}
	return imaging.Clone(img)
}

// sharpnessSigma is the gaussian sigma per unit of sharpness away from 1.
const sharpnessSigma = 1.5

// clampSigma bounds a gaussian sigma to [0, MaxFilterSigma]. The kernel size
// grows with sigma, so an unbounded value would exhaust memory.
func clampSigma(sigma float64) float64 {
	if math.IsNaN(sigma) || sigma <= 0 {
		return 0
	}
	return math.Min(sigma, constants.MaxFilterSigma)
}
