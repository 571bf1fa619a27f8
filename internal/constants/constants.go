// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Collage canvas constants
const (
	// CellSize is the edge length of one polaroid frame in the collage grid
	CellSize = 400

	// CellPadding is the gap between frames and around the canvas border
	CellPadding = 20
)

// Polaroid frame constants
const (
	// FrameInsetTop is the distance from the frame top to the photo area
	FrameInsetTop = 20

	// FrameInsetLeft is the distance from the frame's left edge to the photo area
	FrameInsetLeft = 20

	// FrameInsetRight is the distance from the photo area to the frame's right edge
	FrameInsetRight = 60

	// FrameInsetBottom is the distance from the photo area to the frame bottom,
	// reserved for the caption
	FrameInsetBottom = 80

	// ShadowOffset is the drop shadow offset in both axes
	ShadowOffset = 5

	// ShadowBlur is the drop shadow blur radius
	ShadowBlur = 10

	// ShadowAlpha is the drop shadow opacity (0-255), 0.3 of full black
	ShadowAlpha = 77
)

// Caption constants
const (
	// CaptionFontSize is the caption size in points at 72 DPI
	CaptionFontSize = 12

	// CaptionBaseline is the caption baseline distance from the frame bottom
	CaptionBaseline = 15

	// CaptionDateLayout is the short date format printed under each photo
	CaptionDateLayout = "1/2/2006"
)

// Encoding constants
const (
	// DefaultQuality is the fixed encoder quality for lossy output formats
	DefaultQuality = 95

	// DefaultCollageFormat is the default output format for composites
	DefaultCollageFormat = "png"
)

// Session constants
const (
	// DefaultMaxPhotos is the default capture limit of a booth session
	DefaultMaxPhotos = 4

	// MinCollagePhotos is the minimum number of photos before a session may complete
	MinCollagePhotos = 2
)

// AllowedMaxPhotos lists the capture limits a session can be set to.
var AllowedMaxPhotos = []int{2, 4, 6, 8}

// Loader constants
const (
	// DefaultLoaderTimeoutSeconds bounds fetching a remote image source
	DefaultLoaderTimeoutSeconds = 15

	// DefaultLoaderMaxBytes is the largest encoded image the loader accepts (32MB)
	DefaultLoaderMaxBytes = 32 << 20
)

// Processing constants
const (
	// MaxFilterSigma caps the gaussian sigma of blur and sharpen steps
	MaxFilterSigma = 20.0

	// MaxDecodePixels is the largest width*height the loader decodes (50 megapixels)
	MaxDecodePixels = 50_000_000

	// DecodeConcurrency is the number of source images decoded in parallel
	DecodeConcurrency = 4
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// File upload constants
const (
	// MaxUploadSize is the maximum captured frame upload size in bytes (32MB)
	MaxUploadSize = 32 << 20
)
