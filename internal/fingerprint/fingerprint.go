// Package fingerprint computes perceptual hashes of rendered images.
//
// The booth uses them to tag finished collages (clients can tell whether a newer
// composite actually looks different) and to flag near-duplicate captures.
package fingerprint

import (
	"fmt"
	"image"
	"math"
	"math/bits"
	"slices"
	"strconv"

	"golang.org/x/image/draw"
)

// DuplicateThreshold is the Hamming distance at or below which two captures are
// considered the same shot.
const DuplicateThreshold = 6

// HashResult contains the perceptual hashes of an image.
type HashResult struct {
	PHash     string `json:"phash"`
	DHash     string `json:"dhash"`
	PHashBits uint64 `json:"-"`
	DHashBits uint64 `json:"-"`
}

// ComputeHashes computes both pHash and dHash for an image.
func ComputeHashes(img image.Image) HashResult {
	p := computePHash(img)
	d := computeDHash(img)
	return HashResult{
		PHash:     fmt.Sprintf("%016x", p),
		DHash:     fmt.Sprintf("%016x", d),
		PHashBits: p,
		DHashBits: d,
	}
}

// ParseHash decodes a 16 character hex hash.
func ParseHash(s string) (uint64, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("hash %q: want 16 hex characters", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("hash %q: %w", s, err)
	}
	return v, nil
}

// HammingDistance counts differing bits.
func HammingDistance(hash1, hash2 uint64) int {
	return bits.OnesCount64(hash1 ^ hash2)
}

// Similar returns true if two hashes are within the given threshold.
func Similar(hash1, hash2 uint64, threshold int) bool {
	return HammingDistance(hash1, hash2) <= threshold
}

// Duplicate reports whether two images look like the same shot: both hashes must
// agree within DuplicateThreshold.
func Duplicate(a, b HashResult) bool {
	return Similar(a.PHashBits, b.PHashBits, DuplicateThreshold) &&
		Similar(a.DHashBits, b.DHashBits, DuplicateThreshold)
}

// computePHash hashes the low frequencies of a 32x32 DCT against their median.
func computePHash(img image.Image) uint64 {
	gray := luma(resizeImage(img, 32, 32))
	coeffs := dct2(gray)

	// 8x8 low-frequency block without the DC term, padded with the next row.
	low := make([]float64, 0, 64)
	for u := range 9 {
		for v := range 8 {
			if u == 0 && v == 0 {
				continue
			}
			if len(low) < 64 {
				low = append(low, coeffs[u][v])
			}
		}
	}

	median := computeMedian(low)
	var hash uint64
	for i, c := range low {
		if c > median {
			hash |= 1 << (63 - i)
		}
	}
	return hash
}

// computeDHash compares horizontally adjacent pixels of a 9x8 thumbnail.
func computeDHash(img image.Image) uint64 {
	gray := luma(resizeImage(img, 9, 8))

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if gray[y][x] > gray[y][x+1] {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// luma returns BT.601 luma values indexed [y][x].
func luma(img *image.RGBA) [][]float64 {
	b := img.Bounds()
	out := make([][]float64, b.Dy())
	for y := range b.Dy() {
		out[y] = make([]float64, b.Dx())
		for x := range b.Dx() {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			p := img.Pix[i : i+3 : i+3]
			out[y][x] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		}
	}
	return out
}

// dct2 is a separable 2-D DCT-II over a square matrix: rows first, then columns.
func dct2(m [][]float64) [][]float64 {
	n := len(m)
	cos := make([][]float64, n)
	for k := range n {
		cos[k] = make([]float64, n)
		for i := range n {
			cos[k][i] = math.Cos(math.Pi * float64(k) * (2*float64(i) + 1) / (2 * float64(n)))
		}
	}

	rows := make([][]float64, n)
	for y := range n {
		rows[y] = make([]float64, n)
		for k := range n {
			var sum float64
			for x := range n {
				sum += m[y][x] * cos[k][x]
			}
			rows[y][k] = sum
		}
	}

	out := make([][]float64, n)
	for u := range n {
		out[u] = make([]float64, n)
		for v := range n {
			var sum float64
			for y := range n {
				sum += rows[y][v] * cos[u][y]
			}
			out[u][v] = sum
		}
	}
	return out
}

func computeMedian(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
