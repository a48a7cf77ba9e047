// Package calib locates a printed calibration marker in a room photo and
// derives the pixel-to-physical reference scale from it. The marker is a
// solid dark square of known physical size placed in the scene.
package calib

import (
	"errors"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"
)

// ErrNoMarker is returned when no plausible marker is found in the image.
var ErrNoMarker = errors.New("no calibration marker found")

// DetectionConfig holds tuning parameters for marker detection.
type DetectionConfig struct {
	ThresholdLevel uint8   // binarization level, dark pixels below it
	BlurRadius     float64 // denoise before thresholding
	MinSizeRatio   float64 // min marker side relative to min image side
	MaxSizeRatio   float64 // max marker side relative to min image side
	MinSquareness  float64 // min side ratio (short/long) to accept a blob
	MinFillRatio   float64 // min dark-pixel density inside the blob box
}

// MarkerDetector finds calibration markers in images.
type MarkerDetector struct {
	config DetectionConfig
}

// New creates a MarkerDetector with default configuration.
func New() *MarkerDetector {
	return &MarkerDetector{
		config: DetectionConfig{
			ThresholdLevel: 90,
			BlurRadius:     1.5,
			MinSizeRatio:   0.02,
			MaxSizeRatio:   0.40,
			MinSquareness:  0.80,
			MinFillRatio:   0.75,
		},
	}
}

// NewWithConfig creates a MarkerDetector with custom configuration.
func NewWithConfig(config DetectionConfig) *MarkerDetector {
	return &MarkerDetector{config: config}
}

// Marker is a located calibration marker.
type Marker struct {
	X          int
	Y          int
	Width      int
	Height     int
	FillRatio  float64
	Squareness float64
}

// SidePx is the marker's side length in pixels, averaged over both axes to
// soften perspective skew.
func (m Marker) SidePx() float64 {
	return (float64(m.Width) + float64(m.Height)) / 2
}

// MeasureReference finds the marker and returns the scale factor in
// physical-units-per-pixel, given the marker's real side length.
func (d *MarkerDetector) MeasureReference(img image.Image, markerSide float64) (float64, error) {
	if markerSide <= 0 {
		return 0, errors.New("marker side must be positive")
	}
	marker, err := d.FindMarker(img)
	if err != nil {
		return 0, err
	}
	return markerSide / marker.SidePx(), nil
}

// FindMarker locates the most plausible marker blob in the image.
func (d *MarkerDetector) FindMarker(img image.Image) (*Marker, error) {
	blurred := blur.Gaussian(img, d.config.BlurRadius)
	binary := segment.Threshold(blurred, d.config.ThresholdLevel)

	bounds := binary.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	minSide := minInt(width, height)

	visited := make([]bool, width*height)
	var best *Marker
	var bestScore float64

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !isDark(binary, x, y) {
				continue
			}
			blob := floodFill(binary, visited, x, y)

			side := float64(maxInt(blob.Width, blob.Height))
			if side < d.config.MinSizeRatio*float64(minSide) ||
				side > d.config.MaxSizeRatio*float64(minSide) {
				continue
			}

			squareness := float64(minInt(blob.Width, blob.Height)) / side
			if squareness < d.config.MinSquareness {
				continue
			}
			if blob.FillRatio < d.config.MinFillRatio {
				continue
			}

			// Prefer the densest, most square, largest candidate.
			score := blob.FillRatio * squareness * side
			if score > bestScore {
				m := blob
				m.Squareness = squareness
				best = &m
				bestScore = score
			}
		}
	}

	if best == nil {
		return nil, ErrNoMarker
	}
	return best, nil
}

// isDark reports whether the thresholded pixel belongs to the marker.
func isDark(binary *image.Gray, x, y int) bool {
	b := binary.Bounds()
	return binary.GrayAt(b.Min.X+x, b.Min.Y+y).Y == 0
}

// floodFill collects the connected dark blob containing (sx, sy) and
// returns its bounding box and fill ratio.
func floodFill(binary *image.Gray, visited []bool, sx, sy int) Marker {
	bounds := binary.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	minX, minY, maxX, maxY := sx, sy, sx, sy
	count := 0

	stack := []image.Point{{X: sx, Y: sy}}
	visited[sy*width+sx] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		for _, n := range [4]image.Point{
			{X: p.X - 1, Y: p.Y}, {X: p.X + 1, Y: p.Y},
			{X: p.X, Y: p.Y - 1}, {X: p.X, Y: p.Y + 1},
		} {
			if n.X < 0 || n.X >= width || n.Y < 0 || n.Y >= height {
				continue
			}
			if visited[n.Y*width+n.X] || !isDark(binary, n.X, n.Y) {
				continue
			}
			visited[n.Y*width+n.X] = true
			stack = append(stack, n)
		}
	}

	w := maxX - minX + 1
	h := maxY - minY + 1
	fill := float64(count) / float64(w*h)
	if math.IsNaN(fill) {
		fill = 0
	}

	return Marker{X: minX, Y: minY, Width: w, Height: h, FillRatio: fill}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
