package calib

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// markerImage paints a dark square of the given side onto a light background.
func markerImage(w, h, x, y, side int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			img.Set(px, py, color.RGBA{235, 230, 220, 255})
		}
	}
	for py := y; py < y+side; py++ {
		for px := x; px < x+side; px++ {
			img.Set(px, py, color.RGBA{15, 15, 15, 255})
		}
	}
	return img
}

func TestFindMarker(t *testing.T) {
	d := New()

	img := markerImage(400, 400, 100, 100, 60)
	marker, err := d.FindMarker(img)
	if err != nil {
		t.Fatalf("FindMarker failed: %v", err)
	}

	// Blur widens the blob by a couple of pixels at most.
	if math.Abs(marker.SidePx()-60) > 4 {
		t.Errorf("expected side near 60px, got %v", marker.SidePx())
	}
	if marker.X > 102 || marker.X < 96 {
		t.Errorf("marker x %d far from 100", marker.X)
	}
	if marker.Squareness < 0.9 {
		t.Errorf("square marker scored squareness %v", marker.Squareness)
	}
}

func TestFindMarkerNone(t *testing.T) {
	d := New()

	// Uniform bright image: nothing dark to find.
	img := markerImage(200, 200, 0, 0, 0)
	_, err := d.FindMarker(img)
	if !errors.Is(err, ErrNoMarker) {
		t.Errorf("expected ErrNoMarker, got %v", err)
	}
}

func TestFindMarkerRejectsElongatedBlob(t *testing.T) {
	d := New()

	// A dark stripe is not square enough to be a marker.
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	for py := 0; py < 300; py++ {
		for px := 0; px < 300; px++ {
			img.Set(px, py, color.RGBA{235, 230, 220, 255})
		}
	}
	for py := 100; py < 115; py++ {
		for px := 50; px < 150; px++ {
			img.Set(px, py, color.RGBA{15, 15, 15, 255})
		}
	}

	_, err := d.FindMarker(img)
	if !errors.Is(err, ErrNoMarker) {
		t.Errorf("expected elongated blob rejected, got %v", err)
	}
}

func TestMeasureReference(t *testing.T) {
	d := New()

	// A 10 cm marker covering ~60 px gives ~0.167 cm/px.
	img := markerImage(400, 400, 100, 100, 60)
	scale, err := d.MeasureReference(img, 10)
	if err != nil {
		t.Fatalf("MeasureReference failed: %v", err)
	}
	if math.Abs(scale-10.0/60.0) > 0.02 {
		t.Errorf("expected scale near %.3f, got %.3f", 10.0/60.0, scale)
	}
}

func TestMeasureReferenceBadSide(t *testing.T) {
	d := New()

	img := markerImage(400, 400, 100, 100, 60)
	if _, err := d.MeasureReference(img, 0); err == nil {
		t.Error("expected error for non-positive marker side")
	}
}
