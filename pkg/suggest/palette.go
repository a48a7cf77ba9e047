package suggest

import (
	"fmt"
	"image"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// paletteHint compares the image's dominant color family against the
// style's palette and phrases a style suggestion from the mismatch or
// match. Returns "" when the image is too small to sample.
func paletteHint(img image.Image, style string, profile StyleProfile) string {
	family := dominantColorFamily(img)
	if family == "" {
		return ""
	}

	for _, c := range profile.Colors {
		if strings.Contains(c, family) || strings.Contains(family, c) {
			return fmt.Sprintf("The room's %s tones already suit a %s palette", family, style)
		}
	}
	return fmt.Sprintf("Current %s tones differ from a typical %s palette (%s); consider accents in those colors",
		family, style, strings.Join(profile.Colors, ", "))
}

// dominantColorFamily samples the image on a coarse grid and names the
// average color's family using HSL distances.
func dominantColorFamily(img image.Image) string {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 4 || height < 4 {
		return ""
	}

	// ~32x32 grid keeps sampling cheap on large photos.
	stepX := maxInt(1, width/32)
	stepY := maxInt(1, height/32)

	var sumH, sumS, sumL float64
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			h, s, l := c.Hsl()
			sumH += h
			sumS += s
			sumL += l
			n++
		}
	}
	if n == 0 {
		return ""
	}

	return nameColorFamily(sumH/float64(n), sumS/float64(n), sumL/float64(n))
}

// nameColorFamily maps average HSL values to a coarse color family.
func nameColorFamily(h, s, l float64) string {
	switch {
	case l > 0.85:
		return "white"
	case l < 0.15:
		return "black"
	case s < 0.12 && l > 0.6:
		return "light gray"
	case s < 0.12:
		return "gray"
	}

	switch {
	case h < 20 || h >= 345:
		return "red"
	case h < 45:
		return "orange"
	case h < 70:
		return "gold"
	case h < 160:
		return "green"
	case h < 250:
		return "navy"
	case h < 300:
		return "purple"
	default:
		return "maroon"
	}
}
