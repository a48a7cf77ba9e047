// Package dimension converts detector output into physical measurements
// using a reference scale. Without a scale it refuses to guess.
package dimension

import (
	"math"

	"github.com/yogitha-jain/interio-ai/pkg/errs"
	"github.com/yogitha-jain/interio-ai/pkg/types"
)

const (
	metersPerFoot  = 0.3048
	defaultCeiling = 2.7 // meters, typical residential ceiling

	minRoomSide = 2.0  // meters
	maxRoomSide = 15.0 // meters
)

// Config holds the estimator's numeric policy.
type Config struct {
	Unit        string  // physical unit, default "cm"
	Precision   float64 // rounding step in Unit, default 0.5
	MarginRatio float64 // error margin as a fraction of the larger side
}

// Estimator measures detected objects against a reference scale.
type Estimator struct {
	config Config
}

// New creates an Estimator with default configuration.
func New() *Estimator {
	return &Estimator{
		config: Config{
			Unit:        "cm",
			Precision:   0.5,
			MarginRatio: 0.05,
		},
	}
}

// NewWithConfig creates an Estimator with custom configuration.
func NewWithConfig(config Config) *Estimator {
	if config.Unit == "" {
		config.Unit = "cm"
	}
	if config.Precision <= 0 {
		config.Precision = 0.5
	}
	if config.MarginRatio < 0 {
		config.MarginRatio = 0
	}
	return &Estimator{config: config}
}

// MeasureObject converts one detection to a physical measurement. The scale
// is expressed in Unit per pixel. A missing scale is an error, not a guess.
func (e *Estimator) MeasureObject(index int, obj types.DetectedObject, scale float64) (types.Measurement, error) {
	if scale <= 0 {
		return types.Measurement{}, &errs.CalibrationMissingError{
			Reason: "no reference scale available",
		}
	}

	width := e.roundToPrecision(float64(obj.Box.W) * scale)
	height := e.roundToPrecision(float64(obj.Box.H) * scale)

	margin := math.Max(width, height) * e.config.MarginRatio
	margin = e.roundUpToPrecision(margin)
	if margin < 0 {
		margin = 0
	}

	return types.Measurement{
		ObjectIndex: index,
		Width:       width,
		Height:      height,
		Unit:        e.config.Unit,
		ErrorMargin: margin,
	}, nil
}

// MeasureAll measures every detection against the same scale.
func (e *Estimator) MeasureAll(objects []types.DetectedObject, scale float64) ([]types.Measurement, error) {
	if scale <= 0 {
		return nil, &errs.CalibrationMissingError{
			Reason: "no reference scale available",
		}
	}
	out := make([]types.Measurement, 0, len(objects))
	for i, obj := range objects {
		m, err := e.MeasureObject(i, obj, scale)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// EstimateRoom derives whole-room dimensions from the image extent and the
// reference scale. The visible horizontal extent approximates room width;
// depth is assumed comparable to width, so the result is coarse and the
// confidence reflects that. The vertical extent is checked against a typical
// ceiling to grade confidence.
func (e *Estimator) EstimateRoom(imgWidth, imgHeight int, scale float64) (*types.RoomDimensions, error) {
	if scale <= 0 {
		return nil, &errs.CalibrationMissingError{
			Reason: "no reference scale available",
		}
	}
	if imgWidth <= 0 || imgHeight <= 0 {
		return nil, &errs.CalibrationMissingError{
			Reason: "image has no extent",
		}
	}

	// scale is Unit/px; convert to meters assuming cm.
	widthM := clampF(float64(imgWidth)*scale/100, minRoomSide, maxRoomSide)
	lengthM := widthM
	heightM := defaultCeiling

	visibleHeightM := float64(imgHeight) * scale / 100
	confidence := "Medium"
	if visibleHeightM < defaultCeiling*0.5 || visibleHeightM > defaultCeiling*2.5 {
		// The frame covers far less or far more than a wall; the scale is
		// probably from a close-up and the room estimate is weak.
		confidence = "Low"
	}

	floorSqM := widthM * lengthM

	return &types.RoomDimensions{
		LengthM:    round2(lengthM),
		WidthM:     round2(widthM),
		HeightM:    round2(heightM),
		LengthFt:   round2(lengthM / metersPerFoot),
		WidthFt:    round2(widthM / metersPerFoot),
		HeightFt:   round2(heightM / metersPerFoot),
		FloorSqM:   round2(floorSqM),
		FloorSqFt:  round2(floorSqM / (metersPerFoot * metersPerFoot)),
		Confidence: confidence,
	}, nil
}

// Unit returns the estimator's physical unit.
func (e *Estimator) Unit() string {
	return e.config.Unit
}

func (e *Estimator) roundToPrecision(v float64) float64 {
	return math.Round(v/e.config.Precision) * e.config.Precision
}

func (e *Estimator) roundUpToPrecision(v float64) float64 {
	return math.Ceil(v/e.config.Precision) * e.config.Precision
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
