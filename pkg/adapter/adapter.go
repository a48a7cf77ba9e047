// Package adapter presents every external model behind one uniform surface
// with normalized inputs and a shared error taxonomy. Swapping the backing
// detection or generation model never touches pipeline logic.
package adapter

import (
	"context"
	"errors"
	"image"

	"github.com/yogitha-jain/interio-ai/pkg/calib"
	"github.com/yogitha-jain/interio-ai/pkg/client"
	"github.com/yogitha-jain/interio-ai/pkg/errs"
	"github.com/yogitha-jain/interio-ai/pkg/processing"
	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// ModelAdapter normalizes access to the detection model, the generation
// model, and the classical reference-measurement routine. It applies no
// retries; retry policy belongs to the pipeline.
type ModelAdapter struct {
	detector  client.DetectionClient
	generator client.GenerationClient
	markers   *calib.MarkerDetector
	processor *processing.Processor
}

// New creates a ModelAdapter. The generator may be nil when the deployment
// has no generation backend; Generate then fails with a ModelInferenceError.
func New(detector client.DetectionClient, generator client.GenerationClient) *ModelAdapter {
	return &ModelAdapter{
		detector:  detector,
		generator: generator,
		markers:   calib.New(),
		processor: processing.NewProcessor(),
	}
}

// DecodeImage validates and decodes raw upload bytes. Undecodable input is
// the caller's fault and surfaces as InvalidInputError.
func (a *ModelAdapter) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errs.NewInvalidInput("empty image payload")
	}
	img, err := a.processor.Decode(data)
	if err != nil {
		return nil, errs.NewInvalidInput("undecodable image: %v", err)
	}
	return img, nil
}

// Detect runs the detection model over the image. The image must decode;
// model failures carry the model's identity.
func (a *ModelAdapter) Detect(ctx context.Context, imageData []byte) ([]types.DetectedObject, error) {
	if _, err := a.DecodeImage(imageData); err != nil {
		return nil, err
	}

	detections, err := a.detector.Detect(ctx, imageData)
	if err != nil {
		return nil, errs.NewModelInference(a.detector.Name(), err)
	}
	return detections, nil
}

// DetectorName identifies the active detection backend.
func (a *ModelAdapter) DetectorName() string {
	return a.detector.Name()
}

// Generate runs the generation model. An empty prompt or an undecodable
// reference image is invalid input.
func (a *ModelAdapter) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	if req.Prompt == "" {
		return nil, errs.NewInvalidInput("generation prompt is empty")
	}
	if len(req.ReferenceImage) > 0 {
		if _, err := a.DecodeImage(req.ReferenceImage); err != nil {
			return nil, err
		}
	}
	if a.generator == nil {
		return nil, errs.NewModelInference("generation", errors.New("no generation backend configured"))
	}

	result, err := a.generator.Generate(ctx, req)
	if err != nil {
		return nil, errs.NewModelInference(a.generator.Name(), err)
	}
	return result, nil
}

// MeasureReference scans the image for a calibration marker of the given
// physical side length and returns the scale factor in units per pixel.
// A missing marker means measurement cannot proceed.
func (a *ModelAdapter) MeasureReference(img image.Image, markerSide float64) (float64, error) {
	scale, err := a.markers.MeasureReference(img, markerSide)
	if err != nil {
		if errors.Is(err, calib.ErrNoMarker) {
			return 0, &errs.CalibrationMissingError{
				Reason: "no calibration marker visible in image",
			}
		}
		return 0, &errs.CalibrationMissingError{Reason: err.Error()}
	}
	return scale, nil
}
