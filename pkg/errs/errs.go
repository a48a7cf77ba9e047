// Package errs defines the error taxonomy shared by the model adapters and
// the request pipeline.
package errs

import "fmt"

// Error codes surfaced in API responses and section status reasons.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeModelInference     = "MODEL_INFERENCE_FAILED"
	CodeCalibrationMissing = "CALIBRATION_MISSING"
	CodePricingNotFound    = "PRICING_NOT_FOUND"
)

// InvalidInputError reports a malformed or undecodable request. It is
// user-caused and never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", CodeInvalidInput, e.Reason)
}

// NewInvalidInput creates an InvalidInputError.
func NewInvalidInput(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// ModelInferenceError reports a failed model invocation and names the model
// that failed. The pipeline may retry it once with backoff.
type ModelInferenceError struct {
	Model string
	Err   error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("%s: model %q: %v", CodeModelInference, e.Model, e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }

// NewModelInference wraps err as an inference failure of the named model.
func NewModelInference(model string, err error) *ModelInferenceError {
	return &ModelInferenceError{Model: model, Err: err}
}

// CalibrationMissingError reports that no reference scale was available for
// measurement. The estimator fails rather than guessing.
type CalibrationMissingError struct {
	Reason string
}

func (e *CalibrationMissingError) Error() string {
	return fmt.Sprintf("%s: %s", CodeCalibrationMissing, e.Reason)
}

// PricingNotFoundError reports a class label absent from the pricing table.
// It is per-item and non-fatal: the estimate continues without the item.
type PricingNotFoundError struct {
	Label string
}

func (e *PricingNotFoundError) Error() string {
	return fmt.Sprintf("%s: no price for label %q", CodePricingNotFound, e.Label)
}
