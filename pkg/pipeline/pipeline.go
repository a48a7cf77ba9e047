// Package pipeline sequences model-adapter calls for one request, enforces
// per-stage timeouts and retry policy, and composes the final report.
// Requests are processed independently and stages run in declared order:
// each stage consumes the prior stage's output.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yogitha-jain/interio-ai/pkg/adapter"
	"github.com/yogitha-jain/interio-ai/pkg/dimension"
	"github.com/yogitha-jain/interio-ai/pkg/errs"
	"github.com/yogitha-jain/interio-ai/pkg/pricing"
	"github.com/yogitha-jain/interio-ai/pkg/processing"
	"github.com/yogitha-jain/interio-ai/pkg/suggest"
	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// Stage names the states of a request's lifecycle.
type Stage string

const (
	StageReceived   Stage = "received"
	StageDetecting  Stage = "detecting"
	StageMeasuring  Stage = "measuring"
	StagePricing    Stage = "pricing"
	StageSuggesting Stage = "suggesting"
	StageGenerating Stage = "generating"
	StageComposing  Stage = "composing"
	StageDone       Stage = "done"
	StageErrored    Stage = "errored"
)

// Section status reason codes for absent or partial sub-results.
const (
	ReasonNotRequested  = "NOT_REQUESTED"
	ReasonNoDetections  = "NO_DETECTIONS"
	ReasonItemsUnpriced = "ITEMS_UNPRICED"
)

// StageError names the stage a request died in along with the cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config tunes the pipeline's timeout and retry policy.
type Config struct {
	// DetectTimeout bounds the detection model call.
	DetectTimeout time.Duration
	// GenerateTimeout bounds the generation model call.
	GenerateTimeout time.Duration
	// RetryBackoff is the wait before the single detection retry.
	RetryBackoff time.Duration
	// MinConfidence drops detections below this score.
	MinConfidence float64
	// MarkerSideCm is the physical side length of the calibration marker.
	MarkerSideCm float64
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		DetectTimeout:   120 * time.Second,
		GenerateTimeout: 300 * time.Second,
		RetryBackoff:    2 * time.Second,
		MinConfidence:   0.3,
		MarkerSideCm:    10,
	}
}

// Request is one inbound analysis request. The image is mandatory;
// everything else tunes individual stages.
type Request struct {
	Image []byte

	RoomType    string
	Style       string
	Palette     string
	BudgetLevel string

	// Annotate requests a copy of the image with detection boxes drawn on.
	Annotate bool

	// ReferenceScale is a caller-supplied scale in cm per pixel. When zero
	// and Measure is set, the pipeline looks for a calibration marker.
	ReferenceScale float64
	// Measure requests the measurement stage.
	Measure bool

	// Generate requests a photorealistic redesign render.
	Generate bool
	// Prompt overrides the generated render prompt.
	Prompt string
	Params types.GenerationParams
}

// Pipeline wires the adapter and the estimators into one request flow.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	adapter     *adapter.ModelAdapter
	dimensions  *dimension.Estimator
	pricing     *pricing.Estimator
	suggestions *suggest.Engine
	processor   *processing.Processor
	config      Config
	logger      *slog.Logger
}

// New creates a Pipeline. Nil estimators fall back to defaults.
func New(a *adapter.ModelAdapter, dims *dimension.Estimator, pricer *pricing.Estimator, engine *suggest.Engine, cfg Config, logger *slog.Logger) *Pipeline {
	if dims == nil {
		dims = dimension.New()
	}
	if pricer == nil {
		pricer = pricing.New(nil, 0.10)
	}
	if engine == nil {
		engine = suggest.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		adapter:     a,
		dimensions:  dims,
		pricing:     pricer,
		suggestions: engine,
		processor:   processing.NewProcessor(),
		config:      cfg,
		logger:      logger,
	}
}

// Run processes one request through all stages. Fatal failures return a
// StageError naming the stage; everything else degrades into the report's
// section statuses.
func (p *Pipeline) Run(ctx context.Context, req Request) (*types.Report, error) {
	requestID := uuid.NewString()
	logger := p.logger.With("request_id", requestID)
	started := time.Now()

	report := &types.Report{RequestID: requestID}
	stage := StageReceived

	fail := func(s Stage, err error) (*types.Report, error) {
		logger.Error("request failed", "stage", string(s), "error", err)
		return nil, &StageError{Stage: s, Err: err}
	}

	// Received: the image must decode before any model sees it.
	img, err := p.adapter.DecodeImage(req.Image)
	if err != nil {
		return fail(stage, err)
	}

	// Detecting. Oversized uploads are shrunk for the model call and the
	// boxes scaled back afterwards. A ModelInferenceError is retried once
	// with backoff; a second failure terminates the request.
	stage = StageDetecting
	payload, ratio := p.detectionPayload(img, req.Image)
	detections, err := p.detectWithRetry(ctx, logger, payload)
	if err != nil {
		return fail(stage, err)
	}
	if ratio != 1 {
		detections = scaleDetections(detections, ratio, img.Bounds())
	}
	report.Detections = filterByConfidence(detections, p.config.MinConfidence)
	report.DetectionStatus = types.SectionStatus{State: types.SectionComplete}
	logger.Info("detection complete", "objects", len(report.Detections))

	if req.Annotate && len(report.Detections) > 0 {
		annotated := p.processor.AnnotateDetections(img, report.Detections)
		if uri, err := p.processor.EncodeBase64(annotated, "jpg", 85); err == nil {
			report.AnnotatedImage = uri
		}
	}

	// Measuring. Missing calibration is fatal when measurement was
	// requested; otherwise the section is absent with a reason.
	stage = StageMeasuring
	if req.Measure {
		scale := req.ReferenceScale
		if scale <= 0 {
			scale, err = p.adapter.MeasureReference(img, p.config.MarkerSideCm)
			if err != nil {
				return fail(stage, err)
			}
		}
		measurements, err := p.dimensions.MeasureAll(report.Detections, scale)
		if err != nil {
			return fail(stage, err)
		}
		report.Measurements = measurements

		bounds := img.Bounds()
		room, err := p.dimensions.EstimateRoom(bounds.Dx(), bounds.Dy(), scale)
		if err != nil {
			return fail(stage, err)
		}
		report.Room = room
		report.MeasurementStatus = types.SectionStatus{State: types.SectionComplete}
	} else {
		report.MeasurementStatus = types.SectionStatus{
			State:  types.SectionAbsent,
			Reason: ReasonNotRequested,
		}
	}

	// Pricing. Per-item misses degrade to a partial section, never a
	// failed request.
	stage = StagePricing
	if len(report.Detections) > 0 {
		costs := p.pricing.EstimateObjects(report.Detections, req.BudgetLevel)
		report.Costs = costs
		if len(costs.Unpriced) > 0 {
			report.CostStatus = types.SectionStatus{
				State:  types.SectionPartial,
				Reason: ReasonItemsUnpriced,
			}
		} else {
			report.CostStatus = types.SectionStatus{State: types.SectionComplete}
		}
	} else {
		report.CostStatus = types.SectionStatus{
			State:  types.SectionAbsent,
			Reason: ReasonNoDetections,
		}
	}

	// Suggesting. Pure rule evaluation; cannot fail.
	stage = StageSuggesting
	analysis := p.suggestions.Analyze(suggest.Input{
		Detections:   report.Detections,
		Measurements: report.Measurements,
		RoomType:     req.RoomType,
		Style:        req.Style,
		Image:        img,
	})
	report.RoomType = string(analysis.RoomType)
	report.Style = analysis.Style
	report.Suggestions = analysis.Suggestions
	report.SuggestionStatus = types.SectionStatus{State: types.SectionComplete}

	// Generating (optional). Failure degrades the section; the rest of
	// the report is already good.
	stage = StageGenerating
	if req.Generate {
		p.runGeneration(ctx, logger, req, analysis, report)
	} else {
		report.GenerationStatus = types.SectionStatus{
			State:  types.SectionAbsent,
			Reason: ReasonNotRequested,
		}
	}

	logger.Info("request complete", "duration", time.Since(started).Round(time.Millisecond))
	return report, nil
}

// detectWithRetry runs detection under its timeout, retrying a failed model
// call once with backoff. Invalid input is never retried.
func (p *Pipeline) detectWithRetry(ctx context.Context, logger *slog.Logger, payload []byte) ([]types.DetectedObject, error) {
	detectCtx, cancel := context.WithTimeout(ctx, p.config.DetectTimeout)
	defer cancel()

	detections, err := p.adapter.Detect(detectCtx, payload)
	if err == nil {
		return detections, nil
	}

	var infErr *errs.ModelInferenceError
	if !errors.As(err, &infErr) {
		return nil, err
	}
	if ctx.Err() != nil {
		// The caller is gone; abandon instead of retrying.
		return nil, err
	}

	logger.Warn("detection failed, retrying once", "model", infErr.Model, "error", infErr.Err)
	select {
	case <-time.After(p.config.RetryBackoff):
	case <-ctx.Done():
		return nil, err
	}

	retryCtx, cancelRetry := context.WithTimeout(ctx, p.config.DetectTimeout)
	defer cancelRetry()
	return p.adapter.Detect(retryCtx, payload)
}

// runGeneration renders a redesigned image and attaches it, along with a
// before/after strip, to the report. Any failure leaves the section absent
// with the error as reason.
func (p *Pipeline) runGeneration(ctx context.Context, logger *slog.Logger, req Request, analysis *suggest.Result, report *types.Report) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = buildRenderPrompt(report.RoomType, report.Style, req.Palette, analysis.Suggestions, len(report.Detections) == 0)
	}

	params := req.Params
	if params.NegativePrompt == "" {
		params.NegativePrompt = negativePrompt
	}

	genCtx, cancel := context.WithTimeout(ctx, p.config.GenerateTimeout)
	defer cancel()

	result, err := p.adapter.Generate(genCtx, types.GenerationRequest{
		Prompt:         prompt,
		ReferenceImage: req.Image,
		Params:         params,
	})
	if err != nil {
		logger.Warn("generation failed", "error", err)
		report.GenerationStatus = types.SectionStatus{
			State:  types.SectionAbsent,
			Reason: err.Error(),
		}
		return
	}

	report.RenderedImage = "data:" + result.MimeType + ";base64," + base64.StdEncoding.EncodeToString(result.Image)
	report.GenerationStatus = types.SectionStatus{State: types.SectionComplete}

	// Before/after strip is best effort; the render alone is the deliverable.
	before, err := p.processor.Decode(req.Image)
	if err != nil {
		return
	}
	after, err := p.processor.Decode(result.Image)
	if err != nil {
		return
	}
	strip := p.processor.CreateComparison(before, after)
	if encoded, err := p.processor.EncodeBase64(strip, "jpg", 85); err == nil {
		report.ComparisonImage = encoded
	}
}

// GenerateOnly serves the standalone generation endpoint: no detection, no
// estimation, just one bounded model call.
func (p *Pipeline) GenerateOnly(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	genCtx, cancel := context.WithTimeout(ctx, p.config.GenerateTimeout)
	defer cancel()
	return p.adapter.Generate(genCtx, req)
}

// maxDetectDim bounds the long side of the image sent to the detection
// model; larger uploads only slow inference down without improving boxes.
const maxDetectDim = 1536

// detectionPayload shrinks the upload for the model call when needed and
// returns the payload plus the factor to scale boxes back to source space.
func (p *Pipeline) detectionPayload(img image.Image, original []byte) ([]byte, float64) {
	b := img.Bounds()
	longSide := b.Dx()
	if b.Dy() > longSide {
		longSide = b.Dy()
	}
	if longSide <= maxDetectDim {
		return original, 1
	}

	data, err := p.processor.PrepareImageForModel(img, "jpg", maxDetectDim, 85)
	if err != nil {
		return original, 1
	}
	return data, float64(longSide) / float64(maxDetectDim)
}

// scaleDetections maps boxes from the shrunken model payload back onto the
// original image, clamped to its bounds.
func scaleDetections(detections []types.DetectedObject, ratio float64, bounds image.Rectangle) []types.DetectedObject {
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]types.DetectedObject, len(detections))
	for i, d := range detections {
		box := types.Box{
			X: int(float64(d.Box.X) * ratio),
			Y: int(float64(d.Box.Y) * ratio),
			W: int(float64(d.Box.W) * ratio),
			H: int(float64(d.Box.H) * ratio),
		}
		if box.X > w-1 {
			box.X = w - 1
		}
		if box.Y > h-1 {
			box.Y = h - 1
		}
		if box.X+box.W > w {
			box.W = w - box.X
		}
		if box.Y+box.H > h {
			box.H = h - box.Y
		}
		d.Box = box
		out[i] = d
	}
	return out
}

func filterByConfidence(detections []types.DetectedObject, min float64) []types.DetectedObject {
	filtered := make([]types.DetectedObject, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= min {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
