package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/yogitha-jain/interio-ai/pkg/adapter"
	"github.com/yogitha-jain/interio-ai/pkg/errs"
	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// fakeDetector scripts detection outcomes per call.
type fakeDetector struct {
	calls      int
	detections []types.DetectedObject
	errs       []error
}

func (f *fakeDetector) Detect(ctx context.Context, img []byte) ([]types.DetectedObject, error) {
	call := f.calls
	f.calls++
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	return f.detections, nil
}

func (f *fakeDetector) Name() string { return "fake-detector" }

// fakeGenerator returns a fixed image or a scripted error.
type fakeGenerator struct {
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &types.GenerationResult{Image: testImageBytes(64, 64), MimeType: "image/png"}, nil
}

func (f *fakeGenerator) Name() string { return "fake-generator" }

func testImageBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 180, 160, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = 10 * time.Millisecond
	return cfg
}

func newTestPipeline(det *fakeDetector, gen *fakeGenerator) *Pipeline {
	return New(adapter.New(det, gen), nil, nil, nil, testConfig(), nil)
}

func TestRunSuccess(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{X: 10, Y: 20, W: 100, H: 50}, Confidence: 0.9},
		},
	}
	p := newTestPipeline(det, nil)

	report, err := p.Run(context.Background(), Request{
		Image:    testImageBytes(640, 480),
		RoomType: "living room",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.RequestID == "" {
		t.Error("request ID not set")
	}
	if len(report.Detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(report.Detections))
	}
	if report.DetectionStatus.State != types.SectionComplete {
		t.Errorf("detection status %s, want complete", report.DetectionStatus.State)
	}
	if report.MeasurementStatus.State != types.SectionAbsent || report.MeasurementStatus.Reason != ReasonNotRequested {
		t.Errorf("unrequested measurement should be absent/NOT_REQUESTED, got %+v", report.MeasurementStatus)
	}
	if report.CostStatus.State != types.SectionComplete {
		t.Errorf("cost status %+v, want complete", report.CostStatus)
	}
	if report.Costs == nil || len(report.Costs.Items) != 1 {
		t.Fatalf("expected 1 priced item, got %+v", report.Costs)
	}
	if report.SuggestionStatus.State != types.SectionComplete {
		t.Errorf("suggestion status %+v, want complete", report.SuggestionStatus)
	}
	if report.GenerationStatus.State != types.SectionAbsent || report.GenerationStatus.Reason != ReasonNotRequested {
		t.Errorf("unrequested generation should be absent/NOT_REQUESTED, got %+v", report.GenerationStatus)
	}
}

func TestRunInvalidImage(t *testing.T) {
	p := newTestPipeline(&fakeDetector{}, nil)

	_, err := p.Run(context.Background(), Request{Image: []byte("not an image")})
	if err == nil {
		t.Fatal("expected error for undecodable image")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %T", err)
	}
	if stageErr.Stage != StageReceived {
		t.Errorf("expected failure in received stage, got %s", stageErr.Stage)
	}
	var invalid *errs.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidInputError inside, got %v", err)
	}
}

func TestRunRetriesDetectionOnce(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "bed", Box: types.Box{W: 200, H: 100}, Confidence: 0.8},
		},
		errs: []error{errors.New("connection reset")},
	}
	p := newTestPipeline(det, nil)

	report, err := p.Run(context.Background(), Request{Image: testImageBytes(640, 480)})
	if err != nil {
		t.Fatalf("Run failed despite retry: %v", err)
	}
	if det.calls != 2 {
		t.Errorf("expected 2 detection attempts, got %d", det.calls)
	}
	if len(report.Detections) != 1 {
		t.Errorf("expected 1 detection after retry, got %d", len(report.Detections))
	}
}

func TestRunDetectionFailsTwice(t *testing.T) {
	boom := errors.New("boom")
	det := &fakeDetector{errs: []error{boom, boom}}
	p := newTestPipeline(det, nil)

	_, err := p.Run(context.Background(), Request{Image: testImageBytes(64, 64)})
	if err == nil {
		t.Fatal("expected error after two failed attempts")
	}
	if det.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", det.calls)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageDetecting {
		t.Errorf("expected StageError in detecting, got %v", err)
	}
	var modelErr *errs.ModelInferenceError
	if !errors.As(err, &modelErr) {
		t.Errorf("expected ModelInferenceError inside, got %v", err)
	}
}

func TestRunFiltersLowConfidence(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{W: 100, H: 50}, Confidence: 0.9},
			{Label: "ghost", Box: types.Box{W: 10, H: 10}, Confidence: 0.1},
		},
	}
	p := newTestPipeline(det, nil)

	report, err := p.Run(context.Background(), Request{Image: testImageBytes(64, 64)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Detections) != 1 {
		t.Fatalf("expected low-confidence detection dropped, got %d", len(report.Detections))
	}
	if report.Detections[0].Label != "sofa" {
		t.Errorf("wrong detection kept: %s", report.Detections[0].Label)
	}
}

func TestRunAnnotate(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{X: 10, Y: 20, W: 100, H: 50}, Confidence: 0.9},
		},
	}
	p := newTestPipeline(det, nil)

	report, err := p.Run(context.Background(), Request{
		Image:    testImageBytes(320, 240),
		Annotate: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.HasPrefix(report.AnnotatedImage, "data:image/jpeg;base64,") {
		t.Errorf("annotated image is not a jpeg data URI: %.40s", report.AnnotatedImage)
	}

	// Without the flag no annotation is produced.
	report, err = p.Run(context.Background(), Request{Image: testImageBytes(320, 240)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.AnnotatedImage != "" {
		t.Error("annotation produced without being requested")
	}
}

func TestScaleDetections(t *testing.T) {
	bounds := image.Rect(0, 0, 3000, 2000)
	scaled := scaleDetections([]types.DetectedObject{
		{Label: "sofa", Box: types.Box{X: 100, Y: 50, W: 200, H: 100}, Confidence: 0.9},
	}, 2.0, bounds)

	box := scaled[0].Box
	if box.X != 200 || box.Y != 100 || box.W != 400 || box.H != 200 {
		t.Errorf("unexpected scaled box: %+v", box)
	}

	// A box at the edge clamps to the image instead of spilling past it.
	scaled = scaleDetections([]types.DetectedObject{
		{Label: "rug", Box: types.Box{X: 1400, Y: 900, W: 200, H: 150}, Confidence: 0.8},
	}, 2.0, bounds)
	box = scaled[0].Box
	if box.X+box.W > 3000 || box.Y+box.H > 2000 {
		t.Errorf("scaled box exceeds image bounds: %+v", box)
	}
}

func TestRunNoDetections(t *testing.T) {
	p := newTestPipeline(&fakeDetector{}, nil)

	report, err := p.Run(context.Background(), Request{Image: testImageBytes(64, 64)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.CostStatus.State != types.SectionAbsent || report.CostStatus.Reason != ReasonNoDetections {
		t.Errorf("expected costs absent/NO_DETECTIONS, got %+v", report.CostStatus)
	}
	// An empty room still gets suggestions.
	if report.SuggestionStatus.State != types.SectionComplete {
		t.Errorf("suggestion status %+v, want complete", report.SuggestionStatus)
	}
	if len(report.Suggestions) == 0 {
		t.Error("expected suggestions for an empty room")
	}
}

func TestRunPartialPricing(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{W: 100, H: 50}, Confidence: 0.9},
			{Label: "antigravity pod", Box: types.Box{W: 50, H: 50}, Confidence: 0.9},
		},
	}
	p := newTestPipeline(det, nil)

	report, err := p.Run(context.Background(), Request{Image: testImageBytes(64, 64)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.CostStatus.State != types.SectionPartial || report.CostStatus.Reason != ReasonItemsUnpriced {
		t.Errorf("expected costs partial/ITEMS_UNPRICED, got %+v", report.CostStatus)
	}
	if len(report.Costs.Unpriced) != 1 {
		t.Errorf("expected 1 unpriced item, got %d", len(report.Costs.Unpriced))
	}
}

func TestRunMeasureWithCallerScale(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{X: 10, Y: 20, W: 100, H: 50}, Confidence: 0.9},
		},
	}
	p := newTestPipeline(det, nil)

	report, err := p.Run(context.Background(), Request{
		Image:          testImageBytes(640, 480),
		Measure:        true,
		ReferenceScale: 2.0,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.MeasurementStatus.State != types.SectionComplete {
		t.Fatalf("measurement status %+v, want complete", report.MeasurementStatus)
	}
	if len(report.Measurements) != 1 {
		t.Fatalf("expected 1 measurement, got %d", len(report.Measurements))
	}
	m := report.Measurements[0]
	if m.Width != 200 || m.Height != 100 {
		t.Errorf("expected 200x100 cm, got %vx%v", m.Width, m.Height)
	}
	if report.Room == nil {
		t.Error("expected a room estimate")
	}
}

func TestRunMeasureWithoutCalibration(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{W: 100, H: 50}, Confidence: 0.9},
		},
	}
	p := newTestPipeline(det, nil)

	// Plain image, no marker, no caller scale: the request must fail
	// rather than guess.
	_, err := p.Run(context.Background(), Request{
		Image:   testImageBytes(640, 480),
		Measure: true,
	})
	if err == nil {
		t.Fatal("expected calibration error")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageMeasuring {
		t.Errorf("expected StageError in measuring, got %v", err)
	}
	var calibErr *errs.CalibrationMissingError
	if !errors.As(err, &calibErr) {
		t.Errorf("expected CalibrationMissingError inside, got %v", err)
	}
}

func TestRunGeneration(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{W: 100, H: 50}, Confidence: 0.9},
		},
	}
	gen := &fakeGenerator{}
	p := newTestPipeline(det, gen)

	report, err := p.Run(context.Background(), Request{
		Image:    testImageBytes(128, 128),
		RoomType: "living room",
		Style:    "modern",
		Generate: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 generation call, got %d", gen.calls)
	}
	if report.GenerationStatus.State != types.SectionComplete {
		t.Fatalf("generation status %+v, want complete", report.GenerationStatus)
	}
	if !strings.HasPrefix(report.RenderedImage, "data:image/png;base64,") {
		t.Errorf("rendered image is not a png data URI: %.40s", report.RenderedImage)
	}
	if report.ComparisonImage == "" {
		t.Error("expected a before/after comparison image")
	}
}

func TestRunGenerationFailureDegrades(t *testing.T) {
	det := &fakeDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{W: 100, H: 50}, Confidence: 0.9},
		},
	}
	gen := &fakeGenerator{err: errors.New("cuda out of memory")}
	p := newTestPipeline(det, gen)

	report, err := p.Run(context.Background(), Request{
		Image:    testImageBytes(64, 64),
		Generate: true,
	})
	if err != nil {
		t.Fatalf("generation failure must not fail the request: %v", err)
	}
	if report.GenerationStatus.State != types.SectionAbsent {
		t.Errorf("generation status %+v, want absent", report.GenerationStatus)
	}
	if report.GenerationStatus.Reason == "" {
		t.Error("absent generation section must carry a reason")
	}
	// The analysis sections are untouched.
	if report.DetectionStatus.State != types.SectionComplete {
		t.Errorf("detection status %+v, want complete", report.DetectionStatus)
	}
}

func TestGenerateOnly(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(&fakeDetector{}, gen)

	result, err := p.GenerateOnly(context.Background(), types.GenerationRequest{
		Prompt: "a minimalist bedroom with warm lighting",
	})
	if err != nil {
		t.Fatalf("GenerateOnly failed: %v", err)
	}
	if result.MimeType != "image/png" {
		t.Errorf("unexpected mime type %s", result.MimeType)
	}
	if len(result.Image) == 0 {
		t.Error("empty generated image")
	}
}

func TestGenerateOnlyEmptyPrompt(t *testing.T) {
	p := newTestPipeline(&fakeDetector{}, &fakeGenerator{})

	_, err := p.GenerateOnly(context.Background(), types.GenerationRequest{})
	var invalid *errs.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidInputError for empty prompt, got %v", err)
	}
}
