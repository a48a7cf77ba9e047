package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yogitha-jain/interio-ai/pkg/adapter"
	"github.com/yogitha-jain/interio-ai/pkg/pipeline"
	"github.com/yogitha-jain/interio-ai/pkg/types"
)

type stubDetector struct {
	detections []types.DetectedObject
	err        error
}

func (s *stubDetector) Detect(ctx context.Context, img []byte) ([]types.DetectedObject, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detections, nil
}

func (s *stubDetector) Name() string { return "stub" }

func newTestHandler(det *stubDetector) *Handler {
	cfg := pipeline.DefaultConfig()
	cfg.RetryBackoff = 10 * time.Millisecond
	p := pipeline.New(adapter.New(det, nil), nil, nil, nil, cfg, nil)
	return NewHandler(p, det.Name(), 16, nil)
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{210, 200, 190, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, filename string, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, w.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	h := newTestHandler(&stubDetector{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
	if resp["detector"] != "stub" {
		t.Errorf("expected detector stub, got %q", resp["detector"])
	}
}

func TestAnalyzeHandler(t *testing.T) {
	h := newTestHandler(&stubDetector{
		detections: []types.DetectedObject{
			{Label: "sofa", Box: types.Box{X: 10, Y: 20, W: 100, H: 50}, Confidence: 0.9},
		},
	})

	body, contentType := multipartBody(t, "room.png", pngBytes(320, 240), map[string]string{
		"room_type": "living room",
		"budget":    "premium",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report types.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.RequestID == "" {
		t.Error("report has no request id")
	}
	if len(report.Detections) != 1 {
		t.Errorf("expected 1 detection, got %d", len(report.Detections))
	}
	if report.Costs == nil || report.Costs.BudgetLevel != "premium" {
		t.Errorf("budget tier not honored: %+v", report.Costs)
	}
	if report.MeasurementStatus.State != types.SectionAbsent {
		t.Errorf("measurement not requested but status is %+v", report.MeasurementStatus)
	}
}

func TestAnalyzeHandlerNoFile(t *testing.T) {
	h := newTestHandler(&stubDetector{})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.WriteField("room_type", "bedroom")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeHandlerBadExtension(t *testing.T) {
	h := newTestHandler(&stubDetector{})

	body, contentType := multipartBody(t, "room.txt", []byte("hello"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeHandlerUndecodableImage(t *testing.T) {
	h := newTestHandler(&stubDetector{})

	body, contentType := multipartBody(t, "room.png", []byte("not a png"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["code"] != "INVALID_INPUT" {
		t.Errorf("expected code INVALID_INPUT, got %q", resp["code"])
	}
}

func TestAnalyzeHandlerModelDown(t *testing.T) {
	h := newTestHandler(&stubDetector{err: errors.New("connection refused")})

	body, contentType := multipartBody(t, "room.png", pngBytes(64, 64), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for model failure, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["code"] != "MODEL_INFERENCE_FAILED" {
		t.Errorf("expected code MODEL_INFERENCE_FAILED, got %q", resp["code"])
	}
}

func TestAnalyzeHandlerMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&stubDetector{})

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestGenerateHandlerInvalidJSON(t *testing.T) {
	h := newTestHandler(&stubDetector{})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateHandlerEmptyPrompt(t *testing.T) {
	h := newTestHandler(&stubDetector{})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"prompt":""}`))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty prompt, got %d", rec.Code)
	}
}
