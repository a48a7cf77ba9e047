package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yogitha-jain/interio-ai/internal/utils"
	"github.com/yogitha-jain/interio-ai/pkg/errs"
	"github.com/yogitha-jain/interio-ai/pkg/pipeline"
	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// Handler serves the analysis API on top of the request pipeline.
type Handler struct {
	pipeline    *pipeline.Pipeline
	detector    string
	maxUploadMB int64
	logger      *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(p *pipeline.Pipeline, detector string, maxUploadMB int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline:    p,
		detector:    detector,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

// HealthHandler handles GET /api/health.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status":   "ok",
		"detector": h.detector,
	}, http.StatusOK)
}

// AnalyzeHandler handles POST /api/analyze. The room photo arrives as the
// multipart "image" field; stage options arrive as form values.
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB<<20)
	if err := r.ParseMultipartForm(h.maxUploadMB << 20); err != nil {
		respondError(w, errs.CodeInvalidInput, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, errs.CodeInvalidInput, "no image uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !utils.IsImageFile(header.Filename) {
		respondError(w, errs.CodeInvalidInput, "unsupported file type: "+header.Filename, http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, errs.CodeInvalidInput, "failed to read file", http.StatusBadRequest)
		return
	}

	req := pipeline.Request{
		Image:          imageData,
		RoomType:       r.FormValue("room_type"),
		Style:          r.FormValue("style"),
		Palette:        r.FormValue("palette"),
		BudgetLevel:    r.FormValue("budget"),
		ReferenceScale: parseFloat(r.FormValue("reference_scale")),
		Measure:        parseBool(r.FormValue("measure")),
		Annotate:       parseBool(r.FormValue("annotate")),
		Generate:       parseBool(r.FormValue("generate")),
		Prompt:         r.FormValue("prompt"),
	}

	report, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	respondJSON(w, report, http.StatusOK)
}

// GenerateHandler handles POST /api/generate: a standalone render request
// bypassing the analysis stages. The body is JSON.
func (h *Handler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Prompt         string                 `json:"prompt"`
		ReferenceImage string                 `json:"reference_image,omitempty"`
		Params         types.GenerationParams `json:"params,omitempty"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB<<20)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, errs.CodeInvalidInput, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := types.GenerationRequest{Prompt: body.Prompt, Params: body.Params}
	if body.ReferenceImage != "" {
		decoded, err := base64.StdEncoding.DecodeString(body.ReferenceImage)
		if err != nil {
			respondError(w, errs.CodeInvalidInput, "reference_image is not valid base64", http.StatusBadRequest)
			return
		}
		req.ReferenceImage = decoded
	}

	result, err := h.pipeline.GenerateOnly(r.Context(), req)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	respondJSON(w, map[string]string{
		"image":     base64.StdEncoding.EncodeToString(result.Image),
		"mime_type": result.MimeType,
	}, http.StatusOK)
}

// respondPipelineError maps the error taxonomy onto HTTP statuses.
func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	var (
		invalid   *errs.InvalidInputError
		inference *errs.ModelInferenceError
		calib     *errs.CalibrationMissingError
	)
	switch {
	case errors.As(err, &invalid):
		respondError(w, errs.CodeInvalidInput, invalid.Reason, http.StatusBadRequest)
	case errors.As(err, &calib):
		respondError(w, errs.CodeCalibrationMissing, calib.Reason, http.StatusUnprocessableEntity)
	case errors.As(err, &inference):
		h.logger.Error("inference failed", "model", inference.Model, "error", inference.Err)
		respondError(w, errs.CodeModelInference, inference.Error(), http.StatusBadGateway)
	default:
		h.logger.Error("request failed", "error", err)
		respondError(w, "INTERNAL", "internal error", http.StatusInternalServerError)
	}
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, code, message string, status int) {
	respondJSON(w, map[string]string{"code": code, "error": message}, status)
}
