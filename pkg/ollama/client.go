// Package ollama implements a detection backend on top of an Ollama-served
// vision model. The model is prompted to return furniture detections as
// JSON; responses are sanitized before parsing because vision models like
// to wrap JSON in fences or commentary.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	_ "golang.org/x/image/webp"

	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// DefaultPrompt asks the vision model for room furniture detections.
const DefaultPrompt = `You are a furniture and fixture locator for interior photos.

Return JSON only:
{
  "detections": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- Labels are lowercase furniture/fixture names (e.g. "sofa", "bed", "dining table", "tv stand", "window", "door").
- Report every clearly visible piece of furniture, one entry each.
- Confidence reflects how certain you are the object is present and the box is tight.
- If the room is empty, return {"detections": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

const defaultTimeout = 300 * time.Second // vision models on CPU are slow

// Client runs detection through the Ollama chat API.
type Client struct {
	client *api.Client
	model  string
	prompt string
}

// NewClient creates a detection client for the given Ollama URL and model.
func NewClient(ollamaURL, model string) (*Client, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Base URL only; paths like /api/chat are added by the SDK.
	baseURL := &url.URL{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
	}

	return &Client{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
		prompt: DefaultPrompt,
	}, nil
}

// Name identifies the backing model for error reporting.
func (c *Client) Name() string {
	return "ollama/" + c.model
}

// Detect asks the vision model for furniture detections and converts the
// normalized boxes it returns to pixel space.
func (c *Client) Detect(ctx context.Context, img []byte) ([]types.DetectedObject, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: c.prompt,
				Images:  []api.ImageData{api.ImageData(img)},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %v", err)
	}
	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	normalized, err := parseDetections(responseContent)
	if err != nil {
		return nil, err
	}
	return toPixelSpace(normalized, cfg.Width, cfg.Height), nil
}

// normBox mirrors the normalized box shape the prompt requests.
type normBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type normDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        normBox `json:"box"`
}

// parseDetections parses the JSON response from the vision model.
func parseDetections(raw string) ([]normDetection, error) {
	raw = sanitizeModelJSON(raw)

	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return nil, fmt.Errorf("model returned non-JSON response")
	}

	var result struct {
		Detections []normDetection `json:"detections"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// Try conservative brace-slice approach
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no valid JSON found in response")
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &result); err2 != nil {
			return nil, fmt.Errorf("parse model response: %v", err2)
		}
	}
	return result.Detections, nil
}

// toPixelSpace scales normalized detections to the image size, clamping
// everything to valid bounds.
func toPixelSpace(dets []normDetection, imgW, imgH int) []types.DetectedObject {
	out := make([]types.DetectedObject, 0, len(dets))
	for _, d := range dets {
		label := strings.ToLower(strings.TrimSpace(d.Label))
		if label == "" {
			continue
		}
		b := normBox{
			X: clamp(d.Box.X, 0, 1),
			Y: clamp(d.Box.Y, 0, 1),
			W: clamp(d.Box.W, 0, 1),
			H: clamp(d.Box.H, 0, 1),
		}
		out = append(out, types.DetectedObject{
			Label: label,
			Box: types.Box{
				X: int(b.X * float64(imgW)),
				Y: int(b.Y * float64(imgH)),
				W: int(b.W * float64(imgW)),
				H: int(b.H * float64(imgH)),
			},
			Confidence: clamp(d.Confidence, 0, 1),
		})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from
// the model response.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	// Remove /* ... */ block comments
	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")

	// Remove // line/inline comments
	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")
	reInline := regexp.MustCompile(`(?m)//.*$`)
	raw = reInline.ReplaceAllString(raw, "")

	// Remove trailing commas before } or ]
	reTrailing := regexp.MustCompile(`,(\s*[}\]])`)
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
