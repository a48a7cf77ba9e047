// Package yolo implements a detection backend that talks to a YOLO
// inference sidecar over HTTP. The sidecar accepts a multipart image upload
// and returns pixel-space detections as JSON.
package yolo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// Client posts images to a YOLO inference service.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for the given sidecar URL. The model name is
// informational only; the sidecar decides which weights it serves.
func NewClient(serverURL, model string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:5000"
	}
	if model == "" {
		model = "yolov8n"
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// Name identifies the backing model for error reporting.
func (c *Client) Name() string {
	return "yolo/" + c.model
}

// wireDetection is the sidecar's detection schema.
type wireDetection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Detect uploads the image and parses the returned detections.
func (c *Client) Detect(ctx context.Context, img []byte) ([]types.DetectedObject, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(img)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Detections []wireDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]types.DetectedObject, 0, len(result.Detections))
	for _, d := range result.Detections {
		label := strings.ToLower(strings.TrimSpace(d.Class))
		if label == "" {
			continue
		}
		out = append(out, types.DetectedObject{
			Label: label,
			Box: types.Box{
				X: d.X,
				Y: d.Y,
				W: d.Width,
				H: d.Height,
			},
			Confidence: d.Confidence,
		})
	}
	return out, nil
}

// CheckHealth verifies that the sidecar answers its health endpoint.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
