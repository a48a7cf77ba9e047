// Package sdapi implements a generation backend against a Stable Diffusion
// WebUI-compatible HTTP API (txt2img and img2img).
package sdapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yogitha-jain/interio-ai/pkg/types"
)

const (
	defaultSteps    = 20
	defaultStrength = 0.75
	defaultSize     = 512
)

// Client talks to a Stable Diffusion server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// txt2imgRequest mirrors the WebUI txt2img payload.
type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Steps          int     `json:"steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Seed           int64   `json:"seed,omitempty"`
	CFGScale       float64 `json:"cfg_scale,omitempty"`
}

// img2imgRequest mirrors the WebUI img2img payload.
type img2imgRequest struct {
	InitImages        []string `json:"init_images"`
	Prompt            string   `json:"prompt"`
	NegativePrompt    string   `json:"negative_prompt,omitempty"`
	Steps             int      `json:"steps"`
	DenoisingStrength float64  `json:"denoising_strength"`
	Seed              int64    `json:"seed,omitempty"`
	CFGScale          float64  `json:"cfg_scale,omitempty"`
}

type generationResponse struct {
	Images []string `json:"images"`
}

// NewClient creates a generation client for the given server URL.
func NewClient(serverURL, model string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:7860"
	}
	if model == "" {
		model = "stable-diffusion"
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Name identifies the backing model for error reporting.
func (c *Client) Name() string {
	return "sd/" + c.model
}

// Generate renders an image. A reference image switches to img2img mode so
// the room layout is preserved while furnishing changes.
func (c *Client) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
	}

	p := req.Params
	if p.Steps <= 0 {
		p.Steps = defaultSteps
	}
	if p.Strength <= 0 || p.Strength > 1 {
		p.Strength = defaultStrength
	}
	if p.Width <= 0 {
		p.Width = defaultSize
	}
	if p.Height <= 0 {
		p.Height = defaultSize
	}

	var (
		respBody []byte
		err      error
	)
	if len(req.ReferenceImage) > 0 {
		payload := img2imgRequest{
			InitImages:        []string{base64.StdEncoding.EncodeToString(req.ReferenceImage)},
			Prompt:            req.Prompt,
			NegativePrompt:    p.NegativePrompt,
			Steps:             p.Steps,
			DenoisingStrength: p.Strength,
			Seed:              p.Seed,
		}
		respBody, err = c.sendRequest(ctx, "/sdapi/v1/img2img", payload)
	} else {
		payload := txt2imgRequest{
			Prompt:         req.Prompt,
			NegativePrompt: p.NegativePrompt,
			Steps:          p.Steps,
			Width:          p.Width,
			Height:         p.Height,
			Seed:           p.Seed,
		}
		respBody, err = c.sendRequest(ctx, "/sdapi/v1/txt2img", payload)
	}
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}

	var resp generationResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}
	if len(resp.Images) == 0 {
		return nil, fmt.Errorf("no images in response")
	}

	img, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated image: %v", err)
	}

	return &types.GenerationResult{
		Image:    img,
		MimeType: "image/png",
	}, nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
