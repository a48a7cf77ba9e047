package client

import (
	"context"

	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// DetectionClient locates furniture and fixtures in a room image. The image
// is passed as raw encoded bytes; implementations decide how to ship it to
// the backing model.
type DetectionClient interface {
	Detect(ctx context.Context, image []byte) ([]types.DetectedObject, error)
	Name() string
}

// GenerationClient renders a redesigned room image from a prompt and an
// optional reference image.
type GenerationClient interface {
	Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error)
	Name() string
}
