// Package interioai provides interior-design analysis for room photographs.
//
// The package wires image-generation, object-detection, and measurement
// models behind one request pipeline and derives cost estimates and
// rule-based design suggestions from their output.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"os"
//
//		"github.com/yogitha-jain/interio-ai"
//		"github.com/yogitha-jain/interio-ai/internal/config"
//		"github.com/yogitha-jain/interio-ai/pkg/pipeline"
//	)
//
//	func main() {
//		app, err := interioai.New(config.Default(), nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		photo, err := os.ReadFile("room.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		report, err := app.Analyze(context.Background(), pipeline.Request{
//			Image:    photo,
//			RoomType: "living room",
//			Style:    "modern",
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("detected %d objects\n", len(report.Detections))
//		for _, s := range report.Suggestions {
//			fmt.Printf("- [%s] %s\n", s.Kind, s.Rationale)
//		}
//	}
//
// The package consists of four layers:
//
// 1. Clients (pkg/ollama, pkg/yolo, pkg/sdapi): model backend adapters
// 2. Adapter (pkg/adapter): validation and error taxonomy around the clients
// 3. Estimators (pkg/dimension, pkg/pricing, pkg/suggest): derived analysis
// 4. Pipeline (pkg/pipeline): per-request staging, timeouts, and retries
package interioai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yogitha-jain/interio-ai/internal/config"
	"github.com/yogitha-jain/interio-ai/pkg/adapter"
	"github.com/yogitha-jain/interio-ai/pkg/client"
	"github.com/yogitha-jain/interio-ai/pkg/dimension"
	"github.com/yogitha-jain/interio-ai/pkg/ollama"
	"github.com/yogitha-jain/interio-ai/pkg/pipeline"
	"github.com/yogitha-jain/interio-ai/pkg/pricing"
	"github.com/yogitha-jain/interio-ai/pkg/sdapi"
	"github.com/yogitha-jain/interio-ai/pkg/suggest"
	"github.com/yogitha-jain/interio-ai/pkg/types"
	"github.com/yogitha-jain/interio-ai/pkg/yolo"
)

// Version of the interio-ai library
const Version = "1.0.0"

// App provides a high-level interface over the analysis pipeline.
type App struct {
	pipeline *pipeline.Pipeline
	detector client.DetectionClient
}

// New builds an App from configuration. A nil logger uses slog.Default.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		detector client.DetectionClient
		err      error
	)
	switch cfg.Models.DetectionBackend {
	case "ollama":
		detector, err = ollama.NewClient(cfg.Models.OllamaURL, cfg.Models.OllamaModel)
	case "yolo":
		detector, err = yolo.NewClient(cfg.Models.YoloURL, cfg.Models.YoloModel)
	default:
		return nil, fmt.Errorf("unknown detection backend %q", cfg.Models.DetectionBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create detection client: %w", err)
	}

	generator, err := sdapi.NewClient(cfg.Models.SDURL, cfg.Models.SDModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	table := pricing.DefaultTable()
	if cfg.Pricing.TablePath != "" {
		loaded, err := pricing.LoadTable(cfg.Pricing.TablePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load pricing table: %w", err)
		}
		table = loaded
	}

	dims := dimension.NewWithConfig(dimension.Config{
		Unit:        cfg.Dimension.Unit,
		Precision:   cfg.Dimension.Precision,
		MarginRatio: cfg.Dimension.MarginRatio,
	})

	pipeCfg := pipeline.Config{
		DetectTimeout:   time.Duration(cfg.Pipeline.DetectTimeoutSec) * time.Second,
		GenerateTimeout: time.Duration(cfg.Pipeline.GenerateTimeoutSec) * time.Second,
		RetryBackoff:    time.Duration(cfg.Pipeline.RetryBackoffSec) * time.Second,
		MinConfidence:   cfg.Pipeline.MinConfidence,
		MarkerSideCm:    cfg.Pipeline.MarkerSideCm,
	}

	p := pipeline.New(
		adapter.New(detector, generator),
		dims,
		pricing.New(table, cfg.Pricing.InstallationRate),
		suggest.New(nil),
		pipeCfg,
		logger,
	)

	return &App{pipeline: p, detector: detector}, nil
}

// Analyze runs one request through the full pipeline.
func (a *App) Analyze(ctx context.Context, req pipeline.Request) (*types.Report, error) {
	return a.pipeline.Run(ctx, req)
}

// Generate produces a standalone render without the analysis stages.
func (a *App) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	return a.pipeline.GenerateOnly(ctx, req)
}

// Pipeline exposes the underlying pipeline for transports.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// DetectorName reports which detection backend the App was built with.
func (a *App) DetectorName() string { return a.detector.Name() }
