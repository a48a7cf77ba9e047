package interioai

import (
	"strings"
	"testing"

	"github.com/yogitha-jain/interio-ai/internal/config"
)

func TestNew(t *testing.T) {
	app, err := New(config.Default(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if app.Pipeline() == nil {
		t.Error("pipeline not wired")
	}
	if !strings.HasPrefix(app.DetectorName(), "yolo/") {
		t.Errorf("default backend should be yolo, got %q", app.DetectorName())
	}
}

func TestNewOllamaBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Models.DetectionBackend = "ollama"

	app, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !strings.HasPrefix(app.DetectorName(), "ollama/") {
		t.Errorf("expected ollama backend, got %q", app.DetectorName())
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Models.DetectionBackend = "crystal-ball"

	if _, err := New(cfg, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}
