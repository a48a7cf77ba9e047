package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"unknown backend", func(c *Config) { c.Models.DetectionBackend = "tarot" }},
		{"zero detect timeout", func(c *Config) { c.Pipeline.DetectTimeoutSec = 0 }},
		{"confidence above one", func(c *Config) { c.Pipeline.MinConfidence = 1.5 }},
		{"negative marker side", func(c *Config) { c.Pipeline.MarkerSideCm = -1 }},
		{"installation rate above one", func(c *Config) { c.Pricing.InstallationRate = 2 }},
		{"zero precision", func(c *Config) { c.Dimension.Precision = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"server": {"port": "9090", "max_upload_mb": 32},
		"models": {"detection_backend": "ollama", "ollama_url": "http://gpu-box:11434", "ollama_model": "llava"},
		"pipeline": {"detect_timeout_sec": 60, "generate_timeout_sec": 120, "retry_backoff_sec": 1, "min_confidence": 0.5, "marker_side_cm": 10},
		"pricing": {"installation_rate": 0.12},
		"dimension": {"unit": "cm", "precision": 1, "margin_ratio": 0.1}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Models.DetectionBackend != "ollama" {
		t.Errorf("expected ollama backend, got %s", cfg.Models.DetectionBackend)
	}
	if cfg.Pipeline.MinConfidence != 0.5 {
		t.Errorf("expected min confidence 0.5, got %v", cfg.Pipeline.MinConfidence)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("DETECTION_BACKEND", "ollama")
	t.Setenv("MIN_CONFIDENCE", "0.6")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Errorf("PORT override ignored, got %s", cfg.Server.Port)
	}
	if cfg.Models.DetectionBackend != "ollama" {
		t.Errorf("DETECTION_BACKEND override ignored, got %s", cfg.Models.DetectionBackend)
	}
	if cfg.Pipeline.MinConfidence != 0.6 {
		t.Errorf("MIN_CONFIDENCE override ignored, got %v", cfg.Pipeline.MinConfidence)
	}
}
