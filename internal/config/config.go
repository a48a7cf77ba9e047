package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Models    ModelsConfig    `json:"models"`
	Pipeline  PipelineConfig  `json:"pipeline"`
	Pricing   PricingConfig   `json:"pricing"`
	Dimension DimensionConfig `json:"dimension"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string `json:"port"`
	MaxUploadMB int64  `json:"max_upload_mb"`
}

// ModelsConfig selects and locates the model backends.
type ModelsConfig struct {
	// DetectionBackend is "ollama" or "yolo".
	DetectionBackend string `json:"detection_backend"`
	OllamaURL        string `json:"ollama_url"`
	OllamaModel      string `json:"ollama_model"`
	YoloURL          string `json:"yolo_url"`
	YoloModel        string `json:"yolo_model"`
	SDURL            string `json:"sd_url"`
	SDModel          string `json:"sd_model"`
}

// PipelineConfig holds timeout and retry policy.
type PipelineConfig struct {
	DetectTimeoutSec   int     `json:"detect_timeout_sec"`
	GenerateTimeoutSec int     `json:"generate_timeout_sec"`
	RetryBackoffSec    int     `json:"retry_backoff_sec"`
	MinConfidence      float64 `json:"min_confidence"`
	MarkerSideCm       float64 `json:"marker_side_cm"`
}

// PricingConfig locates the pricing table.
type PricingConfig struct {
	// TablePath points at a JSON pricing table; empty uses the built-in
	// price list.
	TablePath        string  `json:"table_path"`
	InstallationRate float64 `json:"installation_rate"`
}

// DimensionConfig holds measurement policy.
type DimensionConfig struct {
	Unit        string  `json:"unit"`
	Precision   float64 `json:"precision"`
	MarginRatio float64 `json:"margin_ratio"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			MaxUploadMB: 16,
		},
		Models: ModelsConfig{
			DetectionBackend: "yolo",
			OllamaURL:        "http://localhost:11434",
			OllamaModel:      "llava",
			YoloURL:          "http://localhost:5000",
			YoloModel:        "yolov8n",
			SDURL:            "http://localhost:7860",
			SDModel:          "stable-diffusion",
		},
		Pipeline: PipelineConfig{
			DetectTimeoutSec:   120,
			GenerateTimeoutSec: 300,
			RetryBackoffSec:    2,
			MinConfidence:      0.3,
			MarkerSideCm:       10,
		},
		Pricing: PricingConfig{
			TablePath:        "",
			InstallationRate: 0.10,
		},
		Dimension: DimensionConfig{
			Unit:        "cm",
			Precision:   0.5,
			MarginRatio: 0.05,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Load builds the effective configuration: defaults, then an optional JSON
// file, then environment overrides. A .env file is honored when present.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	config := Default()
	if filename != "" {
		fileCfg, err := LoadFromFile(filename)
		if err != nil {
			return nil, err
		}
		config = fileCfg
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overrides individual settings from the environment.
func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Models.DetectionBackend = getEnv("DETECTION_BACKEND", c.Models.DetectionBackend)
	c.Models.OllamaURL = getEnv("OLLAMA_URL", c.Models.OllamaURL)
	c.Models.OllamaModel = getEnv("OLLAMA_MODEL", c.Models.OllamaModel)
	c.Models.YoloURL = getEnv("YOLO_URL", c.Models.YoloURL)
	c.Models.YoloModel = getEnv("YOLO_MODEL", c.Models.YoloModel)
	c.Models.SDURL = getEnv("SD_URL", c.Models.SDURL)
	c.Models.SDModel = getEnv("SD_MODEL", c.Models.SDModel)
	c.Pricing.TablePath = getEnv("PRICING_TABLE", c.Pricing.TablePath)
	c.Pipeline.MinConfidence = getEnvFloat("MIN_CONFIDENCE", c.Pipeline.MinConfidence)
	c.Pipeline.MarkerSideCm = getEnvFloat("MARKER_SIDE_CM", c.Pipeline.MarkerSideCm)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port cannot be empty")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}

	switch c.Models.DetectionBackend {
	case "ollama", "yolo":
	default:
		return fmt.Errorf("models.detection_backend must be \"ollama\" or \"yolo\"")
	}

	if c.Pipeline.DetectTimeoutSec < 1 {
		return fmt.Errorf("pipeline.detect_timeout_sec must be positive")
	}
	if c.Pipeline.GenerateTimeoutSec < 1 {
		return fmt.Errorf("pipeline.generate_timeout_sec must be positive")
	}
	if c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1 {
		return fmt.Errorf("pipeline.min_confidence must be between 0 and 1")
	}
	if c.Pipeline.MarkerSideCm <= 0 {
		return fmt.Errorf("pipeline.marker_side_cm must be positive")
	}

	if c.Pricing.InstallationRate < 0 || c.Pricing.InstallationRate > 1 {
		return fmt.Errorf("pricing.installation_rate must be between 0 and 1")
	}

	if c.Dimension.Precision <= 0 {
		return fmt.Errorf("dimension.precision must be positive")
	}
	if c.Dimension.MarginRatio < 0 || c.Dimension.MarginRatio > 1 {
		return fmt.Errorf("dimension.margin_ratio must be between 0 and 1")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
