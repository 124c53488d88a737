package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Brownie44l1/angle-api/internal/samples"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port int `yaml:"port"`

	ArtifactURL    string `yaml:"artifact_url"`
	ArtifactPath   string `yaml:"artifact_path"`
	MetadataPath   string `yaml:"metadata_path"`
	OnnxLibrary    string `yaml:"onnx_library"`
	LiveCaptureURL string `yaml:"live_capture_url"`
	LiveFramePath  string `yaml:"live_frame_path"`
	ImageBaseURL   string `yaml:"image_base_url"`
	StaticDir      string `yaml:"static_dir"`
	IndexPath      string `yaml:"index_path"`

	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	StartupTimeout time.Duration `yaml:"startup_timeout"`

	// Samples replaces bundled groups by name and may add new ones.
	Samples samples.Set `yaml:"samples"`
}

func Default() *Config {
	return &Config{
		Port:           8080,
		ArtifactURL:    "https://drive.google.com/uc?export=download&id=1F2gh7W_KJ3BaFpFm_A4aJyO4lATclvvj",
		ArtifactPath:   filepath.Join("models", "export.onnx"),
		MetadataPath:   filepath.Join("models", "export.json"),
		LiveCaptureURL: "https://18c47516.ngrok.io/getframe",
		LiveFramePath:  filepath.Join("static", "images", "liveCapture.jpg"),
		ImageBaseURL:   "https://codejamhidden.onrender.com/static/images",
		StaticDir:      "static",
		IndexPath:      filepath.Join("view", "index.html"),
		HTTPTimeout:    30 * time.Second,
		StartupTimeout: 2 * time.Minute,
	}
}

// Load layers an optional YAML file and then the environment over Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("http_timeout must be positive, got %v", cfg.HTTPTimeout)
	}
	if cfg.StartupTimeout <= 0 {
		return nil, fmt.Errorf("startup_timeout must be positive, got %v", cfg.StartupTimeout)
	}

	// Configured groups replace or extend the bundled ones, so every routed
	// group stays available.
	merged := samples.DefaultSet(filepath.Join(cfg.StaticDir, "images"))
	for group, variants := range cfg.Samples {
		merged[group] = variants
	}
	cfg.Samples = merged
	if err := cfg.Samples.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.ArtifactURL = getEnv("ARTIFACT_URL", c.ArtifactURL)
	c.ArtifactPath = getEnv("ARTIFACT_PATH", c.ArtifactPath)
	c.MetadataPath = getEnv("METADATA_PATH", c.MetadataPath)
	c.OnnxLibrary = getEnv("ONNX_LIBRARY", c.OnnxLibrary)
	c.LiveCaptureURL = getEnv("LIVE_CAPTURE_URL", c.LiveCaptureURL)
	c.LiveFramePath = getEnv("LIVE_FRAME_PATH", c.LiveFramePath)
	c.ImageBaseURL = getEnv("IMAGE_BASE_URL", c.ImageBaseURL)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.IndexPath = getEnv("INDEX_PATH", c.IndexPath)
	c.HTTPTimeout = getEnvAsDuration("HTTP_TIMEOUT", c.HTTPTimeout)
	c.StartupTimeout = getEnvAsDuration("STARTUP_TIMEOUT", c.StartupTimeout)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
