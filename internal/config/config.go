// Package config loads the service configuration from a JSON file with
// environment-variable overrides for scalar fields, following the
// teacher's file-based config joined with the pack's env-override
// convention.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/menta2k/visionmux/pkg/types"
)

// ServerConfig holds the public HTTP surface settings.
type ServerConfig struct {
	Host             string `json:"host"`
	Port             string `json:"port"`
	UploadDir        string `json:"upload_dir"`
	MaxFileSizeBytes int64  `json:"max_file_size_bytes"`
	PublicURLPrefix  string `json:"public_url_prefix"`
}

// CallConfig holds the per-analyzer call tuning shared by every analyzer
// client.
type CallConfig struct {
	AnalyzerTimeout       time.Duration `json:"analyzer_timeout"`
	RequestDeadlineSlack  time.Duration `json:"request_deadline_slack"`
	MaxRetries            int           `json:"max_retries"`
	RetryBackoff          time.Duration `json:"retry_backoff"`
}

// GlobalDeadline is the per-request budget: analyzer timeout plus slack.
func (c CallConfig) GlobalDeadline() time.Duration {
	return c.AnalyzerTimeout + c.RequestDeadlineSlack
}

// SimilarityConfig points at the caption→image similarity analyzer.
type SimilarityConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Endpoint string `json:"endpoint"`
}

// Config is the full, immutable-after-load service configuration.
type Config struct {
	Server     ServerConfig      `json:"server"`
	Call       CallConfig        `json:"call"`
	Analyzers  []types.Analyzer  `json:"analyzers"`
	Similarity SimilarityConfig  `json:"similarity"`
}

// Default returns the configuration used when no file and no overriding
// environment variables are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             "8080",
			UploadDir:        "./uploads",
			MaxFileSizeBytes: 10 * 1024 * 1024,
			PublicURLPrefix:  "http://localhost:8080/uploads",
		},
		Call: CallConfig{
			AnalyzerTimeout:      15 * time.Second,
			RequestDeadlineSlack: 2 * time.Second,
			MaxRetries:           2,
			RetryBackoff:         1 * time.Second,
		},
		Analyzers: []types.Analyzer{
			{ID: "yolo", Name: "YOLO Object Detector", Host: "localhost", Port: 8801, Endpoint: "/analyze", OptimalSize: "640", Category: types.CategorySpatial},
			{ID: "yolo_365", Name: "YOLO Objects365", Host: "localhost", Port: 8802, Endpoint: "/analyze", OptimalSize: "640", Category: types.CategorySpatial},
			{ID: "yolo_oi7", Name: "YOLO OpenImages7", Host: "localhost", Port: 8803, Endpoint: "/analyze", OptimalSize: "640", Category: types.CategorySpatial},
			{ID: "detectron2", Name: "Detectron2", Host: "localhost", Port: 8804, Endpoint: "/analyze", OptimalSize: "800", Category: types.CategorySpatial},
			{ID: "rtdetr", Name: "RT-DETR", Host: "localhost", Port: 8805, Endpoint: "/analyze", OptimalSize: "640", Category: types.CategorySpatial},
			{ID: "clip", Name: "CLIP", Host: "localhost", Port: 8806, Endpoint: "/analyze", OptimalSize: "original", Category: types.CategorySpatial},
			{ID: "inception", Name: "Inception", Host: "localhost", Port: 8807, Endpoint: "/analyze", OptimalSize: "299", Category: types.CategorySpatial},
			{ID: "blip", Name: "BLIP Captioner", Host: "localhost", Port: 8808, Endpoint: "/analyze", OptimalSize: "original", Category: types.CategorySemantic},
			{ID: "ollama", Name: "Ollama Vision", Host: "localhost", Port: 8809, Endpoint: "/analyze", OptimalSize: "original", Category: types.CategorySemantic},
			{ID: "face", Name: "Face Analyzer", Host: "localhost", Port: 8810, Endpoint: "/analyze", OptimalSize: "original", Category: types.CategorySpecialized},
			{ID: "nsfw", Name: "NSFW Classifier", Host: "localhost", Port: 8811, Endpoint: "/analyze", OptimalSize: "224", Category: types.CategorySpecialized},
			{ID: "ocr", Name: "OCR", Host: "localhost", Port: 8812, Endpoint: "/analyze", OptimalSize: "original", Category: types.CategorySpecialized},
			{ID: "colors", Name: "Color Palette", Host: "localhost", Port: 8813, Endpoint: "/analyze", OptimalSize: "original", Category: types.CategoryOther},
			{ID: "metadata", Name: "Metadata Extractor", Host: "localhost", Port: 8814, Endpoint: "/analyze", OptimalSize: "original", Category: types.CategoryOther},
		},
		Similarity: SimilarityConfig{Host: "localhost", Port: 8820, Endpoint: "/v3/score"},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load builds the configuration for one process: start from defaults,
// overlay a JSON file if it exists, then overlay environment variables
// for every server and call scalar field. The analyzer roster is JSON-only — it is too
// structured for flat env vars — so a missing roster after this step is
// a configuration error the caller should treat as fatal.
func Load(filename string) (*Config, error) {
	var cfg *Config
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			loaded, err := LoadFromFile(filename)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	if cfg == nil {
		cfg = Default()
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(c *Config) {
	c.Server.Host = getEnvOrDefault("VISIONMUX_SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvOrDefault("VISIONMUX_SERVER_PORT", c.Server.Port)
	c.Server.UploadDir = getEnvOrDefault("VISIONMUX_SERVER_UPLOAD_DIR", c.Server.UploadDir)
	c.Server.MaxFileSizeBytes = parseInt64OrDefault("VISIONMUX_SERVER_MAX_FILE_SIZE_BYTES", c.Server.MaxFileSizeBytes)
	c.Server.PublicURLPrefix = getEnvOrDefault("VISIONMUX_SERVER_PUBLIC_URL_PREFIX", c.Server.PublicURLPrefix)

	c.Call.AnalyzerTimeout = parseDurationOrDefault("VISIONMUX_CALL_ANALYZER_TIMEOUT", c.Call.AnalyzerTimeout)
	c.Call.RequestDeadlineSlack = parseDurationOrDefault("VISIONMUX_CALL_REQUEST_DEADLINE_SLACK", c.Call.RequestDeadlineSlack)
	c.Call.MaxRetries = parseIntOrDefault("VISIONMUX_CALL_MAX_RETRIES", c.Call.MaxRetries)
	c.Call.RetryBackoff = parseDurationOrDefault("VISIONMUX_CALL_RETRY_BACKOFF", c.Call.RetryBackoff)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func parseInt64OrDefault(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func parseDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// SaveToFile writes the configuration to a JSON file, creating parent
// directories as needed.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration is usable. A missing or malformed
// analyzer roster is a startup failure per the configuration-missing
// error kind.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must be set")
	}
	if c.Server.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("server.max_file_size_bytes must be positive")
	}
	if c.Call.AnalyzerTimeout <= 0 {
		return fmt.Errorf("call.analyzer_timeout must be positive")
	}
	if c.Call.MaxRetries < 0 {
		return fmt.Errorf("call.max_retries must not be negative")
	}
	if len(c.Analyzers) == 0 {
		return fmt.Errorf("analyzers roster must not be empty")
	}
	seen := make(map[types.AnalyzerID]bool, len(c.Analyzers))
	for _, a := range c.Analyzers {
		if a.ID == "" || a.Host == "" || a.Endpoint == "" {
			return fmt.Errorf("analyzer %q is missing id, host, or endpoint", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate analyzer id %q", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "visionmux", "config.json")
}
