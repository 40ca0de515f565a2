// Package config loads drishti settings from a YAML file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/embedder"
	"github.com/ayusman/drishti/internal/match"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "DRISHTI_"

type Config struct {
	Camera     CameraConfig   `yaml:"camera"`
	Detector   DetectorConfig `yaml:"detector"`
	Embedder   EmbedderConfig `yaml:"embedder"`
	Match      MatchConfig    `yaml:"match"`
	Display    DisplayConfig  `yaml:"display"`
	Server     ServerConfig   `yaml:"server"`
	Store      StoreConfig    `yaml:"store"`
	References References     `yaml:"references"`
}

type CameraConfig struct {
	Device string `yaml:"device"` // camera index or video file/URL
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type DetectorConfig struct {
	Model         string  `yaml:"model"` // haar or dnn
	CascadePath   string  `yaml:"cascade"`
	ProtoPath     string  `yaml:"proto"`
	WeightsPath   string  `yaml:"weights"`
	MinConfidence float64 `yaml:"min_confidence"`
	MinFaceSize   int     `yaml:"min_face_size"`
}

type EmbedderConfig struct {
	ModelPath string `yaml:"model"`
	InputSize int    `yaml:"input_size"`
}

type MatchConfig struct {
	Threshold float64 `yaml:"threshold"` // maximum distance accepted as a match
}

type DisplayConfig struct {
	Window   string `yaml:"window"`
	StopKey  string `yaml:"stop_key"`
	Headless bool   `yaml:"headless"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // empty disables the preview server
}

type StoreConfig struct {
	DSN string `yaml:"dsn"` // SQLite path, or :memory:
}

// Default returns the built-in configuration.
func Default() *Config {
	det := detector.DefaultConfig()
	emb := embedder.DefaultConfig()

	return &Config{
		Camera: CameraConfig{
			Device: capture.DefaultDevice,
			Width:  capture.DefaultWidth,
			Height: capture.DefaultHeight,
		},
		Detector: DetectorConfig{
			Model:         string(det.Model),
			CascadePath:   det.CascadePath,
			ProtoPath:     det.ProtoPath,
			WeightsPath:   det.WeightsPath,
			MinConfidence: det.MinConfidence,
			MinFaceSize:   det.MinFaceSize,
		},
		Embedder: EmbedderConfig{
			ModelPath: emb.ModelPath,
			InputSize: emb.InputSize,
		},
		Match: MatchConfig{
			Threshold: match.DefaultThreshold,
		},
		Display: DisplayConfig{
			Window:  "Video",
			StopKey: "q",
		},
		Store: StoreConfig{
			DSN: ":memory:",
		},
	}
}

// LoadFile reads a YAML file over the defaults. Relative reference paths
// are resolved against the directory holding the file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, ref := range cfg.References {
		if ref.Path != "" && !filepath.IsAbs(ref.Path) {
			cfg.References[i].Path = filepath.Join(dir, ref.Path)
		}
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with DRISHTI_* environment variables.
// Unset, empty or unparsable values leave the current setting alone.
func ApplyEnv(cfg *Config) {
	cfg.Camera.Device = envString("CAMERA", cfg.Camera.Device)
	cfg.Camera.Width = envInt("WIDTH", cfg.Camera.Width)
	cfg.Camera.Height = envInt("HEIGHT", cfg.Camera.Height)
	cfg.Detector.Model = envString("DETECTOR", cfg.Detector.Model)
	cfg.Detector.CascadePath = envString("CASCADE", cfg.Detector.CascadePath)
	cfg.Detector.ProtoPath = envString("DNN_PROTO", cfg.Detector.ProtoPath)
	cfg.Detector.WeightsPath = envString("DNN_WEIGHTS", cfg.Detector.WeightsPath)
	cfg.Embedder.ModelPath = envString("EMBEDDER_MODEL", cfg.Embedder.ModelPath)
	cfg.Match.Threshold = envFloat("THRESHOLD", cfg.Match.Threshold)
	cfg.Display.Headless = envBool("HEADLESS", cfg.Display.Headless)
	cfg.Server.Addr = envString("SERVER_ADDR", cfg.Server.Addr)
	cfg.Store.DSN = envString("STORE_DSN", cfg.Store.DSN)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera resolution must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if !detector.Model(c.Detector.Model).Valid() {
		errs = append(errs, fmt.Errorf("unknown detector model %q (want %q or %q)", c.Detector.Model, detector.ModelHaar, detector.ModelDNN))
	}
	if c.Match.Threshold < 0 {
		errs = append(errs, fmt.Errorf("match threshold must not be negative, got %g", c.Match.Threshold))
	}
	if utf8.RuneCountInString(c.Display.StopKey) != 1 {
		errs = append(errs, fmt.Errorf("stop key must be a single character, got %q", c.Display.StopKey))
	}
	for i, ref := range c.References {
		if strings.TrimSpace(ref.Label) == "" {
			errs = append(errs, fmt.Errorf("reference %d has an empty label", i))
		}
		if strings.TrimSpace(ref.Path) == "" {
			errs = append(errs, fmt.Errorf("reference %q has an empty path", ref.Label))
		}
	}

	return errors.Join(errs...)
}

// StopRune returns the stop key as a rune.
func (c *Config) StopRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Display.StopKey)
	return r
}

// DetectorSettings converts the detector section for detector.New.
func (c *Config) DetectorSettings() detector.Config {
	return detector.Config{
		Model:         detector.Model(c.Detector.Model),
		CascadePath:   c.Detector.CascadePath,
		ProtoPath:     c.Detector.ProtoPath,
		WeightsPath:   c.Detector.WeightsPath,
		MinConfidence: c.Detector.MinConfidence,
		MinFaceSize:   c.Detector.MinFaceSize,
	}
}

// EmbedderSettings converts the embedder section for the OpenFace embedder.
func (c *Config) EmbedderSettings() embedder.Config {
	return embedder.Config{
		ModelPath: c.Embedder.ModelPath,
		InputSize: c.Embedder.InputSize,
	}
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(EnvPrefix + key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a non-negative float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}
