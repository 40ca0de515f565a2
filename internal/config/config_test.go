package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/match"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Match.Threshold != match.DefaultThreshold {
		t.Errorf("Threshold = %v, want %v", cfg.Match.Threshold, match.DefaultThreshold)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("resolution = %dx%d, want 640x480", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Detector.Model != string(detector.ModelHaar) {
		t.Errorf("Detector.Model = %q, want haar", cfg.Detector.Model)
	}
	if cfg.StopRune() != 'q' {
		t.Errorf("StopRune() = %q, want 'q'", cfg.StopRune())
	}
	if cfg.Server.Addr != "" {
		t.Errorf("server should be disabled by default, got %q", cfg.Server.Addr)
	}
}

func TestLoadFile_MappingKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "drishti.yaml", `
match:
  threshold: 0.45
references:
  Zoe: faces/zoe.jpg
  Adam: faces/adam.png
  Kacper Wrona: /srv/faces/kacper_wrona.jpeg
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	want := []struct{ label, path string }{
		{"Zoe", filepath.Join(dir, "faces/zoe.jpg")},
		{"Adam", filepath.Join(dir, "faces/adam.png")},
		{"Kacper Wrona", "/srv/faces/kacper_wrona.jpeg"},
	}
	if len(cfg.References) != len(want) {
		t.Fatalf("got %d references, want %d", len(cfg.References), len(want))
	}
	for i, w := range want {
		if cfg.References[i].Label != w.label || cfg.References[i].Path != w.path {
			t.Errorf("reference %d = %+v, want %s=%s", i, cfg.References[i], w.label, w.path)
		}
	}

	if cfg.Match.Threshold != 0.45 {
		t.Errorf("Threshold = %v, want 0.45", cfg.Match.Threshold)
	}

	// Sections absent from the file keep their defaults
	if cfg.Camera.Width != 640 || cfg.Display.StopKey != "q" {
		t.Errorf("defaults lost: camera %+v, display %+v", cfg.Camera, cfg.Display)
	}
}

func TestLoadFile_SequenceForm(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "drishti.yaml", `
references:
  - label: Alice
    path: alice.jpg
  - label: Bob
    path: bob.jpg
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if len(cfg.References) != 2 || cfg.References[0].Label != "Alice" || cfg.References[1].Label != "Bob" {
		t.Errorf("References = %+v, want Alice then Bob", cfg.References)
	}
	if cfg.References[1].Path != filepath.Join(dir, "bob.jpg") {
		t.Errorf("Path = %q, want resolved against config dir", cfg.References[1].Path)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want os.ErrNotExist", err)
	}

	path := writeFile(t, dir, "scalar.yaml", "references: alice.jpg\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("scalar references should be rejected")
	}

	path = writeFile(t, dir, "nested.yaml", "references:\n  Alice:\n    - a.jpg\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("non-string reference path should be rejected")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DRISHTI_CAMERA", "/dev/video2")
	t.Setenv("DRISHTI_WIDTH", "1280")
	t.Setenv("DRISHTI_HEIGHT", "not-a-number")
	t.Setenv("DRISHTI_DETECTOR", "dnn")
	t.Setenv("DRISHTI_THRESHOLD", "0")
	t.Setenv("DRISHTI_HEADLESS", "true")
	t.Setenv("DRISHTI_SERVER_ADDR", ":8080")

	cfg := Default()
	ApplyEnv(cfg)

	if cfg.Camera.Device != "/dev/video2" {
		t.Errorf("Device = %q", cfg.Camera.Device)
	}
	if cfg.Camera.Width != 1280 {
		t.Errorf("Width = %d, want 1280", cfg.Camera.Width)
	}
	if cfg.Camera.Height != 480 {
		t.Errorf("Height = %d, want 480 (invalid value ignored)", cfg.Camera.Height)
	}
	if cfg.Detector.Model != "dnn" {
		t.Errorf("Detector.Model = %q, want dnn", cfg.Detector.Model)
	}
	if cfg.Match.Threshold != 0 {
		t.Errorf("Threshold = %v, want 0", cfg.Match.Threshold)
	}
	if !cfg.Display.Headless {
		t.Error("Headless should be true")
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.DSN != ":memory:" {
		t.Errorf("Store.DSN = %q, want untouched default", cfg.Store.DSN)
	}
}

func TestEnvFloat_RejectsNegative(t *testing.T) {
	t.Setenv("DRISHTI_THRESHOLD", "-1")

	if got := envFloat("THRESHOLD", 0.6); got != 0.6 {
		t.Errorf("envFloat() = %v, want default 0.6", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero threshold is allowed", mutate: func(c *Config) { c.Match.Threshold = 0 }},
		{name: "negative threshold", mutate: func(c *Config) { c.Match.Threshold = -0.1 }, wantErr: "threshold"},
		{name: "zero width", mutate: func(c *Config) { c.Camera.Width = 0 }, wantErr: "resolution"},
		{name: "unknown model", mutate: func(c *Config) { c.Detector.Model = "hog" }, wantErr: "detector model"},
		{name: "long stop key", mutate: func(c *Config) { c.Display.StopKey = "quit" }, wantErr: "stop key"},
		{name: "empty stop key", mutate: func(c *Config) { c.Display.StopKey = "" }, wantErr: "stop key"},
		{
			name: "empty reference label",
			mutate: func(c *Config) {
				c.References = References{{Label: " ", Path: "a.jpg"}}
			},
			wantErr: "empty label",
		},
		{
			name: "empty reference path",
			mutate: func(c *Config) {
				c.References = References{{Label: "Alice"}}
			},
			wantErr: "empty path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Match.Threshold = -1
	cfg.Detector.Model = "cnn"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "threshold") || !strings.Contains(err.Error(), "detector model") {
		t.Errorf("Validate() error = %v, want both problems", err)
	}
}

func TestSettingsConversion(t *testing.T) {
	cfg := Default()
	cfg.Detector.Model = "dnn"
	cfg.Detector.MinConfidence = 0.7
	cfg.Embedder.ModelPath = "/models/openface.t7"

	det := cfg.DetectorSettings()
	if det.Model != detector.ModelDNN || det.MinConfidence != 0.7 {
		t.Errorf("DetectorSettings() = %+v", det)
	}

	emb := cfg.EmbedderSettings()
	if emb.ModelPath != "/models/openface.t7" || emb.InputSize != 96 {
		t.Errorf("EmbedderSettings() = %+v", emb)
	}
}
