package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "ARTIFACT_URL", "ARTIFACT_PATH", "METADATA_PATH", "ONNX_LIBRARY",
	"LIVE_CAPTURE_URL", "LIVE_FRAME_PATH", "IMAGE_BASE_URL", "STATIC_DIR",
	"INDEX_PATH", "HTTP_TIMEOUT", "STARTUP_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("http timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.ImageBaseURL != "https://codejamhidden.onrender.com/static/images" {
		t.Errorf("image base url = %q", cfg.ImageBaseURL)
	}
	if got := cfg.Samples.Groups(); len(got) != 3 {
		t.Errorf("sample groups = %v", got)
	}
	front := cfg.Samples["front"]
	if want := filepath.Join("static", "images", "front0.jpg"); front[0].Path != want {
		t.Errorf("front0 path = %q, want %q", front[0].Path, want)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "angle-api.yaml")
	content := `
port: 9000
live_capture_url: http://camera.local/getframe
http_timeout: 5s
static_dir: /srv/static
samples:
  porch:
    - name: porch0
      path: /srv/porch0.jpg
    - name: porch90
      path: /srv/porch90.jpg
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "9100")
	t.Setenv("STARTUP_TIMEOUT", "10s")
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env beats file", cfg.Port, 9100},
		{"file beats default", cfg.LiveCaptureURL, "http://camera.local/getframe"},
		{"invalid env ignored", cfg.HTTPTimeout, 5 * time.Second},
		{"env beats default", cfg.StartupTimeout, 10 * time.Second},
		{"untouched default", cfg.ArtifactPath, filepath.Join("models", "export.onnx")},
		{"file samples", cfg.Samples["porch"][1].Name, "porch90"},
		{"file group added", len(cfg.Samples), 4},
		{"routed groups kept", len(cfg.Samples["back"]), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	malformed := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(malformed, []byte("port: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	lopsided := filepath.Join(dir, "lopsided.yaml")
	if err := os.WriteFile(lopsided, []byte("samples:\n  front:\n    - name: front0\n      path: a.jpg\n"), 0644); err != nil {
		t.Fatal(err)
	}

	zeroHTTP := filepath.Join(dir, "zero-http.yaml")
	if err := os.WriteFile(zeroHTTP, []byte("http_timeout: 0s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	zeroStartup := filepath.Join(dir, "zero-startup.yaml")
	if err := os.WriteFile(zeroStartup, []byte("startup_timeout: 0s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	negative := filepath.Join(dir, "negative.yaml")
	if err := os.WriteFile(negative, []byte("http_timeout: -5s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.yaml")},
		{"malformed yaml", malformed},
		{"group with one variant", lopsided},
		{"zero http timeout", zeroHTTP},
		{"zero startup timeout", zeroStartup},
		{"negative http timeout", negative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestLoad_PartialSamplesKeepRoutedGroups(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "front-only.yaml")
	content := `
static_dir: /srv/static
samples:
  front:
    - name: frontA
      path: /srv/frontA.jpg
    - name: frontB
      path: /srv/frontB.jpg
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, group := range []string{"front", "back", "kitchen"} {
		if len(cfg.Samples[group]) != 2 {
			t.Errorf("group %q missing from %v", group, cfg.Samples.Groups())
		}
	}
	if cfg.Samples["front"][0].Name != "frontA" {
		t.Errorf("front not overridden: %v", cfg.Samples["front"])
	}
	if want := filepath.Join("/srv/static", "images", "back45.jpg"); cfg.Samples["back"][0].Path != want {
		t.Errorf("back45 path = %q, want %q", cfg.Samples["back"][0].Path, want)
	}
}
