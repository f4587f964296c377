package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Caption != DefaultCaption {
		t.Errorf("Expected default caption %q, got %q", DefaultCaption, cfg.Caption)
	}
	if cfg.Duration != DefaultDuration {
		t.Errorf("Expected duration %v, got %v", DefaultDuration, cfg.Duration)
	}
	if !cfg.KeepIntermediate {
		t.Error("Intermediate clip should be kept by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
	if cfg.ClipDir != "output" || cfg.ClipName != "animatedImage" {
		t.Errorf("Unexpected clip location %s/%s", cfg.ClipDir, cfg.ClipName)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "animatedimage.yaml")
	data := []byte("caption: Hello\nduration: 3\nlibrary:\n  kind: s3\n  bucket: from-file\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANIMATEDIMAGE_S3_BUCKET", "from-env")
	t.Setenv("ANIMATEDIMAGE_SEED", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Caption != "Hello" || cfg.Duration != 3 {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.Library.Bucket != "from-env" {
		t.Errorf("Env should override file, got bucket %q", cfg.Library.Bucket)
	}
	if cfg.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", cfg.Seed)
	}
	if cfg.ClipName != DefaultClipName {
		t.Errorf("Unset fields should keep defaults, got clip name %q", cfg.ClipName)
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ANIMATEDIMAGE_DURATION", "five")

	if _, err := Load(""); err == nil {
		t.Error("Expected error for non-numeric duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero duration", func(c *Config) { c.Duration = 0 }, true},
		{"negative fps", func(c *Config) { c.FPS = -1 }, true},
		{"empty clip name", func(c *Config) { c.ClipName = "" }, true},
		{"negative page", func(c *Config) { c.Page = -2 }, true},
		{"s3 without bucket", func(c *Config) { c.Library.Kind = "s3" }, true},
		{"s3 with bucket", func(c *Config) { c.Library.Kind = "s3"; c.Library.Bucket = "b" }, false},
		{"unknown library", func(c *Config) { c.Library.Kind = "photos" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
