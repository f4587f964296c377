package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	InputPath        string  `yaml:"input"`
	Caption          string  `yaml:"caption"`
	Duration         float64 `yaml:"duration"`
	ClipDir          string  `yaml:"clip_dir"`
	ClipName         string  `yaml:"clip_name"`
	TempDir          string  `yaml:"temp_dir"`
	FPS              int     `yaml:"fps"`
	Workers          int     `yaml:"workers"`
	Page             int     `yaml:"page"`
	DPI              int     `yaml:"dpi"`
	FontPath         string  `yaml:"font"`
	EmojiFontPath    string  `yaml:"emoji_font"`
	OverlayPath      string  `yaml:"overlay"`
	Seed             int64   `yaml:"seed"`
	QualityPreset    string  `yaml:"quality_preset"`
	KeepIntermediate bool    `yaml:"keep_intermediate"`
	Library          Library `yaml:"library"`

	// Заполняются во время запуска, не из файла
	VideoEncoder string `yaml:"-"`
	Quality      int    `yaml:"-"`
	ShowStats    bool   `yaml:"-"`
	BuildVersion string `yaml:"-"`
}

// Library selects where the save action puts the finished video.
type Library struct {
	Kind         string `yaml:"kind"` // "dir" or "s3"
	Dir          string `yaml:"dir"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

const (
	DefaultCaption  = "Animated\ntext"
	DefaultDuration = 5.0
	DefaultClipName = "animatedImage"
	DefaultFPS      = 30
	DefaultPreset   = "highest"
)

func Default() *Config {
	return &Config{
		Caption:          DefaultCaption,
		Duration:         DefaultDuration,
		ClipDir:          "output",
		ClipName:         DefaultClipName,
		TempDir:          os.TempDir(),
		FPS:              DefaultFPS,
		DPI:              150,
		QualityPreset:    DefaultPreset,
		KeepIntermediate: true,
		Library: Library{
			Kind: "dir",
			Dir:  filepath.Join("output", "library"),
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (optional, missing file is not an error when path is empty), then
// environment variables (a .env file in the working directory is honoured).
// Flags are applied by the caller on top of the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"ANIMATEDIMAGE_INPUT":          &c.InputPath,
		"ANIMATEDIMAGE_CAPTION":        &c.Caption,
		"ANIMATEDIMAGE_CLIP_DIR":       &c.ClipDir,
		"ANIMATEDIMAGE_TEMP_DIR":       &c.TempDir,
		"ANIMATEDIMAGE_FONT":           &c.FontPath,
		"ANIMATEDIMAGE_EMOJI_FONT":     &c.EmojiFontPath,
		"ANIMATEDIMAGE_LIBRARY":        &c.Library.Kind,
		"ANIMATEDIMAGE_LIBRARY_DIR":    &c.Library.Dir,
		"ANIMATEDIMAGE_S3_BUCKET":      &c.Library.Bucket,
		"ANIMATEDIMAGE_S3_PREFIX":      &c.Library.Prefix,
		"AWS_REGION":                   &c.Library.Region,
		"AWS_PROFILE":                  &c.Library.Profile,
		"ANIMATEDIMAGE_QUALITY_PRESET": &c.QualityPreset,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("ANIMATEDIMAGE_DURATION"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ANIMATEDIMAGE_DURATION: %w", err)
		}
		c.Duration = d
	}
	if v := os.Getenv("ANIMATEDIMAGE_SEED"); v != "" {
		s, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ANIMATEDIMAGE_SEED: %w", err)
		}
		c.Seed = s
	}
	if v := os.Getenv("ANIMATEDIMAGE_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ANIMATEDIMAGE_S3_PATH_STYLE: %w", err)
		}
		c.Library.UsePathStyle = b
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	case c.FPS <= 0:
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	case c.ClipName == "":
		return fmt.Errorf("clip name is empty")
	case c.Page < 0:
		return fmt.Errorf("page index must not be negative, got %d", c.Page)
	}
	switch c.Library.Kind {
	case "dir":
		if c.Library.Dir == "" {
			return fmt.Errorf("library dir is empty")
		}
	case "s3":
		if c.Library.Bucket == "" {
			return fmt.Errorf("library kind s3 requires a bucket")
		}
	default:
		return fmt.Errorf("unknown library kind %q", c.Library.Kind)
	}
	return nil
}
