// Package config loads tool settings from an optional JSON or YAML file and
// overlays command-line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds output paths and export and render settings.
type Config struct {
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	Workers   int    `json:"workers" yaml:"workers"`
	LogLevel  string `json:"log_level" yaml:"log_level"`

	// Textures
	TextureFormat   string `json:"texture_format" yaml:"texture_format"`
	MaxTextureSize  int    `json:"max_texture_size" yaml:"max_texture_size"`
	FrameDurationMS int    `json:"frame_duration_ms" yaml:"frame_duration_ms"`

	// Previews
	RenderSize  int     `json:"render_size" yaml:"render_size"`
	Supersample int     `json:"supersample" yaml:"supersample"`
	Yaw         float32 `json:"yaw" yaml:"yaw"`
	Pitch       float32 `json:"pitch" yaml:"pitch"`
}

// Load reads a config file. Files ending in .yaml or .yml are YAML, anything
// else is JSON. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings. Zero
// values leave the file's setting alone.
type Flags struct {
	Config         string
	OutputDir      string
	Workers        int
	LogLevel       string
	TextureFormat  string
	MaxTextureSize int
	RenderSize     int
}

// Bind registers the shared flags on fs.
func Bind(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to a JSON or YAML config file")
	fs.StringVar(&f.OutputDir, "output", "", "Output directory (default: ./out)")
	fs.IntVar(&f.Workers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	fs.StringVar(&f.LogLevel, "log", "", "Log level: debug, info, warn or error (default: warn)")
	fs.StringVar(&f.TextureFormat, "format", "", "Texture format: webp, tga or dds (default: webp)")
	fs.IntVar(&f.MaxTextureSize, "max-size", 0, "Shrink textures so no side exceeds this (default: no limit)")
	fs.IntVar(&f.RenderSize, "size", 0, "Preview size in pixels (default: 256)")
	return f
}

// FromFlags loads the file named by flags.Config, if any, then resolves it.
func FromFlags(flags *Flags) (Config, error) {
	var cfg Config
	if flags.Config != "" {
		var err error
		if cfg, err = Load(flags.Config); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Resolve(*flags); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve applies flag overrides, then fills empty fields with defaults.
func (c *Config) Resolve(flags Flags) error {
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.TextureFormat != "" {
		c.TextureFormat = flags.TextureFormat
	}
	if flags.MaxTextureSize > 0 {
		c.MaxTextureSize = flags.MaxTextureSize
	}
	if flags.RenderSize > 0 {
		c.RenderSize = flags.RenderSize
	}

	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.TextureFormat == "" {
		c.TextureFormat = "webp"
	}
	if c.MaxTextureSize < 0 {
		c.MaxTextureSize = 0
	}
	if c.FrameDurationMS <= 0 {
		c.FrameDurationMS = 100
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}

	c.TextureFormat = strings.ToLower(c.TextureFormat)
	switch c.TextureFormat {
	case "webp", "tga", "dds":
	default:
		return fmt.Errorf("config: texture format %q: want webp, tga or dds", c.TextureFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	l, _ := c.Level()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
