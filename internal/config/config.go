package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port           string   `toml:"port"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type ModelConfig struct {
	Path              string  `toml:"path"`
	MetadataPath      string  `toml:"metadata_path"`
	ClassIndicesPath  string  `toml:"class_indices_path"`
	SharedLibraryPath string  `toml:"shared_library_path"`
	Threshold         float32 `toml:"threshold"`
}

type CuresConfig struct {
	Path string `toml:"path"`
}

type UploadsConfig struct {
	Dir  string `toml:"dir"`
	Save bool   `toml:"save"`
}

type CacheConfig struct {
	SizeBytes  int `toml:"size_bytes"`
	TTLSeconds int `toml:"ttl_seconds"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Model   ModelConfig   `toml:"model"`
	Cures   CuresConfig   `toml:"cures"`
	Uploads UploadsConfig `toml:"uploads"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

// Default returns a config rooted at root with every field populated.
func Default(root string) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			MaxUploadBytes: 10 << 20,
			AllowedOrigins: []string{"*"},
		},
		Model: ModelConfig{
			Path:             filepath.Join(root, "model", "plant_disease.onnx"),
			MetadataPath:     filepath.Join(root, "model", "model_metadata.json"),
			ClassIndicesPath: filepath.Join(root, "model", "class_indices.json"),
			Threshold:        0.6,
		},
		Cures: CuresConfig{
			Path: filepath.Join(root, "cures", "cures.json"),
		},
		Uploads: UploadsConfig{
			Dir:  filepath.Join(root, "images"),
			Save: true,
		},
		Cache: CacheConfig{
			SizeBytes:  8 << 20,
			TTLSeconds: 3600,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error; the defaults plus environment overrides are used instead.
func Load(path, root string) (*Config, error) {
	cfg := Default(root)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.resolvePaths(root)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("MODEL_METADATA_PATH"); v != "" {
		c.Model.MetadataPath = v
	}
	if v := os.Getenv("CLASS_INDICES_PATH"); v != "" {
		c.Model.ClassIndicesPath = v
	}
	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" {
		c.Model.SharedLibraryPath = v
	}
	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid CONFIDENCE_THRESHOLD %q: %w", v, err)
		}
		c.Model.Threshold = float32(f)
	}
	if v := os.Getenv("CURES_PATH"); v != "" {
		c.Cures.Path = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Uploads.Dir = v
	}
	if v := os.Getenv("CACHE_SIZE_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_SIZE_BYTES %q: %w", v, err)
		}
		c.Cache.SizeBytes = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// resolvePaths anchors relative file paths at root.
func (c *Config) resolvePaths(root string) {
	for _, p := range []*string{
		&c.Model.Path,
		&c.Model.MetadataPath,
		&c.Model.ClassIndicesPath,
		&c.Cures.Path,
		&c.Uploads.Dir,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}

func (c *Config) Validate() error {
	if c.Model.Threshold < 0 || c.Model.Threshold > 1 {
		return fmt.Errorf("model.threshold must be within [0,1], got %v", c.Model.Threshold)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Cache.SizeBytes < 0 {
		return fmt.Errorf("cache.size_bytes must not be negative, got %d", c.Cache.SizeBytes)
	}
	return nil
}
