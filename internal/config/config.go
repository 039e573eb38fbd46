// Package config loads the optional JSON settings file of the sbf tool.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/pglira/cloudcompare-sbf-io/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/sbf.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Defaults used when a field is absent from the file.
const (
	DefaultStrictMagic        = false
	DefaultAtomicWrites       = true
	DefaultQuiet              = false
	DefaultASCPrecision       = 6
	DefaultPreviewWidthIn     = 6.0
	DefaultPreviewHeightIn    = 6.0
	DefaultPreviewPointRadius = 0.5
)

// Config holds codec and tool settings. Every field is optional; the Get*
// methods supply defaults for missing ones, so partial files are safe.
type Config struct {
	// Codec
	StrictMagic  *bool `json:"strict_magic,omitempty" yaml:"strict_magic,omitempty"`
	AtomicWrites *bool `json:"atomic_writes,omitempty" yaml:"atomic_writes,omitempty"`

	// Output
	Quiet        *bool `json:"quiet,omitempty" yaml:"quiet,omitempty"`
	ASCPrecision *int  `json:"asc_precision,omitempty" yaml:"asc_precision,omitempty"`

	// Preview rendering, sizes in inches and points
	PreviewWidthIn     *float64 `json:"preview_width_in,omitempty" yaml:"preview_width_in,omitempty"`
	PreviewHeightIn    *float64 `json:"preview_height_in,omitempty" yaml:"preview_height_in,omitempty"`
	PreviewPointRadius *float64 `json:"preview_point_radius,omitempty" yaml:"preview_point_radius,omitempty"`
}

func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// Empty returns a Config with all fields nil.
func Empty() *Config {
	return &Config{}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		StrictMagic:        ptrBool(DefaultStrictMagic),
		AtomicWrites:       ptrBool(DefaultAtomicWrites),
		Quiet:              ptrBool(DefaultQuiet),
		ASCPrecision:       ptrInt(DefaultASCPrecision),
		PreviewWidthIn:     ptrFloat64(DefaultPreviewWidthIn),
		PreviewHeightIn:    ptrFloat64(DefaultPreviewHeightIn),
		PreviewPointRadius: ptrFloat64(DefaultPreviewPointRadius),
	}
}

// Load reads a Config from a JSON or YAML file on disk. See LoadFS.
func Load(path string) (*Config, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS reads a Config from fsys. The format is chosen by extension
// (.json, .yaml or .yml) and the file must be at most 1MB.
func LoadFS(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	var unmarshal func([]byte, interface{}) error
	switch ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.ASCPrecision != nil {
		if *c.ASCPrecision < 0 || *c.ASCPrecision > 17 {
			return fmt.Errorf("asc_precision must be between 0 and 17, got %d", *c.ASCPrecision)
		}
	}
	if c.PreviewWidthIn != nil && *c.PreviewWidthIn <= 0 {
		return fmt.Errorf("preview_width_in must be positive, got %f", *c.PreviewWidthIn)
	}
	if c.PreviewHeightIn != nil && *c.PreviewHeightIn <= 0 {
		return fmt.Errorf("preview_height_in must be positive, got %f", *c.PreviewHeightIn)
	}
	if c.PreviewPointRadius != nil && *c.PreviewPointRadius <= 0 {
		return fmt.Errorf("preview_point_radius must be positive, got %f", *c.PreviewPointRadius)
	}
	return nil
}

// GetStrictMagic returns the strict_magic value or the default.
func (c *Config) GetStrictMagic() bool {
	if c.StrictMagic == nil {
		return DefaultStrictMagic
	}
	return *c.StrictMagic
}

// GetAtomicWrites returns the atomic_writes value or the default.
func (c *Config) GetAtomicWrites() bool {
	if c.AtomicWrites == nil {
		return DefaultAtomicWrites
	}
	return *c.AtomicWrites
}

// GetQuiet returns the quiet value or the default.
func (c *Config) GetQuiet() bool {
	if c.Quiet == nil {
		return DefaultQuiet
	}
	return *c.Quiet
}

// GetASCPrecision returns the asc_precision value or the default.
func (c *Config) GetASCPrecision() int {
	if c.ASCPrecision == nil {
		return DefaultASCPrecision
	}
	return *c.ASCPrecision
}

// GetPreviewWidthIn returns the preview_width_in value or the default.
func (c *Config) GetPreviewWidthIn() float64 {
	if c.PreviewWidthIn == nil {
		return DefaultPreviewWidthIn
	}
	return *c.PreviewWidthIn
}

// GetPreviewHeightIn returns the preview_height_in value or the default.
func (c *Config) GetPreviewHeightIn() float64 {
	if c.PreviewHeightIn == nil {
		return DefaultPreviewHeightIn
	}
	return *c.PreviewHeightIn
}

// GetPreviewPointRadius returns the preview_point_radius value or the default.
func (c *Config) GetPreviewPointRadius() float64 {
	if c.PreviewPointRadius == nil {
		return DefaultPreviewPointRadius
	}
	return *c.PreviewPointRadius
}
