package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/packetintransit/meraki/internal/brand"
)

// LoadOptions controls how configs are loaded.
type LoadOptions struct {
	// StrictVersion fails if the config version doesn't match current.
	StrictVersion bool
}

// DefaultLoadOptions returns sensible defaults for loading configs.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{}
}

// LoadResult contains the loaded config and metadata about the load.
type LoadResult struct {
	Config          *Config
	Path            string
	OriginalVersion SchemaVersion
	Warnings        []string
}

// Load finds and loads the config: the explicit path if given,
// otherwise the brand config path. A missing default file is not an
// error; the defaults stand in so every verb works before setup runs.
func Load(path string) (*LoadResult, error) {
	if path != "" {
		return LoadFileWithOptions(path, DefaultLoadOptions())
	}

	path = brand.GetConfigPath()
	result, err := LoadFileWithOptions(path, DefaultLoadOptions())
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		return &LoadResult{Config: cfg, Path: path}, nil
	}
	return result, err
}

// LoadFile loads a config file (HCL or JSON).
func LoadFile(path string) (*Config, error) {
	result, err := LoadFileWithOptions(path, DefaultLoadOptions())
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadFileWithOptions loads a config file with explicit options.
func LoadFileWithOptions(path string, opts LoadOptions) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var result *LoadResult
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		result, err = LoadJSONWithOptions(data, opts)
	default:
		result, err = LoadHCLWithOptions(data, path, opts)
	}
	if err != nil {
		return nil, err
	}
	result.Path = path
	return result, nil
}

// LoadHCL loads config from HCL bytes.
func LoadHCL(data []byte, filename string) (*Config, error) {
	result, err := LoadHCLWithOptions(data, filename, DefaultLoadOptions())
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadHCLWithOptions loads HCL with explicit options.
func LoadHCLWithOptions(data []byte, filename string, opts LoadOptions) (*LoadResult, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse error: %s", diags.Error())
	}

	// Extract just the version first so an unsupported schema fails
	// with a version error rather than a decode error.
	var versionProbe struct {
		SchemaVersion string `hcl:"schema_version,optional"`
	}
	_ = gohcl.DecodeBody(file.Body, nil, &versionProbe)

	version, err := ParseVersion(versionProbe.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version: %w", err)
	}
	if !IsSupportedVersion(version) {
		return nil, fmt.Errorf("unsupported config schema version %s (supported: %v)",
			version, SupportedVersions)
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL decode error: %s", diags.Error())
	}
	cfg.ApplyDefaults()

	result := &LoadResult{
		Config:          &cfg,
		OriginalVersion: version,
		Warnings:        cfg.Validate(),
	}

	currentVersion, _ := ParseVersion(CurrentSchemaVersion)
	if opts.StrictVersion && version.Compare(currentVersion) != 0 {
		return nil, fmt.Errorf("config version %s does not match current version %s",
			version, currentVersion)
	}

	return result, nil
}

// LoadJSONWithOptions loads JSON with explicit options.
func LoadJSONWithOptions(data []byte, opts LoadOptions) (*LoadResult, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}

	version, err := ParseVersion(cfg.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version: %w", err)
	}
	if !IsSupportedVersion(version) {
		return nil, fmt.Errorf("unsupported config schema version %s (supported: %v)",
			version, SupportedVersions)
	}
	cfg.ApplyDefaults()

	return &LoadResult{
		Config:          &cfg,
		OriginalVersion: version,
		Warnings:        cfg.Validate(),
	}, nil
}

// SaveFile saves config to a file (format determined by extension).
func SaveFile(cfg *Config, path string) error {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return SaveJSON(cfg, path)
	default:
		return SaveHCL(cfg, path)
	}
}

// SaveJSON saves config as JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// SaveHCL saves config as HCL using hclwrite for formatting.
func SaveHCL(cfg *Config, path string) error {
	bytes, err := GenerateHCL(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return fmt.Errorf("failed to write HCL file: %w", err)
	}

	return nil
}

// GenerateHCL generates HCL bytes from Config.
func GenerateHCL(cfg *Config) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(cfg, f.Body())
	return f.Bytes(), nil
}
