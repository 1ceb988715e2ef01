// Package config loads run configuration from YAML over built-in defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/Rocket457/identificar-e-formatar-queries/api"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/extract"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/format"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

//go:embed defaults.yaml
var defaultsYAML []byte

// Default returns the built-in configuration.
func Default() api.Config {
	var cfg api.Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path yields the validated defaults.
func Load(path string) (api.Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, Validate(&cfg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return api.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
// Keys absent from data keep their default values.
func Parse(data []byte) (api.Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return api.Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return api.Config{}, err
	}
	return cfg, nil
}

// Validate normalizes extensions and host keys in place and checks every
// field. Failures wrap ErrInvalid.
func Validate(cfg *api.Config) error {
	if len(cfg.Extensions) == 0 {
		return fmt.Errorf("%w: no extensions to scan", ErrInvalid)
	}
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = NormalizeExt(ext)
		if cfg.Extensions[i] == "." {
			return fmt.Errorf("%w: empty extension", ErrInvalid)
		}
	}

	hosts := make(map[string]string, len(cfg.Hosts))
	for ext, style := range cfg.Hosts {
		if _, err := extract.ParseStyle(style); err != nil {
			return fmt.Errorf("%w: hosts[%s]: %v", ErrInvalid, ext, err)
		}
		hosts[NormalizeExt(ext)] = strings.ToLower(style)
	}
	cfg.Hosts = hosts

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("%w: glob %q: %v", ErrInvalid, pattern, err)
		}
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalid)
	}
	if cfg.OutputExt == "" {
		cfg.OutputExt = ".sql"
	}
	cfg.OutputExt = NormalizeExt(cfg.OutputExt)

	if !format.Supported(cfg.Dialect.Language) {
		return fmt.Errorf("%w: dialect %q (supported: %s)", ErrInvalid,
			cfg.Dialect.Language, strings.Join(format.Dialects(), ", "))
	}
	if cfg.Dialect.TabWidth < 1 {
		return fmt.Errorf("%w: tab_width must be at least 1, got %d", ErrInvalid, cfg.Dialect.TabWidth)
	}
	if cfg.Dialect.LinesBetweenQueries < 0 {
		return fmt.Errorf("%w: lines_between_queries must not be negative, got %d", ErrInvalid, cfg.Dialect.LinesBetweenQueries)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, cfg.Workers)
	}
	return nil
}

// NormalizeExt lowercases ext and adds the leading dot if missing.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
