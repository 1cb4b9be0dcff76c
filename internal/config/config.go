// Package config holds runtime configuration: defaults, environment
// overrides, validation, and conversion into processor settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"shrinkray/internal/codec"
	"shrinkray/internal/processor"
)

// Backend selects the codec implementation.
type Backend string

const (
	BackendNative Backend = "native" // Go decoders + cwebp/avifenc (default).
	BackendVips   Backend = "vips"   // libvips through govips.
)

// Config holds all runtime settings. It is populated by [Default], adjusted
// by command-line flags, then checked with [Config.Validate].
type Config struct {
	// Source tree (positional argument).
	SourceRoot string

	// Output selection.
	WebP    bool   // Default: true.
	AVIF    bool   // Default: true.
	WebPDir string // Default: <source>/webp.
	AVIFDir string // Default: <source>/avif.

	// Resize bounds; 0 means no limit.
	MaxWidth  int
	MaxHeight int

	// Encoder quality, 1-100.
	WebPQuality int // Default: 80.
	AVIFQuality int // Default: 80.

	// Execution.
	Backend    Backend // Default: native, or SHRINKRAY_BACKEND.
	Workers    int     // Default: NumCPU, or SHRINKRAY_WORKERS.
	Sequential bool

	// Presentation and logging.
	Plain    bool   // Line-oriented output instead of the TUI.
	LogLevel string // Default: "info".
	LogFile  string
}

// Default returns the configuration used when no flags are given.
func Default() *Config {
	return &Config{
		WebP:        true,
		AVIF:        true,
		WebPQuality: 80,
		AVIFQuality: 80,
		Backend:     Backend(getEnv("SHRINKRAY_BACKEND", string(BackendNative))),
		Workers:     getEnvInt("SHRINKRAY_WORKERS", runtime.NumCPU()),
		LogLevel:    getEnv("SHRINKRAY_LOG_LEVEL", "info"),
	}
}

// Validate checks the fields a user can get wrong. The messages are meant to
// be shown as-is.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SourceRoot) == "" {
		errs = append(errs, processor.ErrNoSource)
	}
	if !c.WebP && !c.AVIF {
		errs = append(errs, processor.ErrNoFormats)
	}
	if c.WebP && (c.WebPQuality < 1 || c.WebPQuality > 100) {
		errs = append(errs, fmt.Errorf("--webp-quality: %w (got %d)", processor.ErrQuality, c.WebPQuality))
	}
	if c.AVIF && (c.AVIFQuality < 1 || c.AVIFQuality > 100) {
		errs = append(errs, fmt.Errorf("--avif-quality: %w (got %d)", processor.ErrQuality, c.AVIFQuality))
	}
	if c.MaxWidth < 0 || c.MaxHeight < 0 {
		errs = append(errs, processor.ErrDimension)
	}
	switch c.Backend {
	case BackendNative, BackendVips:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want native or vips)", c.Backend))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("--workers must be at least 1 (got %d)", c.Workers))
	}
	return errors.Join(errs...)
}

// Formats returns the enabled formats in output order.
func (c *Config) Formats() []codec.Format {
	var out []codec.Format
	if c.WebP {
		out = append(out, codec.WebP)
	}
	if c.AVIF {
		out = append(out, codec.AVIF)
	}
	return out
}

// Strategy maps --sequential onto a pool strategy.
func (c *Config) Strategy() processor.Strategy {
	if c.Sequential {
		return processor.Sequential
	}
	return processor.Parallel
}

// Settings validates c and builds the immutable session settings.
func (c *Config) Settings() (processor.Settings, error) {
	if err := c.Validate(); err != nil {
		return processor.Settings{}, err
	}

	root, err := filepath.Abs(c.SourceRoot)
	if err != nil {
		return processor.Settings{}, err
	}

	s := processor.Settings{
		SourceRoot:  root,
		Formats:     c.Formats(),
		MaxWidth:    c.MaxWidth,
		MaxHeight:   c.MaxHeight,
		WebPQuality: c.WebPQuality,
		AVIFQuality: c.AVIFQuality,
	}
	for f, dir := range map[codec.Format]string{codec.WebP: c.WebPDir, codec.AVIF: c.AVIFDir} {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return processor.Settings{}, err
		}
		if s.OutputRoots == nil {
			s.OutputRoots = map[codec.Format]string{}
		}
		s.OutputRoots[f] = abs
	}
	if err := s.Validate(); err != nil {
		return processor.Settings{}, err
	}
	return s, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
