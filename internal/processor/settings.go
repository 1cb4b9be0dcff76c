package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"shrinkray/internal/codec"
)

// Settings configures one session. The controller takes a private copy at
// Start, so callers may reuse their value afterwards.
type Settings struct {
	SourceRoot  string
	Formats     []codec.Format
	MaxWidth    int // 0 = no limit
	MaxHeight   int // 0 = no limit
	WebPQuality int
	AVIFQuality int
	// OutputRoots overrides the default <SourceRoot>/<format> directory.
	OutputRoots map[codec.Format]string
}

// Validate checks the settings the UI is expected to have validated already.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.SourceRoot) == "" {
		return ErrNoSource
	}
	if len(s.Formats) == 0 {
		return ErrNoFormats
	}
	for _, f := range s.Formats {
		if _, err := codec.ParseFormat(string(f)); err != nil {
			return err
		}
		if q := s.Quality(f); q < 1 || q > 100 {
			return fmt.Errorf("%s %w (got %d)", f.Label(), ErrQuality, q)
		}
	}
	if s.MaxWidth < 0 || s.MaxHeight < 0 {
		return ErrDimension
	}
	src, err := filepath.Abs(s.SourceRoot)
	if err != nil {
		return err
	}
	for _, f := range s.Formats {
		out, err := filepath.Abs(s.OutputRoot(f))
		if err != nil {
			return err
		}
		if isWithin(src, out) {
			return fmt.Errorf("%s %w: %s", f.Label(), ErrOutputRoot, out)
		}
	}
	return nil
}

// Enabled reports whether f is one of the selected formats.
func (s *Settings) Enabled(f codec.Format) bool {
	for _, have := range s.Formats {
		if have == f {
			return true
		}
	}
	return false
}

func (s *Settings) Quality(f codec.Format) int {
	switch f {
	case codec.WebP:
		return s.WebPQuality
	case codec.AVIF:
		return s.AVIFQuality
	default:
		return 0
	}
}

// OutputRoot is the directory that mirrors SourceRoot for f.
func (s *Settings) OutputRoot(f codec.Format) string {
	if dir, ok := s.OutputRoots[f]; ok && dir != "" {
		return dir
	}
	return filepath.Join(s.SourceRoot, string(f))
}

// OutputPath mirrors relPath under f's output root with f's extension.
func (s *Settings) OutputPath(relPath string, f codec.Format) string {
	ext := filepath.Ext(relPath)
	return filepath.Join(s.OutputRoot(f), strings.TrimSuffix(relPath, ext)+f.Ext())
}

// reserved lists directory names and absolute output roots the enumerator must
// never descend into. Both format names are reserved even when only one is
// enabled; custom roots are excluded by path only.
func (s *Settings) reserved() (names []string, roots []string) {
	for _, f := range codec.Formats {
		names = append(names, string(f))
		if abs, err := filepath.Abs(s.OutputRoot(f)); err == nil {
			roots = append(roots, abs)
		}
	}
	return names, roots
}

// freeze returns a deep copy with formats de-duplicated in canonical order.
func (s Settings) freeze() Settings {
	out := s
	out.Formats = nil
	for _, f := range codec.Formats {
		if s.Enabled(f) {
			out.Formats = append(out.Formats, f)
		}
	}
	if s.OutputRoots != nil {
		out.OutputRoots = make(map[codec.Format]string, len(s.OutputRoots))
		for f, dir := range s.OutputRoots {
			out.OutputRoots[f] = dir
		}
	}
	return out
}
