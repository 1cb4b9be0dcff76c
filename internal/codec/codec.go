// Package codec defines the imaging capability the conversion pipeline runs
// against and ships a pure-Go backend for it. The libvips backend lives in
// the libvips subpackage so that only binaries that want it link against cgo.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Format is a target encoding.
type Format string

const (
	WebP Format = "webp"
	AVIF Format = "avif"
)

// Formats lists every target format in output order.
var Formats = []Format{WebP, AVIF}

// Ext returns the file extension, with leading dot, for f.
func (f Format) Ext() string {
	return "." + string(f)
}

func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// ParseFormat accepts "webp" or "avif" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case WebP:
		return WebP, nil
	case AVIF:
		return AVIF, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

var (
	// ErrEncoderUnavailable is returned by Encode when the backend has no
	// encoder for the requested format (AVIF support is commonly optional).
	ErrEncoderUnavailable = errors.New("encoder unavailable")
	// ErrForeignImage means an Image from one backend was handed to another.
	ErrForeignImage = errors.New("image does not belong to this codec")
)

// Image is a decoded pixel buffer owned by the backend that produced it.
type Image interface {
	Width() int
	Height() int
	Close()
}

// Codec is the set of imaging primitives a conversion job needs.
// Implementations must be safe for concurrent use by independent jobs.
type Codec interface {
	Name() string
	Decode(path string) (Image, error)
	// Flatten removes transparency by compositing onto opaque white and
	// coerces palette and other colour models to full-colour RGB.
	Flatten(img Image) (Image, error)
	// Resize resamples img to exactly width x height using a Lanczos-class filter.
	Resize(img Image, width, height int) (Image, error)
	Encode(img Image, f Format, quality int) ([]byte, error)
}

// Prober is implemented by backends that can report encoder availability
// without encoding anything.
type Prober interface {
	Supports(f Format) error
}
