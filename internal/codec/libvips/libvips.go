// Package libvips implements codec.Codec on top of libvips through govips.
// libvips must be started once per process; New does that and Close undoes it.
package libvips

import (
	"fmt"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"shrinkray/internal/codec"
	"shrinkray/pkg/imgutil"
)

var startOnce sync.Once

// Codec wraps libvips load, flatten, resize and export operations.
type Codec struct {
	webpEffort int
	avifSpeed  int
}

// New starts libvips with the given worker concurrency (0 lets libvips decide)
// and returns a codec using the same encoder effort as the native backend.
func New(concurrency int) *Codec {
	startOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{ConcurrencyLevel: concurrency})
	})
	return &Codec{webpEffort: 6, avifSpeed: 6}
}

// Close shuts libvips down. No codec may be used afterwards.
func (c *Codec) Close() {
	vips.Shutdown()
}

type image struct {
	ref *vips.ImageRef
}

func (i *image) Width() int  { return i.ref.Width() }
func (i *image) Height() int { return i.ref.Height() }
func (i *image) Close()      { i.ref.Close() }

func unwrap(img codec.Image) (*vips.ImageRef, error) {
	vi, ok := img.(*image)
	if !ok {
		return nil, codec.ErrForeignImage
	}
	return vi.ref, nil
}

func (c *Codec) Name() string { return "vips" }

func (c *Codec) Decode(path string) (codec.Image, error) {
	ref, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := ref.AutoRotate(); err != nil {
		ref.Close()
		return nil, fmt.Errorf("autorotate: %w", err)
	}
	return &image{ref: ref}, nil
}

// load reads path into libvips. BMP has no libvips loader, so it is decoded
// in Go and handed over as PNG.
func load(path string) (*vips.ImageRef, error) {
	if imgutil.KindFromExt(path) != imgutil.KindBMP {
		return vips.NewImageFromFile(path)
	}
	buf, err := codec.DecodeToPNG(path)
	if err != nil {
		return nil, err
	}
	return vips.NewImageFromBuffer(buf)
}

func (c *Codec) Flatten(img codec.Image) (codec.Image, error) {
	ref, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	if ref.HasAlpha() {
		if err := ref.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, fmt.Errorf("flatten: %w", err)
		}
	}
	if ref.Interpretation() != vips.InterpretationSRGB {
		if err := ref.ToColorSpace(vips.InterpretationSRGB); err != nil {
			return nil, fmt.Errorf("colourspace: %w", err)
		}
	}
	return img, nil
}

func (c *Codec) Resize(img codec.Image, width, height int) (codec.Image, error) {
	ref, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	hscale := float64(width) / float64(ref.Width())
	vscale := float64(height) / float64(ref.Height())
	if err := ref.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
		return nil, fmt.Errorf("resize: %w", err)
	}
	return img, nil
}

func (c *Codec) Encode(img codec.Image, f codec.Format, quality int) ([]byte, error) {
	ref, err := unwrap(img)
	if err != nil {
		return nil, err
	}

	var out []byte
	switch f {
	case codec.WebP:
		params := vips.NewWebpExportParams()
		params.Quality = quality
		params.ReductionEffort = c.webpEffort
		out, _, err = ref.ExportWebp(params)
	case codec.AVIF:
		params := vips.NewAvifExportParams()
		params.Quality = quality
		params.Speed = c.avifSpeed
		out, _, err = ref.ExportAvif(params)
	default:
		return nil, fmt.Errorf("%s: %w", f.Label(), codec.ErrEncoderUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%s export: %w", f.Label(), err)
	}
	return out, nil
}

// Supports reports whether this libvips build has a saver for f.
func (c *Codec) Supports(f codec.Format) error {
	var t vips.ImageType
	switch f {
	case codec.WebP:
		t = vips.ImageTypeWEBP
	case codec.AVIF:
		t = vips.ImageTypeAVIF
	default:
		return fmt.Errorf("%s: %w", f.Label(), codec.ErrEncoderUnavailable)
	}
	if !vips.IsTypeSupported(t) {
		return fmt.Errorf("%s: %w: libvips built without a saver", f.Label(), codec.ErrEncoderUnavailable)
	}
	return nil
}
