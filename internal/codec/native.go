package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"shrinkray/pkg/imgutil"
)

// Encoder turns a flattened image into encoded bytes at the given quality.
type Encoder func(img image.Image, quality int) ([]byte, error)

// Native decodes with the standard library and x/image, resamples with
// imaging, and hands encoding to per-format Encoders (external tools by default).
type Native struct {
	encoders map[Format]Encoder
	probes   map[Format]func() error
}

// NativeOption customises a Native codec.
type NativeOption func(*Native)

// WithEncoder replaces the encoder used for f.
func WithEncoder(f Format, enc Encoder) NativeOption {
	return func(n *Native) {
		n.encoders[f] = enc
		n.probes[f] = func() error { return nil }
	}
}

// WithoutEncoder removes the encoder for f so Encode reports ErrEncoderUnavailable.
func WithoutEncoder(f Format) NativeOption {
	return func(n *Native) {
		delete(n.encoders, f)
		delete(n.probes, f)
	}
}

// NewNative returns a Native codec wired to cwebp and avifenc.
func NewNative(opts ...NativeOption) *Native {
	n := &Native{
		encoders: map[Format]Encoder{
			WebP: cwebp.Encode,
			AVIF: avifenc.Encode,
		},
		probes: map[Format]func() error{
			WebP: cwebp.Available,
			AVIF: avifenc.Available,
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type nativeImage struct {
	img image.Image
}

func (i *nativeImage) Width() int  { return i.img.Bounds().Dx() }
func (i *nativeImage) Height() int { return i.img.Bounds().Dy() }
func (i *nativeImage) Close()      {}

// Wrap exposes an in-memory image to the Native codec.
func Wrap(img image.Image) Image {
	return &nativeImage{img: img}
}

// Unwrap returns the pixels behind a Native image.
func Unwrap(img Image) (image.Image, error) {
	ni, ok := img.(*nativeImage)
	if !ok {
		return nil, ErrForeignImage
	}
	return ni.img, nil
}

func (n *Native) Name() string { return "native" }

func (n *Native) Decode(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	kind, err := imgutil.DetectHeader(data)
	if err != nil {
		return nil, fmt.Errorf("sniff: %w", err)
	}
	if kind == imgutil.KindUnknown {
		return nil, fmt.Errorf("unrecognised image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}

	if kind.HasExif() {
		img = Orient(img, ReadOrientation(data))
	}
	return &nativeImage{img: img}, nil
}

// DecodeToPNG decodes path with the pure-Go decoders, applies EXIF
// orientation, and returns the pixels as PNG. Backends without a loader for
// a format (libvips has none for BMP) go through this.
func DecodeToPNG(path string) ([]byte, error) {
	img, err := (&Native{}).Decode(path)
	if err != nil {
		return nil, err
	}
	src, _ := Unwrap(img)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return buf.Bytes(), nil
}

func (n *Native) Flatten(img Image) (Image, error) {
	src, err := Unwrap(img)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return &nativeImage{img: imaging.Overlay(bg, src, image.Pt(0, 0), 1.0)}, nil
}

func (n *Native) Resize(img Image, width, height int) (Image, error) {
	src, err := Unwrap(img)
	if err != nil {
		return nil, err
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	return &nativeImage{img: imaging.Resize(src, width, height, imaging.Lanczos)}, nil
}

func (n *Native) Encode(img Image, f Format, quality int) ([]byte, error) {
	src, err := Unwrap(img)
	if err != nil {
		return nil, err
	}
	enc, ok := n.encoders[f]
	if !ok {
		return nil, fmt.Errorf("%s: %w", f.Label(), ErrEncoderUnavailable)
	}
	return enc(src, quality)
}

// Supports reports whether an encoder for f is installed.
func (n *Native) Supports(f Format) error {
	probe, ok := n.probes[f]
	if !ok {
		return fmt.Errorf("%s: %w", f.Label(), ErrEncoderUnavailable)
	}
	return probe()
}
