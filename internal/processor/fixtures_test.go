package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"golang.org/x/image/bmp"

	"shrinkray/internal/codec"
)

// pngEncoder stands in for cwebp/avifenc so tests can read outputs back.
func pngEncoder(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// testCodec can encode WebP but, like many installs, has no AVIF encoder.
func testCodec() *codec.Native {
	return codec.NewNative(
		codec.WithEncoder(codec.WebP, pngEncoder),
		codec.WithoutEncoder(codec.AVIF),
	)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 0xff})
		}
	}
	return img
}

// halfTransparent is opaque red on the left and fully transparent on the right.
func halfTransparent(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.Set(x, y, color.NRGBA{R: 0xff, A: 0xff})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, img image.Image) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case ".bmp":
		err = bmp.Encode(f, img)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output %s: %v", path, err)
	}
	return img
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// gatedCodec blocks every Decode until gate is closed.
type gatedCodec struct {
	codec.Codec
	gate    chan struct{}
	started atomic.Int32
}

func (g *gatedCodec) Decode(path string) (codec.Image, error) {
	g.started.Add(1)
	<-g.gate
	return g.Codec.Decode(path)
}

type panicCodec struct {
	codec.Codec
}

func (panicCodec) Decode(string) (codec.Image, error) {
	panic("codec exploded")
}
