package codec

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Tool encodes by shelling out to a command-line encoder that reads a PNG
// and writes the target format.
type Tool struct {
	Command string
	Format  Format
	Args    func(quality int, in, out string) []string
}

var (
	cwebp = Tool{
		Command: "cwebp",
		Format:  WebP,
		Args: func(quality int, in, out string) []string {
			return []string{"-quiet", "-q", strconv.Itoa(quality), "-m", "6", in, "-o", out}
		},
	}
	avifenc = Tool{
		Command: "avifenc",
		Format:  AVIF,
		Args: func(quality int, in, out string) []string {
			return []string{"-q", strconv.Itoa(quality), "-s", "6", in, out}
		},
	}
)

// Available reports whether the tool's command is on PATH.
func (t Tool) Available() error {
	if _, err := exec.LookPath(t.Command); err != nil {
		return fmt.Errorf("%s: %w: %s not found in PATH", t.Format.Label(), ErrEncoderUnavailable, t.Command)
	}
	return nil
}

func (t Tool) Encode(img image.Image, quality int) ([]byte, error) {
	if err := t.Available(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "shrinkray-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out"+t.Format.Ext())

	f, err := os.Create(in)
	if err != nil {
		return nil, err
	}
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(f, img); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stage png: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	cmd := exec.Command(t.Command, t.Args(quality, in, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s failed: %v; output: %s", t.Command, err, strings.TrimSpace(string(output)))
	}

	return os.ReadFile(out)
}
