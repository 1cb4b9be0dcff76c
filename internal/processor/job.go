package processor

import (
	"fmt"
	"os"
	"path/filepath"

	"shrinkray/internal/codec"
)

// Execute runs one job against c. It never panics and never returns an
// error: decode failures fail the Result, encode failures are soft messages.
func Execute(c codec.Codec, job Job) (res Result) {
	res = Result{RelPath: job.RelPath}
	defer func() {
		if r := recover(); r != nil {
			res.Succeeded = false
			res.Err = fmt.Errorf("panic: %v", r)
			res.Messages = append(res.Messages, fmt.Sprintf("Error processing %s: %v", job.RelPath, res.Err))
		}
	}()

	s := job.Settings

	img, err := c.Decode(job.SourcePath)
	if err != nil {
		return failed(res, err)
	}
	defer func() { img.Close() }()

	flat, err := c.Flatten(img)
	if err != nil {
		return failed(res, err)
	}
	img = swap(img, flat)

	if w, h, ok := FitWithin(img.Width(), img.Height(), s.MaxWidth, s.MaxHeight); ok {
		resized, err := c.Resize(img, w, h)
		if err != nil {
			return failed(res, err)
		}
		img = swap(img, resized)
	}

	res.Succeeded = true
	res.Outputs = make(map[codec.Format]string, len(s.Formats))
	for _, f := range s.Formats {
		out := s.OutputPath(job.RelPath, f)
		if err := encodeTo(c, img, f, s.Quality(f), out); err != nil {
			res.Messages = append(res.Messages, fmt.Sprintf("Failed to save %s for %s: %v", f.Label(), job.RelPath, err))
			continue
		}
		res.Outputs[f] = out
		res.Messages = append(res.Messages, fmt.Sprintf("Saved %s: %s", f.Label(), out))
	}
	return res
}

func failed(res Result, err error) Result {
	res.Succeeded = false
	res.Err = err
	res.Messages = append(res.Messages, fmt.Sprintf("Error processing %s: %v", res.RelPath, err))
	return res
}

// swap releases prev when a backend returned a new image rather than
// modifying prev in place.
func swap(prev, next codec.Image) codec.Image {
	if prev != next {
		prev.Close()
	}
	return next
}

func encodeTo(c codec.Codec, img codec.Image, f codec.Format, quality int, destPath string) error {
	data, err := c.Encode(img, f, quality)
	if err != nil {
		return err
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(destDir, "shrinkray-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpFile.Name(), 0o644); err != nil {
		return err
	}

	return replaceFile(tmpFile.Name(), destPath)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
