package processor

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shrinkray/pkg/imgutil"
)

// Exclusions describes directories Enumerate must not descend into.
type Exclusions struct {
	// Names are matched case-insensitively against every directory name at any depth.
	Names []string
	// Roots are absolute directories, typically output roots inside the source tree.
	Roots []string
}

// Enumerate returns the root-relative paths of every regular
// file under root with a recognised image extension, sorted. It fails with
// *EnumerationError when root is missing or not a directory.
func Enumerate(root string, ex Exclusions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &EnumerationError{Root: root, Err: fs.ErrInvalid}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}

	var files []string
	err = fs.WalkDir(os.DirFS(absRoot), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == "." {
				return nil
			}
			if ex.skip(d.Name(), filepath.Join(absRoot, filepath.FromSlash(path))) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if imgutil.KindFromExt(d.Name()) == imgutil.KindUnknown {
			return nil
		}
		files = append(files, filepath.FromSlash(path))
		return nil
	})
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}

	sort.Strings(files)
	return files, nil
}

func (ex Exclusions) skip(name, full string) bool {
	for _, n := range ex.Names {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	for _, r := range ex.Roots {
		if isWithin(full, r) {
			return true
		}
	}
	return false
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}
