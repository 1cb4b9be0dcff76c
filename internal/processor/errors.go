package processor

import (
	"errors"
	"fmt"
)

var (
	ErrNoFiles       = errors.New("no supported image files found")
	ErrNoFormats     = errors.New("select at least one output format")
	ErrNoSource      = errors.New("select a source folder")
	ErrQuality       = errors.New("quality must be between 1 and 100")
	ErrDimension     = errors.New("max width and height must not be negative")
	ErrSessionActive = errors.New("a session is already running")
	ErrOutputRoot    = errors.New("output folder must not be the source folder or contain it")
)

// EnumerationError means the source root could not be walked.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// SetupError aborts a session before any job is dispatched.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return "setup: " + e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }
