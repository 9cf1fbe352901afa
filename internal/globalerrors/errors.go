// Package globalerrors defines the error kinds shared by the loader and mod packages.
package globalerrors

import (
	"fmt"
)

type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: expected MAJOR.MINOR.PATCH", e.Version)
}

func (e *InvalidVersionError) Is(target error) bool {
	t, ok := target.(*InvalidVersionError)
	if !ok {
		return false
	}
	return t.Version == "" || e.Version == t.Version
}

// PrerequisiteMissingError reports a loader install attempted without the file it depends on.
type PrerequisiteMissingError struct {
	Loader       string
	Prerequisite string
}

func (e *PrerequisiteMissingError) Error() string {
	return fmt.Sprintf("%s requires %s to be installed first", e.Loader, e.Prerequisite)
}

func (e *PrerequisiteMissingError) Is(target error) bool {
	_, ok := target.(*PrerequisiteMissingError)
	return ok
}

type NotFoundError struct {
	Subject string
	Path    string
}

func (e *NotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s not found", e.Subject)
	}
	return fmt.Sprintf("%s not found: %s", e.Subject, e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Is(target error) bool {
	_, ok := target.(*IoError)
	return ok
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// IoErrorWrap returns nil when err is nil so call sites can wrap unconditionally.
func IoErrorWrap(err error, op string, path string) error {
	if err == nil {
		return nil
	}
	return &IoError{Op: op, Path: path, Err: err}
}

type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Is(target error) bool {
	_, ok := target.(*NetworkError)
	return ok
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type ArchiveError struct {
	Entry string
	Err   error
}

func (e *ArchiveError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("failed to unpack archive: %v", e.Err)
	}
	return fmt.Sprintf("failed to unpack archive entry %s: %v", e.Entry, e.Err)
}

func (e *ArchiveError) Is(target error) bool {
	_, ok := target.(*ArchiveError)
	return ok
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}
