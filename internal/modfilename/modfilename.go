// Package modfilename validates and derives names of entries in a mods directory.
package modfilename

import (
	"path"
	"path/filepath"
	"strings"
)

type ErrorReason string

const (
	ReasonEmpty       ErrorReason = "empty"
	ReasonDriveLetter ErrorReason = "drive_letter"
	ReasonUNCPath     ErrorReason = "unc_path"
	ReasonSeparator   ErrorReason = "path_separator"
	ReasonReserved    ErrorReason = "reserved"
)

const (
	DisabledSuffix = ".disabled"
	LibraryExt     = ".dll"
	ZipExt         = ".zip"
	SilkModExt     = ".silkmod"
)

type Error struct {
	Value  string
	Reason ErrorReason
}

func (err Error) Error() string {
	if err.Value == "" {
		return "invalid mod filename: " + string(err.Reason)
	}
	return "invalid mod filename " + err.Value + ": " + string(err.Reason)
}

// Normalize trims value and rejects anything that is not a single entry name inside the mods directory.
func Normalize(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", Error{Value: trimmed, Reason: ReasonEmpty}
	}
	if hasUNCPath(trimmed) {
		return "", Error{Value: trimmed, Reason: ReasonUNCPath}
	}
	if hasDriveLetter(trimmed) {
		return "", Error{Value: trimmed, Reason: ReasonDriveLetter}
	}
	if strings.ContainsAny(trimmed, `/\`) || filepath.Base(trimmed) != trimmed || path.Base(trimmed) != trimmed {
		return "", Error{Value: trimmed, Reason: ReasonSeparator}
	}
	if trimmed == "." || trimmed == ".." {
		return "", Error{Value: trimmed, Reason: ReasonReserved}
	}
	return trimmed, nil
}

func Display(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "(empty)"
	}
	return trimmed
}

// HasSuffix matches suffix regardless of case; files dropped in by hand are often upper case.
func HasSuffix(name string, suffix string) bool {
	return len(name) >= len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix)
}

func trimSuffix(name string, suffix string) string {
	if HasSuffix(name, suffix) {
		return name[:len(name)-len(suffix)]
	}
	return name
}

func IsDisabled(name string) bool {
	return HasSuffix(name, DisabledSuffix)
}

func Enabled(name string) string {
	return trimSuffix(name, DisabledSuffix)
}

func Disabled(name string) string {
	if IsDisabled(name) {
		return name
	}
	return name + DisabledSuffix
}

// IsArchive reports whether a catalog file name is extracted into a directory on install.
func IsArchive(fileName string) bool {
	return HasSuffix(fileName, ZipExt) || HasSuffix(fileName, SilkModExt)
}

// Key is the registry identity of an entry: the name without the disabled marker and without
// the library or archive extensions.
func Key(name string) string {
	key := Enabled(name)
	key = trimSuffix(key, LibraryExt)
	key = trimSuffix(key, ZipExt)
	key = trimSuffix(key, SilkModExt)
	return key
}

func hasUNCPath(value string) bool {
	return strings.HasPrefix(value, `\\`) || strings.HasPrefix(value, "//")
}

func hasDriveLetter(value string) bool {
	if len(value) < 2 {
		return false
	}
	return isASCIIAlpha(value[0]) && value[1] == ':'
}

func isASCIIAlpha(value byte) bool {
	return (value >= 'a' && value <= 'z') || (value >= 'A' && value <= 'Z')
}
