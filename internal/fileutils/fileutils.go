// Package fileutils holds small afero helpers shared by the stores.
package fileutils

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// FileExists reports whether path exists. Stat errors count as absent.
func FileExists(fs afero.Fs, path string) bool {
	exists, _ := afero.Exists(fs, path)
	return exists
}

// DirExists reports whether path exists and is a directory.
func DirExists(fs afero.Fs, path string) bool {
	exists, _ := afero.DirExists(fs, path)
	return exists
}

// FirstExisting returns the first of names present in dir.
func FirstExisting(fs afero.Fs, dir string, names ...string) (string, bool) {
	for _, name := range names {
		if FileExists(fs, filepath.Join(dir, name)) {
			return name, true
		}
	}
	return "", false
}
