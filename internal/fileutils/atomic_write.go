package fileutils

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const siblingMarker = ".entwine"

// WriteFileAtomic writes data next to targetPath and renames it into place.
// An existing target is moved aside first when the filesystem cannot overwrite on rename,
// and restored if the swap fails.
func WriteFileAtomic(fs afero.Fs, targetPath string, data []byte, perm os.FileMode) error {
	tempPath, err := NextSiblingPath(fs, targetPath, ".tmp")
	if err != nil {
		return err
	}

	if err := afero.WriteFile(fs, tempPath, data, perm); err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}

	exists, err := afero.Exists(fs, targetPath)
	if err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}
	if !exists {
		if err := fs.Rename(tempPath, targetPath); err != nil {
			return cleanupTempOnError(fs, tempPath, err)
		}
		return nil
	}

	if err := fs.Rename(tempPath, targetPath); err == nil {
		return nil
	}

	backupPath, err := NextSiblingPath(fs, targetPath, ".bak")
	if err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}
	return swapWithBackup(fs, tempPath, targetPath, backupPath)
}

// NextSiblingPath returns the first unused <target>.entwine<suffix>[.N] path.
func NextSiblingPath(fs afero.Fs, targetPath string, suffix string) (string, error) {
	base := targetPath + siblingMarker + suffix

	candidate := base
	for i := 0; i < 100; i++ {
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.%d", base, i+1)
	}

	return "", fmt.Errorf("cannot allocate a free path next to %s", targetPath)
}

func RemoveIfExists(fs afero.Fs, path string) error {
	err := fs.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func swapWithBackup(fs afero.Fs, tempPath string, targetPath string, backupPath string) error {
	if err := fs.Rename(targetPath, backupPath); err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}

	if err := fs.Rename(tempPath, targetPath); err != nil {
		return restoreBackup(fs, tempPath, targetPath, backupPath, err)
	}

	if err := RemoveIfExists(fs, backupPath); err != nil {
		return fmt.Errorf("failed to remove backup file %s: %w", backupPath, err)
	}
	return nil
}

func cleanupTempOnError(fs afero.Fs, tempPath string, original error) error {
	if err := RemoveIfExists(fs, tempPath); err != nil {
		return errors.Join(original, fmt.Errorf("failed to remove temp file %s: %w", tempPath, err))
	}
	return original
}

func restoreBackup(fs afero.Fs, tempPath string, targetPath string, backupPath string, original error) error {
	result := cleanupTempOnError(fs, tempPath, original)
	if err := fs.Rename(backupPath, targetPath); err != nil {
		result = errors.Join(result, fmt.Errorf("failed to restore backup %s: %w", backupPath, err))
	}
	return result
}
