package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var ErrInjected = errors.New("injected failure")

// FailingFs wraps an afero.Fs and fails any mutation whose path contains one of the configured fragments.
type FailingFs struct {
	afero.Fs
	FailRenameFrom []string
	FailRenameTo   []string
	FailWrite      []string
	FailRemove     []string
	FailMkdir      []string
}

func matches(path string, fragments []string) bool {
	cleaned := filepath.ToSlash(filepath.Clean(path))
	for _, fragment := range fragments {
		if strings.Contains(cleaned, filepath.ToSlash(fragment)) {
			return true
		}
	}
	return false
}

func (f FailingFs) Rename(oldname, newname string) error {
	if matches(oldname, f.FailRenameFrom) || matches(newname, f.FailRenameTo) {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: ErrInjected}
	}
	return f.Fs.Rename(oldname, newname)
}

func (f FailingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 && matches(name, f.FailWrite) {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrInjected}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f FailingFs) Create(name string) (afero.File, error) {
	if matches(name, f.FailWrite) {
		return nil, &os.PathError{Op: "create", Path: name, Err: ErrInjected}
	}
	return f.Fs.Create(name)
}

func (f FailingFs) Remove(name string) error {
	if matches(name, f.FailRemove) {
		return &os.PathError{Op: "remove", Path: name, Err: ErrInjected}
	}
	return f.Fs.Remove(name)
}

func (f FailingFs) RemoveAll(path string) error {
	if matches(path, f.FailRemove) {
		return &os.PathError{Op: "removeall", Path: path, Err: ErrInjected}
	}
	return f.Fs.RemoveAll(path)
}

func (f FailingFs) MkdirAll(path string, perm os.FileMode) error {
	if matches(path, f.FailMkdir) {
		return &os.PathError{Op: "mkdir", Path: path, Err: ErrInjected}
	}
	return f.Fs.MkdirAll(path, perm)
}

func (f FailingFs) Mkdir(name string, perm os.FileMode) error {
	if matches(name, f.FailMkdir) {
		return &os.PathError{Op: "mkdir", Path: name, Err: ErrInjected}
	}
	return f.Fs.Mkdir(name, perm)
}
