// Package rootlock guards an installation root against two entwine processes changing it at once.
package rootlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/meza/entwine/internal/globalerrors"
	"github.com/spf13/afero"
)

const FileName = ".entwine.lock"

type LockedError struct {
	Path   string
	Holder string
}

func (e *LockedError) Error() string {
	holder := e.Holder
	if holder == "" {
		holder = "another process"
	}
	return fmt.Sprintf("%s is locked by %s; if no other entwine is running, delete the file and retry", e.Path, holder)
}

func (e *LockedError) Is(target error) bool {
	_, ok := target.(*LockedError)
	return ok
}

type Lock struct {
	fs       afero.Fs
	path     string
	owner    string
	mu       sync.Mutex
	released bool
}

func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Acquire creates the lock file exclusively. The file records the holder's pid and start time.
func Acquire(fs afero.Fs, root string) (*Lock, error) {
	path := Path(root)
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		holder, _ := afero.ReadFile(fs, path)
		return nil, &LockedError{Path: path, Holder: strings.TrimSpace(string(holder))}
	}
	if err != nil {
		return nil, globalerrors.IoErrorWrap(err, "create", path)
	}

	owner := fmt.Sprintf("pid %d since %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339Nano))
	_, writeErr := file.WriteString(owner)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		return nil, errors.Join(globalerrors.IoErrorWrap(err, "write", path), fs.Remove(path))
	}
	return &Lock{fs: fs, path: path, owner: owner}, nil
}

// Release removes the lock file once. A file that no longer holds this lock's owner line belongs to
// another process and is left alone.
func (lock *Lock) Release() error {
	if lock == nil {
		return nil
	}
	lock.mu.Lock()
	defer lock.mu.Unlock()
	if lock.released {
		return nil
	}
	lock.released = true

	current, err := afero.ReadFile(lock.fs, lock.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return globalerrors.IoErrorWrap(err, "read", lock.path)
	}
	if string(current) != lock.owner {
		return nil
	}

	err = lock.fs.Remove(lock.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return globalerrors.IoErrorWrap(err, "remove", lock.path)
}
