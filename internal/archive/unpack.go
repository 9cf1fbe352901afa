// Package archive extracts zip payloads into a live directory without leaving half-written files behind.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const stagingDirName = ".entwine-staging"

type Unpacker struct {
	fs afero.Fs
}

func NewUnpacker(fs afero.Fs) *Unpacker {
	return &Unpacker{fs: fs}
}

type stagedEntry struct {
	relative string
	dir      bool
}

// Unpack extracts the entries selected by prefixes into destRoot, keeping their relative structure.
// A prefix ending in "/" selects a directory tree; any other prefix selects exactly that entry. No
// prefixes means every entry.
//
// Entries are first written to a staging directory inside destRoot and moved into place only once the
// whole archive has been read, so a corrupt archive never touches existing files.
func (unpacker *Unpacker) Unpack(data []byte, destRoot string, prefixes ...string) error {
	ctx, span := perf.StartSpan(context.Background(), "io.archive.unpack",
		perf.WithAttributes(
			attribute.String("dest_dir", destRoot),
			attribute.StringSlice("prefixes", prefixes),
			attribute.Int("bytes", len(data)),
		),
	)
	defer span.End()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return &globalerrors.ArchiveError{Err: err}
	}

	if err := unpacker.fs.MkdirAll(destRoot, 0755); err != nil {
		return globalerrors.IoErrorWrap(err, "create", destRoot)
	}

	staging := filepath.Join(destRoot, stagingDirName)
	if err := unpacker.fs.RemoveAll(staging); err != nil {
		return globalerrors.IoErrorWrap(err, "clean", staging)
	}

	entries, err := unpacker.stage(ctx, reader, staging, prefixes)
	if err != nil {
		return errors.Join(err, unpacker.cleanup(staging))
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))

	if err := unpacker.commit(ctx, entries, staging, destRoot); err != nil {
		return errors.Join(err, unpacker.cleanup(staging))
	}
	return unpacker.cleanup(staging)
}

func (unpacker *Unpacker) stage(ctx context.Context, reader *zip.Reader, staging string, prefixes []string) ([]stagedEntry, error) {
	_, span := perf.StartSpan(ctx, "io.archive.stage")
	defer span.End()

	entries := make([]stagedEntry, 0, len(reader.File))
	for _, file := range reader.File {
		name := strings.ReplaceAll(file.Name, `\`, "/")
		if !matchesPrefix(name, prefixes) {
			continue
		}

		relative, err := safeRelativePath(name)
		if err != nil {
			return nil, &globalerrors.ArchiveError{Entry: file.Name, Err: err}
		}
		if relative == "" {
			continue
		}

		target := filepath.Join(staging, filepath.FromSlash(relative))
		if file.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			if err := unpacker.fs.MkdirAll(target, 0755); err != nil {
				return nil, globalerrors.IoErrorWrap(err, "create", target)
			}
			entries = append(entries, stagedEntry{relative: relative, dir: true})
			continue
		}

		if err := unpacker.extractFile(file, target); err != nil {
			return nil, err
		}
		entries = append(entries, stagedEntry{relative: relative})
	}
	return entries, nil
}

func (unpacker *Unpacker) extractFile(file *zip.File, target string) error {
	if err := unpacker.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return globalerrors.IoErrorWrap(err, "create", filepath.Dir(target))
	}

	source, err := file.Open()
	if err != nil {
		return &globalerrors.ArchiveError{Entry: file.Name, Err: err}
	}
	defer source.Close()

	destination, err := unpacker.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return globalerrors.IoErrorWrap(err, "create", target)
	}

	_, copyErr := io.Copy(destination, source)
	closeErr := destination.Close()
	if copyErr != nil {
		return &globalerrors.ArchiveError{Entry: file.Name, Err: copyErr}
	}
	return globalerrors.IoErrorWrap(closeErr, "write", target)
}

// commit moves staged files into place one at a time. A failure here can leave a subset of the
// new files in destRoot; existing files that were not reached keep their old content.
func (unpacker *Unpacker) commit(ctx context.Context, entries []stagedEntry, staging string, destRoot string) error {
	_, span := perf.StartSpan(ctx, "io.archive.commit")
	defer span.End()

	for _, entry := range entries {
		target := filepath.Join(destRoot, filepath.FromSlash(entry.relative))
		if entry.dir {
			if err := unpacker.fs.MkdirAll(target, 0755); err != nil {
				return globalerrors.IoErrorWrap(err, "create", target)
			}
			continue
		}

		if err := unpacker.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return globalerrors.IoErrorWrap(err, "create", filepath.Dir(target))
		}
		if info, err := unpacker.fs.Stat(target); err == nil && info.IsDir() {
			return globalerrors.IoErrorWrap(fmt.Errorf("a directory is in the way"), "replace", target)
		}
		staged := filepath.Join(staging, filepath.FromSlash(entry.relative))
		if err := unpacker.fs.Rename(staged, target); err != nil {
			return globalerrors.IoErrorWrap(err, "move", target)
		}
	}
	return nil
}

func (unpacker *Unpacker) cleanup(staging string) error {
	return globalerrors.IoErrorWrap(unpacker.fs.RemoveAll(staging), "clean", staging)
}

func matchesPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		prefix = strings.ReplaceAll(prefix, `\`, "/")
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == prefix {
			return true
		}
	}
	return false
}

func safeRelativePath(name string) (string, error) {
	if path.IsAbs(name) || (len(name) > 1 && name[1] == ':') {
		return "", fmt.Errorf("absolute path %q", name)
	}
	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path %q escapes the destination", name)
	}
	return cleaned, nil
}
