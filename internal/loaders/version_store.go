package loaders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/meza/entwine/internal/fileutils"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const markerFileName = "version.txt"

// VersionStore persists the installed Silk version.
type VersionStore interface {
	Read(root string) (string, error)
	Write(root string, version string) error
}

// MarkerStore keeps the version in <root>/Silk/version.txt.
type MarkerStore struct {
	fs afero.Fs
}

func NewMarkerStore(fs afero.Fs) *MarkerStore {
	return &MarkerStore{fs: fs}
}

func MarkerPath(root string) string {
	return filepath.Join(root, models.Silk.PayloadDir(), markerFileName)
}

// Read returns the trimmed marker content, or a *globalerrors.NotFoundError when there is none.
func (store *MarkerStore) Read(root string) (string, error) {
	path := MarkerPath(root)
	_, span := perf.StartSpan(context.Background(), "io.loaders.marker.read",
		perf.WithAttributes(attribute.String("path", path)),
	)
	defer span.End()

	data, err := afero.ReadFile(store.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return "", &globalerrors.NotFoundError{Subject: "Silk version file", Path: path}
	}
	if err != nil {
		return "", globalerrors.IoErrorWrap(err, "read", path)
	}
	return strings.TrimSpace(string(data)), nil
}

func (store *MarkerStore) Write(root string, version string) error {
	path := MarkerPath(root)
	_, span := perf.StartSpan(context.Background(), "io.loaders.marker.write",
		perf.WithAttributes(attribute.String("path", path), attribute.String("version", version)),
	)
	defer span.End()

	if err := store.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return globalerrors.IoErrorWrap(err, "create", filepath.Dir(path))
	}
	return globalerrors.IoErrorWrap(fileutils.WriteFileAtomic(store.fs, path, []byte(version), 0644), "write", path)
}
