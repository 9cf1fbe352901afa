// Package settings persists user preferences in the XDG config directory.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/meza/entwine/internal/constants"
	"github.com/meza/entwine/internal/fileutils"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const fileName = "settings.json"

// ErrNoGameDir is returned when no flag, environment variable or saved setting names the game directory.
var ErrNoGameDir = errors.New("no game directory configured: pass --game-dir, set ENTWINE_GAME_DIR or run `entwine settings set-game-dir <path>`")

type Store struct {
	fs   afero.Fs
	path string
}

// NewStore keeps settings at $XDG_CONFIG_HOME/entwine/settings.json.
func NewStore(fs afero.Fs) *Store {
	return NewStoreAt(fs, filepath.Join(xdg.ConfigHome, constants.AppName, fileName))
}

func NewStoreAt(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

func (store *Store) Path() string {
	return store.path
}

// Load returns the saved settings, or the defaults when nothing has been saved yet.
func (store *Store) Load() (models.AppSettings, error) {
	_, span := perf.StartSpan(context.Background(), "io.settings.load",
		perf.WithAttributes(attribute.String("path", store.path)),
	)
	defer span.End()

	data, err := afero.ReadFile(store.fs, store.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.DefaultAppSettings(), nil
	}
	if err != nil {
		return models.AppSettings{}, globalerrors.IoErrorWrap(err, "read", store.path)
	}

	loaded := models.DefaultAppSettings()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to parse %s: %w", store.path, err)
	}
	if _, err := models.ParseLaunchMethod(string(loaded.LaunchMethod)); err != nil {
		loaded.LaunchMethod = models.LaunchSteam
	}
	return loaded, nil
}

func (store *Store) Save(settings models.AppSettings) error {
	_, span := perf.StartSpan(context.Background(), "io.settings.save",
		perf.WithAttributes(attribute.String("path", store.path)),
	)
	defer span.End()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(store.path)
	if err := store.fs.MkdirAll(dir, 0755); err != nil {
		return globalerrors.IoErrorWrap(err, "create", dir)
	}
	return globalerrors.IoErrorWrap(fileutils.WriteFileAtomic(store.fs, store.path, data, 0644), "write", store.path)
}

// Update loads, applies change and saves.
func (store *Store) Update(change func(*models.AppSettings)) (models.AppSettings, error) {
	current, err := store.Load()
	if err != nil {
		return models.AppSettings{}, err
	}
	change(&current)
	return current, store.Save(current)
}

// ResolveGameDir picks the first non-empty of the flag, the environment and the saved setting.
func ResolveGameDir(flag string, env string, saved models.AppSettings) (string, error) {
	for _, candidate := range []string{flag, env, saved.GamePath} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return filepath.Clean(trimmed), nil
		}
	}
	return "", ErrNoGameDir
}

// ValidateGameDir checks that root exists and holds one of the game binaries.
func ValidateGameDir(fs afero.Fs, root string) error {
	if !fileutils.DirExists(fs, root) {
		return &globalerrors.NotFoundError{Subject: "Game directory", Path: root}
	}
	if _, found := fileutils.FirstExisting(fs, root, constants.GameBinaries()...); found {
		return nil
	}
	return &globalerrors.NotFoundError{Subject: constants.GameName + " executable", Path: root}
}
