// Package mods joins the mods directory with the registry and performs mod lifecycle operations.
package mods

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meza/entwine/internal/archive"
	"github.com/meza/entwine/internal/fileutils"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/modfilename"
	"github.com/meza/entwine/internal/perf"
	"github.com/meza/entwine/internal/registry"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const (
	UnknownValue       = "Unknown"
	LocalDescription   = "Locally installed mod"
	disabledLibraryExt = modfilename.LibraryExt + modfilename.DisabledSuffix
)

// ModsDir is where Silk loads mods from, relative to the installation root.
func ModsDir(root string) string {
	return filepath.Join(root, models.Silk.PayloadDir(), "Mods")
}

type Manager struct {
	fs       afero.Fs
	store    *registry.Store
	unpacker *archive.Unpacker
}

func NewManager(fs afero.Fs) *Manager {
	return &Manager{
		fs:       fs,
		store:    registry.NewStore(fs),
		unpacker: archive.NewUnpacker(fs),
	}
}

func (manager *Manager) Store() *registry.Store {
	return manager.store
}

type entryShape struct {
	name    string
	enabled bool
	dir     bool
}

func classify(info os.FileInfo) (entryShape, bool) {
	name := info.Name()
	if strings.HasPrefix(name, ".") {
		return entryShape{}, false
	}
	if info.IsDir() {
		return entryShape{name: name, enabled: !modfilename.IsDisabled(name), dir: true}, true
	}
	if modfilename.HasSuffix(name, disabledLibraryExt) {
		return entryShape{name: name, enabled: false}, true
	}
	if modfilename.HasSuffix(name, modfilename.LibraryExt) {
		return entryShape{name: name, enabled: true}, true
	}
	return entryShape{}, false
}

// ListInstalled reports every mod present in modsDir. The filesystem decides presence and
// enabled state; the registry supplies descriptive fields.
func (manager *Manager) ListInstalled(modsDir string) ([]models.InstalledMod, error) {
	_, span := perf.StartSpan(context.Background(), "io.mods.list",
		perf.WithAttributes(attribute.String("mods_dir", modsDir)),
	)
	defer span.End()

	infos, err := afero.ReadDir(manager.fs, modsDir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.InstalledMod{}, nil
	}
	if err != nil {
		return nil, globalerrors.IoErrorWrap(err, "list", modsDir)
	}

	records := manager.store.Load(modsDir)
	installed := make([]models.InstalledMod, 0, len(infos))
	for _, info := range infos {
		shape, ok := classify(info)
		if !ok {
			continue
		}
		key := modfilename.Key(shape.name)
		record, found := lookup(records, key, shape.dir)
		if !found {
			record = synthesize(key)
		}
		installed = append(installed, models.InstalledMod{
			ID:          record.ID,
			Name:        record.Name,
			FileName:    shape.name,
			Enabled:     shape.enabled,
			Version:     record.Version,
			Author:      record.Author,
			Description: record.Description,
			IconPath:    record.IconPath,
			Directory:   shape.dir,
		})
	}

	span.SetAttributes(attribute.Int("count", len(installed)))
	return installed, nil
}

// lookup joins by stripped base name. Archive mods are extracted into a directory named after the
// display name, so directories also match a record by name.
func lookup(records registry.Records, key string, dir bool) (models.ModRecord, bool) {
	if record, ok := records[key]; ok {
		return record, true
	}
	if !dir {
		return models.ModRecord{}, false
	}
	for _, recordKey := range records.Keys() {
		if records[recordKey].Name == key {
			return records[recordKey], true
		}
	}
	return models.ModRecord{}, false
}

func synthesize(key string) models.ModRecord {
	return models.ModRecord{
		ID:          key,
		Name:        key,
		FileName:    key,
		Enabled:     true,
		Version:     UnknownValue,
		Author:      UnknownValue,
		Description: LocalDescription,
	}
}

// Install writes a downloaded mod into modsDir and records it as enabled. It is not transactional:
// a failure after the payload is in place leaves the payload without a record.
func (manager *Manager) Install(mod models.CatalogMod, data []byte, modsDir string) (models.ModRecord, error) {
	_, span := perf.StartSpan(context.Background(), "io.mods.install",
		perf.WithAttributes(attribute.String("mod_id", mod.ID), attribute.String("file_name", mod.FileName)),
	)
	defer span.End()

	fileName, err := modfilename.Normalize(mod.FileName)
	if err != nil {
		return models.ModRecord{}, err
	}

	if err := manager.fs.MkdirAll(modsDir, 0755); err != nil {
		return models.ModRecord{}, globalerrors.IoErrorWrap(err, "create", modsDir)
	}

	artifact := fileName
	if modfilename.IsArchive(fileName) {
		dirName, err := modfilename.Normalize(mod.Name)
		if err != nil {
			return models.ModRecord{}, err
		}
		artifact = dirName
		if err := manager.unpacker.Unpack(data, filepath.Join(modsDir, dirName)); err != nil {
			return models.ModRecord{}, err
		}
	} else {
		target := filepath.Join(modsDir, fileName)
		if err := fileutils.WriteFileAtomic(manager.fs, target, data, 0644); err != nil {
			return models.ModRecord{}, globalerrors.IoErrorWrap(err, "write", target)
		}
	}

	// A disabled copy of the same artifact would otherwise be listed next to the fresh one.
	stale := filepath.Join(modsDir, modfilename.Disabled(artifact))
	if err := manager.fs.RemoveAll(stale); err != nil {
		return models.ModRecord{}, globalerrors.IoErrorWrap(err, "remove", stale)
	}

	record := models.ModRecord{
		ID:             mod.ID,
		Name:           mod.Name,
		FileName:       artifact,
		Enabled:        true,
		Version:        mod.Version,
		Author:         mod.Author,
		Description:    mod.Description,
		IconPath:       mod.IconPath,
		MinSilkVersion: mod.MinSilkVersion,
		MaxSilkVersion: mod.MaxSilkVersion,
	}
	if err := manager.store.Upsert(modsDir, modfilename.Key(fileName), record); err != nil {
		return models.ModRecord{}, err
	}
	return record, nil
}

// Toggle adds or strips the .disabled suffix on a file or directory and returns the new entry name.
func (manager *Manager) Toggle(modsDir string, fileName string, enable bool) (string, error) {
	_, span := perf.StartSpan(context.Background(), "io.mods.toggle",
		perf.WithAttributes(attribute.String("file_name", fileName), attribute.Bool("enable", enable)),
	)
	defer span.End()

	name, err := modfilename.Normalize(fileName)
	if err != nil {
		return "", err
	}

	current := filepath.Join(modsDir, name)
	if err := manager.requireEntry(current); err != nil {
		return "", err
	}

	targetName := modfilename.Disabled(name)
	if enable {
		targetName = modfilename.Enabled(name)
	}
	if targetName == name {
		return name, nil
	}

	target := filepath.Join(modsDir, targetName)
	taken, err := afero.Exists(manager.fs, target)
	if err != nil {
		return "", globalerrors.IoErrorWrap(err, "inspect", target)
	}
	if taken {
		return "", globalerrors.IoErrorWrap(os.ErrExist, "rename to", target)
	}

	if err := manager.fs.Rename(current, target); err != nil {
		return "", globalerrors.IoErrorWrap(err, "rename", current)
	}
	return targetName, nil
}

// Uninstall deletes the file or directory. The registry record is kept.
func (manager *Manager) Uninstall(modsDir string, fileName string) error {
	_, span := perf.StartSpan(context.Background(), "io.mods.uninstall",
		perf.WithAttributes(attribute.String("file_name", fileName)),
	)
	defer span.End()

	name, err := modfilename.Normalize(fileName)
	if err != nil {
		return err
	}

	target := filepath.Join(modsDir, name)
	if err := manager.requireEntry(target); err != nil {
		return err
	}
	return globalerrors.IoErrorWrap(manager.fs.RemoveAll(target), "remove", target)
}

// Forget removes a registry record explicitly, by key or by mod id.
func (manager *Manager) Forget(modsDir string, keyOrID string) error {
	key, _, ok := manager.store.Find(modsDir, keyOrID)
	if !ok {
		return &globalerrors.NotFoundError{Subject: "Mod record", Path: keyOrID}
	}
	_, err := manager.store.Remove(modsDir, key)
	return err
}

func (manager *Manager) Record(modsDir string, keyOrID string) (models.ModRecord, bool) {
	_, record, ok := manager.store.Find(modsDir, keyOrID)
	return record, ok
}

// Resolve maps user input (an exact entry name, an entry name missing its .disabled suffix, a
// registry key, or a mod id) to the entry currently on disk.
func (manager *Manager) Resolve(modsDir string, input string) (string, error) {
	name, err := modfilename.Normalize(input)
	if err != nil {
		return "", err
	}

	installed, err := manager.ListInstalled(modsDir)
	if err != nil {
		return "", err
	}

	candidates := make([]string, 0, 1)
	for _, mod := range installed {
		if mod.FileName == name {
			return mod.FileName, nil
		}
		if modfilename.Enabled(mod.FileName) == name || modfilename.Key(mod.FileName) == name || mod.ID == name {
			candidates = append(candidates, mod.FileName)
		}
	}

	if len(candidates) == 0 {
		return "", &globalerrors.NotFoundError{Subject: "Mod file", Path: filepath.Join(modsDir, name)}
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

func (manager *Manager) requireEntry(path string) error {
	_, err := manager.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return &globalerrors.NotFoundError{Subject: "Mod file", Path: path}
	}
	return globalerrors.IoErrorWrap(err, "inspect", path)
}
