// Package registry persists descriptive mod metadata next to the mods it describes.
package registry

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/meza/entwine/internal/fileutils"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const FileName = ".entwine_metadata.json"

// Records maps a mod's stripped base name to its metadata.
type Records map[string]models.ModRecord

func (records Records) Keys() []string {
	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

func Path(modsDir string) string {
	return filepath.Join(modsDir, FileName)
}

// Load never fails: a missing or unreadable file is an empty registry.
func (store *Store) Load(modsDir string) Records {
	_, span := perf.StartSpan(context.Background(), "io.registry.load",
		perf.WithAttributes(attribute.String("mods_dir", modsDir)),
	)
	defer span.End()

	data, err := afero.ReadFile(store.fs, Path(modsDir))
	if err != nil {
		span.SetAttributes(attribute.Bool("degraded", true))
		return Records{}
	}

	records := Records{}
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		span.SetAttributes(attribute.Bool("degraded", true))
		return Records{}
	}
	span.SetAttributes(attribute.Int("count", len(records)))
	return records
}

func (store *Store) Save(modsDir string, records Records) error {
	_, span := perf.StartSpan(context.Background(), "io.registry.save",
		perf.WithAttributes(attribute.String("mods_dir", modsDir), attribute.Int("count", len(records))),
	)
	defer span.End()

	if records == nil {
		records = Records{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if err := store.fs.MkdirAll(modsDir, 0755); err != nil {
		return globalerrors.IoErrorWrap(err, "create", modsDir)
	}
	return globalerrors.IoErrorWrap(fileutils.WriteFileAtomic(store.fs, Path(modsDir), data, 0644), "write", Path(modsDir))
}

func (store *Store) Upsert(modsDir string, key string, record models.ModRecord) error {
	records := store.Load(modsDir)
	records[key] = record
	return store.Save(modsDir, records)
}

func (store *Store) Get(modsDir string, key string) (models.ModRecord, bool) {
	record, ok := store.Load(modsDir)[key]
	return record, ok
}

// Find looks a record up by registry key first, then by mod id.
func (store *Store) Find(modsDir string, keyOrID string) (string, models.ModRecord, bool) {
	records := store.Load(modsDir)
	if record, ok := records[keyOrID]; ok {
		return keyOrID, record, true
	}
	for _, key := range records.Keys() {
		if records[key].ID == keyOrID {
			return key, records[key], true
		}
	}
	return "", models.ModRecord{}, false
}

// Remove reports whether a record was deleted.
func (store *Store) Remove(modsDir string, key string) (bool, error) {
	records := store.Load(modsDir)
	if _, ok := records[key]; !ok {
		return false, nil
	}
	delete(records, key)
	return true, store.Save(modsDir, records)
}

// VersionInfo reads a mod's compatibility window from the local registry only.
func (store *Store) VersionInfo(modsDir string, keyOrID string) (models.ModVersionInfo, error) {
	_, record, ok := store.Find(modsDir, keyOrID)
	if !ok {
		return models.ModVersionInfo{}, &globalerrors.NotFoundError{Subject: "Mod record", Path: keyOrID}
	}

	info := models.ModVersionInfo{
		ModID:            record.ID,
		Version:          record.Version,
		MinLoaderVersion: record.MinSilkVersion,
		MaxLoaderVersion: record.MaxSilkVersion,
	}
	if record.SilkVersion != nil {
		info.SilkVersion = *record.SilkVersion
	}
	return info, nil
}
