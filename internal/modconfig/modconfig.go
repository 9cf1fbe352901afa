// Package modconfig reads and edits the per-mod YAML files Silk keeps under Silk/Config/Mods.
package modconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meza/entwine/internal/fileutils"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/logger"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/modfilename"
	"github.com/meza/entwine/internal/perf"
	pkgErrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

const extension = ".yaml"

var ErrNotMapping = errors.New("config root must be a mapping")

type Store struct {
	fs     afero.Fs
	logger *logger.Logger
}

func NewStore(fs afero.Fs, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{fs: fs, logger: log}
}

func Dir(root string) string {
	return filepath.Join(root, models.Silk.PayloadDir(), "Config", "Mods")
}

func (store *Store) path(root string, modID string) (string, error) {
	name, err := modfilename.Normalize(modID)
	if err != nil {
		return "", err
	}
	return filepath.Join(Dir(root), name+extension), nil
}

// List loads every config file. Files that cannot be read or parsed are skipped.
func (store *Store) List(root string) ([]models.ModConfigFile, error) {
	dir := Dir(root)
	_, span := perf.StartSpan(context.Background(), "io.modconfig.list",
		perf.WithAttributes(attribute.String("config_dir", dir)),
	)
	defer span.End()

	infos, err := afero.ReadDir(store.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.ModConfigFile{}, nil
	}
	if err != nil {
		return nil, globalerrors.IoErrorWrap(err, "list", dir)
	}

	configs := make([]models.ModConfigFile, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != extension {
			continue
		}
		modID := strings.TrimSuffix(info.Name(), extension)
		config, err := store.Load(root, modID)
		if err != nil {
			store.logger.Debugf("skipping config %s: %v", info.Name(), err)
			continue
		}
		configs = append(configs, config)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].ModName < configs[j].ModName
	})
	return configs, nil
}

func (store *Store) Load(root string, modID string) (models.ModConfigFile, error) {
	doc, err := store.read(root, modID)
	if err != nil {
		return models.ModConfigFile{}, err
	}

	values := map[string]any{}
	if len(doc.Content) > 0 {
		if err := doc.Content[0].Decode(&values); err != nil {
			return models.ModConfigFile{}, pkgErrors.Wrapf(err, "config for %s", modID)
		}
	}
	return models.ModConfigFile{ModID: modID, ModName: modID, Config: values}, nil
}

// Set assigns a YAML value at a dotted key path, creating intermediate mappings. Comments and
// key order of the rest of the file are kept.
func (store *Store) Set(root string, modID string, key string, rawValue string) error {
	_, span := perf.StartSpan(context.Background(), "io.modconfig.set",
		perf.WithAttributes(attribute.String("mod_id", modID), attribute.String("key", key)),
	)
	defer span.End()

	keys, err := splitKey(key)
	if err != nil {
		return err
	}

	var value yaml.Node
	if err := yaml.Unmarshal([]byte(rawValue), &value); err != nil {
		return pkgErrors.Wrapf(err, "invalid value for %s", key)
	}
	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if len(value.Content) > 0 {
		valueNode = value.Content[0]
	}

	doc, err := store.read(root, modID)
	if err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		doc.Kind = yaml.DocumentNode
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	if err := setPath(doc.Content[0], keys, valueNode); err != nil {
		return pkgErrors.Wrapf(err, "cannot set %s", key)
	}
	return store.write(root, modID, doc)
}

// Reset deletes the file so Silk recreates it with defaults.
func (store *Store) Reset(root string, modID string) error {
	path, err := store.path(root, modID)
	if err != nil {
		return err
	}
	err = store.fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return &globalerrors.NotFoundError{Subject: "Mod config", Path: path}
	}
	return globalerrors.IoErrorWrap(err, "delete", path)
}

func (store *Store) read(root string, modID string) (*yaml.Node, error) {
	path, err := store.path(root, modID)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(store.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &globalerrors.NotFoundError{Subject: "Mod config", Path: path}
	}
	if err != nil {
		return nil, globalerrors.IoErrorWrap(err, "read", path)
	}

	doc := &yaml.Node{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, pkgErrors.Wrapf(err, "config for %s", modID)
	}
	if len(doc.Content) > 0 && doc.Content[0].Kind != yaml.MappingNode {
		return nil, pkgErrors.Wrapf(ErrNotMapping, "config for %s", modID)
	}
	return doc, nil
}

func (store *Store) write(root string, modID string, doc *yaml.Node) error {
	path, err := store.path(root, modID)
	if err != nil {
		return err
	}

	var builder strings.Builder
	encoder := yaml.NewEncoder(&builder)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return pkgErrors.Wrapf(err, "config for %s", modID)
	}
	if err := encoder.Close(); err != nil {
		return pkgErrors.Wrapf(err, "config for %s", modID)
	}

	return globalerrors.IoErrorWrap(fileutils.WriteFileAtomic(store.fs, path, []byte(builder.String()), 0644), "write", path)
}

func splitKey(key string) ([]string, error) {
	keys := strings.Split(strings.TrimSpace(key), ".")
	for _, part := range keys {
		if part == "" {
			return nil, pkgErrors.Errorf("invalid key path %q", key)
		}
	}
	return keys, nil
}

func setPath(node *yaml.Node, keys []string, value *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return ErrNotMapping
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != keys[0] {
			continue
		}
		if len(keys) == 1 {
			node.Content[i+1] = value
			return nil
		}
		return setPath(node.Content[i+1], keys[1:], value)
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: keys[0]}
	if len(keys) == 1 {
		node.Content = append(node.Content, keyNode, value)
		return nil
	}
	child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	node.Content = append(node.Content, keyNode, child)
	return setPath(child, keys[1:], value)
}
