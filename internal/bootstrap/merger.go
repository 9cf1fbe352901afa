// Package bootstrap reconciles doorstop_config.ini, the one file both loaders boot through.
package bootstrap

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

const (
	FileName = "doorstop_config.ini"

	GeneralSection   = "General"
	TargetKey        = "target_assembly"
	EnabledKey       = "enabled"
	ChainloadSection = "Chainload"
	ChainloadKey     = "assembly"
)

const (
	SilkAssembly    = `Silk\Silk.dll`
	BepInExAssembly = `BepInEx\core\BepInEx.Preloader.dll`
)

type State string

const (
	Absent      State = "absent"
	SilkOnly    State = "silk-only"
	BepInExOnly State = "bepinex-only"
	Both        State = "both"
	Foreign     State = "foreign"
)

type Outcome string

const (
	Created   Outcome = "created"
	Unchanged Outcome = "unchanged"
	Rewritten Outcome = "rewritten"
	Deleted   Outcome = "deleted"
	Untouched Outcome = "untouched"
)

func markerTokens(loader models.LoaderKind) []string {
	dir := loader.PayloadDir()
	return []string{dir + `\`, dir + "/"}
}

func AssemblyFor(loader models.LoaderKind) string {
	if loader == models.BepInEx {
		return BepInExAssembly
	}
	return SilkAssembly
}

func references(text string, loader models.LoaderKind) bool {
	for _, token := range markerTokens(loader) {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

type Merger struct {
	fs afero.Fs
}

func NewMerger(fs afero.Fs) *Merger {
	return &Merger{fs: fs}
}

func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Snapshot is what the merger learned about the file at one root.
type Snapshot struct {
	State     State
	Target    string
	Secondary string
}

func (merger *Merger) Inspect(root string) (Snapshot, error) {
	doc, exists, err := merger.read(context.Background(), root)
	if err != nil {
		return Snapshot{}, err
	}
	if !exists {
		return Snapshot{State: Absent}, nil
	}

	target, _ := doc.Get(GeneralSection, TargetKey)
	secondary, _ := doc.Get(ChainloadSection, ChainloadKey)
	return Snapshot{State: classify(doc), Target: target, Secondary: secondary}, nil
}

func (merger *Merger) State(root string) (State, error) {
	snapshot, err := merger.Inspect(root)
	if err != nil {
		return "", err
	}
	return snapshot.State, nil
}

func classify(doc *Document) State {
	silk := references(doc.String(), models.Silk)
	bepinex := references(doc.String(), models.BepInEx)
	switch {
	case silk && bepinex:
		return Both
	case silk:
		return SilkOnly
	case bepinex:
		return BepInExOnly
	default:
		return Foreign
	}
}

// CheckPrerequisite fails when BepInEx is requested but Silk's shim is not at the root.
func (merger *Merger) CheckPrerequisite(loader models.LoaderKind, root string) error {
	if loader != models.BepInEx {
		return nil
	}
	shim := filepath.Join(root, models.ShimFileName)
	exists, err := afero.Exists(merger.fs, shim)
	if err != nil {
		return globalerrors.IoErrorWrap(err, "inspect", shim)
	}
	if !exists {
		return &globalerrors.PrerequisiteMissingError{
			Loader:       models.BepInEx.DisplayName(),
			Prerequisite: models.Silk.DisplayName() + " (" + models.ShimFileName + ")",
		}
	}
	return nil
}

func (merger *Merger) EnsureLoaderConfigured(loader models.LoaderKind, root string) (Outcome, error) {
	ctx, span := perf.StartSpan(context.Background(), "io.bootstrap.ensure",
		perf.WithAttributes(attribute.String("loader", loader.String()), attribute.String("root", root)),
	)
	defer span.End()

	doc, exists, err := merger.read(ctx, root)
	if err != nil {
		return "", err
	}

	if exists && references(doc.String(), loader) {
		span.SetAttributes(attribute.String("outcome", string(Unchanged)))
		return Unchanged, nil
	}

	if err := merger.CheckPrerequisite(loader, root); err != nil {
		return "", err
	}

	if !exists {
		if err := merger.write(ctx, root, merger.fresh(loader, root)); err != nil {
			return "", err
		}
		span.SetAttributes(attribute.String("outcome", string(Created)))
		return Created, nil
	}

	if classify(doc) == Foreign {
		span.SetAttributes(attribute.String("outcome", string(Untouched)))
		return Untouched, nil
	}

	// The file references only the other loader.
	if loader == models.BepInEx {
		doc.Set(GeneralSection, TargetKey, BepInExAssembly)
		doc.Set(ChainloadSection, ChainloadKey, SilkAssembly)
	} else {
		doc.Set(ChainloadSection, ChainloadKey, SilkAssembly)
	}

	if err := merger.write(ctx, root, doc); err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("outcome", string(Rewritten)))
	return Rewritten, nil
}

func (merger *Merger) ReleaseLoaderConfiguration(loader models.LoaderKind, root string) (Outcome, error) {
	ctx, span := perf.StartSpan(context.Background(), "io.bootstrap.release",
		perf.WithAttributes(attribute.String("loader", loader.String()), attribute.String("root", root)),
	)
	defer span.End()

	doc, exists, err := merger.read(ctx, root)
	if err != nil {
		return "", err
	}
	if !exists || !references(doc.String(), loader) {
		return Untouched, nil
	}

	target, _ := doc.Get(GeneralSection, TargetKey)
	secondary, _ := doc.Get(ChainloadSection, ChainloadKey)
	other := loader.Other()

	switch {
	case references(target, loader):
		if references(secondary, other) || merger.payloadPresent(root, other) {
			doc.Set(GeneralSection, TargetKey, AssemblyFor(other))
			doc.RemoveSection(ChainloadSection)
			if err := merger.write(ctx, root, doc); err != nil {
				return "", err
			}
			return Rewritten, nil
		}
		if err := merger.fs.Remove(Path(root)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", globalerrors.IoErrorWrap(err, "delete", Path(root))
		}
		return Deleted, nil
	case references(secondary, loader):
		doc.RemoveSection(ChainloadSection)
		if err := merger.write(ctx, root, doc); err != nil {
			return "", err
		}
		return Rewritten, nil
	default:
		// Mentioned outside the keys this tool manages, so it was edited by hand.
		return Untouched, nil
	}
}

func (merger *Merger) fresh(loader models.LoaderKind, root string) *Document {
	doc := NewDocument()
	doc.Set(GeneralSection, EnabledKey, "true")

	bepinexPresent := loader == models.BepInEx || merger.payloadPresent(root, models.BepInEx)
	silkPresent := loader == models.Silk || merger.payloadPresent(root, models.Silk)

	if bepinexPresent {
		doc.Set(GeneralSection, TargetKey, BepInExAssembly)
		if silkPresent {
			doc.Set(ChainloadSection, ChainloadKey, SilkAssembly)
		}
		return doc
	}
	doc.Set(GeneralSection, TargetKey, SilkAssembly)
	return doc
}

func (merger *Merger) payloadPresent(root string, loader models.LoaderKind) bool {
	return fileutils.DirExists(merger.fs, filepath.Join(root, loader.PayloadDir()))
}

func (merger *Merger) read(ctx context.Context, root string) (*Document, bool, error) {
	_, span := perf.StartSpan(ctx, "io.bootstrap.read")
	defer span.End()

	data, err := afero.ReadFile(merger.fs, Path(root))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, globalerrors.IoErrorWrap(err, "read", Path(root))
	}
	return ParseDocument(data), true, nil
}

func (merger *Merger) write(ctx context.Context, root string, doc *Document) error {
	_, span := perf.StartSpan(ctx, "io.bootstrap.write")
	defer span.End()

	return globalerrors.IoErrorWrap(fileutils.WriteFileAtomic(merger.fs, Path(root), doc.Bytes(), 0644), "write", Path(root))
}
