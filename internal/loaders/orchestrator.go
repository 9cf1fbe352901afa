// Package loaders sequences loader installs, removals and Silk version changes against one
// installation root.
package loaders

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/meza/entwine/internal/archive"
	"github.com/meza/entwine/internal/bootstrap"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/mods"
	"github.com/meza/entwine/internal/perf"
	"github.com/meza/entwine/internal/progress"
	"github.com/meza/entwine/internal/semver"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// FallbackSilkVersion is installed when the latest release cannot be discovered.
	FallbackSilkVersion = "0.6.1"
	BepInExVersion      = "5.4.23.4"
	BepInExDownloadURL  = "https://github.com/BepInEx/BepInEx/releases/download/v5.4.23.4/BepInEx_win_x64_5.4.23.4.zip"
)

var knownSilkVersions = []string{"0.6.1", "0.6.0", "0.5.0"}

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Unpacker interface {
	Unpack(data []byte, destRoot string, prefixes ...string) error
}

// Deps are the collaborators of an Orchestrator. Only Fs and Fetcher are required.
type Deps struct {
	Fs       afero.Fs
	Fetcher  Fetcher
	Unpacker Unpacker
	Versions VersionStore
	Latest   LatestVersionSource
	Merger   *bootstrap.Merger
	Sink     progress.Sink
}

type Orchestrator struct {
	fs       afero.Fs
	fetcher  Fetcher
	unpacker Unpacker
	versions VersionStore
	latest   LatestVersionSource
	merger   *bootstrap.Merger
	sink     progress.Sink
}

func NewOrchestrator(deps Deps) *Orchestrator {
	orchestrator := &Orchestrator{
		fs:       deps.Fs,
		fetcher:  deps.Fetcher,
		unpacker: deps.Unpacker,
		versions: deps.Versions,
		latest:   deps.Latest,
		merger:   deps.Merger,
		sink:     deps.Sink,
	}
	if orchestrator.unpacker == nil {
		orchestrator.unpacker = archive.NewUnpacker(deps.Fs)
	}
	if orchestrator.versions == nil {
		orchestrator.versions = NewMarkerStore(deps.Fs)
	}
	if orchestrator.latest == nil {
		orchestrator.latest = StaticLatest(FallbackSilkVersion)
	}
	if orchestrator.merger == nil {
		orchestrator.merger = bootstrap.NewMerger(deps.Fs)
	}
	if orchestrator.sink == nil {
		orchestrator.sink = progress.Discard
	}
	return orchestrator
}

func (orchestrator *Orchestrator) notify(key string, data i18n.TData) {
	if data == nil {
		progress.Notify(orchestrator.sink, i18n.T(key))
		return
	}
	progress.Notify(orchestrator.sink, i18n.T(key, i18n.Tvars{Data: &data}))
}

// IsInstalled reports whether the loader's payload directory exists under root.
func (orchestrator *Orchestrator) IsInstalled(kind models.LoaderKind, root string) bool {
	exists, _ := afero.DirExists(orchestrator.fs, filepath.Join(root, kind.PayloadDir()))
	return exists
}

func (orchestrator *Orchestrator) shimPresent(root string) bool {
	exists, _ := afero.Exists(orchestrator.fs, filepath.Join(root, models.ShimFileName))
	return exists
}

func (orchestrator *Orchestrator) requireRoot(root string) error {
	exists, err := afero.DirExists(orchestrator.fs, root)
	if err != nil {
		return globalerrors.IoErrorWrap(err, "inspect", root)
	}
	if !exists {
		return &globalerrors.NotFoundError{Subject: "Game directory", Path: root}
	}
	return nil
}

// InstallLoader fetches and unpacks the loader, then points the bootstrap file at it. Silk is
// installed at the latest published release, or FallbackSilkVersion when that cannot be found.
func (orchestrator *Orchestrator) InstallLoader(ctx context.Context, kind models.LoaderKind, root string) error {
	ctx, span := perf.StartSpan(ctx, "loaders.install",
		perf.WithAttributes(attribute.String("loader", kind.String()), attribute.String("root", root)),
	)
	defer span.End()

	if kind == models.Silk {
		version, err := orchestrator.latest.Latest(ctx)
		if err != nil {
			orchestrator.notify("loader.progress.latest_failed", i18n.TData{"version": FallbackSilkVersion})
			version = FallbackSilkVersion
		}
		span.SetAttributes(attribute.String("version", version))
		return orchestrator.InstallVersion(ctx, version, root)
	}

	if err := orchestrator.requireRoot(root); err != nil {
		return err
	}
	// Checked before downloading so a refused install leaves nothing behind.
	if err := orchestrator.merger.CheckPrerequisite(kind, root); err != nil {
		return err
	}

	name := kind.DisplayName()
	orchestrator.notify("loader.progress.downloading", i18n.TData{"loader": name})
	data, err := orchestrator.fetcher.Fetch(ctx, BepInExDownloadURL)
	if err != nil {
		return err
	}

	orchestrator.notify("loader.progress.extracting", i18n.TData{"loader": name})
	if err := orchestrator.unpacker.Unpack(data, root, kind.PayloadDir()+"/"); err != nil {
		return err
	}

	if _, err := orchestrator.merger.EnsureLoaderConfigured(kind, root); err != nil {
		return err
	}
	orchestrator.notify("loader.progress.installed", i18n.TData{"loader": name})
	return nil
}

// InstallVersion installs a specific Silk release over whatever is present and records it as installed.
func (orchestrator *Orchestrator) InstallVersion(ctx context.Context, version string, root string) error {
	ctx, span := perf.StartSpan(ctx, "loaders.install_version",
		perf.WithAttributes(attribute.String("version", version), attribute.String("root", root)),
	)
	defer span.End()

	parsed, err := semver.Parse(version)
	if err != nil {
		return err
	}
	version = parsed.String()

	if err := orchestrator.requireRoot(root); err != nil {
		return err
	}

	target := models.NewSilkVersion(version)
	orchestrator.notify("loader.progress.downloading_version", i18n.TData{"version": version})
	data, err := orchestrator.fetcher.Fetch(ctx, target.DownloadURL)
	if err != nil {
		return err
	}

	orchestrator.notify("loader.progress.extracting", i18n.TData{"loader": models.Silk.DisplayName()})
	if err := orchestrator.unpacker.Unpack(data, root, models.Silk.PayloadDir()+"/", models.ShimFileName); err != nil {
		return err
	}

	modsDir := mods.ModsDir(root)
	if err := orchestrator.fs.MkdirAll(modsDir, 0755); err != nil {
		return globalerrors.IoErrorWrap(err, "create", modsDir)
	}

	if err := orchestrator.versions.Write(root, version); err != nil {
		return err
	}

	if _, err := orchestrator.merger.EnsureLoaderConfigured(models.Silk, root); err != nil {
		return err
	}
	orchestrator.notify("loader.progress.installed_version", i18n.TData{"version": version})
	return nil
}

// UninstallLoader removes the loader's payload and its bootstrap reference. The shim counts as
// part of Silk only; it is removed when the other loader is not installed.
func (orchestrator *Orchestrator) UninstallLoader(ctx context.Context, kind models.LoaderKind, root string) error {
	_, span := perf.StartSpan(ctx, "loaders.uninstall",
		perf.WithAttributes(attribute.String("loader", kind.String()), attribute.String("root", root)),
	)
	defer span.End()

	payload := filepath.Join(root, kind.PayloadDir())
	shim := filepath.Join(root, models.ShimFileName)
	payloadPresent := orchestrator.IsInstalled(kind, root)
	ownsShim := kind == models.Silk && orchestrator.shimPresent(root)
	if !payloadPresent && !ownsShim {
		return &globalerrors.NotFoundError{Subject: kind.DisplayName(), Path: payload}
	}

	orchestrator.notify("loader.progress.uninstalling", i18n.TData{"loader": kind.DisplayName()})
	if payloadPresent {
		if err := orchestrator.fs.RemoveAll(payload); err != nil {
			return globalerrors.IoErrorWrap(err, "remove", payload)
		}
	}

	if !orchestrator.IsInstalled(kind.Other(), root) {
		if err := orchestrator.fs.Remove(shim); err != nil && !errors.Is(err, os.ErrNotExist) {
			return globalerrors.IoErrorWrap(err, "remove", shim)
		}
	}

	outcome, err := orchestrator.merger.ReleaseLoaderConfiguration(kind, root)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("bootstrap", string(outcome)))
	orchestrator.notify("loader.progress.uninstalled", i18n.TData{"loader": kind.DisplayName()})
	return nil
}

func (orchestrator *Orchestrator) InstalledVersion(root string) (string, error) {
	return orchestrator.versions.Read(root)
}

func (orchestrator *Orchestrator) LatestVersion(ctx context.Context) (string, error) {
	return orchestrator.latest.Latest(ctx)
}

// CheckForUpdate returns the latest release when it is strictly newer than the installed one,
// and nil otherwise.
func (orchestrator *Orchestrator) CheckForUpdate(ctx context.Context, root string) (*models.SilkVersion, error) {
	ctx, span := perf.StartSpan(ctx, "loaders.check_update",
		perf.WithAttributes(attribute.String("root", root)),
	)
	defer span.End()

	installed, err := orchestrator.versions.Read(root)
	if err != nil {
		return nil, err
	}

	latest, err := orchestrator.latest.Latest(ctx)
	if err != nil {
		return nil, err
	}

	newer, err := semver.IsNewer(latest, installed)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("update", newer))
	if !newer {
		return nil, nil
	}

	update := models.NewSilkVersion(latest)
	return &update, nil
}

// AvailableVersions lists the Silk releases that can be installed, newest first.
func (orchestrator *Orchestrator) AvailableVersions() []models.SilkVersion {
	sorted, _ := semver.SortDescending(knownSilkVersions)
	versions := make([]models.SilkVersion, 0, len(sorted))
	for _, version := range sorted {
		versions = append(versions, models.NewSilkVersion(version))
	}
	return versions
}

// Status inspects the root concurrently. A failed latest-version lookup leaves LatestVersion empty.
func (orchestrator *Orchestrator) Status(ctx context.Context, root string) (models.AppStatus, error) {
	ctx, span := perf.StartSpan(ctx, "loaders.status",
		perf.WithAttributes(attribute.String("root", root)),
	)
	defer span.End()

	status := models.AppStatus{
		GamePath: root,
		ModsPath: mods.ModsDir(root),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		status.SilkInstalled = orchestrator.IsInstalled(models.Silk, root) || orchestrator.shimPresent(root)
		status.BepInExInstalled = orchestrator.IsInstalled(models.BepInEx, root) && orchestrator.shimPresent(root)
		return nil
	})
	group.Go(func() error {
		version, err := orchestrator.versions.Read(root)
		if err != nil && !errors.Is(err, &globalerrors.NotFoundError{}) {
			return err
		}
		status.SilkVersion = version
		return nil
	})
	group.Go(func() error {
		state, err := orchestrator.merger.State(root)
		if err != nil {
			return err
		}
		status.BootstrapState = string(state)
		return nil
	})
	group.Go(func() error {
		latest, err := orchestrator.latest.Latest(groupCtx)
		if err == nil {
			status.LatestVersion = latest
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return models.AppStatus{}, err
	}
	return status, nil
}
