package mods

import (
	"context"
	"errors"
	"fmt"

	"github.com/meza/entwine/internal/catalog"
	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/compat"
	"github.com/meza/entwine/internal/constants"
	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/loaders"
	"github.com/meza/entwine/internal/models"
	modsManager "github.com/meza/entwine/internal/mods"
	"github.com/meza/entwine/internal/progress"
	"github.com/meza/entwine/internal/tui"
	"github.com/spf13/cobra"
)

// picker is replaced in tests; the real one needs a terminal.
var picker = tui.Pick

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mods",
		Aliases: []string{"mod"},
		Short:   i18n.T("cmd.mods.short"),
	}
	cmd.AddCommand(
		listCommand(),
		browseCommand(),
		installCommand(),
		toggleCommand("enable", true),
		toggleCommand("disable", false),
		uninstallCommand(),
		forgetCommand(),
		compatCommand(),
	)
	return cmd
}

func listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("cmd.mods.list.short"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return cli.Run(cmd, "mods.list", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				installed, err := runList(env, asJSON)
				return cli.Outcome{
					Arguments: map[string]interface{}{"json": asJSON},
					Extra:     map[string]interface{}{"numberOfMods": len(installed)},
				}, err
			})
		},
	}
	cmd.Flags().Bool("json", false, i18n.T("cmd.flag.json"))
	return cmd
}

func browseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "browse",
		Aliases: []string{"search"},
		Short:   i18n.T("cmd.mods.browse.short"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return cli.Run(cmd, "mods.browse", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				installed, err := runBrowse(ctx, env, asJSON)
				return cli.Outcome{
					Arguments: map[string]interface{}{"json": asJSON},
					Extra:     map[string]interface{}{"installed": installed},
				}, err
			})
		},
	}
	cmd.Flags().Bool("json", false, i18n.T("cmd.flag.json"))
	return cmd
}

func installCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "install <id|name>",
		Aliases: []string{"add"},
		Short:   i18n.T("cmd.mods.install.short"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "mods.install", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				record, err := runInstall(ctx, env, args[0])
				return cli.Outcome{
					Arguments: map[string]interface{}{"mod": args[0]},
					Extra:     map[string]interface{}{"modId": record.ID, "version": record.Version},
				}, err
			})
		},
	}
}

func toggleCommand(name string, enable bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <file>",
		Short: i18n.T("cmd.mods." + name + ".short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "mods."+name, func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"mod": args[0]}}, runToggle(env, args[0], enable)
			})
		},
	}
}

func uninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <file>",
		Aliases: []string{"remove", "rm"},
		Short:   i18n.T("cmd.mods.uninstall.short"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "mods.uninstall", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"mod": args[0]}}, runUninstall(env, args[0])
			})
		},
	}
}

func forgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <id>",
		Short: i18n.T("cmd.mods.forget.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "mods.forget", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"mod": args[0]}}, runForget(env, args[0])
			})
		},
	}
}

func compatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compat <id>",
		Short: i18n.T("cmd.mods.compat.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "mods.compat", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				verdict, err := runCompat(env, args[0])
				return cli.Outcome{
					Arguments: map[string]interface{}{"mod": args[0]},
					Extra:     map[string]interface{}{"compatible": verdict.Compatible},
				}, err
			})
		},
	}
}

// installedSilkVersion reads the version marker. An absent marker is not an error.
func installedSilkVersion(env cli.Env, root string) (string, bool, error) {
	version, err := loaders.NewMarkerStore(env.Fs).Read(root)
	if errors.Is(err, &globalerrors.NotFoundError{}) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return version, true, nil
}

func runList(env cli.Env, asJSON bool) ([]models.InstalledMod, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return nil, err
	}
	modsDir := modsManager.ModsDir(root)
	manager := env.Mods()
	installed, err := manager.ListInstalled(modsDir)
	if err != nil {
		return nil, err
	}

	if asJSON {
		return installed, env.PrintJSON(installed)
	}
	if len(installed) == 0 {
		env.Println(i18n.T("cmd.mods.list.empty"))
		return installed, nil
	}

	silkVersion, haveSilk, err := installedSilkVersion(env, root)
	if err != nil {
		return nil, err
	}
	for _, mod := range installed {
		line := fmt.Sprintf("%s %s %s (%s)", tui.StateIcon(mod.Enabled, env.Interactive), mod.Name, mod.Version, mod.FileName)
		if haveSilk {
			if verdict, ok := windowVerdict(manager, modsDir, mod, silkVersion); ok && !verdict.Compatible {
				line += " " + tui.WarningIcon(env.Interactive) + " " + verdict.Reason
			}
		}
		env.Println(line)
	}
	return installed, nil
}

func windowVerdict(manager *modsManager.Manager, modsDir string, mod models.InstalledMod, silkVersion string) (compat.Verdict, bool) {
	info, err := manager.Store().VersionInfo(modsDir, mod.ID)
	if err != nil {
		return compat.Verdict{}, false
	}
	verdict, err := compat.Check(silkVersion, info)
	if err != nil {
		return compat.Verdict{}, false
	}
	return verdict, true
}

// runBrowse shows the catalog. On a terminal the user can pick a mod, which is then installed.
func runBrowse(ctx context.Context, env cli.Env, asJSON bool) (string, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return "", err
	}
	available, err := env.Catalog().FetchMods(ctx)
	if err != nil {
		return "", err
	}
	installed, err := env.Mods().ListInstalled(modsManager.ModsDir(root))
	if err != nil {
		return "", err
	}
	installedIDs := make(map[string]bool, len(installed))
	for _, mod := range installed {
		installedIDs[mod.ID] = true
	}

	if asJSON {
		return "", env.PrintJSON(available)
	}

	if !env.Interactive {
		for _, mod := range available {
			line := fmt.Sprintf("%s %s %s · %s", mod.ID, mod.Name, mod.Version, mod.Author)
			if installedIDs[mod.ID] {
				line += " " + tui.SuccessIcon(false)
			}
			env.Println(line)
		}
		return "", nil
	}

	header := tui.HeaderConfig{App: constants.AppName, Version: environment.AppVersion(), Extras: []string{constants.GameName}}
	if silkVersion, haveSilk, err := installedSilkVersion(env, root); err == nil && haveSilk {
		header.Status = i18n.T("loader.silk") + " " + silkVersion
	}
	chosen, ok, err := picker(env.In, env.Out, tui.NewPickerModel(available, installedIDs, header))
	if err != nil || !ok {
		return "", err
	}
	record, err := installFromCatalog(ctx, env, root, chosen)
	return record.ID, err
}

func runInstall(ctx context.Context, env cli.Env, idOrName string) (models.ModRecord, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return models.ModRecord{}, err
	}
	available, err := env.Catalog().FetchMods(ctx)
	if err != nil {
		return models.ModRecord{}, err
	}
	mod, err := catalog.Find(available, idOrName)
	if err != nil {
		return models.ModRecord{}, err
	}
	return installFromCatalog(ctx, env, root, mod)
}

// installFromCatalog warns about a mod outside its Silk window but installs it anyway.
func installFromCatalog(ctx context.Context, env cli.Env, root string, mod models.CatalogMod) (models.ModRecord, error) {
	silkVersion, haveSilk, err := installedSilkVersion(env, root)
	if err != nil {
		return models.ModRecord{}, err
	}
	if !haveSilk {
		env.Logger.Warn(i18n.T("cmd.mods.install.no_silk"))
	} else {
		verdict, err := compat.Check(silkVersion, models.ModVersionInfo{
			ModID:            mod.ID,
			Version:          mod.Version,
			SilkVersion:      silkVersion,
			MinLoaderVersion: mod.MinSilkVersion,
			MaxLoaderVersion: mod.MaxSilkVersion,
		})
		switch {
		case err != nil:
			env.Logger.Debugf("skipping compatibility check for %s: %v", mod.ID, err)
		case !verdict.Compatible:
			env.Logger.Warn(i18n.T("cmd.mods.install.incompatible", i18n.Tvars{Data: &i18n.TData{
				"mod":    mod.Name,
				"reason": verdict.Reason,
			}}))
		}
	}

	client := env.Catalog()
	mod = client.WithAbsoluteIcon(mod)
	title := i18n.T("cmd.mods.install.title", i18n.Tvars{Data: &i18n.TData{"mod": mod.Name}})

	var record models.ModRecord
	err = env.WithRootLock(root, func() error {
		return env.WithProgress(title, func(sink progress.Sink) error {
			progress.Notify(sink, i18n.T("cmd.mods.install.downloading", i18n.Tvars{Data: &i18n.TData{"mod": mod.Name}}))
			data, err := client.Download(ctx, mod, quarterReporter(sink))
			if err != nil {
				return err
			}
			record, err = env.Mods().Install(mod, data, modsManager.ModsDir(root))
			if err != nil {
				return err
			}
			progress.Notify(sink, i18n.T("cmd.mods.install.installed", i18n.Tvars{Data: &i18n.TData{
				"mod":     record.Name,
				"version": record.Version,
			}}))
			return nil
		})
	})
	return record, err
}

// quarterReporter turns download ratios into at most four progress lines.
func quarterReporter(sink progress.Sink) func(float64) {
	reported := 0
	return func(ratio float64) {
		quarter := int(ratio * 4)
		if quarter <= reported {
			return
		}
		reported = quarter
		progress.Notify(sink, i18n.T("cmd.mods.install.progress", i18n.Tvars{Data: &i18n.TData{"percent": quarter * 25}}))
	}
}

func runToggle(env cli.Env, input string, enable bool) error {
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}
	modsDir := modsManager.ModsDir(root)
	manager := env.Mods()

	return env.WithRootLock(root, func() error {
		current, err := manager.Resolve(modsDir, input)
		if err != nil {
			return err
		}
		renamed, err := manager.Toggle(modsDir, current, enable)
		if err != nil {
			return err
		}
		key := "cmd.mods.disable.done"
		if enable {
			key = "cmd.mods.enable.done"
		}
		env.Println(i18n.T(key, i18n.Tvars{Data: &i18n.TData{"file": renamed}}))
		return nil
	})
}

func runUninstall(env cli.Env, input string) error {
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}
	modsDir := modsManager.ModsDir(root)
	manager := env.Mods()

	return env.WithRootLock(root, func() error {
		current, err := manager.Resolve(modsDir, input)
		if err != nil {
			return err
		}
		if err := manager.Uninstall(modsDir, current); err != nil {
			return err
		}
		env.Println(i18n.T("cmd.mods.uninstall.done", i18n.Tvars{Data: &i18n.TData{"file": current}}))
		return nil
	})
}

func runForget(env cli.Env, keyOrID string) error {
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}
	return env.WithRootLock(root, func() error {
		if err := env.Mods().Forget(modsManager.ModsDir(root), keyOrID); err != nil {
			return err
		}
		env.Println(i18n.T("cmd.mods.forget.done", i18n.Tvars{Data: &i18n.TData{"mod": keyOrID}}))
		return nil
	})
}

func runCompat(env cli.Env, keyOrID string) (compat.Verdict, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return compat.Verdict{}, err
	}
	silkVersion, haveSilk, err := installedSilkVersion(env, root)
	if err != nil {
		return compat.Verdict{}, err
	}
	if !haveSilk {
		return compat.Verdict{}, &globalerrors.PrerequisiteMissingError{
			Loader:       keyOrID,
			Prerequisite: models.Silk.DisplayName(),
		}
	}

	info, err := env.Mods().Store().VersionInfo(modsManager.ModsDir(root), keyOrID)
	if err != nil {
		return compat.Verdict{}, err
	}
	verdict, err := compat.Check(silkVersion, info)
	if err != nil {
		return compat.Verdict{}, err
	}

	key := "cmd.mods.compat.incompatible"
	if verdict.Compatible {
		key = "cmd.mods.compat.compatible"
	}
	env.Println(i18n.T(key, i18n.Tvars{Data: &i18n.TData{
		"mod":     keyOrID,
		"version": silkVersion,
		"reason":  verdict.Reason,
	}}))
	return verdict, nil
}
