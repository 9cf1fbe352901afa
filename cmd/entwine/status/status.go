package status

import (
	"context"

	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/tui"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.T("cmd.status.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return cli.Run(cmd, "status", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				status, err := runStatus(ctx, env, asJSON)
				return cli.Outcome{
					Arguments: map[string]interface{}{"json": asJSON},
					Extra: map[string]interface{}{
						"silk":      status.SilkInstalled,
						"bepinex":   status.BepInExInstalled,
						"bootstrap": status.BootstrapState,
					},
				}, err
			})
		},
	}
	cmd.Flags().Bool("json", false, i18n.T("cmd.flag.json"))
	return cmd
}

func runStatus(ctx context.Context, env cli.Env, asJSON bool) (models.AppStatus, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return models.AppStatus{}, err
	}

	status, err := env.Orchestrator(nil).Status(ctx, root)
	if err != nil {
		return models.AppStatus{}, err
	}

	if asJSON {
		return status, env.PrintJSON(status)
	}

	env.Println(i18n.T("cmd.status.game_dir", i18n.Tvars{Data: &i18n.TData{"path": status.GamePath}}))
	env.Println(i18n.T("cmd.status.mods_dir", i18n.Tvars{Data: &i18n.TData{"path": status.ModsPath}}))
	env.Println(tui.StateIcon(status.SilkInstalled, env.Interactive) + " " + loaderLine(models.Silk, status.SilkInstalled, status.SilkVersion))
	env.Println(tui.StateIcon(status.BepInExInstalled, env.Interactive) + " " + loaderLine(models.BepInEx, status.BepInExInstalled, ""))
	env.Println(i18n.T("cmd.status.bootstrap", i18n.Tvars{Data: &i18n.TData{"state": status.BootstrapState}}))

	switch {
	case status.LatestVersion == "":
		env.Println(i18n.T("cmd.status.latest_unknown"))
	case status.SilkVersion != "" && status.SilkVersion != status.LatestVersion:
		env.Println(i18n.T("cmd.status.latest_available", i18n.Tvars{Data: &i18n.TData{"version": status.LatestVersion}}))
	default:
		env.Println(i18n.T("cmd.status.latest", i18n.Tvars{Data: &i18n.TData{"version": status.LatestVersion}}))
	}
	return status, nil
}

func loaderLine(kind models.LoaderKind, installed bool, version string) string {
	data := i18n.TData{"loader": kind.DisplayName(), "version": version}
	switch {
	case !installed:
		return i18n.T("cmd.status.loader_missing", i18n.Tvars{Data: &data})
	case version != "":
		return i18n.T("cmd.status.loader_version", i18n.Tvars{Data: &data})
	default:
		return i18n.T("cmd.status.loader_installed", i18n.Tvars{Data: &data})
	}
}
