package update

import (
	"context"

	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/progress"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: i18n.T("cmd.update.short"),
	}
	cmd.AddCommand(checkCommand(), installCommand(), versionsCommand())
	return cmd
}

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: i18n.T("cmd.update.check.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.Run(cmd, "update.check", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				available, err := runCheck(ctx, env)
				return cli.Outcome{Extra: map[string]interface{}{"updateAvailable": available != nil}}, err
			})
		},
	}
}

func installCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install [version]",
		Short: i18n.T("cmd.update.install.short"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := ""
			if len(args) == 1 {
				requested = args[0]
			}
			return cli.Run(cmd, "update.install", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				version, err := runInstall(ctx, env, requested)
				return cli.Outcome{
					Arguments: map[string]interface{}{"version": requested},
					Extra:     map[string]interface{}{"installed": version},
				}, err
			})
		},
	}
}

func versionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: i18n.T("cmd.update.versions.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return cli.Run(cmd, "update.versions", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"json": asJSON}}, runVersions(env, asJSON)
			})
		},
	}
	cmd.Flags().Bool("json", false, i18n.T("cmd.flag.json"))
	return cmd
}

func runCheck(ctx context.Context, env cli.Env) (*models.SilkVersion, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return nil, err
	}

	orchestrator := env.Orchestrator(nil)
	installed, err := orchestrator.InstalledVersion(root)
	if err != nil {
		return nil, err
	}
	available, err := orchestrator.CheckForUpdate(ctx, root)
	if err != nil {
		return nil, err
	}

	if available == nil {
		env.Println(i18n.T("cmd.update.check.up_to_date", i18n.Tvars{Data: &i18n.TData{"version": installed}}))
		return nil, nil
	}
	env.Println(i18n.T("cmd.update.check.available", i18n.Tvars{Data: &i18n.TData{
		"installed": installed,
		"version":   available.Version,
	}}))
	return available, nil
}

// runInstall installs the requested Silk release, or the latest one when none is named.
func runInstall(ctx context.Context, env cli.Env, requested string) (string, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return "", err
	}

	version := requested
	if version == "" {
		version, err = env.Orchestrator(nil).LatestVersion(ctx)
		if err != nil {
			return "", err
		}
	}

	title := i18n.T("cmd.update.install.title", i18n.Tvars{Data: &i18n.TData{"version": version}})
	err = env.WithRootLock(root, func() error {
		return env.WithProgress(title, func(sink progress.Sink) error {
			return env.Orchestrator(sink).InstallVersion(ctx, version, root)
		})
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func runVersions(env cli.Env, asJSON bool) error {
	versions := env.Orchestrator(nil).AvailableVersions()
	if asJSON {
		return env.PrintJSON(versions)
	}
	for _, version := range versions {
		env.Println(version.Version)
	}
	return nil
}
