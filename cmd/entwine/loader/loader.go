package loader

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
		Use:   "loader",
		Short: i18n.T("cmd.loader.short"),
	}
	cmd.AddCommand(installCommand(), uninstallCommand())
	return cmd
}

func installCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "install <silk|bepinex>",
		Short:     i18n.T("cmd.loader.install.short"),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.Silk), string(models.BepInEx)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "loader.install", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"loader": args[0]}}, runInstall(ctx, env, args[0])
			})
		},
	}
}

func uninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "uninstall <silk|bepinex>",
		Aliases:   []string{"remove"},
		Short:     i18n.T("cmd.loader.uninstall.short"),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.Silk), string(models.BepInEx)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "loader.uninstall", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"loader": args[0]}}, runUninstall(ctx, env, args[0])
			})
		},
	}
}

func runInstall(ctx context.Context, env cli.Env, input string) error {
	kind, err := models.ParseLoaderKind(input)
	if err != nil {
		return err
	}
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}

	title := i18n.T("cmd.loader.install.title", i18n.Tvars{Data: &i18n.TData{"loader": kind.DisplayName()}})
	return env.WithRootLock(root, func() error {
		return env.WithProgress(title, func(sink progress.Sink) error {
			return env.Orchestrator(sink).InstallLoader(ctx, kind, root)
		})
	})
}

func runUninstall(ctx context.Context, env cli.Env, input string) error {
	kind, err := models.ParseLoaderKind(input)
	if err != nil {
		return err
	}
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}

	title := i18n.T("cmd.loader.uninstall.title", i18n.Tvars{Data: &i18n.TData{"loader": kind.DisplayName()}})
	return env.WithRootLock(root, func() error {
		return env.WithProgress(title, func(sink progress.Sink) error {
			return env.Orchestrator(sink).UninstallLoader(ctx, kind, root)
		})
	})
}
