package launch

import (
	"context"

	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/constants"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/launcher"
	"github.com/meza/entwine/internal/models"
	"github.com/spf13/cobra"
)

var runner launcher.Runner = launcher.ExecRunner{}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "launch",
		Aliases: []string{"play"},
		Short:   i18n.T("cmd.launch.short", i18n.Tvars{Data: &i18n.TData{"game": constants.GameName}}),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override, err := cmd.Flags().GetString("method")
			if err != nil {
				return err
			}
			return cli.Run(cmd, "launch", func(ctx context.Context, env cli.Env) (cli.Outcome, error) {
				method, err := runLaunch(ctx, env, override)
				return cli.Outcome{Extra: map[string]interface{}{"method": string(method)}}, err
			})
		},
	}
	cmd.Flags().StringP("method", "m", "", i18n.T("cmd.launch.flag.method"))
	return cmd
}

// runLaunch uses the saved launch method unless one is given. Only the executable method needs
// the game directory.
func runLaunch(ctx context.Context, env cli.Env, override string) (models.LaunchMethod, error) {
	saved, err := env.Settings.Load()
	if err != nil {
		return "", err
	}
	method := saved.LaunchMethod
	if override != "" {
		method, err = models.ParseLaunchMethod(override)
		if err != nil {
			return "", err
		}
	}

	root := ""
	if method == models.LaunchExecutable {
		root, err = env.ResolveRoot()
		if err != nil {
			return method, err
		}
	}

	if err := launcher.New(env.Fs, runner).Launch(ctx, method, root); err != nil {
		return method, err
	}
	env.Logger.Log(i18n.T("cmd.launch.started", i18n.Tvars{Data: &i18n.TData{
		"game":   constants.GameName,
		"method": string(method),
	}}), false)
	return method, nil
}
