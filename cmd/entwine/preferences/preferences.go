package preferences

import (
	"context"
	"path/filepath"

	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/settings"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"prefs"},
		Short:   i18n.T("cmd.settings.short"),
	}
	cmd.AddCommand(showCommand(), setLaunchCommand(), setGameDirCommand())
	return cmd
}

func showCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: i18n.T("cmd.settings.show.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return cli.Run(cmd, "settings.show", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"json": asJSON}}, runShow(env, asJSON)
			})
		},
	}
	cmd.Flags().Bool("json", false, i18n.T("cmd.flag.json"))
	return cmd
}

func setLaunchCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set-launch <steam|executable>",
		Short:     i18n.T("cmd.settings.set_launch.short"),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.LaunchSteam), string(models.LaunchExecutable)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "settings.set_launch", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"method": args[0]}}, runSetLaunch(env, args[0])
			})
		},
	}
}

func setGameDirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-game-dir <path>",
		Short: i18n.T("cmd.settings.set_game_dir.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "settings.set_game_dir", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{}, runSetGameDir(env, args[0])
			})
		},
	}
}

func runShow(env cli.Env, asJSON bool) error {
	current, err := env.Settings.Load()
	if err != nil {
		return err
	}
	if asJSON {
		return env.PrintJSON(current)
	}

	gameDir := current.GamePath
	if gameDir == "" {
		gameDir = i18n.T("cmd.settings.show.unset")
	}
	env.Println(i18n.T("cmd.settings.show.launch", i18n.Tvars{Data: &i18n.TData{"method": string(current.LaunchMethod)}}))
	env.Println(i18n.T("cmd.settings.show.game_dir", i18n.Tvars{Data: &i18n.TData{"path": gameDir}}))
	env.Println(i18n.T("cmd.settings.show.file", i18n.Tvars{Data: &i18n.TData{"path": env.Settings.Path()}}))
	return nil
}

func runSetLaunch(env cli.Env, input string) error {
	method, err := models.ParseLaunchMethod(input)
	if err != nil {
		return err
	}
	if _, err := env.Settings.Update(func(current *models.AppSettings) {
		current.LaunchMethod = method
	}); err != nil {
		return err
	}
	env.Println(i18n.T("cmd.settings.set_launch.done", i18n.Tvars{Data: &i18n.TData{"method": string(method)}}))
	return nil
}

// runSetGameDir stores an absolute path, and only after the game was found there.
func runSetGameDir(env cli.Env, input string) error {
	path, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if err := settings.ValidateGameDir(env.Fs, path); err != nil {
		return err
	}
	if _, err := env.Settings.Update(func(current *models.AppSettings) {
		current.GamePath = path
	}); err != nil {
		return err
	}
	env.Println(i18n.T("cmd.settings.set_game_dir.done", i18n.Tvars{Data: &i18n.TData{"path": path}}))
	return nil
}
