package entwine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meza/entwine/cmd/entwine/configs"
	"github.com/meza/entwine/cmd/entwine/launch"
	"github.com/meza/entwine/cmd/entwine/loader"
	"github.com/meza/entwine/cmd/entwine/mods"
	"github.com/meza/entwine/cmd/entwine/preferences"
	"github.com/meza/entwine/cmd/entwine/status"
	"github.com/meza/entwine/cmd/entwine/update"
	"github.com/meza/entwine/cmd/entwine/version"
	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/constants"
	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/tui"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          constants.CommandName,
		Short:        i18n.T("app.description", i18n.Tvars{Data: &i18n.TData{"game": constants.GameName}}),
		Version:      environment.AppVersion(),
		SilenceUsage: true,
	}
	cobra.MousetrapHelpText = "" // allow the app to run in windows by clicking the exe

	cli.AddGlobalFlags(rootCmd)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(
		status.Command(),
		loader.Command(),
		update.Command(),
		mods.Command(),
		configs.Command(),
		preferences.Command(),
		launch.Command(),
		version.Command(),
	)

	translateDefaultHelpFacilities(rootCmd)
	addHelpURL(rootCmd)
	fixFlagUsageAlignment(rootCmd)

	return rootCmd
}

func translateDefaultHelpFacilities(rootCmd *cobra.Command) {
	var allCommands []*cobra.Command
	var collect func(*cobra.Command)
	collect = func(cmd *cobra.Command) {
		allCommands = append(allCommands, cmd)
		for _, sub := range cmd.Commands() {
			collect(sub)
		}
	}
	collect(rootCmd)

	for _, cmd := range allCommands {
		cmd.InitDefaultHelpFlag()
		cmd.Flags().Lookup("help").Usage = i18n.T("cmd.help.template", i18n.Tvars{
			Data: &i18n.TData{"command": cmd.Name()},
		})
	}

	rootCmd.InitDefaultHelpCmd()
	helpCmd, _, e := rootCmd.Find([]string{"help"})

	if e == nil {
		helpCmd.Short = i18n.T("cmd.help.usage.short")
		helpCmd.Long = i18n.T("cmd.help.usage.long", i18n.Tvars{
			Data: &i18n.TData{"appName": rootCmd.Name()},
		})
		helpCmd.Run = func(c *cobra.Command, args []string) {
			cmd, _, e := c.Root().Find(args)
			if cmd == nil || e != nil {
				c.PrintErrln(i18n.T("cmd.help.error", i18n.Tvars{
					Data: &i18n.TData{"topic": fmt.Sprintf("%#q", args)},
				}) + "\n")
				cobra.CheckErr(c.Root().Usage())
			} else {
				cmd.InitDefaultHelpFlag()    // make possible 'help' flag to be shown
				cmd.InitDefaultVersionFlag() // make possible 'version' flag to be shown
				cobra.CheckErr(cmd.Help())
			}
		}
	}
}

func addHelpURL(rootCmd *cobra.Command) {
	footer := i18n.T("cmd.help.more", i18n.Tvars{Data: &i18n.TData{"url": environment.HelpURL()}})
	rootCmd.SetHelpTemplate(rootCmd.HelpTemplate() + "\n" + footer + "\n")
}

func fixFlagUsageAlignment(rootCmd *cobra.Command) {
	width := tui.Width(os.Stdout)
	usageTemplate := rootCmd.UsageTemplate()
	usageTemplate = strings.ReplaceAll(usageTemplate, ".FlagUsages", fmt.Sprintf(".FlagUsagesWrapped %d", width))
	rootCmd.SetUsageTemplate(usageTemplate)
}

func Execute(ctx context.Context) error {
	return Command().ExecuteContext(ctx)
}
