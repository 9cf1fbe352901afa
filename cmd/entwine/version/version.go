package version

import (
	"fmt"

	"github.com/meza/entwine/internal/constants"
	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/i18n"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use: "version",
		Short: i18n.T("cmd.version.short", i18n.Tvars{
			Data: &i18n.TData{"appName": constants.AppName},
		}),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), environment.AppVersion())
		},
	}
}
