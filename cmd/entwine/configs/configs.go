package configs

import (
	"context"
	"fmt"
	"strings"

	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/modconfig"
	"github.com/meza/entwine/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"configs"},
		Short:   i18n.T("cmd.config.short"),
	}
	cmd.AddCommand(listCommand(), getCommand(), setCommand(), resetCommand())
	return cmd
}

func listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: i18n.T("cmd.config.list.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return cli.Run(cmd, "config.list", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				configs, err := runList(env, asJSON)
				return cli.Outcome{
					Arguments: map[string]interface{}{"json": asJSON},
					Extra:     map[string]interface{}{"numberOfConfigs": len(configs)},
				}, err
			})
		},
	}
	cmd.Flags().Bool("json", false, i18n.T("cmd.flag.json"))
	return cmd
}

func getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <mod> [key]",
		Short: i18n.T("cmd.config.get.short"),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			return cli.Run(cmd, "config.get", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"mod": args[0], "key": key}}, runGet(env, args[0], key)
			})
		},
	}
}

func setCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <mod> <key> <yaml-value>",
		Short: i18n.T("cmd.config.set.short"),
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "config.set", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"mod": args[0], "key": args[1]}}, runSet(env, args[0], args[1], args[2])
			})
		},
	}
}

func resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <mod>",
		Short: i18n.T("cmd.config.reset.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cmd, "config.reset", func(_ context.Context, env cli.Env) (cli.Outcome, error) {
				return cli.Outcome{Arguments: map[string]interface{}{"mod": args[0]}}, runReset(env, args[0])
			})
		},
	}
}

func store(env cli.Env) *modconfig.Store {
	return modconfig.NewStore(env.Fs, env.Logger)
}

func runList(env cli.Env, asJSON bool) ([]models.ModConfigFile, error) {
	root, err := env.ResolveRoot()
	if err != nil {
		return nil, err
	}
	configs, err := store(env).List(root)
	if err != nil {
		return nil, err
	}

	if asJSON {
		return configs, env.PrintJSON(configs)
	}
	if len(configs) == 0 {
		env.Println(i18n.T("cmd.config.list.empty"))
		return configs, nil
	}
	for _, config := range configs {
		env.Println(fmt.Sprintf("%s (%d)", config.ModID, len(config.Config)))
	}
	return configs, nil
}

// runGet prints a mod's whole config, or the value under a dotted key, as YAML.
func runGet(env cli.Env, modID string, key string) error {
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}
	config, err := store(env).Load(root, modID)
	if err != nil {
		return err
	}

	var value any = config.Config
	if key != "" {
		value, err = lookup(config.Config, key)
		if err != nil {
			return err
		}
	}

	out, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	env.Println(strings.TrimRight(string(out), "\n"))
	return nil
}

func lookup(values map[string]any, key string) (any, error) {
	var current any = values
	for _, part := range strings.Split(key, ".") {
		mapping, ok := current.(map[string]any)
		if !ok {
			return nil, &globalerrors.NotFoundError{Subject: "Config key", Path: key}
		}
		current, ok = mapping[part]
		if !ok {
			return nil, &globalerrors.NotFoundError{Subject: "Config key", Path: key}
		}
	}
	return current, nil
}

func runSet(env cli.Env, modID string, key string, value string) error {
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}
	return env.WithRootLock(root, func() error {
		if err := store(env).Set(root, modID, key, value); err != nil {
			return err
		}
		env.Println(i18n.T("cmd.config.set.done", i18n.Tvars{Data: &i18n.TData{"mod": modID, "key": key}}))
		return nil
	})
}

func runReset(env cli.Env, modID string) error {
	root, err := env.ResolveRoot()
	if err != nil {
		return err
	}
	return env.WithRootLock(root, func() error {
		if err := store(env).Reset(root, modID); err != nil {
			return err
		}
		env.Println(i18n.T("cmd.config.reset.done", i18n.Tvars{Data: &i18n.TData{"mod": modID}}))
		return nil
	})
}
