package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vk/partforge/internal/app"
	"github.com/vk/partforge/internal/report"
	"github.com/vk/partforge/internal/settings"
)

func newExportCommand(v *viper.Viper, streams Streams, options []app.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export TREE_PATH...",
		Short: "Render every job in the part tree",
		Long: `Render every job in the part tree once.

TREE_PATH is a .hcl, .yaml or .yml file, or a directory searched recursively
for them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, v, streams, args, options, func(ctx context.Context, a *app.App) error {
				return a.Run(ctx)
			})
		},
	}
	addExportFlags(cmd)
	return cmd
}

func newWatchCommand(v *viper.Viper, streams Streams, options []app.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch TREE_PATH...",
		Short: "Render the part tree and render it again whenever it changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, v, streams, args, options, func(ctx context.Context, a *app.App) error {
				return a.Watch(ctx)
			})
		},
	}
	addExportFlags(cmd)
	cmd.Flags().Duration("debounce", app.DefaultDebounce, "Quiet period after a change before re-rendering.")
	return cmd
}

func newSettingsCommand(v *viper.Viper, streams Streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or reset remembered settings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the durable settings store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := settingsStore(v)
			if err != nil {
				return err
			}
			values, err := store.Load(cmd.Context())
			if err != nil {
				return exitError(err)
			}
			report.New(streams.Out).Settings(settings.SortedKeys(values), values)
			return nil
		},
	}

	var profile string
	reset := &cobra.Command{
		Use:   "reset KEY",
		Short: "Forget one remembered setting",
		Long: `Forget one remembered setting so it is asked for again.

KEY is either a store key as printed by "settings list" or a setting name
(renderer-binary-path, project-root-directory, export-definition-file-path,
output-directory); per-tree settings take the tree name from --profile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(v)
			if err != nil {
				return err
			}
			storeKey, err := forget(cmd.Context(), store, profile, args[0])
			if err != nil {
				return exitError(err)
			}
			fmt.Fprintf(streams.Out, "Removed %s.\n", storeKey)
			return nil
		},
	}
	reset.Flags().StringVar(&profile, "profile", "", "Tree name scoping per-tree settings.")

	cmd.AddCommand(list, reset)
	return cmd
}

func settingsStore(v *viper.Viper) (*settings.JSONStore, error) {
	path := v.GetString("settings-file")
	if path == "" {
		var err error
		if path, err = settings.DefaultStorePath(); err != nil {
			return nil, exitError(err)
		}
	}
	return settings.NewJSONStore(path), nil
}

// forget deletes a stored value named by store key or by setting name and
// returns the store key that was removed.
func forget(ctx context.Context, store settings.Backend, profile, name string) (string, error) {
	env := settings.Environment{Profile: profile}
	resolver := settings.NewResolver(store, settings.NoInputPrompter{}, settings.StandardDefinitions(env))
	if def := resolver.Definition(settings.Key(name)); def != nil {
		return def.StoreKey, resolver.Forget(ctx, def.Key)
	}

	values, err := store.Load(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := values[name]; !ok {
		return "", fmt.Errorf("no stored setting %q", name)
	}
	return name, store.Delete(ctx, name)
}
