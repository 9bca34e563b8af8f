package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

func newBoxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "box",
		Short: "Manage installed boxes",
	}
	cmd.AddCommand(newBoxListCmd(a), newBoxAddCmd(a), newBoxUpdateCmd(a), newBoxRemoveCmd(a))
	return cmd
}

func newBoxListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed boxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			boxes, _, err := a.client.BoxList(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list boxes: %w", err)
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			result, err := formatter.FormatBoxes(boxes)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newBoxAddCmd(a *app) *cobra.Command {
	var (
		provider string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "add <name> [url]",
		Short: "Download a box",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := vagrant.BoxAddOptions{
				Name:     args[0],
				Provider: provider,
				Force:    force,
				Output:   stream(cmd),
			}
			if len(args) > 1 {
				opts.URL = args[1]
			}
			return a.client.BoxAdd(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider the box is built for")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing box")
	return cmd
}

func newBoxUpdateCmd(a *app) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a box to its latest version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.BoxUpdate(cmd.Context(), args[0], provider)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider of the box to update")
	return cmd
}

func newBoxRemoveCmd(a *app) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.BoxRemove(cmd.Context(), args[0], provider)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider of the box to remove")
	return cmd
}

func newPluginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Inspect installed plugins",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plugins, _, err := a.client.PluginList(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list plugins: %w", err)
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			result, err := formatter.FormatPlugins(plugins)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), result)
			return nil
		},
	})
	return cmd
}
