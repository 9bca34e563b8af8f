package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore machine snapshots",
	}

	named := func(use, short string, fn func(*cobra.Command, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <name>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return fn(cmd, args[0])
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Take an unnamed snapshot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.client.SnapshotPush(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "pop",
			Short: "Restore and delete the last pushed snapshot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.client.SnapshotPop(cmd.Context())
			},
		},
		named("save", "Take a named snapshot", func(cmd *cobra.Command, name string) error {
			return a.client.SnapshotSave(cmd.Context(), name)
		}),
		named("restore", "Restore a named snapshot", func(cmd *cobra.Command, name string) error {
			return a.client.SnapshotRestore(cmd.Context(), name)
		}),
		named("delete", "Delete a named snapshot", func(cmd *cobra.Command, name string) error {
			return a.client.SnapshotDelete(cmd.Context(), name)
		}),
		&cobra.Command{
			Use:   "list",
			Short: "List snapshot names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				names, err := a.client.SnapshotList(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
	)
	return cmd
}
