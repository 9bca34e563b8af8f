package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

// newSandboxCmd wraps the sahara plugin's sandbox subcommands
func newSandboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Drive the sahara sandbox plugin",
	}

	action := func(use, short string, fn func(*vagrant.Sandbox, context.Context, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " [vm-name]",
			Short: short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return fn(a.client.Sandbox(), cmd.Context(), vmArg(args))
			},
		}
	}

	cmd.AddCommand(
		action("on", "Enter sandbox mode", (*vagrant.Sandbox).On),
		action("off", "Leave sandbox mode", (*vagrant.Sandbox).Off),
		action("commit", "Keep the changes made in the sandbox", (*vagrant.Sandbox).Commit),
		action("rollback", "Discard the changes made in the sandbox", (*vagrant.Sandbox).Rollback),
		&cobra.Command{
			Use:   "status [vm-name]",
			Short: "Print on, off, unknown or not installed",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := a.client.Sandbox().Status(cmd.Context(), vmArg(args))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			},
		},
	)
	return cmd
}
