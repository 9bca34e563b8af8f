package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

func newSSHConfigCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ssh-config [vm-name]",
		Short: "Show how to reach a machine over ssh",
		Long: `Show the ssh settings vagrant reports for a machine.

With --raw the OpenSSH config text is printed unchanged so it can be appended
to ~/.ssh/config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw {
				text, err := a.client.SSHConfig(cmd.Context(), vmArg(args))
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}

			conf, err := a.client.Conf(cmd.Context(), vmArg(args))
			if err != nil {
				return fmt.Errorf("failed to read ssh config: %w", err)
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			result, err := formatter.FormatSSHConfig(conf)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print vagrant's ssh-config text")
	return cmd
}

func newSSHCmd(a *app) *cobra.Command {
	var (
		vmName string
		extra  string
	)
	cmd := &cobra.Command{
		Use:   "ssh <command>",
		Short: "Run a command on a machine over ssh",
		Example: `  vagrantctl ssh --vm web 'uname -a'
  vagrantctl ssh --extra-args '-L 8080:localhost:80' 'sleep 60'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.client.SSH(cmd.Context(), vagrant.SSHOptions{
				VMName:    vmName,
				Command:   args[0],
				ExtraArgs: extra,
				Output:    stream(cmd),
			})
			return err
		},
	}
	cmd.Flags().StringVar(&vmName, "vm", "", "machine to connect to")
	cmd.Flags().StringVar(&extra, "extra-args", "", "arguments passed to ssh, split like a shell would")
	return cmd
}
