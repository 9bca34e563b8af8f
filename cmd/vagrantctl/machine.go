package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vagrant-version",
		Short: "Print the installed vagrant version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.client.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [vm-name]",
		Short: "Show the state of each machine",
		Long: `Show the state and provider of each machine in the project.

Output formats:
  -o table  Human-readable table
  -o yaml   YAML list
  -o json   JSON array`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, _, err := a.client.Status(cmd.Context(), vagrant.StatusOptions{VMName: vmArg(args)})
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			result, err := formatter.FormatStatus(entries)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [box-name [box-url]]",
		Short: "Create a Vagrantfile in the project directory",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := vagrant.InitOptions{Output: stream(cmd)}
			if len(args) > 0 {
				opts.BoxName = args[0]
			}
			if len(args) > 1 {
				opts.BoxURL = args[1]
			}
			return a.client.Init(cmd.Context(), opts)
		},
	}
}

// provisionFlag maps --provision/--no-provision onto a tri-state
func provisionFlag(cmd *cobra.Command) *bool {
	var v bool
	switch {
	case cmd.Flags().Changed("no-provision"):
		v = false
	case cmd.Flags().Changed("provision"):
		v, _ = cmd.Flags().GetBool("provision")
	default:
		return nil
	}
	return &v
}

func addProvisionFlags(cmd *cobra.Command, with *[]string) {
	cmd.Flags().Bool("provision", false, "force provisioners to run")
	cmd.Flags().Bool("no-provision", false, "skip provisioners")
	cmd.MarkFlagsMutuallyExclusive("provision", "no-provision")
	cmd.Flags().StringSliceVar(with, "provision-with", nil, "only run these provisioners")
}

func newUpCmd(a *app) *cobra.Command {
	var (
		provider string
		with     []string
	)
	cmd := &cobra.Command{
		Use:   "up [vm-name]",
		Short: "Create and start machines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Up(cmd.Context(), vagrant.UpOptions{
				VMName:        vmArg(args),
				Provider:      provider,
				Provision:     provisionFlag(cmd),
				ProvisionWith: with,
				Output:        stream(cmd),
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider to back the machine with")
	addProvisionFlags(cmd, &with)
	return cmd
}

func newProvisionCmd(a *app) *cobra.Command {
	var with []string
	cmd := &cobra.Command{
		Use:   "provision [vm-name]",
		Short: "Run provisioners against running machines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Provision(cmd.Context(), vagrant.ProvisionOptions{
				VMName:        vmArg(args),
				ProvisionWith: with,
				Output:        stream(cmd),
			})
		},
	}
	cmd.Flags().StringSliceVar(&with, "provision-with", nil, "only run these provisioners")
	return cmd
}

func newReloadCmd(a *app) *cobra.Command {
	var with []string
	cmd := &cobra.Command{
		Use:   "reload [vm-name]",
		Short: "Restart machines so Vagrantfile changes take effect",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Reload(cmd.Context(), vagrant.ReloadOptions{
				VMName:        vmArg(args),
				Provision:     provisionFlag(cmd),
				ProvisionWith: with,
				Output:        stream(cmd),
			})
		},
	}
	addProvisionFlags(cmd, &with)
	return cmd
}

func newHaltCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "halt [vm-name]",
		Short: "Shut machines down",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Halt(cmd.Context(), vagrant.HaltOptions{
				VMName: vmArg(args),
				Force:  force,
				Output: stream(cmd),
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "power off instead of shutting down")
	return cmd
}

// newMachineCmd builds the commands whose only argument is the machine name
func newMachineCmd(a *app, use, short string, fn func(*vagrant.Client, context.Context, vagrant.MachineOptions) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [vm-name]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fn(a.client, cmd.Context(), vagrant.MachineOptions{VMName: vmArg(args), Output: stream(cmd)})
		},
	}
}

func newPackageCmd(a *app) *cobra.Command {
	var file, vagrantfile string
	cmd := &cobra.Command{
		Use:   "package [vm-name]",
		Short: "Export a machine as a box file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Package(cmd.Context(), vagrant.PackageOptions{
				VMName:      vmArg(args),
				File:        file,
				Vagrantfile: vagrantfile,
				Output:      stream(cmd),
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "box file to write (vagrant's --output)")
	cmd.Flags().StringVar(&vagrantfile, "vagrantfile", "", "Vagrantfile to package with the box")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the project's Vagrantfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Validate(cmd.Context(), stream(cmd))
		},
	}
}
