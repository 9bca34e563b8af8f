package vagrant

import (
	"context"
	"regexp"
	"strings"

	"github.com/vagrant-mcp/govagrant/internal/errors"
)

// MachineOptions selects the machine for single-target commands. An empty
// VMName targets every machine in the project.
type MachineOptions struct {
	VMName string
	Output Output
}

// InitOptions configures `vagrant init`
type InitOptions struct {
	BoxName string
	// BoxURL is only passed when BoxName is set
	BoxURL string
	Output Output
}

// UpOptions configures `vagrant up`
type UpOptions struct {
	VMName   string
	Provider string
	// Provision forces provisioners on or off; nil keeps vagrant's default
	Provision     *bool
	ProvisionWith []string
	Output        Output
}

// ProvisionOptions configures `vagrant provision`
type ProvisionOptions struct {
	VMName        string
	ProvisionWith []string
	Output        Output
}

// ReloadOptions configures `vagrant reload`
type ReloadOptions struct {
	VMName        string
	Provision     *bool
	ProvisionWith []string
	Output        Output
}

// HaltOptions configures `vagrant halt`
type HaltOptions struct {
	VMName string
	Force  bool
	Output Output
}

// PackageOptions configures `vagrant package`
type PackageOptions struct {
	VMName string
	// File is the box file to write, passed as --output
	File        string
	Vagrantfile string
	Output      Output
}

var versionPattern = regexp.MustCompile(`(?m)^Vagrant (.+)$`)

// Version returns the installed vagrant version, e.g. "2.4.1"
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.capture(ctx, Output{}, []string{"--version"})
	if err != nil {
		return "", err
	}
	m := versionPattern.FindSubmatch(out)
	if m == nil {
		return "", errors.ParseFailed(1, strings.TrimSpace(string(out)), "unrecognised version output")
	}
	return strings.TrimSpace(string(m[1])), nil
}

// Init creates a Vagrantfile in the project directory
func (c *Client) Init(ctx context.Context, opts InitOptions) error {
	args := []string{"init"}
	if opts.BoxName != "" {
		args = append(args, opts.BoxName)
		if opts.BoxURL != "" {
			args = append(args, opts.BoxURL)
		}
	} else if opts.BoxURL != "" {
		return errors.InvalidInput("box URL given without a box name")
	}
	return c.call(ctx, opts.Output, args)
}

func provisionFlags(provision *bool, with []string) []string {
	var args []string
	if provision != nil {
		if *provision {
			args = append(args, "--provision")
		} else {
			args = append(args, "--no-provision")
		}
	}
	return append(args, provisionWith(with)...)
}

func provisionWith(with []string) []string {
	if len(with) == 0 {
		return nil
	}
	return []string{"--provision-with", strings.Join(with, ",")}
}

// Up creates and starts machines
func (c *Client) Up(ctx context.Context, opts UpOptions) error {
	args := compact("up", opts.VMName)
	args = append(args, provisionFlags(opts.Provision, nil)...)
	if opts.Provider != "" {
		args = append(args, "--provider="+opts.Provider)
	}
	args = append(args, provisionWith(opts.ProvisionWith)...)

	defer c.invalidate(opts.VMName)
	return c.call(ctx, opts.Output, args)
}

// Provision runs the configured provisioners against running machines
func (c *Client) Provision(ctx context.Context, opts ProvisionOptions) error {
	args := append(compact("provision", opts.VMName), provisionWith(opts.ProvisionWith)...)
	return c.call(ctx, opts.Output, args)
}

// Reload restarts machines so Vagrantfile changes take effect
func (c *Client) Reload(ctx context.Context, opts ReloadOptions) error {
	args := append(compact("reload", opts.VMName), provisionFlags(opts.Provision, opts.ProvisionWith)...)

	defer c.invalidate(opts.VMName)
	return c.call(ctx, opts.Output, args)
}

// Suspend saves machine state and stops the machines
func (c *Client) Suspend(ctx context.Context, opts MachineOptions) error {
	defer c.invalidate(opts.VMName)
	return c.call(ctx, opts.Output, compact("suspend", opts.VMName))
}

// Resume restarts suspended machines
func (c *Client) Resume(ctx context.Context, opts MachineOptions) error {
	defer c.invalidate(opts.VMName)
	return c.call(ctx, opts.Output, compact("resume", opts.VMName))
}

// Halt shuts machines down, forcefully when opts.Force is set
func (c *Client) Halt(ctx context.Context, opts HaltOptions) error {
	args := compact("halt", opts.VMName)
	if opts.Force {
		args = append(args, "--force")
	}

	defer c.invalidate(opts.VMName)
	return c.call(ctx, opts.Output, args)
}

// Destroy removes machines without asking for confirmation
func (c *Client) Destroy(ctx context.Context, opts MachineOptions) error {
	defer c.invalidate(opts.VMName)
	return c.call(ctx, opts.Output, append(compact("destroy", opts.VMName), "--force"))
}

// Package exports a machine as a box file
func (c *Client) Package(ctx context.Context, opts PackageOptions) error {
	args := compact("package", opts.VMName)
	if opts.File != "" {
		args = append(args, "--output", opts.File)
	}
	if opts.Vagrantfile != "" {
		args = append(args, "--vagrantfile", opts.Vagrantfile)
	}
	return c.call(ctx, opts.Output, args)
}

// Validate checks the project's Vagrantfile
func (c *Client) Validate(ctx context.Context, out Output) error {
	return c.call(ctx, out, []string{"validate"})
}
