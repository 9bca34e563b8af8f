// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

package vagrant

import (
	"bytes"
	"context"
	"fmt"
	"maps"

	"github.com/google/shlex"

	"github.com/vagrant-mcp/govagrant/internal/errors"
	"github.com/vagrant-mcp/govagrant/internal/parser"
)

// SSHOptions configures `vagrant ssh`
type SSHOptions struct {
	VMName  string
	Command string
	// ExtraArgs is passed to ssh after "--", split with shell quoting rules
	ExtraArgs string
	Output    Output
}

// SSHConfig returns the raw output of `vagrant ssh-config`
func (c *Client) SSHConfig(ctx context.Context, vmName string) (string, error) {
	out, err := c.capture(ctx, Output{}, compact("ssh-config", vmName))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Conf returns the parsed ssh settings of a machine. Results are cached
// until a lifecycle command touches the machine or the Vagrantfile changes.
func (c *Client) Conf(ctx context.Context, vmName string) (SSHConfig, error) {
	c.mu.Lock()
	conf, ok := c.sshCache[vmName]
	gen := c.sshGen
	c.mu.Unlock()
	if ok {
		return maps.Clone(conf), nil
	}

	out, err := c.capture(ctx, Output{}, compact("ssh-config", vmName))
	if err != nil {
		return nil, err
	}
	conf, warnings, err := parser.ParseSSHConfig(bytes.NewReader(out), c.parseOptions())
	if err != nil {
		return nil, err
	}
	c.warn(ctx, "ssh-config", warnings)

	c.mu.Lock()
	if c.sshGen == gen {
		c.sshCache[vmName] = conf
	}
	c.mu.Unlock()
	return maps.Clone(conf), nil
}

// SSHHosts returns the ssh settings of every machine, keyed by host name
func (c *Client) SSHHosts(ctx context.Context) (map[string]SSHConfig, error) {
	out, err := c.capture(ctx, Output{}, []string{"ssh-config"})
	if err != nil {
		return nil, err
	}
	return parser.ParseSSHHosts(bytes.NewReader(out))
}

// confValue looks up one setting and fails when vagrant did not report it
func (c *Client) confValue(ctx context.Context, vmName, key string, get func(SSHConfig) string) (string, error) {
	conf, err := c.Conf(ctx, vmName)
	if err != nil {
		return "", err
	}
	v := get(conf)
	if v == "" {
		return "", errors.New(errors.CodeParseError, fmt.Sprintf("ssh-config has no %s", key))
	}
	return v, nil
}

// User returns the ssh login user
func (c *Client) User(ctx context.Context, vmName string) (string, error) {
	return c.confValue(ctx, vmName, parser.KeyUser, SSHConfig.User)
}

// HostName returns the address ssh connects to
func (c *Client) HostName(ctx context.Context, vmName string) (string, error) {
	return c.confValue(ctx, vmName, parser.KeyHostName, SSHConfig.HostName)
}

// Port returns the ssh port
func (c *Client) Port(ctx context.Context, vmName string) (string, error) {
	return c.confValue(ctx, vmName, parser.KeyPort, SSHConfig.Port)
}

// KeyFile returns the private key used to log in
func (c *Client) KeyFile(ctx context.Context, vmName string) (string, error) {
	return c.confValue(ctx, vmName, parser.KeyIdentityFile, SSHConfig.IdentityFile)
}

// UserHostname returns "user@host"
func (c *Client) UserHostname(ctx context.Context, vmName string) (string, error) {
	return c.confValue(ctx, vmName, parser.KeyHostName, SSHConfig.UserHostname)
}

// UserHostnamePort returns "user@host:port"
func (c *Client) UserHostnamePort(ctx context.Context, vmName string) (string, error) {
	return c.confValue(ctx, vmName, parser.KeyHostName, SSHConfig.UserHostnamePort)
}

// SSH runs a command on a machine and returns its standard output
func (c *Client) SSH(ctx context.Context, opts SSHOptions) (string, error) {
	if opts.Command == "" {
		return "", errors.InvalidInput("ssh command must not be empty")
	}
	args := append(compact("ssh", opts.VMName), "--command", opts.Command)
	if opts.ExtraArgs != "" {
		extra, err := shlex.Split(opts.ExtraArgs)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInvalidInput, "failed to split extra ssh arguments")
		}
		args = append(append(args, "--"), extra...)
	}

	out, err := c.capture(ctx, opts.Output, args)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// invalidate drops the cached ssh settings a command on vmName may have
// changed. An empty name addresses every machine.
func (c *Client) invalidate(vmName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sshGen++
	if vmName == "" {
		clear(c.sshCache)
		return
	}
	delete(c.sshCache, vmName)
	delete(c.sshCache, "")
}

func (c *Client) invalidateAll() {
	c.invalidate("")
}
