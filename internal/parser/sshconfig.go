// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"io"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"

	"github.com/vagrant-mcp/govagrant/internal/errors"
)

// SSH config keys vagrant always emits
const (
	KeyHost         = "Host"
	KeyHostName     = "HostName"
	KeyPort         = "Port"
	KeyUser         = "User"
	KeyIdentityFile = "IdentityFile"
)

// SSHConfig holds the key/value pairs of one `vagrant ssh-config` host
type SSHConfig map[string]string

// Get looks key up by exact match first, then case-insensitively
func (c SSHConfig) Get(key string) (string, bool) {
	if v, ok := c[key]; ok {
		return v, true
	}

	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return c[k], true
		}
	}
	return "", false
}

func (c SSHConfig) value(key string) string {
	v, _ := c.Get(key)
	return v
}

// HostName returns the address to connect to
func (c SSHConfig) HostName() string { return c.value(KeyHostName) }

// Port returns the SSH port
func (c SSHConfig) Port() string { return c.value(KeyPort) }

// User returns the login user
func (c SSHConfig) User() string { return c.value(KeyUser) }

// IdentityFile returns the private key path
func (c SSHConfig) IdentityFile() string { return c.value(KeyIdentityFile) }

// UserHostname returns "user@host", or just "host" when no user is set
func (c SSHConfig) UserHostname() string {
	if user := c.User(); user != "" {
		return user + "@" + c.HostName()
	}
	return c.HostName()
}

// UserHostnamePort returns "user@host:port", leaving out the user or port
// when they are not set
func (c SSHConfig) UserHostnamePort() string {
	s := c.UserHostname()
	if port := c.Port(); port != "" {
		s += ":" + port
	}
	return s
}

// ParseSSHConfig parses `Key Value` lines as printed by `vagrant ssh-config`
// for a single machine. Comments and blank lines are skipped, a value
// wrapped in double quotes is unwrapped, and a repeated key overrides the
// earlier one. A key without a value is malformed.
func ParseSSHConfig(r io.Reader, opts Options) (SSHConfig, []Warning, error) {
	d := NewDecoder(r, opts)
	conf := make(SSHConfig)

	for {
		text, line, err := d.readPhysical()
		if err == io.EOF {
			return conf, d.Warnings(), nil
		}
		if err != nil {
			return nil, d.Warnings(), err
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		i := strings.IndexAny(trimmed, " \t")
		if i < 0 {
			if err := d.malformed(line, text, "missing value for "+trimmed); err != nil {
				return nil, d.Warnings(), err
			}
			continue
		}
		conf[trimmed[:i]] = unquote(strings.TrimSpace(trimmed[i:]))
	}
}

// readPhysical returns the next line as is, without continuation handling
func (d *Decoder) readPhysical() (string, int, error) {
	if d.done {
		return "", d.line, io.EOF
	}
	chunk, err := d.r.ReadString('\n')
	if chunk == "" && err != nil {
		d.done = true
		return "", d.line, err
	}
	d.line++
	return strings.TrimRight(chunk, "\r\n"), d.line, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseSSHHosts parses `vagrant ssh-config` output covering several
// machines and returns one SSHConfig per Host block, keyed by host name.
// The Host line itself is kept under the "Host" key.
func ParseSSHHosts(r io.Reader) (map[string]SSHConfig, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseError, "failed to parse ssh-config output")
	}

	hosts := make(map[string]SSHConfig)
	for _, host := range cfg.Hosts {
		conf := make(SSHConfig)
		for _, node := range host.Nodes {
			if kv, ok := node.(*ssh_config.KV); ok {
				conf[kv.Key] = unquote(kv.Value)
			}
		}
		// The implicit leading block only exists to hold keys seen before
		// the first Host line.
		if len(conf) == 0 {
			continue
		}

		for _, pattern := range host.Patterns {
			name := pattern.String()
			entry := make(SSHConfig, len(conf)+1)
			for k, v := range conf {
				entry[k] = v
			}
			entry[KeyHost] = name
			hosts[name] = entry
		}
	}
	return hosts, nil
}
