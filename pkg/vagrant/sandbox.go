package vagrant

import (
	"context"
	"strings"

	"github.com/vagrant-mcp/govagrant/internal/errors"
)

// Sandbox states reported by the sahara plugin
const (
	SandboxOn           = "on"
	SandboxOff          = "off"
	SandboxUnknown      = "unknown"
	SandboxNotInstalled = "not installed"
)

// Sandbox drives the `vagrant sandbox` commands of the sahara plugin
type Sandbox struct {
	c *Client
}

// Sandbox returns the sandbox commands bound to this client
func (c *Client) Sandbox() *Sandbox {
	return &Sandbox{c: c}
}

func (s *Sandbox) run(ctx context.Context, sub, vmName string) (string, error) {
	out, err := s.c.capture(ctx, Output{}, compact("sandbox", sub, vmName))
	return string(out), err
}

// On enables sandbox mode
func (s *Sandbox) On(ctx context.Context, vmName string) error {
	_, err := s.run(ctx, "on", vmName)
	return err
}

// Off disables sandbox mode
func (s *Sandbox) Off(ctx context.Context, vmName string) error {
	_, err := s.run(ctx, "off", vmName)
	return err
}

// Commit keeps the changes made since sandbox mode was enabled
func (s *Sandbox) Commit(ctx context.Context, vmName string) error {
	_, err := s.run(ctx, "commit", vmName)
	return err
}

// Rollback discards the changes made since the last commit
func (s *Sandbox) Rollback(ctx context.Context, vmName string) error {
	_, err := s.run(ctx, "rollback", vmName)
	return err
}

// Status reports whether sandbox mode is on. A missing plugin yields
// SandboxNotInstalled rather than an error.
func (s *Sandbox) Status(ctx context.Context, vmName string) (string, error) {
	out, err := s.run(ctx, "status", vmName)
	if err != nil {
		// without the plugin vagrant prints its usage and fails
		if errors.IsCommandFailed(err) && isUsage(errors.StderrOf(err)) {
			return SandboxNotInstalled, nil
		}
		return "", err
	}
	return parseSandboxStatus(out), nil
}

func isUsage(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "Usage:")
}

// parseSandboxStatus reads lines like "[default] - snapshot mode is off"
func parseSandboxStatus(out string) string {
	tokens := strings.Fields(out)
	switch {
	case len(tokens) == 0:
		return SandboxUnknown
	case tokens[0] == "Usage:":
		return SandboxNotInstalled
	case len(tokens) >= 2 && tokens[len(tokens)-2] == "not" && tokens[len(tokens)-1] == "created":
		return SandboxUnknown
	}
	return tokens[len(tokens)-1]
}
