package vagrant

import (
	"context"
	"strings"

	"github.com/vagrant-mcp/govagrant/internal/errors"
)

const (
	noPushedSnapshot = "No pushed snapshot found!"
	noSnapshots      = "No snapshots have been taken yet!"
)

// SnapshotPush takes an unnamed snapshot that SnapshotPop restores
func (c *Client) SnapshotPush(ctx context.Context) error {
	return c.call(ctx, Output{}, []string{"snapshot", "push"})
}

// SnapshotPop restores and deletes the most recently pushed snapshot
func (c *Client) SnapshotPop(ctx context.Context) error {
	args := []string{"snapshot", "pop"}
	out, err := c.capture(ctx, Output{}, args)
	if err != nil {
		if strings.Contains(errors.StderrOf(err), noPushedSnapshot) {
			return errors.InvalidState(noPushedSnapshot)
		}
		return err
	}
	if strings.Contains(string(out), noPushedSnapshot) {
		return errors.InvalidState(noPushedSnapshot)
	}
	return nil
}

// SnapshotSave takes a named snapshot. Push and pop cannot be used safely
// afterwards.
func (c *Client) SnapshotSave(ctx context.Context, name string) error {
	if name == "" {
		return errors.InvalidInput("snapshot name must not be empty")
	}
	return c.call(ctx, Output{}, []string{"snapshot", "save", name})
}

// SnapshotRestore restores a named snapshot
func (c *Client) SnapshotRestore(ctx context.Context, name string) error {
	if name == "" {
		return errors.InvalidInput("snapshot name must not be empty")
	}
	return c.call(ctx, Output{}, []string{"snapshot", "restore", name})
}

// SnapshotList returns the names of the snapshots taken so far
func (c *Client) SnapshotList(ctx context.Context) ([]string, error) {
	out, err := c.capture(ctx, Output{}, []string{"snapshot", "list"})
	if err != nil {
		return nil, err
	}
	text := string(out)
	if strings.Contains(text, noSnapshots) {
		return []string{}, nil
	}

	names := []string{}
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(line)
		// "==> default:" headers name the machine, not a snapshot
		if name == "" || strings.HasPrefix(name, "==>") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// SnapshotDelete deletes a named snapshot
func (c *Client) SnapshotDelete(ctx context.Context, name string) error {
	if name == "" {
		return errors.InvalidInput("snapshot name must not be empty")
	}
	return c.call(ctx, Output{}, []string{"snapshot", "delete", name})
}
