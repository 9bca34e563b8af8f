package vagrant

import (
	"bytes"
	"context"
	"fmt"

	"github.com/vagrant-mcp/govagrant/internal/errors"
	"github.com/vagrant-mcp/govagrant/internal/parser"
)

// StatusOptions configures `vagrant status`
type StatusOptions struct {
	VMName string
	Output Output
}

// Status reports the state of each machine. Vagrant exits non-zero when
// some machines cannot be queried; that is tolerated as long as at least
// one machine was reported. Lenient parse warnings are returned alongside
// the entries and logged.
func (c *Client) Status(ctx context.Context, opts StatusOptions) ([]Status, []Warning, error) {
	args := compact("status", "--machine-readable", opts.VMName)
	result, err := c.run(ctx, opts.Output, true, args)
	if err != nil {
		return nil, nil, err
	}

	entries, warnings, parseErr := parser.ParseStatus(bytes.NewReader(result.Stdout), c.parseOptions())
	if !result.IsSuccessful() {
		if parseErr != nil || len(entries) == 0 {
			return nil, warnings, commandFailed(args, result)
		}
		log := c.logger(ctx)
		log.Warn().
			Int("exitCode", result.ExitCode).
			Int("machines", len(entries)).
			Msg("vagrant status exited non-zero, keeping the machines it reported")
	}
	if parseErr != nil {
		return nil, warnings, parseErr
	}

	c.warn(ctx, "status", warnings)
	return entries, warnings, nil
}

// State returns the state of a single machine
func (c *Client) State(ctx context.Context, vmName string) (string, error) {
	entries, _, err := c.Status(ctx, StatusOptions{VMName: vmName})
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if vmName == "" || e.Name == vmName {
			return e.State, nil
		}
	}
	return "", errors.InvalidState(fmt.Sprintf("vagrant status did not report machine %q", vmName))
}
