package vagrant

import (
	"bytes"
	"context"

	"github.com/vagrant-mcp/govagrant/internal/errors"
	"github.com/vagrant-mcp/govagrant/internal/parser"
)

// BoxAddOptions configures `vagrant box add`
type BoxAddOptions struct {
	Name string
	// URL may be empty when Name is a box from the public catalog
	URL      string
	Provider string
	// Force overwrites an existing box of the same name
	Force  bool
	Output Output
}

// BoxAdd installs a box
func (c *Client) BoxAdd(ctx context.Context, opts BoxAddOptions) error {
	if opts.Name == "" {
		return errors.InvalidInput("box name must not be empty")
	}
	args := compact("box", "add", opts.Name, opts.URL)
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.Provider != "" {
		args = append(args, "--provider", opts.Provider)
	}
	return c.call(ctx, opts.Output, args)
}

// BoxList returns the installed boxes
func (c *Client) BoxList(ctx context.Context) ([]Box, []Warning, error) {
	out, err := c.capture(ctx, Output{}, []string{"box", "list", "--machine-readable"})
	if err != nil {
		return nil, nil, err
	}
	boxes, warnings, err := parser.ParseBoxList(bytes.NewReader(out), c.parseOptions())
	if err != nil {
		return nil, warnings, err
	}
	c.warn(ctx, "box-list", warnings)
	return boxes, warnings, nil
}

// BoxUpdate updates a box to its latest version
func (c *Client) BoxUpdate(ctx context.Context, name, provider string) error {
	if name == "" {
		return errors.InvalidInput("box name must not be empty")
	}
	return c.call(ctx, Output{}, compact("box", "update", name, provider))
}

// BoxRemove removes a box without asking for confirmation
func (c *Client) BoxRemove(ctx context.Context, name, provider string) error {
	if name == "" {
		return errors.InvalidInput("box name must not be empty")
	}
	return c.call(ctx, Output{}, compact("box", "remove", "--force", name, provider))
}

// PluginList returns the installed plugins
func (c *Client) PluginList(ctx context.Context) ([]Plugin, []Warning, error) {
	out, err := c.capture(ctx, Output{}, []string{"plugin", "list", "--machine-readable"})
	if err != nil {
		return nil, nil, err
	}
	plugins, warnings, err := parser.ParsePluginList(bytes.NewReader(out), c.parseOptions())
	if err != nil {
		return nil, warnings, err
	}
	c.warn(ctx, "plugin-list", warnings)
	return plugins, warnings, nil
}
