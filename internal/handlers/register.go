package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

// Vagrant is the part of the binding the tools use
type Vagrant interface {
	Version(ctx context.Context) (string, error)
	Status(ctx context.Context, opts vagrant.StatusOptions) ([]vagrant.Status, []vagrant.Warning, error)
	Up(ctx context.Context, opts vagrant.UpOptions) error
	Provision(ctx context.Context, opts vagrant.ProvisionOptions) error
	Reload(ctx context.Context, opts vagrant.ReloadOptions) error
	Suspend(ctx context.Context, opts vagrant.MachineOptions) error
	Resume(ctx context.Context, opts vagrant.MachineOptions) error
	Halt(ctx context.Context, opts vagrant.HaltOptions) error
	Destroy(ctx context.Context, opts vagrant.MachineOptions) error
	Validate(ctx context.Context, out vagrant.Output) error
	BoxList(ctx context.Context) ([]vagrant.Box, []vagrant.Warning, error)
	PluginList(ctx context.Context) ([]vagrant.Plugin, []vagrant.Warning, error)
	Conf(ctx context.Context, vmName string) (vagrant.SSHConfig, error)
	SSH(ctx context.Context, opts vagrant.SSHOptions) (string, error)
	SnapshotSave(ctx context.Context, name string) error
	SnapshotRestore(ctx context.Context, name string) error
	SnapshotList(ctx context.Context) ([]string, error)
	SnapshotDelete(ctx context.Context, name string) error
}

var _ Vagrant = (*vagrant.Client)(nil)

// RegisterAll registers every vagrant tool with the MCP server
func RegisterAll(srv *server.MCPServer, v Vagrant) {
	RegisterMachineTools(srv, v)
	RegisterInventoryTools(srv, v)
	RegisterSnapshotTools(srv, v)
	log.Debug().Msg("Vagrant tools registered")
}
