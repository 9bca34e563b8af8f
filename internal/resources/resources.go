// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

// Package resources exposes read-only views of the vagrant project as MCP
// resources
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

// Resource URIs
const (
	StatusURI       = "vagrant://status"
	VagrantfileURI  = "vagrant://vagrantfile"
	BoxesURI        = "vagrant://boxes"
	sshConfigPrefix = "vagrant://ssh-config/"
	SSHConfigURI    = sshConfigPrefix + "{vmName}"
)

// Source is the part of the binding the resources read from
type Source interface {
	Root() string
	Status(ctx context.Context, opts vagrant.StatusOptions) ([]vagrant.Status, []vagrant.Warning, error)
	BoxList(ctx context.Context) ([]vagrant.Box, []vagrant.Warning, error)
	Conf(ctx context.Context, vmName string) (vagrant.SSHConfig, error)
}

var _ Source = (*vagrant.Client)(nil)

// RegisterMCPResources registers all resources with the MCP server
func RegisterMCPResources(srv *server.MCPServer, src Source) {
	registerStatusResource(srv, src)
	registerVagrantfileResource(srv, src)
	registerBoxesResource(srv, src)
	registerSSHConfigResource(srv, src)

	log.Debug().Msg("All resources registered with MCP server")
}

func jsonContents(uri string, v interface{}, what string) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", what, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func registerStatusResource(srv *server.MCPServer, src Source) {
	statusResource := mcp.NewResource(
		StatusURI,
		"Machine Status",
		mcp.WithResourceDescription("State and provider of every machine in the project"),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(statusResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, _, err := src.Status(ctx, vagrant.StatusOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to get status: %w", err)
		}
		if entries == nil {
			entries = []vagrant.Status{}
		}
		return jsonContents(request.Params.URI, entries, "status")
	})
}

func registerVagrantfileResource(srv *server.MCPServer, src Source) {
	vagrantfileResource := mcp.NewResource(
		VagrantfileURI,
		"Vagrantfile",
		mcp.WithResourceDescription("The project's Vagrantfile"),
		mcp.WithMIMEType("text/x-ruby"),
	)

	srv.AddResource(vagrantfileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		path := filepath.Join(src.Root(), "Vagrantfile")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "text/x-ruby",
				Text:     string(data),
			},
		}, nil
	})
}

func registerBoxesResource(srv *server.MCPServer, src Source) {
	boxesResource := mcp.NewResource(
		BoxesURI,
		"Installed Boxes",
		mcp.WithResourceDescription("Boxes installed on this host"),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(boxesResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		boxes, _, err := src.BoxList(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list boxes: %w", err)
		}
		if boxes == nil {
			boxes = []vagrant.Box{}
		}
		return jsonContents(request.Params.URI, boxes, "boxes")
	})
}

func registerSSHConfigResource(srv *server.MCPServer, src Source) {
	template := mcp.NewResourceTemplate(
		SSHConfigURI,
		"SSH Configuration",
		mcp.WithTemplateDescription("SSH settings vagrant reports for one machine"),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		vmName := strings.Trim(strings.TrimPrefix(request.Params.URI, sshConfigPrefix), "/")
		if vmName == "" {
			return nil, fmt.Errorf("VM name not specified")
		}

		conf, err := src.Conf(ctx, vmName)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh config for %s: %w", vmName, err)
		}
		return jsonContents(request.Params.URI, conf, "ssh config")
	})
}
