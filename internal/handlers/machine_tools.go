// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

// RegisterMachineTools registers the status and lifecycle tools
func RegisterMachineTools(srv *server.MCPServer, v Vagrant) {
	statusTool := mcp.NewTool("vagrant_status",
		mcp.WithDescription("Report the state and provider of each machine in the project"),
		withVMName(),
	)
	srv.AddTool(statusTool, handleStatus(v))

	upTool := mcp.NewTool("vagrant_up",
		mcp.WithDescription("Create and start machines"),
		withVMName(),
		mcp.WithString("provider",
			mcp.Description("Provider to back the machine with, e.g. virtualbox or libvirt")),
		mcp.WithBoolean("provision",
			mcp.Description("Force provisioners on or off (optional, vagrant decides when absent)")),
		mcp.WithString("provision_with",
			mcp.Description("Comma-separated provisioners to run")),
		withTimeout(),
	)
	srv.AddTool(upTool, handleUp(v))

	provisionTool := mcp.NewTool("vagrant_provision",
		mcp.WithDescription("Run the configured provisioners against running machines"),
		withVMName(),
		mcp.WithString("provision_with",
			mcp.Description("Comma-separated provisioners to run")),
		withTimeout(),
	)
	srv.AddTool(provisionTool, handleProvision(v))

	reloadTool := mcp.NewTool("vagrant_reload",
		mcp.WithDescription("Restart machines so Vagrantfile changes take effect"),
		withVMName(),
		mcp.WithBoolean("provision",
			mcp.Description("Force provisioners on or off (optional)")),
		mcp.WithString("provision_with",
			mcp.Description("Comma-separated provisioners to run")),
		withTimeout(),
	)
	srv.AddTool(reloadTool, handleReload(v))

	haltTool := mcp.NewTool("vagrant_halt",
		mcp.WithDescription("Shut machines down"),
		withVMName(),
		mcp.WithBoolean("force",
			mcp.Description("Power off instead of a graceful shutdown"),
			mcp.DefaultBool(false)),
		withTimeout(),
	)
	srv.AddTool(haltTool, handleHalt(v))

	suspendTool := mcp.NewTool("vagrant_suspend",
		mcp.WithDescription("Save machine state and stop the machines"),
		withVMName(),
		withTimeout(),
	)
	srv.AddTool(suspendTool, handleMachine("suspend", v.Suspend))

	resumeTool := mcp.NewTool("vagrant_resume",
		mcp.WithDescription("Resume suspended machines"),
		withVMName(),
		withTimeout(),
	)
	srv.AddTool(resumeTool, handleMachine("resume", v.Resume))

	destroyTool := mcp.NewTool("vagrant_destroy",
		mcp.WithDescription("Destroy machines and all their resources without confirmation"),
		withVMName(),
		withTimeout(),
	)
	srv.AddTool(destroyTool, handleMachine("destroy", v.Destroy))

	validateTool := mcp.NewTool("vagrant_validate",
		mcp.WithDescription("Validate the project's Vagrantfile"),
	)
	srv.AddTool(validateTool, handleValidate(v))
}

func handleStatus(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vmName := request.GetString("vm_name", "")

		entries, warnings, err := v.Status(ctx, vagrant.StatusOptions{VMName: vmName})
		if err != nil {
			return operationError("status", err), nil
		}
		if entries == nil {
			entries = []vagrant.Status{}
		}

		response := map[string]interface{}{
			"machines": entries,
			"count":    len(entries),
		}
		if len(warnings) > 0 {
			response["warnings"] = warnings
		}
		return jsonResult(response)
	}
}

// runLifecycle runs one lifecycle command with its output collected for the response
func runLifecycle(ctx context.Context, operation, vmName string, run func(out vagrant.Output) error, timeout time.Duration) (*mcp.CallToolResult, error) {
	var buf outputBuffer
	out := vagrant.Output{Stdout: &buf, Stderr: &buf, Timeout: timeout}

	log.Info().Str("operation", operation).Str("vm", vmName).Msg("Running vagrant lifecycle command")
	start := time.Now()
	if err := run(out); err != nil {
		log.Error().Err(err).Str("operation", operation).Str("vm", vmName).Msg("Vagrant lifecycle command failed")
		return operationError(operation, err), nil
	}
	return jsonResult(operationResponse(operation, vmName, buf.String(), time.Since(start)))
}

func handleUp(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vmName := request.GetString("vm_name", "")
		return runLifecycle(ctx, "up", vmName, func(out vagrant.Output) error {
			return v.Up(ctx, vagrant.UpOptions{
				VMName:        vmName,
				Provider:      request.GetString("provider", ""),
				Provision:     optionalBool(request, "provision"),
				ProvisionWith: splitList(request.GetString("provision_with", "")),
				Output:        out,
			})
		}, timeoutArg(request))
	}
}

func handleProvision(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vmName := request.GetString("vm_name", "")
		return runLifecycle(ctx, "provision", vmName, func(out vagrant.Output) error {
			return v.Provision(ctx, vagrant.ProvisionOptions{
				VMName:        vmName,
				ProvisionWith: splitList(request.GetString("provision_with", "")),
				Output:        out,
			})
		}, timeoutArg(request))
	}
}

func handleReload(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vmName := request.GetString("vm_name", "")
		return runLifecycle(ctx, "reload", vmName, func(out vagrant.Output) error {
			return v.Reload(ctx, vagrant.ReloadOptions{
				VMName:        vmName,
				Provision:     optionalBool(request, "provision"),
				ProvisionWith: splitList(request.GetString("provision_with", "")),
				Output:        out,
			})
		}, timeoutArg(request))
	}
}

func handleHalt(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vmName := request.GetString("vm_name", "")
		return runLifecycle(ctx, "halt", vmName, func(out vagrant.Output) error {
			return v.Halt(ctx, vagrant.HaltOptions{
				VMName: vmName,
				Force:  request.GetBool("force", false),
				Output: out,
			})
		}, timeoutArg(request))
	}
}

// handleMachine serves the tools whose only argument is the machine name
func handleMachine(operation string, fn func(context.Context, vagrant.MachineOptions) error) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vmName := request.GetString("vm_name", "")
		return runLifecycle(ctx, operation, vmName, func(out vagrant.Output) error {
			return fn(ctx, vagrant.MachineOptions{VMName: vmName, Output: out})
		}, timeoutArg(request))
	}
}

func handleValidate(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return runLifecycle(ctx, "validate", "", func(out vagrant.Output) error {
			return v.Validate(ctx, out)
		}, 0)
	}
}
