package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

// RegisterInventoryTools registers the read-only tools: version, boxes,
// plugins and ssh settings, plus ssh command execution
func RegisterInventoryTools(srv *server.MCPServer, v Vagrant) {
	versionTool := mcp.NewTool("vagrant_version",
		mcp.WithDescription("Report the installed vagrant version"),
	)
	srv.AddTool(versionTool, handleVersion(v))

	boxListTool := mcp.NewTool("vagrant_box_list",
		mcp.WithDescription("List installed boxes with their provider and version"),
	)
	srv.AddTool(boxListTool, handleBoxList(v))

	pluginListTool := mcp.NewTool("vagrant_plugin_list",
		mcp.WithDescription("List installed vagrant plugins"),
	)
	srv.AddTool(pluginListTool, handlePluginList(v))

	sshConfigTool := mcp.NewTool("vagrant_ssh_config",
		mcp.WithDescription("Get the ssh connection settings of a machine"),
		withVMName(),
	)
	srv.AddTool(sshConfigTool, handleSSHConfig(v))

	sshTool := mcp.NewTool("vagrant_ssh",
		mcp.WithDescription("Run a command on a machine over ssh and return its output"),
		withVMName(),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command to run on the machine")),
		mcp.WithString("extra_args",
			mcp.Description("Extra ssh arguments, split with shell quoting rules")),
		withTimeout(),
	)
	srv.AddTool(sshTool, handleSSH(v))
}

func handleVersion(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		version, err := v.Version(ctx)
		if err != nil {
			return operationError("version", err), nil
		}
		return jsonResult(map[string]interface{}{"version": version})
	}
}

func handleBoxList(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		boxes, warnings, err := v.BoxList(ctx)
		if err != nil {
			return operationError("box list", err), nil
		}
		if boxes == nil {
			boxes = []vagrant.Box{}
		}
		response := map[string]interface{}{"boxes": boxes, "count": len(boxes)}
		if len(warnings) > 0 {
			response["warnings"] = warnings
		}
		return jsonResult(response)
	}
}

func handlePluginList(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		plugins, warnings, err := v.PluginList(ctx)
		if err != nil {
			return operationError("plugin list", err), nil
		}
		if plugins == nil {
			plugins = []vagrant.Plugin{}
		}
		response := map[string]interface{}{"plugins": plugins, "count": len(plugins)}
		if len(warnings) > 0 {
			response["warnings"] = warnings
		}
		return jsonResult(response)
	}
}

func handleSSHConfig(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vmName := request.GetString("vm_name", "")
		conf, err := v.Conf(ctx, vmName)
		if err != nil {
			return operationError("ssh-config", err), nil
		}
		return jsonResult(map[string]interface{}{
			"vm_name":            vmName,
			"config":             conf,
			"user_hostname_port": conf.UserHostnamePort(),
		})
	}
}

func handleSSH(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		command, err := request.RequireString("command")
		if err != nil || command == "" {
			return requiredParameterError("command"), nil
		}
		vmName := request.GetString("vm_name", "")

		output, err := v.SSH(ctx, vagrant.SSHOptions{
			VMName:    vmName,
			Command:   command,
			ExtraArgs: request.GetString("extra_args", ""),
			Output:    vagrant.Output{Timeout: timeoutArg(request)},
		})
		if err != nil {
			return operationError("ssh", err), nil
		}
		return jsonResult(map[string]interface{}{
			"vm_name": vmName,
			"command": command,
			"output":  output,
		})
	}
}
