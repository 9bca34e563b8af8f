package handlers

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterSnapshotTools registers the named snapshot tools
func RegisterSnapshotTools(srv *server.MCPServer, v Vagrant) {
	nameParam := mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Snapshot name"))

	srv.AddTool(mcp.NewTool("vagrant_snapshot_save",
		mcp.WithDescription("Take a named snapshot of the project's machines"),
		nameParam,
	), handleSnapshot("snapshot save", v.SnapshotSave))

	srv.AddTool(mcp.NewTool("vagrant_snapshot_restore",
		mcp.WithDescription("Restore a named snapshot"),
		nameParam,
	), handleSnapshot("snapshot restore", v.SnapshotRestore))

	srv.AddTool(mcp.NewTool("vagrant_snapshot_delete",
		mcp.WithDescription("Delete a named snapshot"),
		nameParam,
	), handleSnapshot("snapshot delete", v.SnapshotDelete))

	srv.AddTool(mcp.NewTool("vagrant_snapshot_list",
		mcp.WithDescription("List the snapshots taken so far"),
	), handleSnapshotList(v))
}

func handleSnapshot(operation string, fn func(context.Context, string) error) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return requiredParameterError("name"), nil
		}
		if name == "" {
			return invalidParameterError("name", name, "must not be empty"), nil
		}

		start := time.Now()
		if err := fn(ctx, name); err != nil {
			return operationError(operation, err), nil
		}
		response := operationResponse(operation, "", "", time.Since(start))
		response["snapshot"] = name
		return jsonResult(response)
	}
}

func handleSnapshotList(v Vagrant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := v.SnapshotList(ctx)
		if err != nil {
			return operationError("snapshot list", err), nil
		}
		return jsonResult(map[string]interface{}{"snapshots": names, "count": len(names)})
	}
}
