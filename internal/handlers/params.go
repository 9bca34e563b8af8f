package handlers

import (
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// optionalBool returns nil when the argument is absent, so vagrant's own
// default applies
func optionalBool(request mcp.CallToolRequest, name string) *bool {
	args := request.GetArguments()
	if args == nil {
		return nil
	}
	if _, ok := args[name]; !ok {
		return nil
	}
	v := request.GetBool(name, false)
	return &v
}

// splitList turns "shell, ansible" into ["shell", "ansible"]
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// timeoutArg reads the optional timeout_seconds argument
func timeoutArg(request mcp.CallToolRequest) time.Duration {
	seconds := request.GetFloat("timeout_seconds", 0)
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func withTimeout() mcp.ToolOption {
	return mcp.WithNumber("timeout_seconds",
		mcp.Description("Kill vagrant after this many seconds (0 uses the server default)"))
}

func withVMName() mcp.ToolOption {
	return mcp.WithString("vm_name",
		mcp.Description("Machine name in a multi-machine project (optional, defaults to every machine)"))
}
