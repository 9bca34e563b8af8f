// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

// Package handlers exposes the vagrant binding as MCP tools
package handlers

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vagrant-mcp/govagrant/internal/errors"
)

// requiredParameterError reports a missing tool argument
func requiredParameterError(name string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("required parameter '%s' is missing", name))
}

// invalidParameterError reports an argument that cannot be used
func invalidParameterError(name string, value interface{}, reason string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("invalid parameter '%s' = %v: %s", name, value, reason))
}

// operationError converts a binding failure into a tool error. The error
// code leads the message so clients can tell failures apart, and vagrant's
// own stderr follows when there is any.
func operationError(operation string, err error) *mcp.CallToolResult {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", operation)
	if code := errorCode(err); code != "" {
		fmt.Fprintf(&b, " [%s]", code)
	}
	fmt.Fprintf(&b, ": %v", err)

	if stderr := strings.TrimSpace(errors.StderrOf(err)); stderr != "" {
		fmt.Fprintf(&b, "\n\nvagrant output:\n%s", stderr)
	}
	return mcp.NewToolResultError(b.String())
}

func errorCode(err error) errors.ErrorCode {
	for _, code := range []errors.ErrorCode{
		errors.CodeExecutableNotFound,
		errors.CodeInvocationFailed,
		errors.CodeTimeout,
		errors.CodeCancelled,
		errors.CodeParseError,
		errors.CodeCommandFailed,
		errors.CodeInvalidInput,
		errors.CodeInvalidState,
	} {
		if errors.Is(err, code) {
			return code
		}
	}
	return ""
}
