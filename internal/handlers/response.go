package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult marshals a response and returns it as a successful tool result
func jsonResult(response interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// operationResponse describes a finished lifecycle command
func operationResponse(operation, vmName, output string, elapsed time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"status":      "success",
		"operation":   operation,
		"vm_name":     vmName,
		"output":      output,
		"duration_ms": elapsed.Milliseconds(),
		"timestamp":   time.Now().Format(time.RFC3339),
	}
}

// outputBuffer collects stdout and stderr of one command. Both streams are
// written from separate goroutines.
type outputBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
