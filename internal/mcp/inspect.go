package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/runcmd/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from a run_command result"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	rec, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}
	return textResult(rec.Summary())
}

type tokenizeParams struct {
	Command string `json:"command" jsonschema:"command line to split into an argument vector"`
}

func (h *handler) tokenizeHandler(ctx context.Context, req *mcp.CallToolRequest, params tokenizeParams) (*mcp.CallToolResult, any, error) {
	argv, truncated := h.runner.Tokenize(params.Command)
	if len(argv) == 0 {
		return errorResult("command has no tokens")
	}
	if truncated && h.runner.Overflow == runner.Reject {
		return errorResult(fmt.Sprintf("%v: limit is %d", runner.ErrTooManyArgs, len(argv)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tokens (%d):\n", len(argv))
	for i, tok := range argv {
		fmt.Fprintf(&b, "  [%d] %s\n", i, tok)
	}
	if truncated {
		fmt.Fprintf(&b, "\nTruncated: tokens past the first %d are dropped.\n", len(argv))
	}
	return textResult(b.String())
}
