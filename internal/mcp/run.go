package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/runcmd/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	Command string `json:"command" jsonschema:"command line to run, e.g. 'ls -l /tmp'; split on whitespace, no shell"`
	Timeout string `json:"timeout,omitempty" jsonschema:"optional bound on the run as a Go duration (e.g. 30s); overrides the configured timeout"`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Command) == "" {
		return errorResult("command is required")
	}

	r := *h.runner
	if params.Timeout != "" {
		d, err := time.ParseDuration(params.Timeout)
		if err != nil || d <= 0 {
			return errorResult(fmt.Sprintf("invalid timeout %q", params.Timeout))
		}
		r.Timeout = d
	}

	// The child must not write to our stdio: it may be the MCP transport.
	capt, err := newCapture(h.maxOutput)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to capture output: %v", err))
	}
	defer capt.close()

	res, err := r.Run(ctx, params.Command, capt.redirect())
	if err != nil {
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}

	rec := report.FromResult(res)
	rec.Stdout, rec.Stderr, rec.OutputTruncated = capt.read()

	var b strings.Builder
	fmt.Fprint(&b, rec.Summary())
	if err := h.store.Save(rec); err != nil {
		fmt.Fprintf(&b, "\nRecord not saved, inspect_run will not find it: %v\n", err)
	} else {
		fmt.Fprintf(&b, "\nInspect with inspect_run(run_id=%q).\n", rec.ID)
	}
	return textResult(b.String())
}
