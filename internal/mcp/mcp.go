// Package mcp provides the runcmd MCP server, registering its tools and
// publishing model instructions.
package mcp

import (
	_ "embed"

	"github.com/deixis/runcmd"
	"github.com/deixis/runcmd/internal/config"
	"github.com/deixis/runcmd/internal/report"
	"github.com/deixis/runcmd/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	runner    *runner.Runner
	store     report.Store
	maxOutput int // bytes kept per captured stream
}

// NewServer creates an MCP server with all runcmd tools registered.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store) *mcp.Server {
	h := &handler{
		runner:    r,
		store:     store,
		maxOutput: cfg.MaxOutputBytes(),
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "runcmd", Version: runcmd.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "run_command",
		Description: `Run a command line in a child process and wait for it to finish.

The command is split on whitespace; there is no shell, so quotes, pipes and
redirections are passed through literally. Reports whether the program could be
executed at all, its exit status or terminating signal, and the captured output.
Results are stored for later retrieval via inspect_run.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "tokenize",
		Description: "Show the argument vector run_command would build for a command line, without running it.",
	}, h.tokenizeHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "inspect_run",
		Description: "Show the stored record of an earlier run_command call, including its captured output.",
	}, h.inspectHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
