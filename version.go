// Package runcmd runs shell-less command lines in a child process and
// reports whether the exec succeeded and how the child terminated.
package runcmd

// Version is the release reported by the CLI and the MCP server.
const Version = "0.1.0"
