package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/deixis/runcmd/internal/mcp"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	mcpHTTPAddr     string
	mcpInstructions bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio, or over HTTP with --http",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mcpInstructions {
			fmt.Print(mcp.Instructions)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return serve(ctx, mcpHTTPAddr)
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "start HTTP server on address (e.g. :9090)")
	mcpCmd.Flags().BoolVar(&mcpInstructions, "instructions", false, "print model instructions and exit")
}

func serve(ctx context.Context, httpAddr string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	server := mcp.NewServer(a.cfg, a.runner, a.store)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr, a.log)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string, log logrus.FieldLogger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.WithField("addr", addr).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
