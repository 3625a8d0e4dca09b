package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/reoring/instruct/internal/mcpserver"
	"github.com/reoring/instruct/internal/server"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the schema, completion and export tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			// stdout carries the protocol
			log := quietLogger(cfg, a.verbose)
			srv, err := mcpserver.New(cfg, log, server.Version)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.WithField("tools", []string{mcpserver.ToolCreateSchema, mcpserver.ToolRunCompletion, mcpserver.ToolExportResult}).Info("mcp server ready on stdio")
			return srv.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

