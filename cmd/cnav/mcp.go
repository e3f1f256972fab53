package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"cnav/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve definition and reference lookup as MCP tools over stdio",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd, sessionOptions{start: ".", cache: true})
	if err != nil {
		return err
	}
	return server.ServeStdio(mcpserver.New(mcpserver.NewHandler(s.ws)))
}
