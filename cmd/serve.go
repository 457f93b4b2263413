package cmd

import (
	"context"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/studyaid/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing keyword highlighting and study material tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the protocol; logs stay on stderr.
		log, closeLog, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		a, err := openApp(context.Background(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version
		docs := 0
		if a.vectors != nil {
			docs = a.vectors.Count()
		}
		log.Info().Int("documents", docs).Msg("studyaid MCP server started on stdio")

		srv := mcpserver.NewServer(a.users, a.materials, a.index)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
