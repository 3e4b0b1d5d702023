package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/transitions/internal/mcpserver"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve corpus search as an MCP tool over stdio",
	Long: `MCP starts a Model Context Protocol server on stdin/stdout exposing:
- search_documents  rank the corpus for a query
- ask               answer a question with sources (only when an LLM provider is configured)

Logs go to stderr so they never corrupt the protocol stream.

Example MCP client configuration:
  {"command": "transitions", "args": ["mcp", "--data-dir", "/srv/transitions/doc"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	scorer, err := newScorer(cfg)
	if err != nil {
		return err
	}

	svc, err := newChatService(cfg, c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.Run(ctx, Version, mcpserver.NewTools(c, scorer, svc, nil))
}
