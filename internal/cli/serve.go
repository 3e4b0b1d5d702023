package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/transitions/internal/server"
)

const providerCheckTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page and the /chat API",
	Long: `Serve loads the corpus once and starts the HTTP server:
- GET  /              index page with the fact-sheets, resources and a chat box
- POST /chat          {"message": "...", "history": [...]} -> {"answer", "sources"}
- GET  /healthz       liveness and document count
- GET  /api/documents every document's type, title and URL

The LLM provider is configured with llm.provider (openai, anthropic, ollama)
and the usual OPENAI_API_KEY / ANTHROPIC_API_KEY / OLLAMA_BASE_URL variables.

Example:
  transitions serve
  transitions serve --addr :3000 --data-dir ./doc`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	svc, err := newChatService(cfg, c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if checkProvider(ctx, svc, cfg.LLM.Provider, providerCheckTimeout) && verbose {
		fmt.Fprintf(os.Stderr, "✓ LLM provider %s is reachable\n", cfg.LLM.Provider)
	}

	srv := server.New(c, svc, server.Options{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	fmt.Fprintf(os.Stderr, "Serving %d documents on %s\n", c.Len(), cfg.Server.Addr)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
