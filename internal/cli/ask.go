package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/transitions/internal/model"
)

var askTimeout time.Duration

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question from the command line",
	Long: `Ask runs the same retrieval and prompt as POST /chat and prints the
answer followed by its sources.

Example:
  transitions ask "Comment réduire la consommation d'énergie d'une mairie ?"
  transitions ask --llm-provider ollama --llm-model llama3 "Qu'est-ce qu'un PCAET ?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "timeout for the model call")
	askCmd.Flags().String("llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	askCmd.Flags().String("llm-model", "", "LLM model name")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("llm-provider"); p != "" && p != cfg.LLM.Provider {
		cfg.LLM.Provider = p
		cfg.LLM.APIKey = ""
		cfg.LLM.Model = ""
		cfg.LLM.BaseURL = ""
		resolveProviderEnv(cfg, os.Getenv)
	}
	if m, _ := cmd.Flags().GetString("llm-model"); m != "" {
		cfg.LLM.Model = m
	}

	c, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	svc, err := newChatService(cfg, c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	resp, err := svc.Answer(ctx, model.ChatRequest{Message: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, s := range resp.Sources {
			fmt.Fprintf(out, "  - [%s] %s\n    %s\n", s.Type.Label(), s.Title, s.URL)
		}
	}
	return nil
}
