package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank the corpus against a query without calling the LLM",
	Long: `Search shows which documents would be sent to the model for a question,
with their relevance score.

Example:
  transitions search "rénovation des bâtiments"
  transitions search vélo --top-k 10 --policy exact`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Int("top-k", 0, "number of documents to show (default 5)")
	searchCmd.Flags().String("policy", "", "scoring policy: stemmed or exact (default stemmed)")

	_ = viper.BindPFlag("search.top_k", searchCmd.Flags().Lookup("top-k"))
	_ = viper.BindPFlag("search.policy", searchCmd.Flags().Lookup("policy"))
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	query := strings.Join(args, " ")
	matches := scorer.Score(query, c.Documents())
	if len(matches) > cfg.Search.TopK {
		matches = matches[:max(cfg.Search.TopK, 0)]
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matching documents.")
		return nil
	}
	for i, m := range matches {
		fmt.Fprintf(out, "%2d. [%s] %s  (score %.0f)\n    %s\n", i+1, m.Document.Kind.Label(), m.Document.Title, m.Score, m.Document.URL)
	}
	return nil
}
