package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/transitions/internal/static"
)

var (
	exportOut   string
	exportTitle string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a standalone index.html listing the corpus",
	Long: `Export renders the fact-sheets and resources into a single HTML page that
can be hosted without the Go server. The chat box is left out.

Example:
  transitions export
  transitions export --out public/index.html`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOut, "out", "index.html", "output HTML path")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "page title")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	if err := static.Export(c, exportOut, static.Options{Title: exportTitle}); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %s (%d documents)\n", exportOut, c.Len())
	return nil
}
