package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MichaelPico/job-offer-analyzer/internal/language"
)

var detectCmd = &cobra.Command{
	Use:   "detect <text>...",
	Short: "Print the detected language of each argument",
	Long: `Runs the language detector used by the crawl on each argument and prints
the ISO 639-1 code with its confidence.

Examples:
  scraper detect "Développeur Backend" "Backend Engineer"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detector := language.NewLingua()
		for _, text := range args {
			code, confidence := detector.DetectWithConfidence(text)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.2f\t%s\n", code, confidence, strings.TrimSpace(text))
		}
		return nil
	},
}
