package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MichaelPico/job-offer-analyzer/internal/ai"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the configured AI model on one job description",
	Long: `Sends a job description to the configured model and prints the extracted
fields. Reads stdin when no file (or "-") is given. Useful to check provider
credentials and prompt behaviour before a crawl.

Examples:
  scraper analyze description.txt
  pbpaste | scraper analyze`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if cfg.AI.Provider != "ollama" && cfg.AI.APIKey == "" {
		return fmt.Errorf("ai provider %s needs an API key", cfg.AI.Provider)
	}

	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read description: %w", err)
	}

	completer, err := ai.NewCompleter(cmd.Context(), cfg.AI)
	if err != nil {
		return err
	}
	analysis, err := ai.NewAnalyzer(completer, ai.PromptOptionsFrom(cfg.AI)).Analyze(cmd.Context(), string(data))
	if err != nil {
		return err
	}
	printAnalysis(cmd.OutOrStdout(), analysis)
	return nil
}

func printAnalysis(w io.Writer, a *ai.Analysis) {
	missing := "-"
	studies, years, salary := missing, missing, missing
	if a.RequiredStudies != nil {
		studies = *a.RequiredStudies
	}
	if a.ExperienceYearsNeeded != nil {
		years = fmt.Sprint(*a.ExperienceYearsNeeded)
	}
	if a.SalaryOffered != nil {
		salary = a.SalaryOffered.String()
	}
	techs := missing
	if a.TechnologiesRequired != nil {
		techs = strings.Join(a.TechnologiesRequired, ", ")
	}

	fmt.Fprintf(w, "Required studies:   %s\n", studies)
	fmt.Fprintf(w, "Technologies:       %s\n", techs)
	fmt.Fprintf(w, "Experience (years): %s\n", years)
	fmt.Fprintf(w, "Salary offered:     %s\n", salary)
	fmt.Fprintf(w, "Tokens:             %d\n", a.TokenCost)
}
