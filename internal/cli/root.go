// Package cli provides the command-line interface of the job offer analyzer.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	//global flags
	configPath string
	logLevel   string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "Extract, enrich and export job postings",
	Long: `Crawls job boards for the configured positions, keeps postings in the
desired language, enriches them with an AI model and exports the collection
to a JSON snapshot and a spreadsheet.

Settings come from configs/config.yaml, a .env file and the environment.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		//language detection needs no configuration
		if cmd.Name() == "detect" || cmd.Name() == "help" {
			logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger, closeLog = config.SetupLogger(cfg.Log.File, cfg.LogLevel())
		slog.SetDefault(logger)
		logger.Debug("🔧 config loaded", "path", configPath, "boards", cfg.Boards, "positions", cfg.Crawl.PositionList())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(detectCmd)
}
