package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MichaelPico/job-offer-analyzer/internal/export"
	"github.com/MichaelPico/job-offer-analyzer/internal/snapshot"
)

var (
	exportSnapshot string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the snapshot to a spreadsheet",
	Long: `Reads the JSON snapshot and writes it to an .xlsx workbook without crawling.

Examples:
  scraper export
  scraper export --snapshot output/jobs.json --out /tmp/jobs.xlsx`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportSnapshot, "snapshot", "", "snapshot to read (default from config)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "spreadsheet to write (default from config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	in := cfg.Output.SnapshotPath
	if exportSnapshot != "" {
		in = exportSnapshot
	}
	out := cfg.Output.ExcelPath
	if exportOut != "" {
		out = exportOut
	}
	if out == "" {
		return fmt.Errorf("no spreadsheet path: set output.excel_path or --out")
	}

	records, err := snapshot.Load(in, logger)
	if err != nil {
		return err
	}
	if err := export.WriteExcel(out, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d jobs to %s\n", len(records), out)
	return nil
}
