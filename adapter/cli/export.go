package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
)

var (
	exportFormat string
	exportOutput string
	exportKind   string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the quality register",
	Long: `Export the quality register to CSV or XLSX for reporting and
external review.

Examples:
  veritrail export                           # Full register as CSV to stdout
  veritrail export -f xlsx -o register.xlsx  # Excel workbook to a file
  veritrail export --kind ncr --status open  # Open NCRs only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ExportRegisterHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		result, err := app.ExportRegisterHandler.Handle(cmd.Context(), queries.ExportRegisterQuery{
			Kind:   exportKind,
			Status: exportStatus,
			Format: exportFormat,
		})
		if err != nil {
			return fmt.Errorf("failed to export register: %w", err)
		}

		output := exportOutput
		if output == "" && exportFormat == queries.FormatXLSX {
			// Workbooks are binary; never dump them on a terminal.
			output = result.Filename
		}

		if output != "" {
			if err := os.WriteFile(output, result.Data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Exported register to %s (%d bytes)\n", output, len(result.Data))
			return nil
		}

		_, err = os.Stdout.Write(result.Data)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "export format (csv, xlsx)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout for csv)")
	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", "", "filter by record kind (ncr, capa, scar, mrb)")
	exportCmd.Flags().StringVarP(&exportStatus, "status", "s", "", "filter by status")

	rootCmd.AddCommand(exportCmd)
}
