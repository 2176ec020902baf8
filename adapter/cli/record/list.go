package record

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
)

var (
	filterKind   string
	filterStatus string
	limit        int
	offset       int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List quality records",
	Long: `List quality records with optional filtering.

Filter Options:
  --kind    Filter by record kind (ncr, capa, scar, mrb)
  --status  Filter by status; with --kind the status is validated
            against that kind's lifecycle

Examples:
  veritrail record list                      # Whole register
  veritrail record list --kind ncr           # NCRs only
  veritrail record list -k capa -s open      # Open CAPAs
  veritrail record list --limit 10           # First 10 records`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListRecordsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		query := queries.ListRecordsQuery{
			Kind:   filterKind,
			Status: filterStatus,
			Limit:  limit,
			Offset: offset,
		}

		ctx := cmd.Context()
		records, err := app.ListRecordsHandler.Handle(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		fmt.Printf("Quality Records (%d):\n", len(records))
		fmt.Println(strings.Repeat("-", 60))

		for _, r := range records {
			fmt.Printf("%s %s %s\n", strings.ToUpper(string(r.Kind)), r.Title, getSeverityBadge(r.Severity))
			fmt.Printf("   ID: %s\n", r.ID.String()[:8])
			fmt.Printf("   Status: %s\n", r.Status)
			if r.Owner != "" {
				fmt.Printf("   Owner: %s\n", r.Owner)
			}
			if r.Supplier != "" {
				fmt.Printf("   Supplier: %s\n", r.Supplier)
			}
			if r.PartNumber != "" {
				fmt.Printf("   Part: %s\n", r.PartNumber)
			}
			fmt.Println()
		}

		return nil
	},
}

func getSeverityBadge(severity string) string {
	switch severity {
	case "critical":
		return "(!!!)"
	case "major":
		return "(!)"
	case "minor":
		return "(~)"
	default:
		return ""
	}
}

func init() {
	listCmd.Flags().StringVarP(&filterKind, "kind", "k", "", "filter by record kind (ncr, capa, scar, mrb)")
	listCmd.Flags().StringVarP(&filterStatus, "status", "s", "", "filter by status")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "max number of records to show (0 = no limit)")
	listCmd.Flags().IntVar(&offset, "offset", 0, "number of records to skip")
}
