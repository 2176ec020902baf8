package record

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/commands"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

var (
	kind        string
	severity    string
	description string
	owner       string
	supplier    string
	partNumber  string
	lotNumbers  []string
	tags        []string
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new quality record",
	Long: `Create a new quality record with a title and optional properties.
The record starts at its kind's initial status (draft for NCR, CAPA, and
SCAR; pending_review for MRB).

Examples:
  veritrail record create "Cracked housing on lot 7" -k ncr -s major
  veritrail record create "Plating thickness drift" -k scar --supplier "Apex Plating Co"
  veritrail record create "Torque spec escape" -k capa --owner qa.lopez --tag torque`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateRecordHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		title := args[0]

		parsedKind, err := lifecycle.ParseKind(kind)
		if err != nil {
			return fmt.Errorf("invalid kind %q (use ncr, capa, scar, or mrb)", kind)
		}

		createCmd := commands.CreateRecordCommand{
			Kind:        parsedKind,
			Title:       title,
			Description: description,
			Severity:    severity,
			Owner:       owner,
			Supplier:    supplier,
			PartNumber:  partNumber,
			LotNumbers:  lotNumbers,
			Tags:        tags,
			Actor:       cli.CurrentActor(),
		}

		ctx := cmd.Context()
		result, err := app.CreateRecordHandler.Handle(ctx, createCmd)
		if err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}

		fmt.Printf("Record created: %s\n", result.RecordID)
		fmt.Printf("  kind:   %s\n", parsedKind.DisplayName())
		fmt.Printf("  status: %s\n", result.Status)
		if severity != "" {
			fmt.Printf("  severity: %s\n", severity)
		}
		if supplier != "" {
			fmt.Printf("  supplier: %s\n", supplier)
		}

		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&kind, "kind", "k", "ncr", "record kind (ncr, capa, scar, mrb)")
	createCmd.Flags().StringVarP(&severity, "severity", "s", "", "severity (minor, major, critical)")
	createCmd.Flags().StringVar(&description, "description", "", "record description")
	createCmd.Flags().StringVar(&owner, "owner", "", "owning engineer or team")
	createCmd.Flags().StringVar(&supplier, "supplier", "", "supplier name (SCAR)")
	createCmd.Flags().StringVar(&partNumber, "part", "", "affected part number")
	createCmd.Flags().StringSliceVar(&lotNumbers, "lot", nil, "affected lot number (repeatable)")
	createCmd.Flags().StringSliceVar(&tags, "tag", nil, "free-form tag (repeatable)")
}
