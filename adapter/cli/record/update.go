package record

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/commands"
)

var (
	updateTitle       string
	updateDescription string
	updateSeverity    string
	updateOwner       string
	updateSupplier    string
	updatePart        string
	updateLots        []string
	updateTags        []string
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a record's descriptive fields",
	Long: `Update a record's descriptive fields. Only flags you pass change;
everything else stays as it is. Closed and cancelled records reject edits.

Examples:
  veritrail record update 4f9d... --severity critical
  veritrail record update 4f9d... --owner qe.marsh --tag resolder`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateRecordHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		recordID, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		updateCmd := commands.UpdateRecordCommand{
			RecordID: recordID,
			Actor:    cli.CurrentActor(),
		}

		// Flags that were not passed stay nil so the handler leaves those
		// fields alone.
		flags := cmd.Flags()
		if flags.Changed("title") {
			updateCmd.Title = &updateTitle
		}
		if flags.Changed("description") {
			updateCmd.Description = &updateDescription
		}
		if flags.Changed("severity") {
			updateCmd.Severity = &updateSeverity
		}
		if flags.Changed("owner") {
			updateCmd.Owner = &updateOwner
		}
		if flags.Changed("supplier") {
			updateCmd.Supplier = &updateSupplier
		}
		if flags.Changed("part") {
			updateCmd.PartNumber = &updatePart
		}
		if flags.Changed("lot") {
			updateCmd.LotNumbers = &updateLots
		}
		if flags.Changed("tag") {
			updateCmd.Tags = &updateTags
		}

		ctx := cmd.Context()
		if err := app.UpdateRecordHandler.Handle(ctx, updateCmd); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}

		fmt.Printf("Record updated: %s\n", recordID)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
	updateCmd.Flags().StringVar(&updateSeverity, "severity", "", "new severity (minor, major, critical)")
	updateCmd.Flags().StringVar(&updateOwner, "owner", "", "new owner")
	updateCmd.Flags().StringVar(&updateSupplier, "supplier", "", "new supplier")
	updateCmd.Flags().StringVar(&updatePart, "part", "", "new part number")
	updateCmd.Flags().StringSliceVar(&updateLots, "lot", nil, "replacement lot numbers (repeatable)")
	updateCmd.Flags().StringSliceVar(&updateTags, "tag", nil, "replacement tags (repeatable)")
}
