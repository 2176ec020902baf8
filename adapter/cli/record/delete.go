package record

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/commands"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a draft record",
	Long: `Delete a record that is still at its initial status. Once a record
has moved it is part of the quality history and can only be closed or
cancelled, never deleted.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DeleteRecordHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		recordID, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		err = app.DeleteRecordHandler.Handle(ctx, commands.DeleteRecordCommand{
			RecordID: recordID,
			Actor:    cli.CurrentActor(),
		})
		if err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}

		fmt.Printf("Record deleted: %s\n", recordID)
		return nil
	},
}
