package record

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/commands"
)

var (
	responseAccept bool
	responseReject bool
	responseReason string
)

var responseCmd = &cobra.Command{
	Use:   "response [id]",
	Short: "Record a supplier's response on a SCAR",
	Long: `Record whether the supplier accepted or rejected a corrective action request.

Examples:
  veritrail record response 4f8a2c1e --accept
  veritrail record response 4f8a2c1e --reject --reason "Root cause disputed"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SupplierResponseHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		if responseAccept == responseReject {
			return fmt.Errorf("pass exactly one of --accept or --reject")
		}

		recordID, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		err = app.SupplierResponseHandler.Handle(ctx, commands.RecordSupplierResponseCommand{
			RecordID:        recordID,
			Accepted:        responseAccept,
			RejectionReason: responseReason,
			Actor:           cli.CurrentActor(),
		})
		if err != nil {
			return fmt.Errorf("failed to record supplier response: %w", err)
		}

		if responseAccept {
			fmt.Printf("Supplier response recorded: accepted\n")
		} else {
			fmt.Printf("Supplier response recorded: rejected (%s)\n", responseReason)
		}

		return nil
	},
}

func init() {
	responseCmd.Flags().BoolVar(&responseAccept, "accept", false, "supplier accepted the corrective action request")
	responseCmd.Flags().BoolVar(&responseReject, "reject", false, "supplier rejected the corrective action request")
	responseCmd.Flags().StringVar(&responseReason, "reason", "", "rejection reason (with --reject)")
}
