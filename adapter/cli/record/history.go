package record

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
)

var historyCmd = &cobra.Command{
	Use:     "history [id]",
	Short:   "Show a record's audit trail",
	Long:    `Show every status change applied to a record, oldest first.`,
	Aliases: []string{"audit"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetAuditTrailHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		recordID, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		entries, err := app.GetAuditTrailHandler.Handle(ctx, queries.GetAuditTrailQuery{RecordID: recordID})
		if err != nil {
			return fmt.Errorf("failed to load audit trail: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No status changes recorded.")
			return nil
		}

		fmt.Printf("Audit Trail (%d):\n", len(entries))
		fmt.Println(strings.Repeat("-", 60))

		for _, e := range entries {
			fmt.Printf("%s  %s -> %s  by %s\n",
				e.OccurredAt.Format("2006-01-02 15:04"), e.FromStatus, e.ToStatus, e.Actor)
			if e.Comment != "" {
				fmt.Printf("   %q\n", e.Comment)
			}
		}

		return nil
	},
}
