package record

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/commands"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

var transitionComment string

var transitionCmd = &cobra.Command{
	Use:   "transition [id] [to-status]",
	Short: "Move a record to a new status",
	Long: `Move a record to a new status. The move must be an edge in the
record kind's rule table; some edges require a comment, some require an
approver role. Run 'veritrail record transitions [id]' to see what is
allowed from the current status.

Examples:
  veritrail record transition 4f9d... open
  veritrail record transition 4f9d... closed -m "Contained, scrap approved"`,
	Aliases: []string{"move"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.TransitionRecordHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		recordID, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		result, err := app.TransitionRecordHandler.Handle(ctx, commands.TransitionRecordCommand{
			RecordID: recordID,
			ToStatus: lifecycle.Status(args[1]),
			Actor:    cli.CurrentActor(),
			Comment:  transitionComment,
		})
		if err != nil {
			return fmt.Errorf("failed to transition record: %w", err)
		}

		fmt.Printf("%s: %s -> %s\n", result.Label, result.FromStatus, result.ToStatus)
		return nil
	},
}

var transitionsCmd = &cobra.Command{
	Use:     "transitions [id]",
	Short:   "List the moves allowed from a record's current status",
	Aliases: []string{"actions"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetRecordHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		recordID, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		detail, err := app.GetRecordHandler.Handle(ctx, queries.GetRecordQuery{RecordID: recordID})
		if err != nil {
			return fmt.Errorf("failed to load record: %w", err)
		}

		if len(detail.AvailableTransitions) == 0 {
			fmt.Printf("No transitions available from %s.\n", detail.Status)
			return nil
		}

		fmt.Printf("From %s:\n", detail.Status)
		for _, edge := range detail.AvailableTransitions {
			fmt.Printf("  %-24s -> %s%s\n", edge.Label, edge.To, getGateMarkers(edge))
		}

		return nil
	},
}

func init() {
	transitionCmd.Flags().StringVarP(&transitionComment, "comment", "m", "", "rationale recorded with the move")
}
