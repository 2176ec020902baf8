package record

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline [id]",
	Short: "Show a record's milestone timeline",
	Long: `Show a record's canonical milestones with the date each one was
reached. Milestones not yet reached have no date; stages bypassed on a
withdraw or cancel are marked as skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetTimelineHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		recordID, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		items, err := app.GetTimelineHandler.Handle(ctx, queries.GetTimelineQuery{RecordID: recordID})
		if err != nil {
			return fmt.Errorf("failed to build timeline: %w", err)
		}

		for _, item := range items {
			date := ""
			if item.Date != nil {
				date = item.Date.Format("2006-01-02")
			}
			fmt.Printf("%s %-24s %s\n", getStageIcon(item.State), item.Label, date)
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && item.Tooltip != "" {
				fmt.Printf("      %s\n", item.Tooltip)
			}
		}

		return nil
	},
}
