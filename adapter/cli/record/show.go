package record

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one record with its milestones and available moves",
	Args:  cobra.ExactArgs(1),
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

		fmt.Printf("%s %s\n", strings.ToUpper(string(detail.Kind)), detail.Title)
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("ID:       %s\n", detail.ID)
		fmt.Printf("Status:   %s\n", detail.Status)
		fmt.Printf("Severity: %s %s\n", detail.Severity, getSeverityBadge(detail.Severity))
		if detail.Description != "" {
			fmt.Printf("About:    %s\n", detail.Description)
		}
		if detail.Owner != "" {
			fmt.Printf("Owner:    %s\n", detail.Owner)
		}
		if detail.Supplier != "" {
			fmt.Printf("Supplier: %s\n", detail.Supplier)
		}
		if detail.PartNumber != "" {
			fmt.Printf("Part:     %s\n", detail.PartNumber)
		}
		if len(detail.LotNumbers) > 0 {
			fmt.Printf("Lots:     %s\n", strings.Join(detail.LotNumbers, ", "))
		}
		if len(detail.Tags) > 0 {
			fmt.Printf("Tags:     %s\n", strings.Join(detail.Tags, ", "))
		}
		if detail.ResponseAccepted != nil {
			if *detail.ResponseAccepted {
				fmt.Println("Supplier response: accepted")
			} else {
				fmt.Printf("Supplier response: rejected (%s)\n", detail.RejectionReason)
			}
		}
		fmt.Printf("Updated:  %s (version %d)\n", detail.UpdatedAt.Format("2006-01-02 15:04"), detail.Version)

		fmt.Println()
		fmt.Println("Milestones:")
		for _, m := range detail.Milestones {
			fmt.Printf("  %s %s\n", getStageIcon(m.State), m.Label)
		}

		if len(detail.AvailableTransitions) > 0 {
			fmt.Println()
			fmt.Println("Available transitions:")
			for _, edge := range detail.AvailableTransitions {
				fmt.Printf("  %s -> %s%s\n", edge.Label, edge.To, getGateMarkers(edge))
			}
		}

		return nil
	},
}

func parseRecordID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid record ID: %w", err)
	}
	return id, nil
}

func getStageIcon(state lifecycle.StageState) string {
	switch state {
	case lifecycle.StageCompleted:
		return "[x]"
	case lifecycle.StageCurrent:
		return "[>]"
	case lifecycle.StageSkipped:
		return "[-]"
	default:
		return "[ ]"
	}
}

func getGateMarkers(edge lifecycle.TransitionEdge) string {
	var markers []string
	if edge.RequiresComment {
		markers = append(markers, "comment")
	}
	if edge.RequiresApproval {
		markers = append(markers, "approval")
	}
	if len(markers) == 0 {
		return ""
	}
	return " (requires " + strings.Join(markers, ", ") + ")"
}
