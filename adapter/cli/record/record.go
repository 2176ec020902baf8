package record

import (
	"github.com/spf13/cobra"
)

// Cmd is the record command group
var Cmd = &cobra.Command{
	Use:   "record",
	Short: "Manage quality records",
	Long:  `Create, list, transition, and inspect quality records.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(transitionCmd)
	Cmd.AddCommand(transitionsCmd)
	Cmd.AddCommand(timelineCmd)
	Cmd.AddCommand(historyCmd)
	Cmd.AddCommand(responseCmd)
}
