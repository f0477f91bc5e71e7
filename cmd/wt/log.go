package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/types"
)

var logCmd = &cobra.Command{
	Use:   "log [project-id]",
	Short: "Show the audit trail for a project, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filter := types.ActivityFilter{ProjectID: args[0]}
		if cmd.Flags().Changed("item") {
			filter.WorkItemID, _ = cmd.Flags().GetString("item")
		}
		if cmd.Flags().Changed("ticket") {
			filter.FileTicketID, _ = cmd.Flags().GetString("ticket")
		}
		if cmd.Flags().Changed("user") {
			filter.UserID, _ = cmd.Flags().GetString("user")
		}
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		entries := unwrap(eng.ListActivity(cmd.Context(), actorID(), filter))
		emit(entries, func() {
			for _, e := range entries {
				change := ""
				if e.OldValue != "" || e.NewValue != "" {
					change = dimText(fmt.Sprintf("  %s -> %s", e.OldValue, e.NewValue))
				}
				fmt.Printf("%s  %-14s %-15s %s%s\n",
					dimText(e.CreatedAt.Format("2006-01-02 15:04")),
					e.Action, e.EntityType, e.EntityID, change)
			}
		})
	},
}

func init() {
	logCmd.Flags().String("item", "", "filter by work item id")
	logCmd.Flags().String("ticket", "", "filter by file ticket id")
	logCmd.Flags().String("user", "", "filter by acting user id")
	logCmd.Flags().Int("limit", 50, "max entries")
}
