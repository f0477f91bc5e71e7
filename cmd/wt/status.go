package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage workflow statuses",
}

var statusAddCmd = &cobra.Command{
	Use:   "add [project-id] [name]",
	Short: "Add a custom workflow status",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("description")
		col, _ := cmd.Flags().GetString("color")
		order, _ := cmd.Flags().GetInt("order")
		s := unwrap(eng.CreateStatus(cmd.Context(), actorID(), service.CreateStatusInput{
			ProjectID:   args[0],
			Name:        args[1],
			Description: desc,
			Color:       col,
			Order:       order,
		}))
		emit(s, func() {
			fmt.Printf("%s Added status %s at position %d (%s)\n", successMark("✓"), boldText(s.Name), s.Order, s.ID)
		})
	},
}

var statusListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List a project's workflow statuses in board order",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		statuses := unwrap(eng.ListStatuses(cmd.Context(), actorID(), args[0]))
		emit(statuses, func() {
			for _, s := range statuses {
				core := ""
				if s.IsCore {
					core = dimText(" (core)")
				}
				fmt.Printf("%2d. %s%s  %s\n", s.Order, s.Name, core, dimText(s.ID))
			}
		})
	},
}

var statusUpdateCmd = &cobra.Command{
	Use:   "update [status-id]",
	Short: "Update a workflow status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in service.UpdateStatusInput
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			in.Description = &v
		}
		if cmd.Flags().Changed("color") {
			v, _ := cmd.Flags().GetString("color")
			in.Color = &v
		}
		if cmd.Flags().Changed("order") {
			v, _ := cmd.Flags().GetInt("order")
			in.Order = &v
		}
		s := unwrap(eng.UpdateStatus(cmd.Context(), actorID(), args[0], in))
		emit(s, func() {
			fmt.Printf("%s Updated status %s\n", successMark("✓"), s.Name)
		})
	},
}

var statusDeleteCmd = &cobra.Command{
	Use:   "delete [status-id]",
	Short: "Delete a custom workflow status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := unwrap(eng.DeleteStatus(cmd.Context(), actorID(), args[0]))
		emit(s, func() {
			fmt.Printf("%s Deleted status %s\n", successMark("✓"), s.Name)
		})
	},
}

var statusReorderCmd = &cobra.Command{
	Use:   "reorder [project-id] [status-id]...",
	Short: "Reorder statuses; listed ids get positions 1..N",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		statuses := unwrap(eng.ReorderStatuses(cmd.Context(), actorID(), args[0], args[1:]))
		emit(statuses, func() {
			for _, s := range statuses {
				fmt.Printf("%2d. %s\n", s.Order, s.Name)
			}
		})
	},
}

func init() {
	statusAddCmd.Flags().String("description", "", "status description")
	statusAddCmd.Flags().String("color", "", "display color, e.g. #ff8800")
	statusAddCmd.Flags().Int("order", 0, "position (0 appends at the end)")

	statusUpdateCmd.Flags().String("name", "", "new name (custom statuses only)")
	statusUpdateCmd.Flags().String("description", "", "new description")
	statusUpdateCmd.Flags().String("color", "", "new color")
	statusUpdateCmd.Flags().Int("order", 0, "new position")

	statusCmd.AddCommand(statusAddCmd, statusListCmd, statusUpdateCmd, statusDeleteCmd, statusReorderCmd)
}
