package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/types"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage work items",
}

var itemCreateCmd = &cobra.Command{
	Use:   "create [project-id] [title]",
	Short: "Create a work item",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("description")
		typ, _ := cmd.Flags().GetString("type")
		priority, _ := cmd.Flags().GetInt("priority")
		assignee, _ := cmd.Flags().GetString("assignee")
		sprint, _ := cmd.Flags().GetString("sprint")
		parent, _ := cmd.Flags().GetString("parent")
		w := unwrap(eng.CreateItem(cmd.Context(), actorID(), service.CreateItemInput{
			ProjectID:   args[0],
			Title:       args[1],
			Description: desc,
			Type:        types.WorkItemType(typ),
			Priority:    priority,
			AssignedTo:  assignee,
			SprintID:    sprint,
			ParentID:    parent,
		}))
		emit(w, func() {
			fmt.Printf("%s Created %s #%d: %s (%s)\n", successMark("✓"), w.Type, w.ItemNumber, boldText(w.Title), w.ID)
		})
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List work items",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filter := types.WorkItemFilter{ProjectID: args[0]}
		if cmd.Flags().Changed("status") {
			filter.StatusID, _ = cmd.Flags().GetString("status")
		}
		if cmd.Flags().Changed("sprint") {
			filter.SprintID, _ = cmd.Flags().GetString("sprint")
		}
		if cmd.Flags().Changed("backlog") {
			v, _ := cmd.Flags().GetBool("backlog")
			filter.Backlog = &v
		}
		if cmd.Flags().Changed("type") {
			s, _ := cmd.Flags().GetString("type")
			t := types.WorkItemType(s)
			filter.Type = &t
		}
		if cmd.Flags().Changed("assignee") {
			filter.AssignedTo, _ = cmd.Flags().GetString("assignee")
		}
		if cmd.Flags().Changed("limit") {
			filter.Limit, _ = cmd.Flags().GetInt("limit")
		}
		items := unwrap(eng.ListItems(cmd.Context(), actorID(), filter))
		emit(items, func() {
			for _, w := range items {
				line := fmt.Sprintf("#%-4d P%d %-8s %s", w.ItemNumber, w.Priority, w.Type, w.Title)
				if w.AssignedTo != "" {
					line += dimText("  @" + w.AssignedTo)
				}
				fmt.Printf("%s  %s\n", dimText(w.ID), line)
			}
		})
	},
}

var itemShowCmd = &cobra.Command{
	Use:   "show [item-id]",
	Short: "Show a work item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := unwrap(eng.GetItem(cmd.Context(), actorID(), args[0]))
		emit(w, func() {
			fmt.Printf("%s #%d: %s (%s)\n", w.Type, w.ItemNumber, boldText(w.Title), w.ID)
			if w.Description != "" {
				fmt.Printf("  %s\n", w.Description)
			}
			fmt.Printf("  priority: P%d  status: %s\n", w.Priority, w.StatusID)
			if w.AssignedTo != "" {
				fmt.Printf("  assignee: %s\n", w.AssignedTo)
			}
			if w.SprintID != "" {
				fmt.Printf("  sprint: %s\n", w.SprintID)
			} else if w.IsInBacklog {
				fmt.Printf("  backlog\n")
			}
			if w.ParentID != "" {
				fmt.Printf("  parent: %s\n", w.ParentID)
			}
		})
	},
}

var itemUpdateCmd = &cobra.Command{
	Use:   "update [item-id]",
	Short: "Update a work item",
	Long: `Update a work item. Use --parent 0 to detach the item from its
parent, --backlog to move it back to the backlog.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in service.UpdateItemInput
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			in.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			in.Description = &v
		}
		if cmd.Flags().Changed("type") {
			s, _ := cmd.Flags().GetString("type")
			t := types.WorkItemType(s)
			in.Type = &t
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetInt("priority")
			in.Priority = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			in.StatusID = &v
		}
		if cmd.Flags().Changed("assignee") {
			v, _ := cmd.Flags().GetString("assignee")
			in.AssignedTo = &v
		}
		if cmd.Flags().Changed("sprint") {
			v, _ := cmd.Flags().GetString("sprint")
			in.SprintID = &v
		}
		if cmd.Flags().Changed("backlog") {
			v, _ := cmd.Flags().GetBool("backlog")
			in.Backlog = &v
		}
		if cmd.Flags().Changed("parent") {
			v, _ := cmd.Flags().GetString("parent")
			in.ParentID = &v
		}
		w := unwrap(eng.UpdateItem(cmd.Context(), actorID(), args[0], in))
		emit(w, func() {
			fmt.Printf("%s Updated #%d: %s\n", successMark("✓"), w.ItemNumber, w.Title)
		})
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete [item-id]",
	Short: "Delete a work item (soft delete)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := unwrap(eng.DeleteItem(cmd.Context(), actorID(), args[0]))
		emit(w, func() {
			fmt.Printf("%s Deleted #%d: %s\n", successMark("✓"), w.ItemNumber, w.Title)
		})
	},
}

func init() {
	itemCreateCmd.Flags().String("description", "", "item description")
	itemCreateCmd.Flags().String("type", "task", "item type (epic|feature|story|task|bug|subtask)")
	itemCreateCmd.Flags().Int("priority", 2, "priority 0 (critical) to 4 (trivial)")
	itemCreateCmd.Flags().String("assignee", "", "assignee user id")
	itemCreateCmd.Flags().String("sprint", "", "sprint id (omit for backlog)")
	itemCreateCmd.Flags().String("parent", "", "parent item id")

	itemListCmd.Flags().String("status", "", "filter by status id")
	itemListCmd.Flags().String("sprint", "", "filter by sprint id")
	itemListCmd.Flags().Bool("backlog", false, "only backlog items")
	itemListCmd.Flags().String("type", "", "filter by type")
	itemListCmd.Flags().String("assignee", "", "filter by assignee")
	itemListCmd.Flags().Int("limit", 0, "max results")

	itemUpdateCmd.Flags().String("title", "", "new title")
	itemUpdateCmd.Flags().String("description", "", "new description")
	itemUpdateCmd.Flags().String("type", "", "new type")
	itemUpdateCmd.Flags().Int("priority", 2, "new priority")
	itemUpdateCmd.Flags().String("status", "", "new status id")
	itemUpdateCmd.Flags().String("assignee", "", "new assignee (empty clears)")
	itemUpdateCmd.Flags().String("sprint", "", "sprint id (empty moves to backlog)")
	itemUpdateCmd.Flags().Bool("backlog", false, "move to backlog")
	itemUpdateCmd.Flags().String("parent", "", "parent item id (0 detaches)")

	itemCmd.AddCommand(itemCreateCmd, itemListCmd, itemShowCmd, itemUpdateCmd, itemDeleteCmd)
}
