package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/types"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage and render boards",
}

var boardShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Render a board with its items",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectID := args[0]
		boardID, _ := cmd.Flags().GetString("board")

		var bv *service.BoardView
		if boardID != "" {
			bv = unwrap(eng.GetBoard(cmd.Context(), actorID(), boardID))
		} else {
			bv = unwrap(eng.GetDefaultBoard(cmd.Context(), actorID(), projectID))
		}
		statuses := unwrap(eng.ListStatuses(cmd.Context(), actorID(), projectID))
		items := unwrap(eng.ListItems(cmd.Context(), actorID(), types.WorkItemFilter{ProjectID: projectID}))

		if cfg.JSON {
			printJSON(map[string]any{"board": bv, "items": items})
			return
		}
		byID := make(map[string]*types.WorkflowStatus, len(statuses))
		for _, s := range statuses {
			byID[s.ID] = s
		}
		fmt.Println(renderBoard(bv.Board, bv.Columns, byID, items))
	},
}

var boardListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List a project's boards",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		boards := unwrap(eng.ListBoards(cmd.Context(), actorID(), args[0]))
		emit(boards, func() {
			for _, b := range boards {
				kind := "personal"
				if b.IsDefault {
					kind = "default"
				}
				fmt.Printf("%s  %-8s %s\n", dimText(b.ID), kind, b.Name)
			}
		})
	},
}

var boardCreateCmd = &cobra.Command{
	Use:   "create [project-id] [name]",
	Short: "Create a personal board forked from the default layout",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		bv := unwrap(eng.CreatePersonalBoard(cmd.Context(), actorID(), args[0], args[1]))
		emit(bv, func() {
			fmt.Printf("%s Created board %s with %d columns (%s)\n",
				successMark("✓"), boldText(bv.Board.Name), len(bv.Columns), bv.Board.ID)
		})
	},
}

var boardColumnsCmd = &cobra.Command{
	Use:   "columns [board-id] [status-id]...",
	Short: "Replace a board's columns with the listed statuses, in order",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		bv := unwrap(eng.SetBoardColumns(cmd.Context(), actorID(), args[0], args[1:]))
		emit(bv, func() {
			fmt.Printf("%s %s now has %d columns\n", successMark("✓"), bv.Board.Name, len(bv.Columns))
		})
	},
}

var boardDeleteCmd = &cobra.Command{
	Use:   "delete [board-id]",
	Short: "Delete a personal board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b := unwrap(eng.DeleteBoard(cmd.Context(), actorID(), args[0]))
		emit(b, func() {
			fmt.Printf("%s Deleted board %s\n", successMark("✓"), b.Name)
		})
	},
}

func init() {
	boardShowCmd.Flags().String("board", "", "board id (default: the project's default board)")

	boardCmd.AddCommand(boardShowCmd, boardListCmd, boardCreateCmd, boardColumnsCmd, boardDeleteCmd)
}

// board rendering styles
var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(24)
	columnTitleStyle = lipgloss.NewStyle().Bold(true)
)

// renderBoard draws the board columns side by side.
func renderBoard(board *types.Board, columns []*types.BoardColumn,
	statuses map[string]*types.WorkflowStatus, items []*types.WorkItem) string {

	byStatus := map[string][]*types.WorkItem{}
	for _, w := range items {
		byStatus[w.StatusID] = append(byStatus[w.StatusID], w)
	}

	var rendered []string
	for _, col := range columns {
		title := col.StatusID
		titleStyle := columnTitleStyle
		if s, ok := statuses[col.StatusID]; ok {
			title = s.Name
			if s.Color != "" {
				titleStyle = titleStyle.Foreground(lipgloss.Color(s.Color))
			}
		}
		body := titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(byStatus[col.StatusID])))
		for _, w := range byStatus[col.StatusID] {
			body += fmt.Sprintf("\n#%d %s", w.ItemNumber, truncate(w.Title, 20))
		}
		rendered = append(rendered, columnStyle.Render(body))
	}

	header := lipgloss.NewStyle().Bold(true).Render(board.Name)
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
