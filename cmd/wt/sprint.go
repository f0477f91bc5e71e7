package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/timeparsing"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Manage sprints",
}

// parseSprintDate accepts compact durations (+2w), natural language
// ("next monday"), and absolute dates.
func parseSprintDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := timeparsing.ParseRelativeTime(s, time.Now())
	if err != nil {
		FatalError("%v", err)
	}
	return t
}

var sprintCreateCmd = &cobra.Command{
	Use:   "create [project-id] [name]",
	Short: "Create a sprint in planning state",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		goal, _ := cmd.Flags().GetString("goal")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		s := unwrap(eng.CreateSprint(cmd.Context(), actorID(), service.CreateSprintInput{
			ProjectID: args[0],
			Name:      args[1],
			Goal:      goal,
			StartDate: parseSprintDate(start),
			EndDate:   parseSprintDate(end),
		}))
		emit(s, func() {
			fmt.Printf("%s Created sprint %s (%s)\n", successMark("✓"), boldText(s.Name), s.ID)
		})
	},
}

var sprintStartCmd = &cobra.Command{
	Use:   "start [sprint-id]",
	Short: "Start a sprint (planning -> active)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := unwrap(eng.StartSprint(cmd.Context(), actorID(), args[0]))
		emit(s, func() {
			fmt.Printf("%s Sprint %s is now %s\n", successMark("✓"), s.Name, s.Status)
		})
	},
}

var sprintCompleteCmd = &cobra.Command{
	Use:   "complete [sprint-id]",
	Short: "Complete a sprint (active -> completed)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := unwrap(eng.CompleteSprint(cmd.Context(), actorID(), args[0]))
		emit(s, func() {
			fmt.Printf("%s Sprint %s is now %s\n", successMark("✓"), s.Name, s.Status)
		})
	},
}

var sprintUpdateCmd = &cobra.Command{
	Use:   "update [sprint-id]",
	Short: "Update a sprint's name, goal, or dates",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in service.UpdateSprintInput
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
		}
		if cmd.Flags().Changed("goal") {
			v, _ := cmd.Flags().GetString("goal")
			in.Goal = &v
		}
		if cmd.Flags().Changed("start") {
			v, _ := cmd.Flags().GetString("start")
			t := parseSprintDate(v)
			in.StartDate = &t
		}
		if cmd.Flags().Changed("end") {
			v, _ := cmd.Flags().GetString("end")
			t := parseSprintDate(v)
			in.EndDate = &t
		}
		s := unwrap(eng.UpdateSprint(cmd.Context(), actorID(), args[0], in))
		emit(s, func() {
			fmt.Printf("%s Updated sprint %s\n", successMark("✓"), s.Name)
		})
	},
}

var sprintDeleteCmd = &cobra.Command{
	Use:   "delete [sprint-id]",
	Short: "Delete a sprint; its items return to the backlog",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := unwrap(eng.DeleteSprint(cmd.Context(), actorID(), args[0]))
		emit(s, func() {
			fmt.Printf("%s Deleted sprint %s (items moved to backlog)\n", successMark("✓"), s.Name)
		})
	},
}

var sprintListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List a project's sprints",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sprints := unwrap(eng.ListSprints(cmd.Context(), actorID(), args[0]))
		emit(sprints, func() {
			for _, s := range sprints {
				dates := ""
				if !s.StartDate.IsZero() {
					dates = fmt.Sprintf("  %s -> %s", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"))
				}
				fmt.Printf("%s  %-10s %s%s\n", dimText(s.ID), s.Status, s.Name, dimText(dates))
			}
		})
	},
}

func init() {
	sprintCreateCmd.Flags().String("goal", "", "sprint goal")
	sprintCreateCmd.Flags().String("start", "", "start date (2006-01-02, +1w, \"next monday\")")
	sprintCreateCmd.Flags().String("end", "", "end date")

	sprintUpdateCmd.Flags().String("name", "", "new name")
	sprintUpdateCmd.Flags().String("goal", "", "new goal")
	sprintUpdateCmd.Flags().String("start", "", "new start date")
	sprintUpdateCmd.Flags().String("end", "", "new end date")

	sprintCmd.AddCommand(sprintCreateCmd, sprintStartCmd, sprintCompleteCmd,
		sprintUpdateCmd, sprintDeleteCmd, sprintListCmd)
}
