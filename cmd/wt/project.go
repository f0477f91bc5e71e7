package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a project (seeds core statuses and the default board)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, _ := cmd.Flags().GetString("key")
		desc, _ := cmd.Flags().GetString("description")
		manager, _ := cmd.Flags().GetString("manager")
		p := unwrap(eng.CreateProject(cmd.Context(), actorID(), service.CreateProjectInput{
			Name:        args[0],
			Key:         key,
			Description: desc,
			ManagerID:   manager,
		}))
		emit(p, func() {
			fmt.Printf("%s Created project %s [%s] (%s)\n", successMark("✓"), boldText(p.Name), p.Key, p.ID)
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects visible to the actor",
	Run: func(cmd *cobra.Command, args []string) {
		projects := unwrap(eng.ListProjects(cmd.Context(), actorID()))
		emit(projects, func() {
			for _, p := range projects {
				state := ""
				if !p.IsActive {
					state = warnMark(" (inactive)")
				}
				fmt.Printf("%s  [%s] %s%s\n", dimText(p.ID), p.Key, p.Name, state)
			}
		})
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := unwrap(eng.GetProject(cmd.Context(), actorID(), args[0]))
		emit(p, func() {
			fmt.Printf("%s [%s] (%s)\n", boldText(p.Name), p.Key, p.ID)
			if p.Description != "" {
				fmt.Printf("  %s\n", p.Description)
			}
			fmt.Printf("  active: %v  created: %s by %s\n", p.IsActive, p.CreatedAt.Format("2006-01-02"), p.CreatedBy)
		})
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update [project-id]",
	Short: "Update a project's name, description, or active flag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in service.UpdateProjectInput
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			in.Description = &v
		}
		if cmd.Flags().Changed("active") {
			v, _ := cmd.Flags().GetBool("active")
			in.IsActive = &v
		}
		p := unwrap(eng.UpdateProject(cmd.Context(), actorID(), args[0], in))
		emit(p, func() {
			fmt.Printf("%s Updated %s\n", successMark("✓"), p.Name)
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [project-id]",
	Short: "Delete a project (soft delete)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := unwrap(eng.DeleteProject(cmd.Context(), actorID(), args[0]))
		emit(p, func() {
			fmt.Printf("%s Deleted project %s\n", successMark("✓"), p.Name)
		})
	},
}

func init() {
	projectCreateCmd.Flags().String("key", "", "short uppercase project key, e.g. ACM")
	projectCreateCmd.Flags().String("description", "", "project description")
	projectCreateCmd.Flags().String("manager", "", "user id added as project manager")
	_ = projectCreateCmd.MarkFlagRequired("key")

	projectUpdateCmd.Flags().String("name", "", "new name")
	projectUpdateCmd.Flags().String("description", "", "new description")
	projectUpdateCmd.Flags().Bool("active", true, "active flag")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectShowCmd, projectUpdateCmd, projectDeleteCmd)
}
