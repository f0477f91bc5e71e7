package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/types"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage project memberships",
}

var memberAddCmd = &cobra.Command{
	Use:   "add [project-id] [user-id]",
	Short: "Add a user to a project",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		role, _ := cmd.Flags().GetString("role")
		m := unwrap(eng.AddMember(cmd.Context(), actorID(), args[0], args[1], types.ProjectRole(role)))
		emit(m, func() {
			fmt.Printf("%s Added %s to project as %s\n", successMark("✓"), m.UserID, m.Role)
		})
	},
}

var memberRoleCmd = &cobra.Command{
	Use:   "role [project-id] [user-id] [role]",
	Short: "Change a member's project role",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		m := unwrap(eng.UpdateMemberRole(cmd.Context(), actorID(), args[0], args[1], types.ProjectRole(args[2])))
		emit(m, func() {
			fmt.Printf("%s %s is now project %s\n", successMark("✓"), m.UserID, m.Role)
		})
	},
}

var memberRemoveCmd = &cobra.Command{
	Use:   "remove [project-id] [user-id]",
	Short: "Remove a user from a project",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		unwrap(eng.RemoveMember(cmd.Context(), actorID(), args[0], args[1]))
		if cfg.JSON {
			printJSON(map[string]string{"removed": args[1]})
			return
		}
		fmt.Printf("%s Removed %s from the project\n", successMark("✓"), args[1])
	},
}

var memberListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List members of a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		members := unwrap(eng.ListMembers(cmd.Context(), actorID(), args[0]))
		emit(members, func() {
			for _, m := range members {
				fmt.Printf("%-10s %s\n", m.Role, m.UserID)
			}
		})
	},
}

func init() {
	memberAddCmd.Flags().String("role", "member", "project role (viewer|member|manager|admin)")

	memberCmd.AddCommand(memberAddCmd, memberRoleCmd, memberRemoveCmd, memberListCmd)
}
