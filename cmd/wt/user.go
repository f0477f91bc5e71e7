package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/types"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Register a user in the actor's company",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		manager, _ := cmd.Flags().GetString("manager")
		u := unwrap(eng.RegisterUser(cmd.Context(), actorID(), service.RegisterUserInput{
			Email:     args[0],
			Name:      name,
			Role:      types.SystemRole(role),
			ManagerID: manager,
		}))
		emit(u, func() {
			fmt.Printf("%s Added %s <%s> as %s (%s)\n", successMark("✓"), u.Name, u.Email, u.Role, u.ID)
		})
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users in the actor's company",
	Run: func(cmd *cobra.Command, args []string) {
		users := unwrap(eng.ListUsers(cmd.Context(), actorID()))
		emit(users, func() {
			for _, u := range users {
				line := fmt.Sprintf("%-12s %s <%s>", u.Role, u.Name, u.Email)
				if u.ManagerID != "" {
					line += dimText("  manager=" + u.ManagerID)
				}
				fmt.Printf("%s  %s\n", dimText(u.ID), line)
			}
		})
	},
}

var userRoleCmd = &cobra.Command{
	Use:   "role [user-id] [role]",
	Short: "Change a user's system role",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		manager, _ := cmd.Flags().GetString("manager")
		u := unwrap(eng.UpdateUserRole(cmd.Context(), actorID(), args[0], types.SystemRole(args[1]), manager))
		emit(u, func() {
			fmt.Printf("%s %s is now %s\n", successMark("✓"), u.Email, u.Role)
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [user-id]",
	Short: "Delete a user (soft delete)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := unwrap(eng.DeleteUser(cmd.Context(), actorID(), args[0]))
		emit(u, func() {
			fmt.Printf("%s Deleted %s\n", successMark("✓"), u.Email)
		})
	},
}

var userTransferCmd = &cobra.Command{
	Use:   "transfer-superadmin [user-id]",
	Short: "Transfer the superadmin role to an admin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := unwrap(eng.TransferSuperAdmin(cmd.Context(), actorID(), args[0]))
		emit(u, func() {
			fmt.Printf("%s %s is now the superadmin\n", successMark("✓"), u.Email)
		})
	},
}

func init() {
	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("role", "member", "system role (member|qa|manager|admin)")
	userAddCmd.Flags().String("manager", "", "manager user id (required for member/qa)")
	userRoleCmd.Flags().String("manager", "", "manager user id (required when moving to member/qa)")

	userCmd.AddCommand(userAddCmd, userListCmd, userRoleCmd, userDeleteCmd, userTransferCmd)
}
