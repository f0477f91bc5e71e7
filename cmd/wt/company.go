package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies",
}

var companyRegisterCmd = &cobra.Command{
	Use:   "register [name]",
	Short: "Register a new company with its first superadmin user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("admin-email")
		name, _ := cmd.Flags().GetString("admin-name")
		out := unwrap(eng.RegisterCompany(cmd.Context(), service.RegisterCompanyInput{
			Name:       args[0],
			AdminEmail: email,
			AdminName:  name,
		}))
		emit(out, func() {
			fmt.Printf("%s Registered company %s (%s)\n", successMark("✓"), boldText(out.Company.Name), out.Company.ID)
			fmt.Printf("  superadmin: %s <%s> (%s)\n", out.Admin.Name, out.Admin.Email, out.Admin.ID)
			fmt.Printf("  %s\n", dimText("run commands with --actor "+out.Admin.ID))
		})
	},
}

var companyShowCmd = &cobra.Command{
	Use:   "show [company-id]",
	Short: "Show a company",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := unwrap(eng.GetCompany(cmd.Context(), actorID(), args[0]))
		emit(c, func() {
			fmt.Printf("%s (%s)\n", boldText(c.Name), c.ID)
			fmt.Printf("  active: %v  created: %s\n", c.IsActive, c.CreatedAt.Format("2006-01-02"))
		})
	},
}

var companyUpdateCmd = &cobra.Command{
	Use:   "update [company-id]",
	Short: "Rename or (de)activate a company",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in service.UpdateCompanyInput
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
		}
		if cmd.Flags().Changed("active") {
			v, _ := cmd.Flags().GetBool("active")
			in.IsActive = &v
		}
		c := unwrap(eng.UpdateCompany(cmd.Context(), actorID(), args[0], in))
		emit(c, func() {
			fmt.Printf("%s Updated company %s\n", successMark("✓"), boldText(c.Name))
		})
	},
}

var companyDeleteCmd = &cobra.Command{
	Use:   "delete [company-id]",
	Short: "Delete a company (soft delete, superadmin only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := unwrap(eng.DeleteCompany(cmd.Context(), actorID(), args[0]))
		emit(c, func() {
			fmt.Printf("%s Deleted company %s\n", successMark("✓"), c.Name)
		})
	},
}

func init() {
	companyRegisterCmd.Flags().String("admin-email", "", "email of the first (superadmin) user")
	companyRegisterCmd.Flags().String("admin-name", "", "name of the first user")
	_ = companyRegisterCmd.MarkFlagRequired("admin-email")

	companyUpdateCmd.Flags().String("name", "", "new company name")
	companyUpdateCmd.Flags().Bool("active", true, "whether the company is active")

	companyCmd.AddCommand(companyRegisterCmd, companyShowCmd, companyUpdateCmd, companyDeleteCmd)
}
